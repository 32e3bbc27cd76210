package core

import (
	"encoding/json"
	"fmt"
	"slices"
	"strconv"
	"strings"

	mapset "github.com/deckarep/golang-set/v2"
)

// StandardColumns is the fixed leading header of every delimited export.
var StandardColumns = []string{"id", "name", "lat", "lng", "description", "status", "group"}

// ExportDelimited renders points as comma-separated text.
//
// The header is StandardColumns followed by fieldOrder when given, otherwise by
// the alphabetically sorted union of property keys when includeCustomFields is set.
// Property keys that collide with a standard column are never emitted twice.
func ExportDelimited(points []PointRecord, includeCustomFields bool, fieldOrder []string) string {
	custom := customColumns(points, includeCustomFields, fieldOrder)
	columns := append(slices.Clone(StandardColumns), custom...)

	var sb strings.Builder
	writeRecord(&sb, columns)
	for _, p := range points {
		record := make([]string, len(columns))
		for i, col := range columns {
			record[i] = columnValue(p, col, i >= len(StandardColumns))
		}
		writeRecord(&sb, record)
	}
	return sb.String()
}

func customColumns(points []PointRecord, includeCustomFields bool, fieldOrder []string) []string {
	standard := mapset.NewSet(StandardColumns...)

	if fieldOrder != nil {
		seen := mapset.NewSet[string]()
		out := make([]string, 0, len(fieldOrder))
		for _, f := range fieldOrder {
			if f == "" || standard.Contains(f) || !seen.Add(f) {
				continue
			}
			out = append(out, f)
		}
		return out
	}

	if !includeCustomFields {
		return nil
	}
	keys := mapset.NewSet[string]()
	for _, p := range points {
		for k := range p.Properties {
			if k != "" && !standard.Contains(k) {
				keys.Add(k)
			}
		}
	}
	out := keys.ToSlice()
	slices.Sort(out)
	return out
}

func columnValue(p PointRecord, col string, custom bool) string {
	if custom {
		return formatProperty(p.Properties[col])
	}
	switch col {
	case "id":
		return p.ID
	case "name":
		return p.Name
	case "lat":
		return formatCoordinate(p.Position.Lat)
	case "lng":
		return formatCoordinate(p.Position.Lng)
	case "description":
		return p.Description
	case "status":
		return p.Status
	case "group":
		return p.Group
	}
	return ""
}

// formatCoordinate uses the shortest representation that round-trips.
func formatCoordinate(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func formatProperty(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	case int, int64, int32:
		return fmt.Sprint(val)
	default:
		if data, err := json.Marshal(val); err == nil {
			return string(data)
		}
		return fmt.Sprint(val)
	}
}

// writeRecord writes one line. Values needing quotes (see needsQuotes) are quoted
// with internal quotes doubled; embedded newlines are flattened to spaces
// because a record never spans lines.
func writeRecord(sb *strings.Builder, values []string) {
	for i, v := range values {
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString(escapeValue(v))
	}
	sb.WriteByte('\n')
}

func escapeValue(v string) string {
	if strings.ContainsAny(v, "\r\n") {
		v = strings.NewReplacer("\r\n", " ", "\n", " ", "\r", " ").Replace(v)
	}
	if needsQuotes(v) {
		return `"` + strings.ReplaceAll(v, `"`, `""`) + `"`
	}
	return v
}

// needsQuotes also covers values the importer would otherwise clean: padding
// and a leading single quote.
func needsQuotes(v string) bool {
	return strings.ContainsAny(v, `,"`) || v != strings.TrimSpace(v) || strings.HasPrefix(v, "'")
}
