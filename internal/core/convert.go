package core

// convert.go turns parsed delimited rows into PointRecords.
//
// Recognized columns (matched by exact lowercase name, the way they are
// exported) fill the descriptive fields:
//   - id            -> ID, else point_<row>
//   - name          -> Name, else title when there is no name column, else Point <row>
//   - description   -> Description
//   - status        -> Status, else "active"
//   - group         -> Group
//
// Every other non-coordinate column, ID or Name included, is copied verbatim
// into Properties as a string.

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// RowsToPoints converts parsed rows using resolved coordinate fields.
// Rows with an empty coordinate cell are skipped with a warning; unparsable or
// out-of-range coordinates are skipped with an error entry.
func RowsToPoints(rows []ParsedRow, fields CoordinateFields, now time.Time) ImportResult[PointRecord] {
	b := &resultBuilder{}
	if !fields.Resolved() {
		return b.fatal(CodeMissingCoordinates, "Latitude and longitude fields must both be provided")
	}
	return b.points(rowsToPoints(rows, fields, now.UnixMilli(), b))
}

func rowsToPoints(rows []ParsedRow, fields CoordinateFields, nowMs int64, b *resultBuilder) []PointRecord {
	points := make([]PointRecord, 0, len(rows))
	for _, row := range rows {
		if p, ok := rowToPoint(row, fields, nowMs, b); ok {
			points = append(points, p)
		}
	}
	return points
}

func rowToPoint(row ParsedRow, fields CoordinateFields, nowMs int64, b *resultBuilder) (PointRecord, bool) {
	latRaw := row.Values[fields.LatField]
	lngRaw := row.Values[fields.LngField]

	if latRaw == "" || lngRaw == "" {
		b.warn("Line %d: Missing coordinate values", row.Line)
		return PointRecord{}, false
	}

	lat, ok := parseFinite(latRaw)
	if !ok {
		b.rowError(row.Line, CodeInvalidCoordinate, fields.LatField, latRaw,
			"Line %d: Invalid latitude value %q", row.Line, latRaw)
		return PointRecord{}, false
	}
	lng, ok := parseFinite(lngRaw)
	if !ok {
		b.rowError(row.Line, CodeInvalidCoordinate, fields.LngField, lngRaw,
			"Line %d: Invalid longitude value %q", row.Line, lngRaw)
		return PointRecord{}, false
	}

	if v := ValidateCoordinates(lat, lng); !v.IsValid {
		b.rangeError(row.Line, latRaw+", "+lngRaw, fmt.Sprintf("Line %d: Invalid coordinates (%s, %s) - %s",
			row.Line, latRaw, lngRaw, strings.Join(v.Errors, ", ")))
		return PointRecord{}, false
	}

	p := PointRecord{
		Position:   Position{Lat: lat, Lng: lng},
		Properties: make(map[string]any),
		Status:     DefaultStatus,
		CreatedAt:  nowMs,
		UpdatedAt:  nowMs,
	}

	recognized := descriptiveColumns(row.Values)
	for header, value := range row.Values {
		if header == fields.LatField || header == fields.LngField || recognized[header] {
			continue
		}
		p.Properties[header] = value
	}

	p.ID = row.Values["id"]
	p.Description = row.Values["description"]
	p.Group = row.Values["group"]
	if status := row.Values["status"]; status != "" {
		p.Status = status
	}
	name := row.Values["name"]
	if recognized["title"] {
		name = row.Values["title"]
	}

	if p.ID == "" {
		p.ID = "point_" + strconv.Itoa(row.Index)
	}
	p.Name = name
	if p.Name == "" {
		p.Name = "Point " + strconv.Itoa(row.Index)
	}
	return p, true
}

// descriptiveColumns reports which headers of a row fill PointRecord fields.
// title only stands in for a missing name column; next to one it is a property.
func descriptiveColumns(values RowDict) map[string]bool {
	cols := make(map[string]bool, 5)
	for _, h := range []string{"id", "name", "description", "status", "group"} {
		if _, ok := values[h]; ok {
			cols[h] = true
		}
	}
	if _, ok := values["title"]; ok && !cols["name"] {
		cols["title"] = true
	}
	return cols
}
