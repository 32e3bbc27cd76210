package core

// fieldtype.go infers column types from sampled delimited-text values.
//
// Detection is a dominance vote over the non-empty sample, checked in a fixed order:
//  1. boolean (>= 80% boolean literals)
//  2. date    (>= 70% parse as a date and are longer than 6 characters)
//  3. number  (>= 80% parse as finite floats)
//  4. string
//
// Boolean must be checked first: "1" and "0" would otherwise win the number vote.

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Dominance thresholds against the non-empty sample count.
const (
	booleanThreshold = 0.8
	dateThreshold    = 0.7
	numberThreshold  = 0.8

	// minDateLength guards against short numeric strings parsing as dates.
	minDateLength = 6
)

var booleanLiterals = map[string]bool{
	"true": true, "false": true,
	"1": true, "0": true,
	"yes": true, "no": true,
	"y": true, "n": true,
}

// dateLayout pairs a Go layout with the hint reported to the mapping UI.
type dateLayout struct {
	layout string
	hint   string
}

// dateLayouts are tried in order; four-digit years come first because they are unambiguous.
var dateLayouts = []dateLayout{
	{time.RFC3339Nano, "ISO-8601"},
	{time.RFC3339, "ISO-8601"},
	{"2006-01-02T15:04:05", "ISO-8601"},
	{"2006-01-02 15:04:05", "YYYY-MM-DD hh:mm:ss"},
	{"2006-01-02", "YYYY-MM-DD"},
	{"2006/01/02", "YYYY/MM/DD"},
	{"2006.01.02", "YYYY.MM.DD"},
	{"01/02/2006", "MM/DD/YYYY"},
	{"1/2/2006", "M/D/YYYY"},
	{"02-01-2006", "DD-MM-YYYY"},
	{"2-1-2006", "D-M-YYYY"},
	{"02.01.2006", "DD.MM.YYYY"},
	{"Jan 2, 2006", "Mon D, YYYY"},
	{"January 2, 2006", "Month D, YYYY"},
	{"2 Jan 2006", "D Mon YYYY"},
	{"Mon, 02 Jan 2006 15:04:05 MST", "RFC1123"},
	{"1/2/06", "M/D/YY"},
	{"1-2-06", "D-M-YY"},
}

// dmsRegex matches degree-minute-second literals such as 47°36'22"N.
var dmsRegex = regexp.MustCompile(`^-?\d{1,3}°\s*\d{1,2}['′]?\s*(\d{1,2}(\.\d+)?["″]?)?\s*[NSEWnsew]?$`)

// DetectFieldType classifies a column from its sampled raw values.
// Empty and whitespace-only values are ignored; an empty sample is a string column.
func DetectFieldType(values []string) FieldType {
	sample := nonEmpty(values)
	if len(sample) == 0 {
		return FieldString
	}
	total := float64(len(sample))

	var boolCount, dateCount, numCount int
	for _, v := range sample {
		if isBooleanLiteral(v) {
			boolCount++
		}
		if _, ok := parseDate(v); ok && len(v) > minDateLength {
			dateCount++
		}
		if _, ok := parseFinite(v); ok {
			numCount++
		}
	}

	switch {
	case float64(boolCount)/total >= booleanThreshold:
		return FieldBoolean
	case float64(dateCount)/total >= dateThreshold:
		return FieldDate
	case float64(numCount)/total >= numberThreshold:
		return FieldNumber
	default:
		return FieldString
	}
}

// DescribeField returns the descriptor for one column. isCoordinate marks a
// column already chosen by the coordinate locator; such a column is reported as
// a coordinate when its values are decimal or degree-minute-second literals.
func DescribeField(header string, values []string, isCoordinate bool) FieldDescriptor {
	d := FieldDescriptor{HeaderName: header, InferredType: DetectFieldType(values)}
	sample := nonEmpty(values)

	if isCoordinate {
		if hint, ok := coordinateHint(sample); ok {
			d.InferredType = FieldCoordinate
			d.FormatHint = hint
			return d
		}
	}

	switch d.InferredType {
	case FieldNumber:
		d.FormatHint = "integer"
		for _, v := range sample {
			if f, ok := parseFinite(v); ok && f != float64(int64(f)) {
				d.FormatHint = "decimal"
				break
			}
		}
	case FieldDate:
		for _, v := range sample {
			if hint, ok := parseDate(v); ok {
				d.FormatHint = hint
				break
			}
		}
	}
	return d
}

// coordinateHint reports "decimal" or "dms" when at least 80% of the sample uses that notation.
func coordinateHint(sample []string) (string, bool) {
	if len(sample) == 0 {
		return "", false
	}
	var decimal, dms int
	for _, v := range sample {
		if _, ok := parseFinite(v); ok {
			decimal++
		} else if dmsRegex.MatchString(v) {
			dms++
		}
	}
	total := float64(len(sample))
	switch {
	case float64(decimal)/total >= numberThreshold:
		return "decimal", true
	case float64(dms)/total >= numberThreshold:
		return "dms", true
	}
	return "", false
}

func nonEmpty(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v != "" {
			out = append(out, v)
		}
	}
	return out
}

func isBooleanLiteral(s string) bool {
	return booleanLiterals[strings.ToLower(strings.TrimSpace(s))]
}

// parseFinite parses a decimal literal, rejecting NaN and infinities.
func parseFinite(s string) (float64, bool) {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || !isFinite(f) {
		return 0, false
	}
	return f, true
}

// parseDate returns the hint of the first layout that parses s.
func parseDate(s string) (string, bool) {
	s = strings.TrimSpace(s)
	for _, l := range dateLayouts {
		if _, err := time.Parse(l.layout, s); err == nil {
			return l.hint, true
		}
	}
	return "", false
}
