package core

import (
	"errors"
	"fmt"
	"strings"
)

// ValidationIssue is one structural problem found by ValidateDelimited.
type ValidationIssue struct {
	Line       int    `json:"line"`
	Field      string `json:"field"`
	Message    string `json:"message"`
	Suggestion string `json:"suggestion,omitempty"`
}

// ValidationReport describes a delimited file without importing it.
type ValidationReport struct {
	IsValid          bool              `json:"isValid"`
	Headers          []string          `json:"headers"`
	CoordinateFields CoordinateFields  `json:"coordinateFields"`
	CoordinateFormat CoordinateFormat  `json:"coordinateFormat"`
	Rows             int               `json:"rows"`
	Errors           []ValidationIssue `json:"errors"`
	Warnings         []ValidationIssue `json:"warnings"`
}

func (r *ValidationReport) addError(line int, field, suggestion, format string, args ...any) {
	r.IsValid = false
	r.Errors = append(r.Errors, ValidationIssue{
		Line:       line,
		Field:      field,
		Message:    fmt.Sprintf(format, args...),
		Suggestion: suggestion,
	})
}

func (r *ValidationReport) addWarning(line int, field, format string, args ...any) {
	r.Warnings = append(r.Warnings, ValidationIssue{Line: line, Field: field, Message: fmt.Sprintf(format, args...)})
}

// ValidateDelimited checks every line of a delimited file for column-count and
// coordinate problems and suggests fixes. Unlike ImportDelimited it reports
// mismatched rows as errors and never builds points.
func ValidateDelimited(text string, opts ImportOptions) ValidationReport {
	opts = opts.withDefaults()
	report := ValidationReport{
		IsValid:          true,
		Headers:          []string{},
		CoordinateFormat: FormatUnknown,
		Errors:           []ValidationIssue{},
		Warnings:         []ValidationIssue{},
	}

	if int64(len(text)) > opts.Limits.MaxFileSize {
		report.addError(0, "file", "Split the file into smaller chunks",
			"File size %.1fMB exceeds limit of %.1fMB",
			float64(len(text))/1024/1024, float64(opts.Limits.MaxFileSize)/1024/1024)
		return report
	}

	lines := strings.Split(text, "\n")
	headerAt := -1
	for i, line := range lines {
		if strings.TrimSpace(line) != "" {
			headerAt = i
			break
		}
	}
	if headerAt < 0 {
		report.addError(0, "file", "Upload a file with a header row and data rows", "CSV file is empty")
		return report
	}

	report.Headers = splitLine(lines[headerAt])
	for i, h := range report.Headers {
		if renamed, ok := opts.FieldMapping[h]; ok && renamed != "" {
			report.Headers[i] = renamed
		}
	}
	report.CoordinateFormat = DetectCoordinateFormat(report.Headers)

	fields, err := opts.Patterns.Locate(report.Headers)
	report.CoordinateFields = fields
	switch {
	case errors.Is(err, ErrAmbiguousCoordinates):
		report.addError(headerAt+1, fields.LatField, "Use separate columns named lat and lng",
			"Column %q matches both latitude and longitude", fields.LatField)
	case !fields.Resolved():
		report.addError(headerAt+1, "coordinates", "Name the coordinate columns lat and lng, or latitude and longitude",
			"Could not find latitude/longitude fields. Available fields: %s", strings.Join(report.Headers, ", "))
	}

	for i := headerAt + 1; i < len(lines); i++ {
		if strings.TrimSpace(lines[i]) == "" {
			continue
		}
		report.Rows++
		lineNumber := i + 1
		if report.Rows > opts.Limits.MaxRows {
			continue
		}

		values := splitLine(lines[i])
		if len(values) != len(report.Headers) {
			report.addError(lineNumber, "row", "Check for missing commas or extra values",
				"Row has %d columns but header has %d", len(values), len(report.Headers))
			continue
		}
		if fields.Resolved() && err == nil {
			validateRowCoordinates(&report, lineNumber, report.Headers, values, fields)
		}
	}

	if report.Rows > opts.Limits.MaxRows {
		report.addWarning(0, "file", "File contains %d rows, only processing first %d", report.Rows, opts.Limits.MaxRows)
	}
	return report
}

func validateRowCoordinates(report *ValidationReport, line int, headers, values []string, fields CoordinateFields) {
	var latRaw, lngRaw string
	for i, h := range headers {
		switch h {
		case fields.LatField:
			latRaw = values[i]
		case fields.LngField:
			lngRaw = values[i]
		}
	}

	if latRaw == "" || lngRaw == "" {
		report.addWarning(line, "coordinates", "Missing coordinate values")
		return
	}
	lat, latOK := parseFinite(latRaw)
	lng, lngOK := parseFinite(lngRaw)
	if !latOK || !lngOK {
		report.addError(line, "coordinates", "Ensure coordinates are valid numbers", "Invalid coordinate values")
		return
	}
	for _, msg := range ValidateCoordinates(lat, lng).Errors {
		report.addError(line, "coordinates", "Latitude must be within -90..90 and longitude within -180..180", "%s", msg)
	}
}
