package core

import "errors"

// Template sampling sizes.
const (
	TemplateSampleSize    = 10 // data rows inspected for type detection
	MaxTemplateSampleRows = 3  // rows returned for preview
)

// ErrEmptyInput is returned by ExtractTemplate when the text has no header row.
var ErrEmptyInput = errors.New("empty file: no header row found")

// ExtractTemplate summarizes the structure of delimited text without importing it.
// Only the first TemplateSampleSize data rows are parsed; coordinates are located
// but never validated. A zero patterns value uses DefaultCoordinatePatterns.
func ExtractTemplate(text string, patterns CoordinatePatterns) (*Template, error) {
	if patterns.IsZero() {
		patterns = DefaultCoordinatePatterns()
	}

	// The preview reads a bounded prefix, so the import size ceiling does not apply.
	limits := DefaultLimits()
	if n := int64(len(text)); n > limits.MaxFileSize {
		limits.MaxFileSize = n
	}

	b := &resultBuilder{}
	parsed, fatal := parseRows(text, rowParseOptions{limits: limits, sample: TemplateSampleSize}, b)
	if fatal != nil {
		return nil, ErrEmptyInput
	}

	// Ambiguity is an import-time failure; the preview still shows the latitude pick.
	fields, _ := patterns.Locate(parsed.Headers)

	t := &Template{
		Headers:          parsed.Headers,
		FieldTypes:       make(map[string]FieldType, len(parsed.Headers)),
		Fields:           make([]FieldDescriptor, 0, len(parsed.Headers)),
		CoordinateFields: fields,
		SampleRows:       make([]RowDict, 0, MaxTemplateSampleRows),
	}

	for _, h := range parsed.Headers {
		values := make([]string, 0, len(parsed.Rows))
		for _, row := range parsed.Rows {
			values = append(values, row.Values[h])
		}
		t.FieldTypes[h] = DetectFieldType(values)
		t.Fields = append(t.Fields, DescribeField(h, values, h == fields.LatField || h == fields.LngField))
	}

	for _, row := range parsed.Rows {
		if len(t.SampleRows) == MaxTemplateSampleRows {
			break
		}
		t.SampleRows = append(t.SampleRows, row.Values)
	}
	return t, nil
}
