package core

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"
)

// Format identifies an input or export encoding.
type Format string

const (
	FormatCSV     Format = "csv"
	FormatGeoJSON Format = "geojson"
)

// ParseFormat converts a user-supplied format name. Empty returns "" with no error.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "":
		return "", nil
	case "csv", "text/csv":
		return FormatCSV, nil
	case "geojson", "json", "application/geo+json", "application/json":
		return FormatGeoJSON, nil
	default:
		return "", fmt.Errorf("unknown format %q (use csv or geojson)", s)
	}
}

// DetectFormat picks a format from the filename extension, falling back to
// content sniffing: a document starting with '{' is GeoJSON, anything else CSV.
func DetectFormat(filename, content string) Format {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".csv", ".txt":
		return FormatCSV
	case ".geojson", ".json":
		return FormatGeoJSON
	}
	if strings.HasPrefix(strings.TrimSpace(content), "{") {
		return FormatGeoJSON
	}
	return FormatCSV
}

// ImportOptions tunes an import call. The zero value uses default limits,
// the default coordinate patterns and the wall clock.
type ImportOptions struct {
	// FieldMapping renames raw headers before coordinate fields are located.
	FieldMapping map[string]string
	Limits       Limits
	Patterns     CoordinatePatterns
	// Now stamps CreatedAt/UpdatedAt on imported points.
	Now func() time.Time
}

func (o ImportOptions) withDefaults() ImportOptions {
	o.Limits = o.Limits.withDefaults()
	if o.Patterns.IsZero() {
		o.Patterns = DefaultCoordinatePatterns()
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	return o
}

// Import dispatches to the importer for format.
func Import(format Format, text string, opts ImportOptions) ImportResult[PointRecord] {
	if format == FormatGeoJSON {
		return ImportFeatureCollection(text, opts)
	}
	return ImportDelimited(text, opts)
}

// ImportDelimited parses, validates and converts delimited text.
//
// The call fails with a single file-level error for empty or oversized input
// and when no distinct latitude/longitude column pair can be located. Every
// other problem skips the offending row and the remaining points are returned.
func ImportDelimited(text string, opts ImportOptions) (result ImportResult[PointRecord]) {
	defer func() {
		if r := recover(); r != nil {
			result = internalFailure(r)
		}
	}()

	opts = opts.withDefaults()
	b := &resultBuilder{}

	parsed, fatal := parseRows(text, rowParseOptions{limits: opts.Limits, mapping: opts.FieldMapping}, b)
	if fatal != nil {
		b.fail(*fatal)
		return b.points(nil)
	}

	fields, err := opts.Patterns.Locate(parsed.Headers)
	if errors.Is(err, ErrAmbiguousCoordinates) {
		return b.fatal(CodeAmbiguousCoordinates,
			"Could not distinguish latitude and longitude fields: %q matches both. Available fields: %s",
			fields.LatField, strings.Join(parsed.Headers, ", "))
	}
	if !fields.Resolved() {
		return b.fatal(CodeMissingCoordinates,
			"Could not find latitude/longitude fields. Available fields: %s", strings.Join(parsed.Headers, ", "))
	}

	return b.points(rowsToPoints(parsed.Rows, fields, opts.Now().UnixMilli(), b))
}

// ImportFeatureCollection parses, validates and converts a GeoJSON FeatureCollection.
// Positions are read in [lng, lat] order.
func ImportFeatureCollection(text string, opts ImportOptions) (result ImportResult[PointRecord]) {
	defer func() {
		if r := recover(); r != nil {
			result = internalFailure(r)
		}
	}()

	opts = opts.withDefaults()
	b := &resultBuilder{}

	if int64(len(text)) > opts.Limits.MaxFileSize {
		return b.fatal(CodeFileTooLarge, "File size %.1fMB exceeds limit of %.1fMB",
			float64(len(text))/1024/1024, float64(opts.Limits.MaxFileSize)/1024/1024)
	}

	features, fatal := ParseFeatureCollection(text)
	if fatal != nil {
		b.fail(*fatal)
		return b.points(nil)
	}
	if len(features) > opts.Limits.MaxRows {
		b.warn("File contains %d features, only processing first %d", len(features), opts.Limits.MaxRows)
		features = features[:opts.Limits.MaxRows]
	}

	return b.points(featuresToPoints(features, opts.Now().UnixMilli(), b))
}
