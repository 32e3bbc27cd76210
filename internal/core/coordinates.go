package core

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

// Coordinate bounds in decimal degrees (WGS84).
const (
	MinLatitude  = -90.0
	MaxLatitude  = 90.0
	MinLongitude = -180.0
	MaxLongitude = 180.0
)

// ErrAmbiguousCoordinates is returned by Locate when the only header matching
// a longitude pattern is the one already chosen for latitude.
var ErrAmbiguousCoordinates = errors.New("ambiguous coordinates: latitude and longitude resolve to the same column")

// CoordinatePatterns is the ordered naming table used to discover coordinate
// columns. Matching is a case-insensitive substring test.
type CoordinatePatterns struct {
	Latitude  []string `yaml:"latitude" json:"latitude"`
	Longitude []string `yaml:"longitude" json:"longitude"`
}

// DefaultCoordinatePatterns returns a fresh copy of the built-in table.
func DefaultCoordinatePatterns() CoordinatePatterns {
	return CoordinatePatterns{
		Latitude:  []string{"lat", "latitude", "y", "lat_dd", "lat_decimal"},
		Longitude: []string{"lng", "longitude", "lon", "long", "x", "lng_dd", "lng_decimal"},
	}
}

// Extend returns a new table with extra patterns appended after the existing ones.
// Duplicates are dropped so the original order is kept.
func (p CoordinatePatterns) Extend(latitude, longitude []string) CoordinatePatterns {
	return CoordinatePatterns{
		Latitude:  appendUnique(slices.Clone(p.Latitude), latitude),
		Longitude: appendUnique(slices.Clone(p.Longitude), longitude),
	}
}

// IsZero reports whether the table has no patterns at all.
func (p CoordinatePatterns) IsZero() bool {
	return len(p.Latitude) == 0 && len(p.Longitude) == 0
}

// Locate picks the latitude and longitude columns from headers.
//
// For each axis the first header in document order containing any pattern wins.
// The longitude scan skips the header already chosen for latitude, so the two
// picks are always distinct columns. Either field may be empty when nothing matched.
func (p CoordinatePatterns) Locate(headers []string) (CoordinateFields, error) {
	var fields CoordinateFields

	for _, h := range headers {
		if matchesAny(h, p.Latitude) {
			fields.LatField = h
			break
		}
	}

	for _, h := range headers {
		if fields.LatField != "" && h == fields.LatField {
			continue
		}
		if matchesAny(h, p.Longitude) {
			fields.LngField = h
			break
		}
	}

	if fields.LngField == "" && fields.LatField != "" && matchesAny(fields.LatField, p.Longitude) {
		return CoordinateFields{LatField: fields.LatField}, ErrAmbiguousCoordinates
	}
	return fields, nil
}

func matchesAny(header string, patterns []string) bool {
	h := strings.ToLower(strings.TrimSpace(header))
	if h == "" {
		return false
	}
	for _, p := range patterns {
		if p != "" && strings.Contains(h, strings.ToLower(p)) {
			return true
		}
	}
	return false
}

func appendUnique(dst, extra []string) []string {
	for _, s := range extra {
		s = strings.TrimSpace(s)
		if s == "" || slices.Contains(dst, s) {
			continue
		}
		dst = append(dst, s)
	}
	return dst
}

// CoordinateValidation is the outcome of a bounds check.
type CoordinateValidation struct {
	IsValid bool     `json:"isValid"`
	Errors  []string `json:"errors"`
}

// ValidateCoordinates bounds-checks a position. Latitude and longitude are
// checked independently and every failure is reported.
func ValidateCoordinates(lat, lng float64) CoordinateValidation {
	var errs []string

	if msg := checkAxis("Latitude", lat, MinLatitude, MaxLatitude); msg != "" {
		errs = append(errs, msg)
	}
	if msg := checkAxis("Longitude", lng, MinLongitude, MaxLongitude); msg != "" {
		errs = append(errs, msg)
	}

	if errs == nil {
		errs = []string{}
	}
	return CoordinateValidation{IsValid: len(errs) == 0, Errors: errs}
}

func checkAxis(name string, v, lo, hi float64) string {
	if !isFinite(v) {
		return fmt.Sprintf("%s %v is not a finite number.", name, v)
	}
	if v < lo || v > hi {
		return fmt.Sprintf("%s %v is out of range. Must be between %v and %v.", name, v, lo, hi)
	}
	return ""
}

// CoordinateFormat names the header convention a file uses for its coordinates.
type CoordinateFormat string

const (
	FormatLatLng            CoordinateFormat = "lat_lng"
	FormatLatitudeLongitude CoordinateFormat = "latitude_longitude"
	FormatDecimalDegrees    CoordinateFormat = "decimal_degrees"
	FormatUnknown           CoordinateFormat = "unknown"
)

// DetectCoordinateFormat classifies headers by exact (case-insensitive) coordinate column names.
func DetectCoordinateFormat(headers []string) CoordinateFormat {
	lower := make([]string, len(headers))
	for i, h := range headers {
		lower[i] = strings.ToLower(strings.TrimSpace(h))
	}
	has := func(name string) bool { return slices.Contains(lower, name) }

	switch {
	case has("lat") && has("lng"):
		return FormatLatLng
	case has("latitude") && has("longitude"):
		return FormatLatitudeLongitude
	case has("x") && has("y"):
		return FormatDecimalDegrees
	default:
		return FormatUnknown
	}
}
