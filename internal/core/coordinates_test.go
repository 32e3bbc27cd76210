package core

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateCoordinates_ValidRange(t *testing.T) {
	for lat := -90.0; lat <= 90; lat += 7.5 {
		for lng := -180.0; lng <= 180; lng += 15 {
			v := ValidateCoordinates(lat, lng)
			if !v.IsValid {
				t.Fatalf("ValidateCoordinates(%v, %v) = invalid %v, want valid", lat, lng, v.Errors)
			}
			if len(v.Errors) != 0 {
				t.Fatalf("ValidateCoordinates(%v, %v) errors = %v, want none", lat, lng, v.Errors)
			}
		}
	}
}

func TestValidateCoordinates_OutOfRange(t *testing.T) {
	tests := []struct {
		name     string
		lat, lng float64
		want     []string
	}{
		{"latitude above", 91, 0, []string{"Latitude 91 is out of range. Must be between -90 and 90."}},
		{"latitude below", -91, 0, []string{"Latitude -91 is out of range. Must be between -90 and 90."}},
		{"longitude above", 0, 181, []string{"Longitude 181 is out of range. Must be between -180 and 180."}},
		{"longitude below", 0, -181, []string{"Longitude -181 is out of range. Must be between -180 and 180."}},
		{"both axes", 91, 181, []string{
			"Latitude 91 is out of range. Must be between -90 and 90.",
			"Longitude 181 is out of range. Must be between -180 and 180.",
		}},
		{"fractional overflow", 90.000001, 0, []string{"Latitude 90.000001 is out of range. Must be between -90 and 90."}},
		{"nan latitude", math.NaN(), 0, []string{"Latitude NaN is not a finite number."}},
		{"infinite longitude", 0, math.Inf(1), []string{"Longitude +Inf is not a finite number."}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := ValidateCoordinates(tt.lat, tt.lng)
			assert.False(t, v.IsValid)
			assert.Equal(t, tt.want, v.Errors)
		})
	}
}

func TestPointRecordValidate(t *testing.T) {
	p, err := NewPointRecord("a", 47.6, -122.3)
	require.NoError(t, err)
	assert.Equal(t, "a", p.ID)
	assert.NotNil(t, p.Properties)

	_, err = NewPointRecord("b", 100, 0)
	var coordErr *CoordinateError
	require.ErrorAs(t, err, &coordErr)
	assert.Equal(t, []string{"Latitude 100 is out of range. Must be between -90 and 90."}, coordErr.Reasons)
	assert.Equal(t, coordErr.Reasons[0], err.Error())
}

func TestCoordinatePatterns_Locate(t *testing.T) {
	tests := []struct {
		name    string
		headers []string
		want    CoordinateFields
		wantErr error
	}{
		{"short names", []string{"id", "name", "lat", "lng"}, CoordinateFields{"lat", "lng"}, nil},
		{"long names any case", []string{"Latitude", "Longitude"}, CoordinateFields{"Latitude", "Longitude"}, nil},
		{"longitude first in document", []string{"longitude", "latitude"}, CoordinateFields{"latitude", "longitude"}, nil},
		{"cartesian names", []string{"x", "y"}, CoordinateFields{"y", "x"}, nil},
		{"suffixed names", []string{"site_lat_dd", "site_lng_dd"}, CoordinateFields{"site_lat_dd", "site_lng_dd"}, nil},
		{"lon abbreviation", []string{"lat", "lon"}, CoordinateFields{"lat", "lon"}, nil},
		{"first match wins", []string{"lat", "latitude", "lng"}, CoordinateFields{"lat", "lng"}, nil},
		{"no coordinates", []string{"id", "name"}, CoordinateFields{}, nil},
		{"latitude only", []string{"lat", "name"}, CoordinateFields{LatField: "lat"}, nil},
		{"combined column is ambiguous", []string{"latlng", "name"}, CoordinateFields{LatField: "latlng"}, ErrAmbiguousCoordinates},
		{"combined column with separate longitude", []string{"latlng", "lng"}, CoordinateFields{"latlng", "lng"}, nil},
	}

	patterns := DefaultCoordinatePatterns()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := patterns.Locate(tt.headers)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCoordinatePatterns_LocateNeverPicksSameColumn(t *testing.T) {
	headers := [][]string{
		{"latlng"},
		{"lat_long", "name"},
		{"xy"},
		{"latlng", "other", "lng"},
	}
	for _, h := range headers {
		got, _ := DefaultCoordinatePatterns().Locate(h)
		if got.Resolved() && got.LatField == got.LngField {
			t.Errorf("Locate(%q) picked %q for both axes", h, got.LatField)
		}
	}
}

func TestCoordinatePatterns_Extend(t *testing.T) {
	base := DefaultCoordinatePatterns()
	ext := base.Extend([]string{"breite"}, []string{"laenge", "lng"})

	assert.Len(t, base.Latitude, 5, "defaults must not be modified")
	assert.Equal(t, "breite", ext.Latitude[len(ext.Latitude)-1])
	assert.Len(t, ext.Longitude, 8, "duplicate pattern dropped")

	got, err := ext.Locate([]string{"breite", "laenge"})
	require.NoError(t, err)
	assert.Equal(t, CoordinateFields{LatField: "breite", LngField: "laenge"}, got)
}

func TestParseCoordinatePatterns(t *testing.T) {
	t.Run("extend appends to defaults", func(t *testing.T) {
		p, err := ParseCoordinatePatterns([]byte("latitude: [breite]\nlongitude: [laenge]\nextend: true\n"))
		require.NoError(t, err)
		assert.Len(t, p.Latitude, 6)
		assert.Equal(t, "breite", p.Latitude[5])
		assert.Equal(t, "laenge", p.Longitude[len(p.Longitude)-1])
	})

	t.Run("replace defaults", func(t *testing.T) {
		p, err := ParseCoordinatePatterns([]byte("latitude: [north]\nlongitude: [east]\n"))
		require.NoError(t, err)
		assert.Equal(t, CoordinatePatterns{Latitude: []string{"north"}, Longitude: []string{"east"}}, p)
	})

	t.Run("replace requires both axes", func(t *testing.T) {
		_, err := ParseCoordinatePatterns([]byte("latitude: [north]\n"))
		assert.ErrorContains(t, err, "longitude list is empty")
	})

	t.Run("malformed yaml", func(t *testing.T) {
		_, err := ParseCoordinatePatterns([]byte("latitude: [north\n"))
		assert.Error(t, err)
	})
}

func TestLoadCoordinatePatterns(t *testing.T) {
	p, err := LoadCoordinatePatterns("")
	require.NoError(t, err)
	assert.Equal(t, DefaultCoordinatePatterns(), p)

	path := filepath.Join(t.TempDir(), "patterns.yaml")
	require.NoError(t, os.WriteFile(path, []byte("latitude: [breite]\nlongitude: [laenge]\n"), 0o600))
	p, err = LoadCoordinatePatterns(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"breite"}, p.Latitude)

	_, err = LoadCoordinatePatterns(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestDetectCoordinateFormat(t *testing.T) {
	tests := []struct {
		headers []string
		want    CoordinateFormat
	}{
		{[]string{"id", "lat", "lng"}, FormatLatLng},
		{[]string{" Latitude ", "LONGITUDE"}, FormatLatitudeLongitude},
		{[]string{"x", "y"}, FormatDecimalDegrees},
		{[]string{"lat", "lon"}, FormatUnknown},
		{nil, FormatUnknown},
	}
	for _, tt := range tests {
		if got := DetectCoordinateFormat(tt.headers); got != tt.want {
			t.Errorf("DetectCoordinateFormat(%q) = %v, want %v", tt.headers, got, tt.want)
		}
	}
}
