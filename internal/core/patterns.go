package core

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// patternFile is the on-disk shape of a coordinate pattern table.
//
//	latitude: [lat, latitude, y, breite]
//	longitude: [lng, longitude, lon, long, x, laenge]
//	extend: true
type patternFile struct {
	Latitude  []string `yaml:"latitude"`
	Longitude []string `yaml:"longitude"`
	Extend    bool     `yaml:"extend"`
}

// ParseCoordinatePatterns decodes a YAML pattern table.
// With extend set, the listed patterns are appended to the defaults;
// otherwise they replace the defaults and both axes must be non-empty.
func ParseCoordinatePatterns(data []byte) (CoordinatePatterns, error) {
	var f patternFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return CoordinatePatterns{}, fmt.Errorf("parse coordinate patterns: %w", err)
	}

	if f.Extend {
		return DefaultCoordinatePatterns().Extend(f.Latitude, f.Longitude), nil
	}

	p := CoordinatePatterns{}.Extend(f.Latitude, f.Longitude)
	if len(p.Latitude) == 0 {
		return CoordinatePatterns{}, fmt.Errorf("parse coordinate patterns: latitude list is empty")
	}
	if len(p.Longitude) == 0 {
		return CoordinatePatterns{}, fmt.Errorf("parse coordinate patterns: longitude list is empty")
	}
	return p, nil
}

// LoadCoordinatePatterns reads a pattern table from path.
// An empty path returns the defaults.
func LoadCoordinatePatterns(path string) (CoordinatePatterns, error) {
	if path == "" {
		return DefaultCoordinatePatterns(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return CoordinatePatterns{}, fmt.Errorf("read coordinate patterns %s: %w", path, err)
	}
	return ParseCoordinatePatterns(data)
}
