package core

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// GeoJSON type names.
const (
	TypeFeatureCollection = "FeatureCollection"
	TypeFeature           = "Feature"
	TypePoint             = "Point"
)

// FeatureCollection is the exported GeoJSON document.
type FeatureCollection struct {
	Type     string    `json:"type"`
	Features []Feature `json:"features"`
}

// Feature is one exported point feature.
type Feature struct {
	Type       string         `json:"type"`
	ID         string         `json:"id,omitempty"`
	Geometry   Geometry       `json:"geometry"`
	Properties map[string]any `json:"properties"`
}

// Geometry is a Point geometry. Coordinates are [lng, lat].
type Geometry struct {
	Type        string     `json:"type"`
	Coordinates [2]float64 `json:"coordinates"`
}

// rawFeature decodes a feature without committing to the shape of its geometry,
// so one malformed feature cannot fail the whole collection.
type rawFeature struct {
	ID         json.RawMessage `json:"id"`
	Geometry   json.RawMessage `json:"geometry"`
	Properties map[string]any  `json:"properties"`
}

type rawGeometry struct {
	Type        string          `json:"type"`
	Coordinates json.RawMessage `json:"coordinates"`
}

// ParseFeatureCollection checks the top-level document and returns its raw features.
// A non-nil *ErrorEntry is a file-level failure.
func ParseFeatureCollection(text string) ([]json.RawMessage, *ErrorEntry) {
	if strings.TrimSpace(text) == "" {
		return nil, &ErrorEntry{Kind: KindFileStructure, Code: CodeEmptyFile, Message: "GeoJSON file is empty"}
	}

	var top struct {
		Type     any             `json:"type"`
		Features json.RawMessage `json:"features"`
	}
	if err := json.Unmarshal([]byte(text), &top); err != nil {
		return nil, invalidCollection("Invalid GeoJSON: %v", err)
	}
	if t, _ := top.Type.(string); t != TypeFeatureCollection {
		return nil, invalidCollection("Invalid GeoJSON: type must be %q", TypeFeatureCollection)
	}

	raw := bytes.TrimSpace(top.Features)
	if len(raw) == 0 || raw[0] != '[' {
		return nil, invalidCollection("Invalid GeoJSON: missing features array")
	}
	var features []json.RawMessage
	if err := json.Unmarshal(raw, &features); err != nil {
		return nil, invalidCollection("Invalid GeoJSON: %v", err)
	}
	return features, nil
}

func invalidCollection(format string, args ...any) *ErrorEntry {
	return &ErrorEntry{
		Kind:    KindFileStructure,
		Code:    CodeInvalidFeatureCollection,
		Message: fmt.Sprintf(format, args...),
	}
}

// FeaturesToPoints converts raw features. Features with missing or non-Point
// geometry, malformed coordinates or out-of-range positions are skipped with an error.
func FeaturesToPoints(features []json.RawMessage, now time.Time) ImportResult[PointRecord] {
	b := &resultBuilder{}
	return b.points(featuresToPoints(features, now.UnixMilli(), b))
}

func featuresToPoints(features []json.RawMessage, nowMs int64, b *resultBuilder) []PointRecord {
	points := make([]PointRecord, 0, len(features))
	for i, raw := range features {
		if p, ok := featureToPoint(i, raw, nowMs, b); ok {
			points = append(points, p)
		}
	}
	return points
}

func featureToPoint(index int, raw json.RawMessage, nowMs int64, b *resultBuilder) (PointRecord, bool) {
	line := index + 1

	var f rawFeature
	if err := json.Unmarshal(raw, &f); err != nil {
		b.rowError(line, CodeInvalidPoint, "", "", "Feature at index %d is not a valid feature: %v", index, err)
		return PointRecord{}, false
	}

	if g := bytes.TrimSpace(f.Geometry); len(g) == 0 || bytes.Equal(g, []byte("null")) {
		b.rowError(line, CodeInvalidGeometry, "geometry", "", "Feature at index %d: missing geometry", index)
		return PointRecord{}, false
	}
	var g rawGeometry
	if err := json.Unmarshal(f.Geometry, &g); err != nil {
		b.rowError(line, CodeInvalidGeometry, "geometry", "", "Feature at index %d: invalid geometry: %v", index, err)
		return PointRecord{}, false
	}
	if g.Type != TypePoint {
		b.rowError(line, CodeInvalidGeometry, "geometry.type", g.Type,
			"Feature at index %d is not a Point geometry", index)
		return PointRecord{}, false
	}

	lng, lat, ok := decodePair(g.Coordinates)
	if !ok {
		b.rowError(line, CodeInvalidGeometry, "geometry.coordinates", string(g.Coordinates),
			"Feature at index %d: coordinates must be a [lng, lat] pair of numbers", index)
		return PointRecord{}, false
	}

	if v := ValidateCoordinates(lat, lng); !v.IsValid {
		b.rangeError(line, fmt.Sprintf("[%v, %v]", lng, lat),
			fmt.Sprintf("Feature at index %d: Invalid coordinates - %s", index, strings.Join(v.Errors, ", ")))
		return PointRecord{}, false
	}

	p := PointRecord{
		Position:   Position{Lat: lat, Lng: lng},
		Properties: make(map[string]any, len(f.Properties)),
		Status:     DefaultStatus,
		CreatedAt:  nowMs,
		UpdatedAt:  nowMs,
	}
	for k, v := range f.Properties {
		p.Properties[k] = v
	}

	p.ID = idFromJSON(f.ID)
	if p.ID == "" {
		if id := idFromValue(p.Properties["id"]); id != "" {
			p.ID = id
			delete(p.Properties, "id")
		}
	}
	if p.ID == "" {
		p.ID = "point-" + strconv.Itoa(index)
	}

	liftProperties(&p)
	return p, true
}

// decodePair accepts exactly two JSON numbers.
func decodePair(raw json.RawMessage) (lng, lat float64, ok bool) {
	var pair []json.RawMessage
	if err := json.Unmarshal(raw, &pair); err != nil || len(pair) != 2 {
		return 0, 0, false
	}
	for _, v := range pair {
		if bytes.Equal(bytes.TrimSpace(v), []byte("null")) {
			return 0, 0, false
		}
	}
	if err := json.Unmarshal(pair[0], &lng); err != nil {
		return 0, 0, false
	}
	if err := json.Unmarshal(pair[1], &lat); err != nil {
		return 0, 0, false
	}
	return lng, lat, true
}

func idFromJSON(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return ""
	}
	return idFromValue(v)
}

func idFromValue(v any) string {
	switch id := v.(type) {
	case string:
		return strings.TrimSpace(id)
	case float64:
		return strconv.FormatFloat(id, 'f', -1, 64)
	default:
		return ""
	}
}

// liftProperties moves recognized string properties into PointRecord fields.
func liftProperties(p *PointRecord) {
	take := func(key string) string {
		s, ok := p.Properties[key].(string)
		if !ok {
			return ""
		}
		delete(p.Properties, key)
		return s
	}

	// title stays a property when name is set.
	if name := take("name"); name != "" {
		p.Name = name
	} else {
		p.Name = take("title")
	}
	p.Description = take("description")
	if status := take("status"); status != "" {
		p.Status = status
	}
	p.Group = take("group")
}

// PointsToFeatureCollection builds the GeoJSON document for points.
func PointsToFeatureCollection(points []PointRecord) FeatureCollection {
	fc := FeatureCollection{Type: TypeFeatureCollection, Features: make([]Feature, 0, len(points))}
	for _, p := range points {
		props := make(map[string]any, len(p.Properties)+4)
		for k, v := range p.Properties {
			props[k] = v
		}
		for key, value := range map[string]string{
			"name":        p.Name,
			"description": p.Description,
			"status":      p.Status,
			"group":       p.Group,
		} {
			if value != "" {
				props[key] = value
			}
		}

		fc.Features = append(fc.Features, Feature{
			Type: TypeFeature,
			ID:   p.ID,
			Geometry: Geometry{
				Type:        TypePoint,
				Coordinates: [2]float64{p.Position.Lng, p.Position.Lat},
			},
			Properties: props,
		})
	}
	return fc
}

// ExportFeatureCollection renders points as an indented GeoJSON document.
func ExportFeatureCollection(points []PointRecord) (string, error) {
	data, err := json.MarshalIndent(PointsToFeatureCollection(points), "", "  ")
	if err != nil {
		return "", fmt.Errorf("export feature collection: %w", err)
	}
	return string(data), nil
}
