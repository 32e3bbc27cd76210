package core

import (
	"fmt"
	"math"
)

// FieldType represents the inferred data type of a delimited-text column.
type FieldType string

const (
	FieldString     FieldType = "string"
	FieldNumber     FieldType = "number"
	FieldBoolean    FieldType = "boolean"
	FieldDate       FieldType = "date"
	FieldCoordinate FieldType = "coordinate"
)

// Default status assigned to imported points that do not carry one.
const DefaultStatus = "active"

// Position is a WGS84 coordinate pair in decimal degrees.
type Position struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// PointRecord is the canonical geospatial entity handled by the pipeline.
type PointRecord struct {
	ID          string         `json:"id"`
	Position    Position       `json:"position"`
	Properties  map[string]any `json:"properties"`
	Name        string         `json:"name,omitempty"`
	Description string         `json:"description,omitempty"`
	Status      string         `json:"status,omitempty"`
	Group       string         `json:"group,omitempty"`
	CreatedAt   int64          `json:"createdAt,omitempty"` // epoch milliseconds, 0 if unset
	UpdatedAt   int64          `json:"updatedAt,omitempty"` // epoch milliseconds, 0 if unset
}

// NewPointRecord builds a point with an empty property map after validating its position.
func NewPointRecord(id string, lat, lng float64) (PointRecord, error) {
	p := PointRecord{
		ID:         id,
		Position:   Position{Lat: lat, Lng: lng},
		Properties: map[string]any{},
	}
	if err := p.Validate(); err != nil {
		return PointRecord{}, err
	}
	return p, nil
}

// Validate reports whether the point's position is finite and within WGS84 bounds.
func (p PointRecord) Validate() error {
	v := ValidateCoordinates(p.Position.Lat, p.Position.Lng)
	if !v.IsValid {
		return &CoordinateError{Lat: p.Position.Lat, Lng: p.Position.Lng, Reasons: v.Errors}
	}
	return nil
}

// Clone returns a copy of the point with its own property map.
func (p PointRecord) Clone() PointRecord {
	c := p
	c.Properties = make(map[string]any, len(p.Properties))
	for k, v := range p.Properties {
		c.Properties[k] = v
	}
	return c
}

// CoordinateError describes an out-of-range or non-finite position.
type CoordinateError struct {
	Lat, Lng float64
	Reasons  []string
}

func (e *CoordinateError) Error() string {
	if len(e.Reasons) == 1 {
		return e.Reasons[0]
	}
	return fmt.Sprintf("invalid coordinates (%v, %v): %v", e.Lat, e.Lng, e.Reasons)
}

// FieldDescriptor is the structural summary of one column.
type FieldDescriptor struct {
	HeaderName   string    `json:"headerName"`
	InferredType FieldType `json:"inferredType"`
	FormatHint   string    `json:"formatHint,omitempty"`
}

// CoordinateFields names the columns holding latitude and longitude.
// Either may be empty when no header matched.
type CoordinateFields struct {
	LatField string `json:"latField,omitempty"`
	LngField string `json:"lngField,omitempty"`
}

// Resolved reports whether both axes were located.
func (c CoordinateFields) Resolved() bool {
	return c.LatField != "" && c.LngField != ""
}

// RowDict is one raw delimited-text row keyed by header, prior to typing.
type RowDict map[string]string

// Template is the read-only structural summary of a delimited file,
// used by field-mapping previews before an import commits.
type Template struct {
	Headers          []string             `json:"headers"`
	FieldTypes       map[string]FieldType `json:"fieldTypes"`
	Fields           []FieldDescriptor    `json:"fields"`
	CoordinateFields CoordinateFields     `json:"coordinateFields"`
	SampleRows       []RowDict            `json:"sampleRows"`
}

// ImportResult is the outcome of an import or merge call.
// Errors mark rejected rows/files; Warnings mark skipped rows that were not fatal.
type ImportResult[T any] struct {
	Data     []T          `json:"data"`
	Warnings []string     `json:"warnings"`
	Errors   []ErrorEntry `json:"errors"`
}

// Failed reports whether the call aborted with a file-level error.
func (r ImportResult[T]) Failed() bool {
	for _, e := range r.Errors {
		if e.Kind == KindFileStructure || e.Kind == KindMerge || e.Kind == KindInternal {
			return true
		}
	}
	return false
}

// MergeStrategy selects how imported points combine with an existing dataset.
type MergeStrategy string

const (
	StrategyReplace MergeStrategy = "replace"
	StrategyMerge   MergeStrategy = "merge"
	StrategyAppend  MergeStrategy = "append"
)

// ParseMergeStrategy converts a user-supplied strategy name. Empty means merge.
func ParseMergeStrategy(s string) (MergeStrategy, error) {
	switch MergeStrategy(s) {
	case "":
		return StrategyMerge, nil
	case StrategyReplace, StrategyMerge, StrategyAppend:
		return MergeStrategy(s), nil
	default:
		return "", fmt.Errorf("unknown merge strategy %q (use replace, merge or append)", s)
	}
}

// Limits are the ceilings enforced before rows are parsed.
type Limits struct {
	MaxFileSize int64 // bytes; exceeding it is fatal
	MaxRows     int   // data rows; extra rows are truncated with a warning
}

// Default ceilings.
const (
	DefaultMaxFileSize = 10 * 1024 * 1024
	DefaultMaxRows     = 10000
)

// DefaultLimits returns the default import ceilings.
func DefaultLimits() Limits {
	return Limits{MaxFileSize: DefaultMaxFileSize, MaxRows: DefaultMaxRows}
}

func (l Limits) withDefaults() Limits {
	if l.MaxFileSize <= 0 {
		l.MaxFileSize = DefaultMaxFileSize
	}
	if l.MaxRows <= 0 {
		l.MaxRows = DefaultMaxRows
	}
	return l
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
