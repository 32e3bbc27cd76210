package core

import "fmt"

// ErrorKind classifies an ErrorEntry by how far its damage reaches.
type ErrorKind string

const (
	// KindFileStructure aborts the whole call: empty input, oversized input,
	// unresolvable coordinate fields, malformed feature collection.
	KindFileStructure ErrorKind = "file_structure"
	// KindRow rejects a single row or feature.
	KindRow ErrorKind = "row"
	// KindRange rejects a single row or feature whose coordinates are out of bounds.
	KindRange ErrorKind = "range"
	// KindMerge means reconciliation failed and the existing dataset was kept.
	KindMerge ErrorKind = "merge"
	// KindInternal is an unexpected failure converted at the call boundary.
	KindInternal ErrorKind = "internal"
)

// Error codes carried by ErrorEntry.Code.
const (
	CodeEmptyFile                = "EMPTY_FILE"
	CodeFileTooLarge             = "FILE_TOO_LARGE"
	CodeMissingCoordinates       = "MISSING_COORDINATES"
	CodeAmbiguousCoordinates     = "AMBIGUOUS_COORDINATES"
	CodeInvalidFeatureCollection = "INVALID_FEATURE_COLLECTION"
	CodeInvalidCoordinate        = "INVALID_COORDINATE"
	CodeCoordinateOutOfRange     = "COORDINATE_OUT_OF_RANGE"
	CodeInvalidGeometry          = "INVALID_GEOMETRY"
	CodeInvalidPoint             = "INVALID_POINT"
	CodeMergeFailed              = "MERGE_FAILED"
	CodeUnknownStrategy          = "UNKNOWN_STRATEGY"
	CodeInternal                 = "INTERNAL_ERROR"
)

// ErrorEntry is one rejected file, row or feature.
type ErrorEntry struct {
	Kind    ErrorKind `json:"kind"`
	Code    string    `json:"code"`
	Message string    `json:"message"`
	Line    int       `json:"line,omitempty"`  // 1-based line (delimited) or feature index + 1
	Field   string    `json:"field,omitempty"` // offending column or property
	Value   string    `json:"value,omitempty"` // offending raw value
}

func (e ErrorEntry) Error() string {
	return e.Message
}

// resultBuilder accumulates warnings and errors for one pipeline call.
// It is threaded through each stage by pointer and returned at the end,
// never captured by closures.
type resultBuilder struct {
	warnings []string
	errors   []ErrorEntry
}

func (b *resultBuilder) warn(format string, args ...any) {
	b.warnings = append(b.warnings, fmt.Sprintf(format, args...))
}

func (b *resultBuilder) fail(e ErrorEntry) {
	b.errors = append(b.errors, e)
}

func (b *resultBuilder) rowError(line int, code, field, value, format string, args ...any) {
	b.errors = append(b.errors, ErrorEntry{
		Kind:    KindRow,
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Line:    line,
		Field:   field,
		Value:   value,
	})
}

func (b *resultBuilder) rangeError(line int, value, message string) {
	b.errors = append(b.errors, ErrorEntry{
		Kind:    KindRange,
		Code:    CodeCoordinateOutOfRange,
		Message: message,
		Line:    line,
		Value:   value,
	})
}

// points finalizes the builder. Slices are never nil so JSON renders [].
func (b *resultBuilder) points(data []PointRecord) ImportResult[PointRecord] {
	if data == nil {
		data = []PointRecord{}
	}
	warnings := b.warnings
	if warnings == nil {
		warnings = []string{}
	}
	errs := b.errors
	if errs == nil {
		errs = []ErrorEntry{}
	}
	return ImportResult[PointRecord]{Data: data, Warnings: warnings, Errors: errs}
}

// internalFailure converts a recovered panic into a single internal error entry.
// Warnings gathered before the panic are dropped with the partial data.
func internalFailure(recovered any) ImportResult[PointRecord] {
	b := &resultBuilder{}
	b.fail(ErrorEntry{
		Kind:    KindInternal,
		Code:    CodeInternal,
		Message: fmt.Sprintf("Unexpected error: %v", recovered),
	})
	return b.points(nil)
}

// fatal builds a zero-point result carrying one file-level error plus any
// warnings gathered so far.
func (b *resultBuilder) fatal(code, format string, args ...any) ImportResult[PointRecord] {
	b.errors = append(b.errors, ErrorEntry{
		Kind:    KindFileStructure,
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	})
	return b.points(nil)
}
