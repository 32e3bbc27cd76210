// # Error Codes Reference
//
// This file defines user-friendly error messages with codes for support reference.
// When users encounter errors, they can quote the error code to support staff
// for faster diagnosis.
//
// # File Errors (FILE001-FILE099)
//
//	FILE001 - File too large: File exceeds the maximum import size
//	          Action: Split the file into smaller chunks
//	          Patterns: "file too large", "exceeds limit", ErrorEntry FILE_TOO_LARGE
//
//	FILE002 - Invalid CSV: File is not valid comma-separated text
//	          Action: Ensure the file is comma-separated with a header row
//	          Patterns: "invalid csv"
//
//	FILE003 - Encoding error: File contains invalid characters
//	          Action: Save the file as UTF-8
//	          Patterns: "encoding error"
//
//	FILE004 - No file: No file was selected
//	          Action: Select a CSV or GeoJSON file to import
//	          Patterns: "no file provided"
//
//	FILE005 - Empty file: The uploaded file is empty
//	          Action: Upload a file with a header row and data rows
//	          Patterns: "empty file", "file is empty", ErrorEntry EMPTY_FILE
//
//	FILE006 - Unknown format: The file format is not supported
//	          Action: Use a .csv or .geojson file, or pass format=csv|geojson
//	          Patterns: "unknown format"
//
// # Coordinate Errors (COORD001-COORD099)
//
//	COORD001 - Missing coordinates: No latitude/longitude columns were found
//	           Action: Name the coordinate columns lat and lng, or map them explicitly
//	           Patterns: "could not find latitude/longitude", ErrorEntry MISSING_COORDINATES
//
//	COORD002 - Ambiguous coordinates: One column matches both latitude and longitude
//	           Action: Use separate latitude and longitude columns
//	           Patterns: "ambiguous coordinates", "could not distinguish", ErrorEntry AMBIGUOUS_COORDINATES
//
//	COORD003 - Out of range: Coordinates outside -90..90 / -180..180
//	           Action: Check that latitude and longitude are not swapped
//	           Patterns: "out of range", ErrorEntry COORDINATE_OUT_OF_RANGE
//
//	COORD004 - Invalid coordinate: A coordinate value is not a number
//	           Action: Use decimal degrees such as 47.6062
//	           Patterns: "invalid latitude", "invalid longitude", ErrorEntry INVALID_COORDINATE
//
// # GeoJSON Errors (GEO001-GEO099)
//
//	GEO001 - Invalid GeoJSON: The document is not a FeatureCollection
//	         Action: Export the data as a GeoJSON FeatureCollection
//	         Patterns: "invalid geojson", ErrorEntry INVALID_FEATURE_COLLECTION
//
//	GEO002 - Invalid geometry: A feature has no Point geometry
//	         Action: Only Point features with [lng, lat] coordinates are imported
//	         Patterns: ErrorEntry INVALID_GEOMETRY
//
//	GEO003 - Invalid feature: A feature is not a JSON object
//	         Action: Check the feature list for stray values
//	         Patterns: ErrorEntry INVALID_POINT
//
// # Merge Errors (MRG001-MRG099)
//
//	MRG001 - Merge failed: Existing data was kept unchanged
//	         Action: Please try again or import with the replace strategy
//	         Patterns: "failed to merge", ErrorEntry MERGE_FAILED
//
//	MRG002 - Unknown strategy: The merge strategy is not recognized
//	         Action: Use replace, merge or append
//	         Patterns: "unknown merge strategy", ErrorEntry UNKNOWN_STRATEGY
//
// # Storage Errors (DB004-DB099)
//
//	DB004 - Connection refused: Unable to connect to database
//	DB005 - Connection reset: Database connection was interrupted
//	DB006 - Timeout: Operation timed out
//	DB007 - Deadlock: Database was busy with conflicting operations
//	DB008 - Locked: Database file is locked ("database is locked", SQLite)
//
// # Import Errors (IMP001-IMP099)
//
//	IMP002 - System busy: Too many imports in progress ("too many imports")
//	IMP003 - Bad field mapping: The mapping parameter is not a JSON object ("invalid field mapping")
//	IMP004 - Request cancelled ("context canceled")
//	IMP005 - Request timeout ("context deadline exceeded")
//
// # Rate Limiting (RATE001)
//
//	RATE001 - Too many requests ("rate limit")
//
// # Default Error (ERR000)
//
// Fallback when no specific pattern matches. Check application logs for the
// original technical error.
//
// # Pattern Matching
//
// Error patterns are matched case-insensitively using strings.Contains.
// The first matching pattern wins, so more specific patterns are listed first.
// ErrorEntry values are mapped by their Code instead (see MapEntry).

package core

import (
	"fmt"
	"strings"
)

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string `json:"message"` // What happened (user-friendly)
	Action  string `json:"action"`  // What to do about it
	Code    string `json:"code"`    // Error code for support reference
}

// errorPattern defines a pattern to match and its corresponding user message.
type errorPattern struct {
	pattern string
	msg     UserMessage
}

var (
	msgFileTooLarge = UserMessage{
		Message: "File exceeds the maximum import size",
		Action:  "Split the file into smaller chunks",
		Code:    "FILE001",
	}
	msgEmptyFile = UserMessage{
		Message: "The uploaded file is empty",
		Action:  "Upload a file with a header row and data rows",
		Code:    "FILE005",
	}
	msgMissingCoordinates = UserMessage{
		Message: "No latitude/longitude columns were found",
		Action:  "Name the coordinate columns lat and lng, or map them explicitly",
		Code:    "COORD001",
	}
	msgAmbiguousCoordinates = UserMessage{
		Message: "One column matches both latitude and longitude",
		Action:  "Use separate latitude and longitude columns",
		Code:    "COORD002",
	}
	msgOutOfRange = UserMessage{
		Message: "Coordinates are out of range",
		Action:  "Check that latitude and longitude are not swapped",
		Code:    "COORD003",
	}
	msgInvalidCoordinate = UserMessage{
		Message: "A coordinate value is not a number",
		Action:  "Use decimal degrees such as 47.6062",
		Code:    "COORD004",
	}
	msgInvalidGeoJSON = UserMessage{
		Message: "The document is not a GeoJSON FeatureCollection",
		Action:  "Export the data as a GeoJSON FeatureCollection",
		Code:    "GEO001",
	}
	msgInvalidGeometry = UserMessage{
		Message: "A feature has no Point geometry",
		Action:  "Only Point features with [lng, lat] coordinates are imported",
		Code:    "GEO002",
	}
	msgInvalidFeature = UserMessage{
		Message: "A feature is not a valid JSON object",
		Action:  "Check the feature list for stray values",
		Code:    "GEO003",
	}
	msgMergeFailed = UserMessage{
		Message: "Merge failed; existing data was kept unchanged",
		Action:  "Please try again or import with the replace strategy",
		Code:    "MRG001",
	}
	msgUnknownStrategy = UserMessage{
		Message: "Unknown merge strategy",
		Action:  "Use replace, merge or append",
		Code:    "MRG002",
	}
)

// errorPatterns maps technical error patterns (case-insensitive) to user messages.
// The first matching pattern wins, so order matters.
var errorPatterns = []errorPattern{
	// File errors
	{pattern: "file too large", msg: msgFileTooLarge},
	{pattern: "exceeds limit", msg: msgFileTooLarge},
	{pattern: "request body too large", msg: msgFileTooLarge},
	{pattern: "invalid csv", msg: UserMessage{
		Message: "File is not valid comma-separated text",
		Action:  "Ensure the file is comma-separated with a header row",
		Code:    "FILE002",
	}},
	{pattern: "encoding error", msg: UserMessage{
		Message: "File contains invalid characters",
		Action:  "Save the file as UTF-8",
		Code:    "FILE003",
	}},
	{pattern: "no file provided", msg: UserMessage{
		Message: "No file was selected",
		Action:  "Select a CSV or GeoJSON file to import",
		Code:    "FILE004",
	}},
	{pattern: "empty file", msg: msgEmptyFile},
	{pattern: "file is empty", msg: msgEmptyFile},
	{pattern: "unknown format", msg: UserMessage{
		Message: "The file format is not supported",
		Action:  "Use a .csv or .geojson file, or pass format=csv or format=geojson",
		Code:    "FILE006",
	}},

	// Coordinate errors
	{pattern: "could not find latitude/longitude", msg: msgMissingCoordinates},
	{pattern: "ambiguous coordinates", msg: msgAmbiguousCoordinates},
	{pattern: "could not distinguish", msg: msgAmbiguousCoordinates},
	{pattern: "out of range", msg: msgOutOfRange},
	{pattern: "invalid latitude", msg: msgInvalidCoordinate},
	{pattern: "invalid longitude", msg: msgInvalidCoordinate},

	// GeoJSON errors
	{pattern: "invalid geojson", msg: msgInvalidGeoJSON},

	// Merge errors
	{pattern: "unknown merge strategy", msg: msgUnknownStrategy},
	{pattern: "failed to merge", msg: msgMergeFailed},

	// Import errors
	{pattern: "too many imports", msg: UserMessage{
		Message: "System is busy processing other imports",
		Action:  "Please wait a moment and try again",
		Code:    "IMP002",
	}},
	{pattern: "invalid field mapping", msg: UserMessage{
		Message: "The field mapping could not be read",
		Action:  "Send the mapping as a JSON object of column names",
		Code:    "IMP003",
	}},
	{pattern: "context canceled", msg: UserMessage{
		Message: "Request was cancelled",
		Action:  "Please try again",
		Code:    "IMP004",
	}},
	{pattern: "context deadline exceeded", msg: UserMessage{
		Message: "Request timed out",
		Action:  "Try importing a smaller file or check your connection",
		Code:    "IMP005",
	}},

	// Storage errors
	{pattern: "connection refused", msg: UserMessage{
		Message: "Unable to connect to database",
		Action:  "Please try again in a few moments",
		Code:    "DB004",
	}},
	{pattern: "connection reset", msg: UserMessage{
		Message: "Database connection was interrupted",
		Action:  "Please try again",
		Code:    "DB005",
	}},
	{pattern: "timeout", msg: UserMessage{
		Message: "Operation timed out",
		Action:  "Try importing a smaller file or try again later",
		Code:    "DB006",
	}},
	{pattern: "deadlock", msg: UserMessage{
		Message: "Database was busy with conflicting operations",
		Action:  "Please try again",
		Code:    "DB007",
	}},
	{pattern: "database is locked", msg: UserMessage{
		Message: "Database file is locked by another process",
		Action:  "Please try again",
		Code:    "DB008",
	}},

	// Rate limiting
	{pattern: "rate limit", msg: UserMessage{
		Message: "Too many requests",
		Action:  "Please wait a moment before trying again",
		Code:    "RATE001",
	}},
}

// entryMessages maps ErrorEntry codes to user messages.
var entryMessages = map[string]UserMessage{
	CodeEmptyFile:                msgEmptyFile,
	CodeFileTooLarge:             msgFileTooLarge,
	CodeMissingCoordinates:       msgMissingCoordinates,
	CodeAmbiguousCoordinates:     msgAmbiguousCoordinates,
	CodeInvalidFeatureCollection: msgInvalidGeoJSON,
	CodeInvalidCoordinate:        msgInvalidCoordinate,
	CodeCoordinateOutOfRange:     msgOutOfRange,
	CodeInvalidGeometry:          msgInvalidGeometry,
	CodeInvalidPoint:             msgInvalidFeature,
	CodeMergeFailed:              msgMergeFailed,
	CodeUnknownStrategy:          msgUnknownStrategy,
}

// defaultMessage is returned when no pattern matches (ERR000).
var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or contact support",
	Code:    "ERR000",
}

// MapError converts a technical error to a user-friendly message.
// ErrorEntry values are mapped by code; other errors by the first matching
// pattern. If nothing matches, the ERR000 fallback is returned.
//
// Example:
//
//	msg := MapError(errors.New("file too large: 12MB"))
//	// msg.Code == "FILE001"
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	switch e := err.(type) {
	case ErrorEntry:
		return MapEntry(e)
	case *ErrorEntry:
		return MapEntry(*e)
	}

	errStr := strings.ToLower(err.Error())
	for _, ep := range errorPatterns {
		if strings.Contains(errStr, ep.pattern) {
			return ep.msg
		}
	}
	return defaultMessage
}

// MapEntry converts a pipeline error entry to a user-friendly message.
func MapEntry(e ErrorEntry) UserMessage {
	if msg, ok := entryMessages[e.Code]; ok {
		return msg
	}
	return defaultMessage
}

// FormatUserError creates a formatted error string for display.
// The format is: "Message (Code: XXX). Action"
func FormatUserError(err error) string {
	msg := MapError(err)
	if msg.Message == "" {
		return ""
	}
	return fmt.Sprintf("%s (Code: %s). %s", msg.Message, msg.Code, msg.Action)
}

// IsUserFacing reports whether an error maps to a specific message rather
// than the ERR000 fallback.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	return MapError(err).Code != defaultMessage.Code
}

// UserError wraps a technical error with a user-friendly message.
// The original error is preserved for logging while providing a clean message for users.
type UserError struct {
	Technical error       // Original technical error for logging
	User      UserMessage // User-friendly message for display
}

func (e *UserError) Error() string {
	return e.User.Message
}

func (e *UserError) Unwrap() error {
	return e.Technical
}

// NewUserError creates a UserError by mapping a technical error to a user-friendly message.
// Returns nil if err is nil.
func NewUserError(err error) *UserError {
	if err == nil {
		return nil
	}
	return &UserError{
		Technical: err,
		User:      MapError(err),
	}
}
