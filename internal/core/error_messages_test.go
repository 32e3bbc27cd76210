package core

import (
	"errors"
	"fmt"
	"testing"
)

func TestMapError(t *testing.T) {
	tests := []struct {
		name        string
		err         error
		wantCode    string
		wantMessage string
	}{
		{
			name:        "nil error returns empty",
			err:         nil,
			wantCode:    "",
			wantMessage: "",
		},
		{
			name:        "file too large maps correctly",
			err:         errors.New("File size 12.0MB exceeds limit of 10.0MB"),
			wantCode:    "FILE001",
			wantMessage: "File exceeds the maximum import size",
		},
		{
			name:        "empty file maps correctly",
			err:         errors.New("CSV file is empty"),
			wantCode:    "FILE005",
			wantMessage: "The uploaded file is empty",
		},
		{
			name:        "missing coordinates maps correctly",
			err:         errors.New("Could not find latitude/longitude fields. Available fields: a, b"),
			wantCode:    "COORD001",
			wantMessage: "No latitude/longitude columns were found",
		},
		{
			name:        "ambiguous coordinates maps correctly",
			err:         fmt.Errorf("header %q: %w", "latlng", ErrAmbiguousCoordinates),
			wantCode:    "COORD002",
			wantMessage: "One column matches both latitude and longitude",
		},
		{
			name:        "invalid latitude maps correctly",
			err:         errors.New("Line 3: Invalid latitude value \"abc\""),
			wantCode:    "COORD004",
			wantMessage: "A coordinate value is not a number",
		},
		{
			name:        "connection refused maps correctly",
			err:         errors.New("dial tcp: connection refused"),
			wantCode:    "DB004",
			wantMessage: "Unable to connect to database",
		},
		{
			name:        "sqlite lock maps correctly",
			err:         errors.New("database is locked"),
			wantCode:    "DB008",
			wantMessage: "Database file is locked by another process",
		},
		{
			name:        "import limiter maps correctly",
			err:         errors.New("too many imports in progress"),
			wantCode:    "IMP002",
			wantMessage: "System is busy processing other imports",
		},
		{
			name:        "rate limit maps correctly",
			err:         errors.New("rate limit exceeded"),
			wantCode:    "RATE001",
			wantMessage: "Too many requests",
		},
		{
			name:        "unknown error returns default",
			err:         errors.New("some random internal error"),
			wantCode:    "ERR000",
			wantMessage: "An unexpected error occurred",
		},
		{
			name:        "case insensitive matching",
			err:         errors.New("FILE TOO LARGE"),
			wantCode:    "FILE001",
			wantMessage: "File exceeds the maximum import size",
		},
		{
			name:        "error entry maps by code",
			err:         ErrorEntry{Kind: KindRow, Code: CodeInvalidGeometry, Message: "Feature at index 2 has no geometry"},
			wantCode:    "GEO002",
			wantMessage: "A feature has no Point geometry",
		},
		{
			name:        "error entry pointer maps by code",
			err:         &ErrorEntry{Kind: KindMerge, Code: CodeUnknownStrategy, Message: "Unknown merge strategy \"upsert\""},
			wantCode:    "MRG002",
			wantMessage: "Unknown merge strategy",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MapError(tt.err)
			if got.Code != tt.wantCode {
				t.Errorf("MapError() code = %q, want %q", got.Code, tt.wantCode)
			}
			if got.Message != tt.wantMessage {
				t.Errorf("MapError() message = %q, want %q", got.Message, tt.wantMessage)
			}
		})
	}
}

func TestMapEntry_AllCodesKnown(t *testing.T) {
	codes := []string{
		CodeEmptyFile, CodeFileTooLarge, CodeMissingCoordinates, CodeAmbiguousCoordinates,
		CodeInvalidFeatureCollection, CodeInvalidCoordinate, CodeCoordinateOutOfRange,
		CodeInvalidGeometry, CodeInvalidPoint, CodeMergeFailed, CodeUnknownStrategy,
	}
	for _, code := range codes {
		if got := MapEntry(ErrorEntry{Code: code}); got.Code == defaultMessage.Code {
			t.Errorf("MapEntry(%s) fell back to %s", code, got.Code)
		}
	}
	if got := MapEntry(ErrorEntry{Code: CodeInternal}); got.Code != "ERR000" {
		t.Errorf("MapEntry(%s) = %s, want ERR000", CodeInternal, got.Code)
	}
}

func TestFormatUserError(t *testing.T) {
	err := errors.New("rate limit exceeded")
	result := FormatUserError(err)

	expected := "Too many requests (Code: RATE001). Please wait a moment before trying again"
	if result != expected {
		t.Errorf("FormatUserError() = %q, want %q", result, expected)
	}
}

func TestIsUserFacing(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{
			name: "nil error is not user facing",
			err:  nil,
			want: false,
		},
		{
			name: "known error is user facing",
			err:  errors.New("unknown format \"xml\""),
			want: true,
		},
		{
			name: "unknown error is not user facing",
			err:  errors.New("random internal error xyz"),
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := IsUserFacing(tt.err)
			if got != tt.want {
				t.Errorf("IsUserFacing() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNewUserError(t *testing.T) {
	t.Run("nil error returns nil", func(t *testing.T) {
		if got := NewUserError(nil); got != nil {
			t.Errorf("NewUserError(nil) = %v, want nil", got)
		}
	})

	t.Run("wraps technical error with user message", func(t *testing.T) {
		techErr := fmt.Errorf("save points: %w", errors.New("dial tcp: connection refused"))
		userErr := NewUserError(techErr)

		if userErr.Error() != "Unable to connect to database" {
			t.Errorf("Error() = %q, want user message", userErr.Error())
		}

		if !errors.Is(userErr, techErr) {
			t.Error("Unwrap() should return original error")
		}
	})
}
