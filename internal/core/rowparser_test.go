package core

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRows(t *testing.T) {
	t.Run("header and rows", func(t *testing.T) {
		parsed, fatal := ParseRows("id,name,lat,lng\n1,A,1,2\n2,B,3,4", Limits{})
		require.Nil(t, fatal)
		assert.Equal(t, []string{"id", "name", "lat", "lng"}, parsed.Headers)
		require.Len(t, parsed.Rows, 2)
		assert.Equal(t, 2, parsed.Rows[0].Line)
		assert.Equal(t, 1, parsed.Rows[0].Index)
		assert.Equal(t, "A", parsed.Rows[0].Values["name"])
		assert.Equal(t, "4", parsed.Rows[1].Values["lng"])
		assert.Empty(t, parsed.Warnings)
	})

	t.Run("windows line endings", func(t *testing.T) {
		parsed, fatal := ParseRows("a,b\r\n1,2\r\n", Limits{})
		require.Nil(t, fatal)
		require.Len(t, parsed.Rows, 1)
		assert.Equal(t, RowDict{"a": "1", "b": "2"}, parsed.Rows[0].Values)
	})

	t.Run("quoted cells", func(t *testing.T) {
		parsed, fatal := ParseRows("name,desc,lat,lng\n\"Smith, J\",\"He said \"\"hi\"\"\",1,2", Limits{})
		require.Nil(t, fatal)
		require.Len(t, parsed.Rows, 1)
		assert.Equal(t, "Smith, J", parsed.Rows[0].Values["name"])
		assert.Equal(t, `He said "hi"`, parsed.Rows[0].Values["desc"])
	})

	t.Run("single quoted cells are unwrapped", func(t *testing.T) {
		parsed, fatal := ParseRows("'a','b'\n'1','2'", Limits{})
		require.Nil(t, fatal)
		assert.Equal(t, []string{"a", "b"}, parsed.Headers)
		assert.Equal(t, RowDict{"a": "1", "b": "2"}, parsed.Rows[0].Values)
	})

	t.Run("double quoted cells keep their content", func(t *testing.T) {
		parsed, fatal := ParseRows("a,b,c,d\n\"'x'\",\"\"\"y\"\"\",\" pad \",\"=\"\"007\"\"\"", Limits{})
		require.Nil(t, fatal)
		require.Len(t, parsed.Rows, 1)
		assert.Equal(t, RowDict{"a": "'x'", "b": `"y"`, "c": " pad ", "d": "007"}, parsed.Rows[0].Values)
	})

	t.Run("column count mismatch is a warning", func(t *testing.T) {
		parsed, fatal := ParseRows("a,b\n1,2,3\n4,5", Limits{})
		require.Nil(t, fatal)
		require.Len(t, parsed.Rows, 1)
		assert.Equal(t, 3, parsed.Rows[0].Line)
		assert.Equal(t, 2, parsed.Rows[0].Index)
		assert.Equal(t, []string{"Line 2: Column count mismatch (expected 2, got 3)"}, parsed.Warnings)
	})

	t.Run("blank lines skipped silently", func(t *testing.T) {
		parsed, fatal := ParseRows("\na,b\n\n1,2\n   \n3,4\n", Limits{})
		require.Nil(t, fatal)
		require.Len(t, parsed.Rows, 2)
		assert.Equal(t, 4, parsed.Rows[0].Line)
		assert.Equal(t, 6, parsed.Rows[1].Line)
		assert.Empty(t, parsed.Warnings)
	})

	t.Run("row ceiling truncates with warning", func(t *testing.T) {
		text := "a,b\n" + strings.Repeat("1,2\n", 5)
		parsed, fatal := ParseRows(text, Limits{MaxRows: 3})
		require.Nil(t, fatal)
		assert.Len(t, parsed.Rows, 3)
		assert.Equal(t, []string{"File contains 5 rows, only processing first 3"}, parsed.Warnings)
	})

	t.Run("size ceiling is fatal", func(t *testing.T) {
		_, fatal := ParseRows("a,b\n1,2\n3,4\n", Limits{MaxFileSize: 8})
		require.NotNil(t, fatal)
		assert.Equal(t, CodeFileTooLarge, fatal.Code)
		assert.Equal(t, KindFileStructure, fatal.Kind)
	})

	t.Run("empty input is fatal", func(t *testing.T) {
		_, fatal := ParseRows(" \n \r\n", Limits{})
		require.NotNil(t, fatal)
		assert.Equal(t, CodeEmptyFile, fatal.Code)
	})
}

func TestCleanCell(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"  x  ", "x"},
		{`="007"`, "007"},
		{`"quoted"`, "quoted"},
		{`'single'`, "single"},
		{`" padded "`, "padded"},
		{"it's", "it's"},
		{`"mixed'`, `"mixed'`},
		{`say "hi"`, `say "hi"`},
		{"", ""},
	}
	for _, tt := range tests {
		if got := CleanCell(tt.in); got != tt.want {
			t.Errorf("CleanCell(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
