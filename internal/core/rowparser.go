package core

// rowparser.go splits delimited text into a header and header-keyed rows.
//
// The file is split on newlines before any quoting is considered, so a quoted
// value can never span lines. Each line is then tokenized with encoding/csv
// and every cell passes through CleanCell. Row-level problems become warnings;
// only the size ceiling and empty input are fatal.

import (
	"encoding/csv"
	"fmt"
	"strings"
)

// ParsedRow is one data row with its physical 1-based line number.
type ParsedRow struct {
	Line   int     // line in the source text, header is usually line 1
	Index  int     // 1-based ordinal among non-blank data lines
	Values RowDict // cells keyed by header
}

// ParsedRows is the output of ParseRows.
type ParsedRows struct {
	Headers  []string
	Rows     []ParsedRow
	Warnings []string
}

// rowParseOptions controls one parse.
type rowParseOptions struct {
	limits Limits
	// mapping renames raw headers before rows are keyed.
	mapping map[string]string
	// sample, when > 0, keeps only the first sample data rows without a warning.
	sample int
}

// ParseRows parses delimited text under the given limits.
// A non-nil *ErrorEntry means the file was rejected and ParsedRows holds only warnings.
func ParseRows(text string, limits Limits) (ParsedRows, *ErrorEntry) {
	b := &resultBuilder{}
	parsed, fatal := parseRows(text, rowParseOptions{limits: limits.withDefaults()}, b)
	parsed.Warnings = b.points(nil).Warnings
	return parsed, fatal
}

func parseRows(text string, opts rowParseOptions, b *resultBuilder) (ParsedRows, *ErrorEntry) {
	limits := opts.limits.withDefaults()

	if int64(len(text)) > limits.MaxFileSize {
		return ParsedRows{}, &ErrorEntry{
			Kind: KindFileStructure,
			Code: CodeFileTooLarge,
			Message: fmt.Sprintf("File size %.1fMB exceeds limit of %.1fMB",
				float64(len(text))/1024/1024, float64(limits.MaxFileSize)/1024/1024),
		}
	}
	if strings.TrimSpace(text) == "" {
		return ParsedRows{}, &ErrorEntry{
			Kind:    KindFileStructure,
			Code:    CodeEmptyFile,
			Message: "CSV file is empty",
		}
	}

	lines := strings.Split(text, "\n")

	// Header is the first non-blank line; data lines are the non-blank lines after it.
	headerAt := -1
	var dataAt []int
	for i, line := range lines {
		if strings.TrimSpace(strings.TrimSuffix(line, "\r")) == "" {
			continue
		}
		if headerAt < 0 {
			headerAt = i
			continue
		}
		dataAt = append(dataAt, i)
	}

	switch {
	case opts.sample > 0 && len(dataAt) > opts.sample:
		dataAt = dataAt[:opts.sample]
	case len(dataAt) > limits.MaxRows:
		b.warn("File contains %d rows, only processing first %d", len(dataAt), limits.MaxRows)
		dataAt = dataAt[:limits.MaxRows]
	}

	headers := splitLine(lines[headerAt])
	for i, h := range headers {
		if renamed, ok := opts.mapping[h]; ok && renamed != "" {
			headers[i] = renamed
		}
	}

	parsed := ParsedRows{Headers: headers, Rows: make([]ParsedRow, 0, len(dataAt))}
	for n, i := range dataAt {
		lineNumber := i + 1
		values := splitLine(lines[i])
		if len(values) != len(headers) {
			b.warn("Line %d: Column count mismatch (expected %d, got %d)", lineNumber, len(headers), len(values))
			continue
		}

		row := make(RowDict, len(headers))
		for j, h := range headers {
			row[h] = values[j]
		}
		parsed.Rows = append(parsed.Rows, ParsedRow{
			Line:   lineNumber,
			Index:  n + 1,
			Values: row,
		})
	}
	return parsed, nil
}

// splitLine tokenizes one line with CSV quoting rules and cleans every cell.
// Cells that were double-quoted in the source keep their content as written
// apart from an Excel formula wrapper. Lines the csv reader rejects fall back
// to a plain comma split.
func splitLine(line string) []string {
	line = strings.TrimSuffix(line, "\r")

	r := csv.NewReader(strings.NewReader(line))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	r.TrimLeadingSpace = true

	cells, err := r.Read()
	if err != nil {
		cells = strings.Split(line, ",")
		for i, c := range cells {
			cells[i] = CleanCell(c)
		}
		return cells
	}
	for i, c := range cells {
		if _, col := r.FieldPos(i); col >= 1 && col <= len(line) && line[col-1] == '"' {
			cells[i] = stripFormula(c)
			continue
		}
		cells[i] = CleanCell(c)
	}
	return cells
}

// CleanCell removes common spreadsheet artifacts from a cell value:
// surrounding whitespace, an Excel formula wrapper (="...") and matching
// surrounding quote characters.
func CleanCell(s string) string {
	s = stripFormula(strings.TrimSpace(s))

	for len(s) >= 2 {
		first, last := s[0], s[len(s)-1]
		if first != last || (first != '"' && first != '\'') {
			break
		}
		s = strings.TrimSpace(s[1 : len(s)-1])
	}
	return s
}

func stripFormula(s string) string {
	if strings.HasPrefix(s, `="`) && strings.HasSuffix(s, `"`) && len(s) >= 3 {
		return s[2 : len(s)-1]
	}
	return s
}
