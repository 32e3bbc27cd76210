package templates

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"testing"
)

func TestErrorAlert(t *testing.T) {
	var buf bytes.Buffer
	if err := ErrorAlert(`Bad <file>`, "Try again", "FILE001").Render(context.Background(), &buf); err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	got := buf.String()

	for _, want := range []string{"Bad &lt;file&gt;", `<p class="alert-action">Try again</p>`, "Code: FILE001"} {
		if !strings.Contains(got, want) {
			t.Errorf("ErrorAlert output missing %q:\n%s", want, got)
		}
	}
}

func TestErrorAlert_NoAction(t *testing.T) {
	var buf bytes.Buffer
	if err := ErrorAlert("Oops", "", "ERR000").Render(context.Background(), &buf); err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if strings.Contains(buf.String(), "alert-action") {
		t.Errorf("unexpected action paragraph: %s", buf.String())
	}
}

func TestImportSummary(t *testing.T) {
	s := Summary{
		ImportID: "abc",
		Format:   "csv",
		Strategy: "merge",
		Imported: 2,
		Total:    5,
		Saved:    true,
		Warnings: []string{"Line 4: Missing coordinate values"},
		Errors:   []Issue{{Line: 3, Message: `Line 3: Invalid latitude value "x"`}},
	}

	var buf bytes.Buffer
	if err := ImportSummary(s).Render(context.Background(), &buf); err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	got := buf.String()

	tests := []string{
		`data-import-id="abc"`,
		"<h3>Saved</h3>",
		"<dd>5</dd>",
		"Errors (1)",
		"Invalid latitude value &#34;x&#34;",
		"Warnings (1)",
	}
	for _, want := range tests {
		if !strings.Contains(got, want) {
			t.Errorf("ImportSummary output missing %q:\n%s", want, got)
		}
	}
}

func TestImportSummary_TruncatesLongLists(t *testing.T) {
	s := Summary{Saved: false}
	for i := 0; i < 25; i++ {
		s.Warnings = append(s.Warnings, fmt.Sprintf("warning %d", i))
	}

	var buf bytes.Buffer
	if err := ImportSummary(s).Render(context.Background(), &buf); err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	got := buf.String()

	if !strings.Contains(got, "<h3>Not saved</h3>") {
		t.Errorf("missing failed heading:\n%s", got)
	}
	if !strings.Contains(got, "and 5 more") {
		t.Errorf("missing truncation marker:\n%s", got)
	}
	if strings.Contains(got, "warning 20") {
		t.Errorf("listed more than %d warnings", maxListed)
	}
}
