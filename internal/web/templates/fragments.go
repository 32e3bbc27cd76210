// Package templates renders the HTML fragments returned to HTMX requests.
package templates

import (
	"context"
	"fmt"
	"html"
	"io"

	"github.com/a-h/templ"
)

// ErrorAlert renders a dismissible error box with the support code.
func ErrorAlert(message, action, code string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		_, err := fmt.Fprintf(w,
			`<div class="alert alert-error" role="alert"><p class="alert-message">%s</p>`,
			html.EscapeString(message))
		if err != nil {
			return err
		}
		if action != "" {
			if _, err := fmt.Fprintf(w, `<p class="alert-action">%s</p>`, html.EscapeString(action)); err != nil {
				return err
			}
		}
		_, err = fmt.Fprintf(w, `<p class="alert-code">Code: %s</p></div>`, html.EscapeString(code))
		return err
	})
}

// Issue is one warning or error line in an import summary.
type Issue struct {
	Line    int
	Message string
}

// Summary is the data shown after an import.
type Summary struct {
	ImportID   string
	Format     string
	Strategy   string
	Imported   int
	Total      int
	Saved      bool
	DurationMs int64
	Warnings   []string
	Errors     []Issue
}

// maxListed caps the warnings and errors listed in a summary.
const maxListed = 20

// ImportSummary renders the result of an import.
func ImportSummary(s Summary) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		status, class := "Saved", "summary-ok"
		if !s.Saved {
			status, class = "Not saved", "summary-failed"
		}

		ew := &errWriter{w: w}
		ew.printf(`<section class="import-summary %s" data-import-id="%s">`, class, html.EscapeString(s.ImportID))
		ew.printf(`<h3>%s</h3>`, status)
		ew.printf(`<dl><dt>Format</dt><dd>%s</dd><dt>Strategy</dt><dd>%s</dd>`,
			html.EscapeString(s.Format), html.EscapeString(s.Strategy))
		ew.printf(`<dt>Imported</dt><dd>%d</dd><dt>Total points</dt><dd>%d</dd><dt>Duration</dt><dd>%d ms</dd></dl>`,
			s.Imported, s.Total, s.DurationMs)

		if len(s.Errors) > 0 {
			ew.printf(`<h4>Errors (%d)</h4><ul class="import-errors">`, len(s.Errors))
			for i, e := range s.Errors {
				if i == maxListed {
					ew.printf(`<li>… and %d more</li>`, len(s.Errors)-maxListed)
					break
				}
				if e.Line > 0 {
					ew.printf(`<li><span class="line">%d</span> %s</li>`, e.Line, html.EscapeString(e.Message))
				} else {
					ew.printf(`<li>%s</li>`, html.EscapeString(e.Message))
				}
			}
			ew.printf(`</ul>`)
		}

		if len(s.Warnings) > 0 {
			ew.printf(`<h4>Warnings (%d)</h4><ul class="import-warnings">`, len(s.Warnings))
			for i, msg := range s.Warnings {
				if i == maxListed {
					ew.printf(`<li>… and %d more</li>`, len(s.Warnings)-maxListed)
					break
				}
				ew.printf(`<li>%s</li>`, html.EscapeString(msg))
			}
			ew.printf(`</ul>`)
		}

		ew.printf(`</section>`)
		return ew.err
	})
}

// errWriter keeps the first write error so rendering code stays linear.
type errWriter struct {
	w   io.Writer
	err error
}

func (e *errWriter) printf(format string, args ...any) {
	if e.err != nil {
		return
	}
	_, e.err = fmt.Fprintf(e.w, format, args...)
}
