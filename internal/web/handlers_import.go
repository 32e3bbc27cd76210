package web

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime"
	"net/http"

	"github.com/JonMunkholm/mappoints/internal/core"
	"github.com/JonMunkholm/mappoints/internal/dataset"
	"github.com/JonMunkholm/mappoints/internal/web/templates"
)

// multipartOverhead is allowed on top of the file size for part headers and
// form fields.
const multipartOverhead = 1 << 20

var errNoFile = errors.New("no file provided")

type upload struct {
	filename string
	text     string
	mapping  map[string]string
}

// readUpload takes the file from a multipart "file" part, or from the raw
// body for any other content type (name in the "filename" query parameter).
// The optional "mapping" value is a JSON object of header renames.
func (s *Server) readUpload(w http.ResponseWriter, r *http.Request) (upload, error) {
	maxSize := s.cfg.Import.MaxFileSize
	r.Body = http.MaxBytesReader(w, r.Body, maxSize+multipartOverhead)

	var up upload
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))

	if mediaType == "multipart/form-data" {
		if err := r.ParseMultipartForm(32 << 20); err != nil {
			return up, fmt.Errorf("invalid form: %w", err)
		}
		file, header, err := r.FormFile("file")
		if err != nil {
			return up, errNoFile
		}
		defer file.Close()

		up.filename = header.Filename
		if up.text, err = core.ReadInput(file, maxSize); err != nil {
			return up, err
		}
	} else {
		text, err := core.ReadInput(r.Body, maxSize)
		if err != nil {
			return up, err
		}
		if text == "" {
			return up, errNoFile
		}
		up.text = text
		up.filename = r.URL.Query().Get("filename")
	}

	if raw := r.FormValue("mapping"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &up.mapping); err != nil {
			return up, fmt.Errorf("invalid field mapping: %w", err)
		}
	}
	return up, nil
}

// uploadStatus is 413 for oversized bodies and 400 for everything else.
func uploadStatus(err error) int {
	var maxErr *http.MaxBytesError
	if errors.Is(err, core.ErrInputTooLarge) || errors.As(err, &maxErr) {
		return http.StatusRequestEntityTooLarge
	}
	if core.MapError(err).Code == "FILE001" {
		return http.StatusRequestEntityTooLarge
	}
	return http.StatusBadRequest
}

// importRequest reads the upload plus the format and strategy parameters.
func (s *Server) importRequest(w http.ResponseWriter, r *http.Request) (dataset.ImportRequest, bool) {
	up, err := s.readUpload(w, r)
	if err != nil {
		respondError(w, r, err, uploadStatus(err))
		return dataset.ImportRequest{}, false
	}

	format, err := core.ParseFormat(r.FormValue("format"))
	if err != nil {
		respondError(w, r, err, http.StatusBadRequest)
		return dataset.ImportRequest{}, false
	}

	req := dataset.ImportRequest{
		Filename:     up.filename,
		Format:       format,
		Text:         up.text,
		FieldMapping: up.mapping,
	}
	if name := r.FormValue("strategy"); name != "" {
		strategy, err := core.ParseMergeStrategy(name)
		if err != nil {
			respondError(w, r, err, http.StatusBadRequest)
			return dataset.ImportRequest{}, false
		}
		req.Strategy = strategy
	}
	return req, true
}

func (s *Server) handleTemplate(w http.ResponseWriter, r *http.Request) {
	up, err := s.readUpload(w, r)
	if err != nil {
		respondError(w, r, err, uploadStatus(err))
		return
	}

	tmpl, err := s.service.Template(up.text)
	if err != nil {
		respondError(w, r, err, http.StatusUnprocessableEntity)
		return
	}
	writeJSON(w, http.StatusOK, tmpl)
}

// handleCheck reports structural problems of a delimited file.
func (s *Server) handleCheck(w http.ResponseWriter, r *http.Request) {
	up, err := s.readUpload(w, r)
	if err != nil {
		respondError(w, r, err, uploadStatus(err))
		return
	}
	writeJSON(w, http.StatusOK, s.service.Check(up.text))
}

type validateResponse struct {
	Format core.Format `json:"format"`
	core.ImportResult[core.PointRecord]
}

// handleValidate runs the import pipeline without merging or saving.
func (s *Server) handleValidate(w http.ResponseWriter, r *http.Request) {
	req, ok := s.importRequest(w, r)
	if !ok {
		return
	}

	format, result := s.service.DryRun(req)
	status := http.StatusOK
	if result.Failed() {
		status = rejectionStatus(result.Errors)
	}
	writeJSON(w, status, validateResponse{Format: format, ImportResult: result})
}

func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	req, ok := s.importRequest(w, r)
	if !ok {
		return
	}

	report, err := s.service.Import(r.Context(), req)
	if err != nil {
		respondError(w, r, err, importErrorStatus(err))
		return
	}

	status := http.StatusOK
	if !report.Saved {
		status = rejectionStatus(report.Errors)
	}

	if isHTMX(r) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(status)
		_ = templates.ImportSummary(summaryOf(report)).Render(r.Context(), w)
		return
	}
	writeJSON(w, status, report)
}

func importErrorStatus(err error) int {
	switch {
	case errors.Is(err, dataset.ErrTooManyImports):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func summaryOf(report dataset.ImportReport) templates.Summary {
	issues := make([]templates.Issue, len(report.Errors))
	for i, e := range report.Errors {
		issues[i] = templates.Issue{Line: e.Line, Message: e.Message}
	}
	return templates.Summary{
		ImportID:   report.ImportID,
		Format:     string(report.Format),
		Strategy:   string(report.Strategy),
		Imported:   report.Imported,
		Total:      report.Total,
		Saved:      report.Saved,
		DurationMs: report.DurationMs,
		Warnings:   report.Warnings,
		Errors:     issues,
	}
}
