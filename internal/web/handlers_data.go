package web

import (
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/JonMunkholm/mappoints/internal/core"
	"github.com/JonMunkholm/mappoints/internal/dataset"
)

type healthResponse struct {
	Status  string                `json:"status"`
	Storage string                `json:"storage"`
	Imports dataset.LimiterStatus `json:"imports"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{
		Status:  "ok",
		Storage: s.cfg.Storage.Driver,
		Imports: s.service.LimiterStatus(),
	})
}

type pointsResponse struct {
	Count  int                `json:"count"`
	Points []core.PointRecord `json:"points"`
}

// handlePoints returns the stored dataset.
func (s *Server) handlePoints(w http.ResponseWriter, r *http.Request) {
	points, err := s.service.Points(r.Context())
	if err != nil {
		respondError(w, r, err, http.StatusInternalServerError)
		return
	}
	if points == nil {
		points = []core.PointRecord{}
	}
	writeJSON(w, http.StatusOK, pointsResponse{Count: len(points), Points: points})
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	removed, err := s.service.Reset(r.Context())
	if err != nil {
		respondError(w, r, err, http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"removed": removed})
}

// handleExport downloads the dataset as CSV (default) or GeoJSON.
// Query: format=csv|geojson, custom=true to add property columns,
// fields=a,b to order them.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	format, err := core.ParseFormat(q.Get("format"))
	if err != nil {
		respondError(w, r, err, http.StatusBadRequest)
		return
	}
	if format == "" {
		format = core.FormatCSV
	}

	opts := dataset.ExportOptions{Format: format, FieldOrder: splitFields(q.Get("fields"))}
	if raw := q.Get("custom"); raw != "" {
		if opts.CustomFields, err = strconv.ParseBool(raw); err != nil {
			respondError(w, r, fmt.Errorf("invalid custom flag %q", raw), http.StatusBadRequest)
			return
		}
	}

	out, err := s.service.Export(r.Context(), opts)
	if err != nil {
		respondError(w, r, err, http.StatusInternalServerError)
		return
	}

	contentType, ext := "text/csv; charset=utf-8", "csv"
	if format == core.FormatGeoJSON {
		contentType, ext = "application/geo+json", "geojson"
	}
	filename := fmt.Sprintf("points_%s.%s", time.Now().Format("20060102_150405"), ext)

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	w.WriteHeader(http.StatusOK)
	_, _ = io.WriteString(w, out)
}

// handleHistory lists recent imports, newest first.
func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.service.History())
}

func splitFields(raw string) []string {
	if raw == "" {
		return nil
	}
	var fields []string
	for _, f := range strings.Split(raw, ",") {
		if f = strings.TrimSpace(f); f != "" {
			fields = append(fields, f)
		}
	}
	return fields
}
