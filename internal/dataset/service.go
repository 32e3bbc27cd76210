// Package dataset owns the current point dataset: it runs imports through the
// core pipeline, merges them into the stored points and persists the result.
package dataset

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/JonMunkholm/mappoints/internal/core"
	"github.com/JonMunkholm/mappoints/internal/logging"
)

// Store persists the complete dataset.
type Store interface {
	Load(ctx context.Context) ([]core.PointRecord, error)
	Save(ctx context.Context, points []core.PointRecord) error
}

// historySize is the number of import reports kept for History.
const historySize = 50

// Options configures a Service. Zero values fall back to core defaults.
type Options struct {
	Limits          core.Limits
	Patterns        core.CoordinatePatterns
	DefaultStrategy core.MergeStrategy

	MaxConcurrent int
	MaxWait       time.Duration
	// Timeout bounds one import including persistence. Zero means no limit.
	Timeout time.Duration

	Now   func() time.Time
	NewID func() string
}

// Service serializes dataset writes. Reads go straight to the store.
type Service struct {
	store   Store
	opts    Options
	limiter *ImportLimiter

	mu sync.Mutex // held across load, merge and save

	histMu  sync.RWMutex
	history []ImportReport
}

// New creates a Service over store.
func New(store Store, opts Options) *Service {
	if opts.Patterns.IsZero() {
		opts.Patterns = core.DefaultCoordinatePatterns()
	}
	if opts.DefaultStrategy == "" {
		opts.DefaultStrategy = core.StrategyMerge
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.NewID == nil {
		opts.NewID = core.NewPointID
	}
	return &Service{
		store:   store,
		opts:    opts,
		limiter: NewImportLimiter(opts.MaxConcurrent, opts.MaxWait),
	}
}

// ImportRequest describes one uploaded file.
type ImportRequest struct {
	Filename     string
	Format       core.Format // empty: detect from Filename and content
	Text         string
	Strategy     core.MergeStrategy // empty: the service default
	FieldMapping map[string]string
}

// ImportReport summarizes an import. Saved is false when the file was rejected
// or the merge failed; the stored dataset is then unchanged.
type ImportReport struct {
	ImportID   string             `json:"import_id"`
	Filename   string             `json:"filename,omitempty"`
	Format     core.Format        `json:"format"`
	Strategy   core.MergeStrategy `json:"strategy"`
	Imported   int                `json:"imported"`
	Total      int                `json:"total"`
	Saved      bool               `json:"saved"`
	Warnings   []string           `json:"warnings"`
	Errors     []core.ErrorEntry  `json:"errors"`
	DurationMs int64              `json:"duration_ms"`
	StartedAt  time.Time          `json:"started_at"`
}

func (s *Service) importOptions(mapping map[string]string) core.ImportOptions {
	return core.ImportOptions{
		FieldMapping: mapping,
		Limits:       s.opts.Limits,
		Patterns:     s.opts.Patterns,
		Now:          s.opts.Now,
	}
}

// Template previews the structure of delimited text.
func (s *Service) Template(text string) (*core.Template, error) {
	return core.ExtractTemplate(text, s.opts.Patterns)
}

// Check reports structural problems in delimited text without importing it.
func (s *Service) Check(text string) core.ValidationReport {
	return core.ValidateDelimited(text, s.importOptions(nil))
}

// DryRun imports without merging or saving.
func (s *Service) DryRun(req ImportRequest) (core.Format, core.ImportResult[core.PointRecord]) {
	format := req.Format
	if format == "" {
		format = core.DetectFormat(req.Filename, req.Text)
	}
	return format, core.Import(format, req.Text, s.importOptions(req.FieldMapping))
}

// Import converts req, merges the points into the stored dataset and saves the
// result. Pipeline problems are reported in the ImportReport; the returned
// error is reserved for limiter, context and storage failures.
func (s *Service) Import(ctx context.Context, req ImportRequest) (ImportReport, error) {
	if err := s.limiter.Acquire(ctx); err != nil {
		return ImportReport{}, err
	}
	defer s.limiter.Release()

	if s.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.opts.Timeout)
		defer cancel()
	}

	start := time.Now()
	strategy := req.Strategy
	if strategy == "" {
		strategy = s.opts.DefaultStrategy
	}

	report := ImportReport{
		ImportID:  uuid.NewString(),
		Filename:  req.Filename,
		Strategy:  strategy,
		Warnings:  []string{},
		Errors:    []core.ErrorEntry{},
		StartedAt: s.opts.Now(),
	}

	var imported core.ImportResult[core.PointRecord]
	report.Format, imported = s.DryRun(req)

	log := logging.WithFields(ctx,
		"import_id", report.ImportID,
		"format", report.Format,
		"strategy", strategy,
	)
	log.Info("import started", "filename", req.Filename, "bytes", len(req.Text))

	report.Imported = len(imported.Data)
	report.Warnings = append(report.Warnings, imported.Warnings...)
	report.Errors = append(report.Errors, imported.Errors...)

	finish := func() ImportReport {
		report.DurationMs = time.Since(start).Milliseconds()
		s.record(report)
		log.Info("import finished",
			"saved", report.Saved,
			"points", report.Imported,
			"total", report.Total,
			"warnings", len(report.Warnings),
			"errors", len(report.Errors),
			"duration_ms", report.DurationMs,
		)
		return report
	}

	if imported.Failed() {
		return finish(), nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	existing, err := s.store.Load(ctx)
	if err != nil {
		log.Error("load dataset failed", "error", err)
		return report, fmt.Errorf("load dataset: %w", err)
	}

	merged := core.Merge(existing, imported.Data, strategy, core.MergeOptions{Now: s.opts.Now, NewID: s.opts.NewID})
	report.Warnings = append(report.Warnings, merged.Warnings...)
	report.Errors = append(report.Errors, merged.Errors...)
	if merged.Failed() {
		report.Total = len(existing)
		log.Warn("merge rejected", "errors", merged.Errors)
		return finish(), nil
	}
	report.Total = len(merged.Data)

	if err := s.store.Save(ctx, merged.Data); err != nil {
		log.Error("save dataset failed", "error", err)
		return report, fmt.Errorf("save dataset: %w", err)
	}
	report.Saved = true
	return finish(), nil
}

// Points returns the stored dataset.
func (s *Service) Points(ctx context.Context) ([]core.PointRecord, error) {
	points, err := s.store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load dataset: %w", err)
	}
	return points, nil
}

// ExportOptions selects the export encoding and columns.
type ExportOptions struct {
	Format       core.Format
	CustomFields bool
	FieldOrder   []string
}

// Export renders the stored dataset.
func (s *Service) Export(ctx context.Context, opts ExportOptions) (string, error) {
	points, err := s.Points(ctx)
	if err != nil {
		return "", err
	}
	if opts.Format == core.FormatGeoJSON {
		return core.ExportFeatureCollection(points)
	}
	return core.ExportDelimited(points, opts.CustomFields, opts.FieldOrder), nil
}

// Reset removes every stored point and returns how many there were.
func (s *Service) Reset(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	points, err := s.store.Load(ctx)
	if err != nil {
		return 0, fmt.Errorf("load dataset: %w", err)
	}
	if err := s.store.Save(ctx, nil); err != nil {
		return 0, fmt.Errorf("reset dataset: %w", err)
	}
	logging.FromContext(ctx).Info("dataset reset", "removed", len(points))
	return len(points), nil
}

func (s *Service) record(r ImportReport) {
	s.histMu.Lock()
	defer s.histMu.Unlock()
	s.history = append(s.history, r)
	if len(s.history) > historySize {
		s.history = s.history[len(s.history)-historySize:]
	}
}

// History returns recent import reports, newest first.
func (s *Service) History() []ImportReport {
	s.histMu.RLock()
	defer s.histMu.RUnlock()
	out := make([]ImportReport, len(s.history))
	for i, r := range s.history {
		out[len(s.history)-1-i] = r
	}
	return out
}

// LimiterStatus reports import slot usage.
func (s *Service) LimiterStatus() LimiterStatus {
	return s.limiter.Status()
}

// WaitForImports blocks until in-flight imports finish or ctx ends.
func (s *Service) WaitForImports(ctx context.Context) error {
	return s.limiter.WaitForDrain(ctx)
}
