package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/mappoints/internal/config"
	"github.com/JonMunkholm/mappoints/internal/core"
	"github.com/JonMunkholm/mappoints/internal/dataset"
	"github.com/JonMunkholm/mappoints/internal/logging"
	"github.com/JonMunkholm/mappoints/internal/store"
)

// globalOptions are the persistent flags shared by every command.
type globalOptions struct {
	db        string
	patterns  string
	logLevel  string
	logFormat string
}

func newRootCmd() *cobra.Command {
	var g globalOptions

	cmd := &cobra.Command{
		Use:           "pointctl",
		Short:         "Import, merge and export map point datasets",
		Long:          `Convert CSV and GeoJSON point files, merge them into a local SQLite dataset and export the result.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			slog.SetDefault(logging.New(cmd.ErrOrStderr(), g.logLevel, g.logFormat))
		},
	}

	pf := cmd.PersistentFlags()
	pf.StringVar(&g.db, "db", "mappoints.db", "SQLite dataset file")
	pf.StringVar(&g.patterns, "patterns", "", "YAML file with latitude/longitude header patterns")
	pf.StringVar(&g.logLevel, "log-level", "warn", "Log level (debug, info, warn, error)")
	pf.StringVar(&g.logFormat, "log-format", "text", "Log format (text, json)")

	cmd.AddCommand(
		newTemplateCmd(&g),
		newCheckCmd(&g),
		newImportCmd(&g),
		newExportCmd(&g),
		newMergeCmd(&g),
		newResetCmd(&g),
	)
	return cmd
}

// Execute runs the CLI and exits non-zero on failure.
func Execute() {
	cmd := newRootCmd()
	if err := cmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(cmd.ErrOrStderr(), "Error:", err)
		if core.IsUserFacing(err) {
			fmt.Fprintln(cmd.ErrOrStderr(), core.FormatUserError(err))
		}
		os.Exit(1)
	}
}

// importConfig starts from the environment so IMPORT_* variables apply to the
// CLI as well; --patterns overrides the pattern file.
func (g *globalOptions) importConfig() (config.ImportConfig, error) {
	cfg, err := config.Load()
	if err != nil {
		return config.ImportConfig{}, err
	}
	if g.patterns != "" {
		cfg.Import.CoordinatePatterns = g.patterns
	}
	return cfg.Import, nil
}

func (g *globalOptions) serviceOptions() (dataset.Options, config.ImportConfig, error) {
	importCfg, err := g.importConfig()
	if err != nil {
		return dataset.Options{}, importCfg, err
	}
	opts, err := dataset.OptionsFromConfig(importCfg)
	return opts, importCfg, err
}

// scratchService runs the pipeline over an in-memory dataset that is
// discarded when the command ends.
func (g *globalOptions) scratchService() (*dataset.Service, config.ImportConfig, error) {
	opts, importCfg, err := g.serviceOptions()
	if err != nil {
		return nil, importCfg, err
	}
	return dataset.New(store.NewMemory(), opts), importCfg, nil
}

// openService opens the SQLite dataset named by --db.
func (g *globalOptions) openService(ctx context.Context) (*dataset.Service, config.ImportConfig, func(), error) {
	opts, importCfg, err := g.serviceOptions()
	if err != nil {
		return nil, importCfg, nil, err
	}

	backend, err := store.Open(ctx, config.StorageConfig{Driver: config.DriverSQLite, SQLitePath: g.db})
	if err != nil {
		return nil, importCfg, nil, err
	}
	cleanup := func() {
		if err := backend.Close(); err != nil {
			slog.Warn("close dataset", "path", g.db, "error", err)
		}
	}
	return dataset.New(backend, opts), importCfg, cleanup, nil
}

// readFile loads a point file through the same input checks as the server.
func readFile(path string, maxBytes int64) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()
	return core.ReadInput(f, maxBytes)
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// writeOutput writes to path, or to w when path is empty or "-".
func writeOutput(w io.Writer, path, content string) error {
	if path == "" || path == "-" {
		_, err := io.WriteString(w, content)
		return err
	}
	return os.WriteFile(path, []byte(content), 0o644)
}
