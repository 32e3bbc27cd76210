package main

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/mappoints/internal/core"
	"github.com/JonMunkholm/mappoints/internal/dataset"
)

var errNotSaved = errors.New("import rejected, dataset unchanged")

type importOptions struct {
	format   string
	strategy string
	mapping  map[string]string
	dryRun   bool
	json     bool
}

func newImportCmd(g *globalOptions) *cobra.Command {
	var opts importOptions

	cmd := &cobra.Command{
		Use:   "import FILE",
		Short: "Import a CSV or GeoJSON file into the dataset",
		Long: `Import converts FILE into points and combines them with the dataset in --db.

Strategies:
  replace  drop the stored points and keep only the file
  merge    update points with matching ids, add the rest (default)
  append   add every point under a fresh id`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImport(cmd, g, opts, args[0])
		},
	}

	cmd.Flags().StringVarP(&opts.format, "format", "f", "", "Input format: csv or geojson (default: from extension or content)")
	cmd.Flags().StringVarP(&opts.strategy, "strategy", "s", "", "Merge strategy: replace, merge or append")
	cmd.Flags().StringToStringVar(&opts.mapping, "map", nil, "Rename headers before import, e.g. --map north=lat,east=lng")
	cmd.Flags().BoolVar(&opts.dryRun, "dry-run", false, "Convert and report without touching the dataset")
	cmd.Flags().BoolVar(&opts.json, "json", false, "Print the full report as JSON")
	return cmd
}

func runImport(cmd *cobra.Command, g *globalOptions, opts importOptions, path string) error {
	format, err := core.ParseFormat(opts.format)
	if err != nil {
		return err
	}
	var strategy core.MergeStrategy
	if opts.strategy != "" {
		if strategy, err = core.ParseMergeStrategy(opts.strategy); err != nil {
			return err
		}
	}

	if opts.dryRun {
		return runDryRun(cmd, g, opts, path, format)
	}

	svc, importCfg, cleanup, err := g.openService(cmd.Context())
	if err != nil {
		return err
	}
	defer cleanup()

	text, err := readFile(path, importCfg.MaxFileSize)
	if err != nil {
		return err
	}

	report, err := svc.Import(cmd.Context(), dataset.ImportRequest{
		Filename:     filepath.Base(path),
		Format:       format,
		Text:         text,
		Strategy:     strategy,
		FieldMapping: opts.mapping,
	})
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if opts.json {
		if err := printJSON(out, report); err != nil {
			return err
		}
	} else {
		printReport(out, report)
	}
	if !report.Saved {
		return errNotSaved
	}
	return nil
}

func runDryRun(cmd *cobra.Command, g *globalOptions, opts importOptions, path string, format core.Format) error {
	svc, importCfg, err := g.scratchService()
	if err != nil {
		return err
	}
	text, err := readFile(path, importCfg.MaxFileSize)
	if err != nil {
		return err
	}

	format, result := svc.DryRun(dataset.ImportRequest{
		Filename:     filepath.Base(path),
		Format:       format,
		Text:         text,
		FieldMapping: opts.mapping,
	})
	out := cmd.OutOrStdout()
	if opts.json {
		if err := printJSON(out, result); err != nil {
			return err
		}
	} else {
		fmt.Fprintf(out, "%s: %d points would be imported (%s)\n", path, len(result.Data), format)
		printIssues(out, result.Warnings, result.Errors)
	}
	if result.Failed() {
		return errNotSaved
	}
	return nil
}

func printReport(w io.Writer, r dataset.ImportReport) {
	status := "saved"
	if !r.Saved {
		status = "not saved"
	}
	fmt.Fprintf(w, "%s: %d points imported with %s, dataset holds %d (%s, %d ms)\n",
		r.Filename, r.Imported, r.Strategy, r.Total, status, r.DurationMs)
	printIssues(w, r.Warnings, r.Errors)
}

func printIssues(w io.Writer, warnings []string, errs []core.ErrorEntry) {
	for _, e := range errs {
		fmt.Fprintf(w, "  error: %s\n", e.Message)
	}
	for _, msg := range warnings {
		fmt.Fprintf(w, "  warning: %s\n", msg)
	}
}

func newExportCmd(g *globalOptions) *cobra.Command {
	var (
		format string
		custom bool
		fields []string
		output string
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the dataset as CSV or GeoJSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			f, err := core.ParseFormat(format)
			if err != nil {
				return err
			}
			if f == "" {
				f = core.FormatCSV
			}

			svc, _, cleanup, err := g.openService(cmd.Context())
			if err != nil {
				return err
			}
			defer cleanup()

			out, err := svc.Export(cmd.Context(), dataset.ExportOptions{
				Format:       f,
				CustomFields: custom,
				FieldOrder:   fields,
			})
			if err != nil {
				return err
			}
			return writeOutput(cmd.OutOrStdout(), output, out)
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "csv", "Output format: csv or geojson")
	cmd.Flags().BoolVar(&custom, "custom", false, "Add a column per property key (csv)")
	cmd.Flags().StringSliceVar(&fields, "fields", nil, "Order of the property columns, e.g. --fields owner,floor")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file (default: stdout)")
	return cmd
}

func newResetCmd(g *globalOptions) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Remove every point from the dataset",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !yes {
				return fmt.Errorf("refusing to reset %s without --yes", g.db)
			}
			svc, _, cleanup, err := g.openService(cmd.Context())
			if err != nil {
				return err
			}
			defer cleanup()

			n, err := svc.Reset(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "removed %d points from %s\n", n, g.db)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Confirm the reset")
	return cmd
}

// exportFormatFor picks the output format of a merge from the output file
// name, falling back to the format of the existing file.
func exportFormatFor(output string, fallback core.Format) core.Format {
	switch strings.ToLower(filepath.Ext(output)) {
	case ".csv":
		return core.FormatCSV
	case ".geojson", ".json":
		return core.FormatGeoJSON
	}
	return fallback
}
