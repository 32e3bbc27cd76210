package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/mappoints/internal/core"
	"github.com/JonMunkholm/mappoints/internal/dataset"
)

func newMergeCmd(g *globalOptions) *cobra.Command {
	var (
		strategy string
		to       string
		custom   bool
		output   string
	)

	cmd := &cobra.Command{
		Use:   "merge EXISTING INCOMING",
		Short: "Merge two point files without touching the dataset",
		Long: `Merge loads EXISTING, combines INCOMING into it with the chosen strategy and
writes the result. The output format follows --to, then the extension of
--output, then the format of EXISTING.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := core.ParseMergeStrategy(strategy)
			if err != nil {
				return err
			}
			outFormat, err := core.ParseFormat(to)
			if err != nil {
				return err
			}

			svc, importCfg, err := g.scratchService()
			if err != nil {
				return err
			}

			var base core.Format
			for i, path := range args {
				text, err := readFile(path, importCfg.MaxFileSize)
				if err != nil {
					return err
				}
				req := dataset.ImportRequest{Filename: filepath.Base(path), Text: text, Strategy: s}
				if i == 0 {
					req.Strategy = core.StrategyReplace
				}

				report, err := svc.Import(cmd.Context(), req)
				if err != nil {
					return err
				}
				printReport(cmd.ErrOrStderr(), report)
				if !report.Saved {
					return fmt.Errorf("%s: %w", path, errNotSaved)
				}
				if i == 0 {
					base = report.Format
				}
			}

			if outFormat == "" {
				outFormat = exportFormatFor(output, base)
			}
			out, err := svc.Export(cmd.Context(), dataset.ExportOptions{Format: outFormat, CustomFields: custom})
			if err != nil {
				return err
			}
			return writeOutput(cmd.OutOrStdout(), output, out)
		},
	}

	cmd.Flags().StringVarP(&strategy, "strategy", "s", "merge", "Merge strategy: replace, merge or append")
	cmd.Flags().StringVar(&to, "to", "", "Output format: csv or geojson")
	cmd.Flags().BoolVar(&custom, "custom", true, "Add a column per property key (csv)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file (default: stdout)")
	return cmd
}
