package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var errInvalidFile = errors.New("file has structural problems")

func newTemplateCmd(g *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "template FILE",
		Short: "Show the columns, inferred types and coordinate fields of a CSV file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, importCfg, err := g.scratchService()
			if err != nil {
				return err
			}
			text, err := readFile(args[0], importCfg.MaxFileSize)
			if err != nil {
				return err
			}
			tmpl, err := svc.Template(text)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), tmpl)
		},
	}
}

func newCheckCmd(g *globalOptions) *cobra.Command {
	var quiet bool

	cmd := &cobra.Command{
		Use:   "check FILE",
		Short: "Report column-count and coordinate problems in a CSV file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, importCfg, err := g.scratchService()
			if err != nil {
				return err
			}
			text, err := readFile(args[0], importCfg.MaxFileSize)
			if err != nil {
				return err
			}

			report := svc.Check(text)
			if !quiet {
				if err := printJSON(cmd.OutOrStdout(), report); err != nil {
					return err
				}
			}
			if !report.IsValid {
				return fmt.Errorf("%s: %w (%d errors)", args[0], errInvalidFile, len(report.Errors))
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "Only set the exit status")
	return cmd
}
