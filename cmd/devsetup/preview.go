package main

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/devsetup/internal/domain/config"
)

var previewCmd = &cobra.Command{
	Use:   "preview [document|url]",
	Short: "List the task types a document needs",
	Long: `Read a setup document without running it and report which of its task
types are provided by the built-in tasks or the installed plugins.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		location := ""
		if len(args) == 1 {
			location = args[0]
		}
		return runPreview(cmd.Context(), cmd.OutOrStdout(), location)
	},
}

func init() {
	rootCmd.AddCommand(previewCmd)
}

func runPreview(ctx context.Context, out io.Writer, location string) error {
	s, err := newSession(nil)
	if err != nil {
		return err
	}
	defer func() { _ = s.Close() }()

	if _, err := s.Discover(ctx); err != nil {
		return err
	}
	report, err := s.Preview(ctx, location)
	if err != nil {
		return err
	}

	missing := make(map[string]bool, len(report.Missing))
	for _, typ := range report.Missing {
		missing[typ] = true
	}

	_, _ = fmt.Fprintf(out, "Document: %s\n\n", report.Location)
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "TYPE\tSTATUS")
	_, _ = fmt.Fprintln(w, "────\t──────")
	for _, typ := range report.Types {
		status := "available"
		if missing[typ] {
			status = "missing"
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\n", typ, status)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	if len(report.Missing) > 0 {
		return config.NewUnknownTaskTypesError(report.Location, report.Missing)
	}
	return nil
}
