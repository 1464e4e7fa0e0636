package main

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var discoverCmd = &cobra.Command{
	Use:   "discover",
	Short: "List the available task types",
	Long: `Scan the plugin directories and list every task type that setup
documents can use, with the plugin it comes from. Plugin units that could
not be loaded are reported below the list.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runDiscover(cmd.Context(), cmd.OutOrStdout())
	},
}

func init() {
	rootCmd.AddCommand(discoverCmd)
}

func runDiscover(ctx context.Context, out io.Writer) error {
	s, err := newSession(nil)
	if err != nil {
		return err
	}
	defer func() { _ = s.Close() }()

	if _, err := s.Discover(ctx); err != nil {
		return err
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "TYPE\tTITLE\tSOURCE")
	_, _ = fmt.Fprintln(w, "────\t─────\t──────")
	for _, reg := range s.Registry.Registrations() {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\n", reg.Type, reg.Title, reg.Source)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	if result := s.Plugins.LastResult(); result != nil && result.HasErrors() {
		_, _ = fmt.Fprintf(out, "\nSkipped %d plugin unit(s):\n", len(result.Errors))
		for _, de := range result.Errors {
			_, _ = fmt.Fprintf(out, "  %s\n", de.Error())
		}
	}
	return nil
}
