package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/devsetup/internal/domain/config"
	"github.com/felixgeelhaar/devsetup/internal/domain/wizard"
)

var (
	// Global flags
	pluginPaths []string
	prefsPath   string
	logFile     string
	verbose     bool
	jsonLog     bool
)

var rootCmd = &cobra.Command{
	Use:   "devsetup [document|url]",
	Short: "A resumable workstation setup wizard",
	Long: `Devsetup walks you through the tasks listed in a setup document, one
step at a time. Completed steps are recorded in the document, so an
interrupted setup resumes where it stopped.

The document defaults to project-setup.yaml in the current directory and
may also be fetched from an http(s) URL.`,
	Args:          cobra.MaximumNArgs(1),
	SilenceErrors: true,
	SilenceUsage:  true,
	RunE:          runRoot,
}

// Execute runs the root command and prints any error.
func Execute() error {
	err := rootCmd.Execute()
	if err != nil {
		printError(err)
	}
	return err
}

func init() {
	rootCmd.PersistentFlags().StringSliceVar(&pluginPaths, "plugin-path", nil, "extra plugin directory or archive (repeatable)")
	rootCmd.PersistentFlags().StringVar(&prefsPath, "prefs", "", "preference file (default: ~/.devsetup/prefs.ini)")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "devsetup.log", "session log file, empty to disable")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().BoolVar(&jsonLog, "json-log", false, "write the session log as JSON")

	registerFlagCompletions()

	rootCmd.AddCommand(versionCmd)
}

// formatError returns a user-friendly error message.
// With verbose=false: shows only the user message and suggestion.
// With verbose=true: also shows the underlying technical error.
func formatError(err error) string {
	var userErr *config.UserError
	if errors.As(err, &userErr) {
		msg := userErr.Message
		if userErr.Context != "" {
			msg += fmt.Sprintf(" (at %s)", userErr.Context)
		}
		if userErr.Suggestion != "" {
			msg += fmt.Sprintf("\n\nSuggestion: %s", userErr.Suggestion)
		}
		if verbose && userErr.Underlying != nil {
			msg += fmt.Sprintf("\n\nTechnical details: %v", userErr.Underlying)
		}
		return msg
	}

	var invalid *wizard.ValidationError
	if errors.As(err, &invalid) && len(invalid.Messages) > 1 {
		msg := invalid.TypeID + " is not valid:"
		for _, m := range invalid.Messages {
			msg += "\n  - " + m
		}
		return msg
	}
	return err.Error()
}

// printError prints an error message to stderr with proper formatting.
func printError(err error) {
	printErrorTo(os.Stderr, err)
}

// printErrorTo prints an error message to the given writer.
func printErrorTo(w io.Writer, err error) {
	_, _ = fmt.Fprintf(w, "Error: %s\n", formatError(err))
}

// registerFlagCompletions sets up custom completions for global flags.
func registerFlagCompletions() {
	_ = rootCmd.RegisterFlagCompletionFunc("prefs", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{"ini"}, cobra.ShellCompDirectiveFilterFileExt
	})
	_ = rootCmd.RegisterFlagCompletionFunc("plugin-path", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return nil, cobra.ShellCompDirectiveFilterDirs
	})
	rootCmd.ValidArgsFunction = func(_ *cobra.Command, args []string, _ string) ([]string, cobra.ShellCompDirective) {
		if len(args) > 0 {
			return nil, cobra.ShellCompDirectiveNoFileComp
		}
		return []string{"yaml", "yml", "toml"}, cobra.ShellCompDirectiveFilterFileExt
	}
}
