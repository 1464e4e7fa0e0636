package main

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/devsetup/internal/adapters/logging"
	"github.com/felixgeelhaar/devsetup/internal/app"
	"github.com/felixgeelhaar/devsetup/internal/domain/wizard"
	"github.com/felixgeelhaar/devsetup/internal/ports"
	"github.com/felixgeelhaar/devsetup/internal/tui"
)

var (
	plainMode  bool
	accessible bool
)

func init() {
	rootCmd.Flags().BoolVar(&plainMode, "plain", false, "prompt line by line instead of the full-screen wizard")
	rootCmd.Flags().BoolVar(&accessible, "accessible", false, "screen reader friendly prompts (implies --plain)")
}

func runRoot(cmd *cobra.Command, args []string) error {
	location := ""
	if len(args) == 1 {
		location = args[0]
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logOut, closeLog, err := openLog(logFile)
	if err != nil {
		return err
	}
	defer closeLog()

	plain := plainMode || accessible
	var (
		feed  *tui.Feed
		extra []ports.Logger
	)
	if plain {
		if verbose {
			extra = append(extra, logging.NewConsoleLogger(
				logging.WithOutput(cmd.ErrOrStderr()),
				logging.WithLevel(ports.LevelDebug),
			))
		}
	} else {
		feed = tui.NewFeed()
		defer feed.Close()
		extra = append(extra, feed)
	}

	s, err := newSession(logOut, extra...)
	if err != nil {
		return err
	}
	defer func() { _ = s.Close() }()

	if _, err := s.Discover(ctx); err != nil {
		return err
	}
	w, err := s.Load(ctx, location)
	if err != nil {
		return err
	}
	defer w.Close()

	var res *tui.WizardResult
	if plain {
		res, err = tui.RunPlain(ctx, w, tui.PlainOptions{
			Out:      cmd.OutOrStdout(),
			Prompter: tui.HuhPrompter{Accessible: accessible},
		})
	} else {
		res, err = tui.RunWizard(ctx, w, tui.NewWizardOptions().WithFeed(feed))
	}
	if err != nil {
		return err
	}

	printResult(cmd.OutOrStdout(), w, res)
	return nil
}

func newSession(logOut io.Writer, extra ...ports.Logger) (*app.Session, error) {
	return app.NewSession(app.Options{
		PluginPaths: pluginPaths,
		PrefsPath:   prefsPath,
		LogWriter:   logOut,
		JSONLog:     jsonLog,
		Verbose:     verbose,
		Loggers:     extra,
		Version:     version,
	})
}

// openLog opens path for appending. An empty path disables the log.
func openLog(path string) (io.Writer, func(), error) {
	if path == "" {
		return nil, func() {}, nil
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return nil, nil, fmt.Errorf("opening log file: %w", err)
	}
	return f, func() { _ = f.Close() }, nil
}

func printResult(out io.Writer, w *wizard.Wizard, res *tui.WizardResult) {
	switch {
	case res.Finished:
		_, _ = fmt.Fprintf(out, "Setup of %s finished.\n", w.Document().Name())
	case res.Cancelled:
		_, _ = fmt.Fprintf(out, "Setup stopped at step %d of %d. Run devsetup again to resume.\n", res.Position+1, w.Len())
	}
	if res.Failures > 0 {
		_, _ = fmt.Fprintf(out, "%d of %d executions failed; see the log for details.\n", res.Failures, res.Executions)
	}
}
