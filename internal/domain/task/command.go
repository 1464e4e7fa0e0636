package task

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/felixgeelhaar/devsetup/internal/ports"
)

// ErrNoRunner indicates a task that runs commands was created without a
// command runner.
var ErrNoRunner = errors.New("no command runner configured")

// CommandError reports a command that exited non-zero.
type CommandError struct {
	Command  string
	ExitCode int
	Stderr   string
}

func (e *CommandError) Error() string {
	if e.Stderr == "" {
		return fmt.Sprintf("%s exited with code %d", e.Command, e.ExitCode)
	}
	return fmt.Sprintf("%s exited with code %d: %s", e.Command, e.ExitCode, e.Stderr)
}

// IsCommandError returns true if err is a CommandError.
func IsCommandError(err error) bool {
	var target *CommandError
	return errors.As(err, &target)
}

// Run executes a command with the environment's runner. Standard output is
// logged line by line through the task logger; a non-zero exit becomes a
// *CommandError.
func (e Env) Run(ctx context.Context, command string, args ...string) (ports.CommandResult, error) {
	return e.RunMasked(ctx, nil, command, args...)
}

// RunMasked is Run with every occurrence of a secret replaced by "****" in
// the logged argv, the logged output and the returned error. The command
// itself receives the real arguments.
func (e Env) RunMasked(ctx context.Context, secrets []string, command string, args ...string) (ports.CommandResult, error) {
	if e.Runner == nil {
		return ports.CommandResult{}, fmt.Errorf("running %s: %w", command, ErrNoRunner)
	}

	mask := masker(secrets)
	log := LoggerFrom(ctx, e.Logger)
	log.Debug(ctx, "running command", ports.F("argv", mask(ports.CommandCall{Command: command, Args: args}.String())))

	result, err := e.Runner.Run(ctx, command, args...)
	if err != nil {
		return result, fmt.Errorf("running %s: %w", command, maskedError{err: err, mask: mask})
	}
	for _, line := range strings.Split(strings.TrimSpace(result.Stdout), "\n") {
		if line = strings.TrimSpace(line); line != "" {
			log.Info(ctx, mask(line))
		}
	}
	if !result.Success() {
		return result, &CommandError{Command: command, ExitCode: result.ExitCode, Stderr: mask(strings.TrimSpace(result.Stderr))}
	}
	return result, nil
}

// maskedError hides secrets in the message but keeps the chain for
// errors.Is and errors.As.
type maskedError struct {
	err  error
	mask func(string) string
}

func (e maskedError) Error() string { return e.mask(e.err.Error()) }
func (e maskedError) Unwrap() error { return e.err }

func masker(secrets []string) func(string) string {
	var pairs []string
	for _, s := range secrets {
		if s != "" {
			pairs = append(pairs, s, "****")
		}
	}
	if len(pairs) == 0 {
		return func(s string) string { return s }
	}
	return strings.NewReplacer(pairs...).Replace
}

// Remembered reports whether the preference store holds the completion
// marker of t.
func (e Env) Remembered(t Task) bool {
	if e.Prefs == nil {
		return false
	}
	return e.Prefs.Bool(PreferenceKey(t))
}

// Remember stores the completion marker of t in the preference store.
func (e Env) Remember(t Task) error {
	if e.Prefs == nil {
		return nil
	}
	if err := e.Prefs.SetBool(PreferenceKey(t), true); err != nil {
		return fmt.Errorf("saving setup key %q: %w", PreferenceKey(t), err)
	}
	return nil
}
