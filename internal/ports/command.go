// Package ports defines the interfaces the wizard uses to reach the host
// system: logging, process execution, the filesystem and the user
// preference store.
package ports

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

// CommandResult is the outcome of one external process.
type CommandResult struct {
	ExitCode int
	Stdout   string
	Stderr   string
}

// Success reports whether the process exited with code 0.
func (r CommandResult) Success() bool {
	return r.ExitCode == 0
}

// CommandCall records a command invocation.
type CommandCall struct {
	Command string
	Args    []string
}

// String renders the call as a shell-like line.
func (c CommandCall) String() string {
	if len(c.Args) == 0 {
		return c.Command
	}
	return c.Command + " " + strings.Join(c.Args, " ")
}

// CommandRunner executes external processes such as hostnamectl or git.
type CommandRunner interface {
	Run(ctx context.Context, command string, args ...string) (CommandResult, error)
}

// MockCommandRunner is an in-memory CommandRunner for tests.
// Results are registered per command line; unregistered calls fail.
type MockCommandRunner struct {
	mu       sync.Mutex
	results  map[string]CommandResult
	errs     map[string]error
	fallback *CommandResult
	calls    []CommandCall
}

// NewMockCommandRunner creates an empty MockCommandRunner.
func NewMockCommandRunner() *MockCommandRunner {
	return &MockCommandRunner{
		results: make(map[string]CommandResult),
		errs:    make(map[string]error),
	}
}

// AddResult registers the result returned for command with args.
func (m *MockCommandRunner) AddResult(command string, args []string, result CommandResult) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.results[CommandCall{Command: command, Args: args}.String()] = result
}

// AddError registers an error returned for command with args.
func (m *MockCommandRunner) AddError(command string, args []string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errs[CommandCall{Command: command, Args: args}.String()] = err
}

// SetDefault makes every unregistered call return result.
func (m *MockCommandRunner) SetDefault(result CommandResult) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fallback = &result
}

// Run returns the registered result for the call.
func (m *MockCommandRunner) Run(ctx context.Context, command string, args ...string) (CommandResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	call := CommandCall{Command: command, Args: append([]string(nil), args...)}
	m.calls = append(m.calls, call)

	if err := ctx.Err(); err != nil {
		return CommandResult{}, err
	}

	key := call.String()
	if err, ok := m.errs[key]; ok {
		return CommandResult{}, err
	}
	if result, ok := m.results[key]; ok {
		return result, nil
	}
	if m.fallback != nil {
		return *m.fallback, nil
	}
	return CommandResult{}, fmt.Errorf("no mock result for %q", key)
}

// Calls returns a copy of every recorded invocation.
func (m *MockCommandRunner) Calls() []CommandCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]CommandCall(nil), m.calls...)
}

var _ CommandRunner = (*MockCommandRunner)(nil)
