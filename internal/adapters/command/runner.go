// Package command runs external processes for the built-in tasks.
package command

import (
	"bytes"
	"context"
	"errors"
	"os"
	"os/exec"

	"github.com/felixgeelhaar/devsetup/internal/ports"
)

// RealRunner executes processes with os/exec.
type RealRunner struct {
	// Dir is the working directory; empty means the current directory.
	Dir string
	// Env is appended to the inherited environment.
	Env []string
}

// NewRealRunner creates a RealRunner.
func NewRealRunner() *RealRunner {
	return &RealRunner{}
}

// WithDir returns a copy of the runner that runs in dir.
func (r *RealRunner) WithDir(dir string) *RealRunner {
	clone := *r
	clone.Dir = dir
	return &clone
}

// WithEnv returns a copy of the runner with extra environment entries.
func (r *RealRunner) WithEnv(env ...string) *RealRunner {
	clone := *r
	clone.Env = append(append([]string(nil), r.Env...), env...)
	return &clone
}

// Run executes command. A non-zero exit is reported through the result,
// not as an error; errors mean the process could not be run at all.
func (r *RealRunner) Run(ctx context.Context, command string, args ...string) (ports.CommandResult, error) {
	cmd := exec.CommandContext(ctx, command, args...)
	cmd.Dir = r.Dir
	if len(r.Env) > 0 {
		cmd.Env = append(os.Environ(), r.Env...)
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	result := ports.CommandResult{
		Stdout: stdout.String(),
		Stderr: stderr.String(),
	}
	if err != nil {
		if ctx.Err() != nil {
			return result, ctx.Err()
		}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			result.ExitCode = exitErr.ExitCode()
			return result, nil
		}
		return result, err
	}
	return result, nil
}

var _ ports.CommandRunner = (*RealRunner)(nil)
