// Package sandbox runs WASI modules shipped by plugins in an isolated
// wazero runtime. A module sees its arguments, environment and standard
// streams; it has no filesystem or network access.
package sandbox

import (
	"errors"
	"fmt"
	"io"
	"time"
)

// Sandbox errors.
var (
	ErrModuleInvalid      = errors.New("invalid wasm module")
	ErrSandboxTimeout     = errors.New("sandbox execution timeout")
	ErrSandboxUnavailable = errors.New("sandbox runtime unavailable")
)

// DefaultTimeout bounds a single module run.
const DefaultTimeout = 5 * time.Minute

// Module is one run request.
type Module struct {
	// Name identifies the module in diagnostics.
	Name string
	// Binary is the compiled WASM bytes.
	Binary []byte
	// Args are passed as argv[1:]; argv[0] is Name.
	Args []string
	// Env entries are visible through WASI environ_get.
	Env map[string]string
	// Stdout and Stderr receive the module's output; nil discards it.
	Stdout io.Writer
	Stderr io.Writer
	// Timeout overrides DefaultTimeout when positive.
	Timeout time.Duration
}

// Validate checks the request before compilation.
func (m Module) Validate() error {
	if m.Name == "" {
		return fmt.Errorf("%w: name is required", ErrModuleInvalid)
	}
	if len(m.Binary) < 8 || string(m.Binary[:4]) != "\x00asm" {
		return fmt.Errorf("%w: %s is not a wasm binary", ErrModuleInvalid, m.Name)
	}
	return nil
}

// ExitError reports a non-zero WASI exit code.
type ExitError struct {
	Module string
	Code   uint32
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("wasm module %s exited with code %d", e.Module, e.Code)
}

// IsExitError returns true if err is an ExitError.
func IsExitError(err error) bool {
	var target *ExitError
	return errors.As(err, &target)
}
