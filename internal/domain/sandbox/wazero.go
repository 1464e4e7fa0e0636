package sandbox

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"sync"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/imports/wasi_snapshot_preview1"
	"github.com/tetratelabs/wazero/sys"
)

// Runtime executes WASI modules. It is safe for concurrent use, though the
// wizard runs at most one module at a time.
type Runtime struct {
	mu      sync.Mutex
	runtime wazero.Runtime
	closed  bool
}

// NewRuntime creates a wazero runtime with WASI preview 1 available.
func NewRuntime(ctx context.Context) (*Runtime, error) {
	cfg := wazero.NewRuntimeConfig().
		WithCloseOnContextDone(true)

	r := wazero.NewRuntimeWithConfig(ctx, cfg)
	if _, err := wasi_snapshot_preview1.Instantiate(ctx, r); err != nil {
		_ = r.Close(ctx)
		return nil, fmt.Errorf("failed to instantiate WASI: %w", err)
	}
	return &Runtime{runtime: r}, nil
}

// Run compiles and starts m. A clean exit returns nil; a non-zero exit code
// returns *ExitError.
func (r *Runtime) Run(ctx context.Context, m Module) error {
	if err := m.Validate(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return ErrSandboxUnavailable
	}

	timeout := m.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	compiled, err := r.runtime.CompileModule(runCtx, m.Binary)
	if err != nil {
		return fmt.Errorf("%w: compiling %s: %w", ErrModuleInvalid, m.Name, err)
	}
	defer func() { _ = compiled.Close(context.Background()) }()

	modConfig := wazero.NewModuleConfig().
		WithName("").
		WithArgs(append([]string{m.Name}, m.Args...)...).
		WithStdout(writerOrDiscard(m.Stdout)).
		WithStderr(writerOrDiscard(m.Stderr)).
		WithStartFunctions("_start")

	keys := make([]string, 0, len(m.Env))
	for k := range m.Env {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		modConfig = modConfig.WithEnv(k, m.Env[k])
	}

	instance, err := r.runtime.InstantiateModule(runCtx, compiled, modConfig)
	if instance != nil {
		defer func() { _ = instance.Close(context.Background()) }()
	}
	if err == nil {
		return nil
	}

	if ctx.Err() != nil {
		return ctx.Err()
	}
	if errors.Is(runCtx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("%w: %s after %s", ErrSandboxTimeout, m.Name, timeout)
	}
	var exitErr *sys.ExitError
	if errors.As(err, &exitErr) {
		if exitErr.ExitCode() == 0 {
			return nil
		}
		return &ExitError{Module: m.Name, Code: exitErr.ExitCode()}
	}
	return fmt.Errorf("running %s: %w", m.Name, err)
}

// IsAvailable reports whether the runtime can still run modules.
func (r *Runtime) IsAvailable() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return !r.closed
}

// Close releases the runtime. It is idempotent.
func (r *Runtime) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return nil
	}
	r.closed = true
	return r.runtime.Close(context.Background())
}

func writerOrDiscard(w io.Writer) io.Writer {
	if w == nil {
		return io.Discard
	}
	return w
}
