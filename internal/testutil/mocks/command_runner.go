package mocks

import (
	"context"
	"sync"

	"github.com/felixgeelhaar/devsetup/internal/ports"
)

// HangingRunner is a ports.CommandRunner whose commands never finish on
// their own. Run returns only when ctx is done, with ctx.Err().
type HangingRunner struct {
	mu    sync.Mutex
	calls []ports.CommandCall
}

// NewHangingRunner creates a HangingRunner.
func NewHangingRunner() *HangingRunner {
	return &HangingRunner{}
}

// Run records the call and waits for ctx.
func (r *HangingRunner) Run(ctx context.Context, command string, args ...string) (ports.CommandResult, error) {
	r.mu.Lock()
	r.calls = append(r.calls, ports.CommandCall{Command: command, Args: args})
	r.mu.Unlock()

	<-ctx.Done()
	return ports.CommandResult{}, ctx.Err()
}

// Calls returns the recorded calls.
func (r *HangingRunner) Calls() []ports.CommandCall {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]ports.CommandCall, len(r.calls))
	copy(out, r.calls)
	return out
}

var _ ports.CommandRunner = (*HangingRunner)(nil)
