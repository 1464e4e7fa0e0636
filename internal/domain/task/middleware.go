package task

import (
	"context"
	"fmt"
	"runtime/debug"
	"time"

	"github.com/felixgeelhaar/devsetup/internal/ports"
)

// ExecuteFunc runs a task.
type ExecuteFunc func(ctx context.Context, t Task) error

// Middleware wraps an ExecuteFunc.
type Middleware func(next ExecuteFunc) ExecuteFunc

// Run calls t.Execute.
func Run(ctx context.Context, t Task) error {
	return t.Execute(ctx)
}

// Chain wraps Run with mw; the first middleware is the outermost.
func Chain(mw ...Middleware) ExecuteFunc {
	fn := ExecuteFunc(Run)
	for i := len(mw) - 1; i >= 0; i-- {
		fn = mw[i](fn)
	}
	return fn
}

// WithRecovery converts a panic inside Execute into an error.
func WithRecovery() Middleware {
	return func(next ExecuteFunc) ExecuteFunc {
		return func(ctx context.Context, t Task) (err error) {
			defer func() {
				if r := recover(); r != nil {
					err = &PanicError{Value: r, Stack: string(debug.Stack())}
				}
			}()
			return next(ctx, t)
		}
	}
}

// WithValidation runs Validator.Validate before Execute.
func WithValidation() Middleware {
	return func(next ExecuteFunc) ExecuteFunc {
		return func(ctx context.Context, t Task) error {
			if v, ok := t.(Validator); ok {
				if err := v.Validate(); err != nil {
					return fmt.Errorf("%s is not ready to run: %w", t.TypeID(), err)
				}
			}
			return next(ctx, t)
		}
	}
}

// WithLogging logs the start and outcome of every execution with a task
// field, and makes the task logger available through the context.
func WithLogging(logger ports.Logger) Middleware {
	return func(next ExecuteFunc) ExecuteFunc {
		return func(ctx context.Context, t Task) error {
			log := logger.With(ports.F("task", t.TypeID()))
			ctx = ports.ContextWithLogger(ctx, log)

			log.Info(ctx, "executing task")
			start := time.Now()
			err := next(ctx, t)
			elapsed := ports.F("duration", time.Since(start).Round(time.Millisecond).String())

			switch {
			case err != nil && ctx.Err() != nil:
				log.Warn(ctx, "task cancelled", elapsed)
			case err != nil:
				log.Error(ctx, "task failed", elapsed, ports.Err(err))
			default:
				log.Info(ctx, "task finished", elapsed)
			}
			return err
		}
	}
}

// PanicError is returned by WithRecovery.
type PanicError struct {
	Value interface{}
	Stack string
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("task panicked: %v", e.Value)
}

// LoggerFrom returns the task logger stored by WithLogging, or fallback.
func LoggerFrom(ctx context.Context, fallback ports.Logger) ports.Logger {
	if l := ports.LoggerFromContext(ctx); l != nil {
		return l
	}
	if fallback == nil {
		return discard{}
	}
	return fallback
}

type discard struct{}

func (discard) Debug(context.Context, string, ...ports.Field) {}
func (discard) Info(context.Context, string, ...ports.Field)  {}
func (discard) Warn(context.Context, string, ...ports.Field)  {}
func (discard) Error(context.Context, string, ...ports.Field) {}
func (d discard) With(...ports.Field) ports.Logger            { return d }
func (discard) Level() ports.Level                            { return ports.LevelError }
func (discard) SetLevel(ports.Level)                          {}
