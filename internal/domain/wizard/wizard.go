// Package wizard walks a setup document one step at a time. The steps are
// a welcome page, every task of the document in order, and a summary page.
// Next validates and saves the current step, persists the document and
// starts the task on a worker goroutine; the host hands the worker's result
// back through Finish, which marks the task completed and advances.
package wizard

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/felixgeelhaar/statekit"

	"github.com/felixgeelhaar/devsetup/internal/domain/task"
	"github.com/felixgeelhaar/devsetup/internal/ports"
)

// Bookend task types added around the document's tasks.
const (
	WelcomeType = "welcome"
	SummaryType = "summary"
)

// Step pairs a task with the controller that edits it.
type Step struct {
	Task       task.Task
	Controller task.Controller
}

// Result is what a worker reports when Execute returns.
type Result struct {
	TypeID    string
	Err       error
	Cancelled bool
	Duration  time.Duration

	execution *Execution
}

// Execution is one running Execute call.
type Execution struct {
	typeID    string
	done      chan Result
	cancel    context.CancelFunc
	cancelled atomic.Bool
}

// Done delivers the result exactly once.
func (e *Execution) Done() <-chan Result {
	return e.done
}

// Cancel asks the task to stop. The result reports Cancelled even if the
// task finishes anyway.
func (e *Execution) Cancel() {
	e.cancelled.Store(true)
	e.cancel()
}

// TypeID returns the identity of the executing task.
func (e *Execution) TypeID() string {
	return e.typeID
}

// Factory creates the bookend tasks and the controller of every step.
// *task.Registry implements it.
type Factory interface {
	New(taskType string) (task.Task, error)
	NewController(t task.Task) (task.Controller, error)
}

// Wizard is the step sequence and its position. Its methods are meant to
// be called from one control goroutine; only Execute runs elsewhere.
type Wizard struct {
	mu      sync.Mutex
	doc     task.Document
	steps   []Step
	pos     int
	running *Execution

	ctx        context.Context
	logger     ports.Logger
	middleware []task.Middleware

	stats  phaseContext
	interp *statekit.Interpreter[phaseContext]
}

// Option configures a Wizard.
type Option func(*Wizard)

// WithLogger sets the logger used around executions.
func WithLogger(l ports.Logger) Option {
	return func(w *Wizard) {
		w.logger = l
	}
}

// WithContext sets the parent context of every execution.
func WithContext(ctx context.Context) Option {
	return func(w *Wizard) {
		w.ctx = ctx
	}
}

// WithMiddleware adds middleware inside the default logging, validation
// and recovery chain.
func WithMiddleware(mw ...task.Middleware) Option {
	return func(w *Wizard) {
		w.middleware = append(w.middleware, mw...)
	}
}

// New builds the steps for doc. The welcome and summary steps are created
// through factory unless the document already lists them.
func New(doc task.Document, factory Factory, opts ...Option) (*Wizard, error) {
	w := &Wizard{doc: doc, ctx: context.Background()}
	for _, opt := range opts {
		opt(w)
	}
	if w.logger == nil {
		w.logger = task.LoggerFrom(w.ctx, nil)
	}

	tasks := doc.Tasks()
	all := make([]task.Task, 0, len(tasks)+2)

	if !listsType(tasks, WelcomeType) {
		welcome, err := bookend(doc, factory, WelcomeType)
		if err != nil {
			return nil, err
		}
		all = append(all, welcome)
	}
	all = append(all, tasks...)
	if !listsType(tasks, SummaryType) {
		summary, err := bookend(doc, factory, SummaryType)
		if err != nil {
			return nil, err
		}
		all = append(all, summary)
	}

	for _, t := range all {
		c, err := factory.NewController(t)
		if err != nil {
			return nil, err
		}
		w.steps = append(w.steps, Step{Task: t, Controller: c})
	}

	interp, err := buildPhaseMachine(&w.stats)
	if err != nil {
		return nil, fmt.Errorf("failed to build phase machine: %w", err)
	}
	w.interp = interp
	return w, nil
}

func bookend(doc task.Document, factory Factory, taskType string) (task.Task, error) {
	t, err := factory.New(taskType)
	if err != nil {
		return nil, fmt.Errorf("creating %s step: %w", taskType, err)
	}
	t.Init(doc)
	return t, nil
}

func listsType(tasks []task.Task, taskType string) bool {
	for _, t := range tasks {
		if t.Type() == taskType {
			return true
		}
	}
	return false
}

// Close stops the phase machine.
func (w *Wizard) Close() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.interp != nil {
		w.interp.Stop()
		w.interp = nil
	}
}

// Document returns the document the steps come from.
func (w *Wizard) Document() task.Document {
	return w.doc
}

// Len returns the number of steps.
func (w *Wizard) Len() int {
	return len(w.steps)
}

// Steps returns every step in order.
func (w *Wizard) Steps() []Step {
	out := make([]Step, len(w.steps))
	copy(out, w.steps)
	return out
}

// Position returns the zero-based current step.
func (w *Wizard) Position() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.pos
}

// Current returns the current step.
func (w *Wizard) Current() Step {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.steps[w.pos]
}

// HasNext reports whether Next can move forward from here.
func (w *Wizard) HasNext() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.pos < len(w.steps)-1
}

// HasPrevious reports whether Previous can move back from here.
func (w *Wizard) HasPrevious() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.pos > 0
}

// PosText renders the position as "2 / 5".
func (w *Wizard) PosText() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return fmt.Sprintf("%d / %d", w.pos+1, len(w.steps))
}

// Busy reports whether a task is executing.
func (w *Wizard) Busy() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.running != nil
}

// Phase returns the execution phase of the current step.
func (w *Wizard) Phase() Phase {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.interp == nil {
		return PhaseIdle
	}
	return Phase(w.interp.State().Value)
}

// Executions returns how many executions were started and how many failed.
func (w *Wizard) Executions() (started, failed int) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.stats.Executions, w.stats.Failures
}

// Next leaves the current step. A completed task is replayed read-only and
// the position advances at once; the returned Execution is nil. Otherwise
// the form is validated and saved, the document persisted, and the task
// started. The position advances only when Finish sees a success.
func (w *Wizard) Next() (*Execution, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.running != nil {
		return nil, ErrBusy
	}
	if w.pos >= len(w.steps)-1 {
		return nil, ErrLastStep
	}

	step := w.steps[w.pos]
	if step.Task.AlreadyExecuted() {
		w.advance()
		return nil, nil
	}

	if errs := step.Controller.ValidationErrors(); len(errs) > 0 {
		return nil, &ValidationError{TypeID: step.Task.TypeID(), Messages: errs}
	}

	step.Controller.Save()
	if err := w.doc.Persist(); err != nil {
		return nil, newExecutionError(step.Task.TypeID(), err)
	}

	ctx, cancel := context.WithCancel(w.ctx)
	exec := &Execution{
		typeID: step.Task.TypeID(),
		done:   make(chan Result, 1),
		cancel: cancel,
	}
	w.running = exec
	w.send(EventExecute)

	run := task.Chain(append([]task.Middleware{
		task.WithLogging(w.logger),
		task.WithValidation(),
		task.WithRecovery(),
	}, w.middleware...)...)

	go func(t task.Task) {
		defer cancel()
		start := time.Now()
		err := run(ctx, t)
		exec.done <- Result{
			TypeID:    exec.typeID,
			Err:       err,
			Cancelled: exec.cancelled.Load() || errors.Is(err, context.Canceled),
			Duration:  time.Since(start),
			execution: exec,
		}
	}(step.Task)

	return exec, nil
}

// Finish applies the result of the running execution. On success the
// task is marked completed, the document persisted and the position
// advanced. A failure returns an ExecutionError and a cancellation returns
// ErrCancelled; in both cases the position stays and nothing is persisted.
func (w *Wizard) Finish(res Result) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.running == nil || (res.execution != nil && res.execution != w.running) {
		return ErrNotExecuting
	}
	w.running = nil
	step := w.steps[w.pos]

	switch {
	case res.Cancelled:
		w.send(EventCancel)
		return ErrCancelled
	case res.Err != nil:
		w.send(EventFail)
		return newExecutionError(step.Task.TypeID(), res.Err)
	}

	if err := step.Task.Success(); err != nil {
		w.send(EventFail)
		return newExecutionError(step.Task.TypeID(), err)
	}
	w.send(EventSucceed)
	w.advance()
	return nil
}

// Previous moves back one step. Earlier steps are not validated or run
// again. Each move reloads the form of the step moved to from the task's
// saved values.
func (w *Wizard) Previous() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.running != nil {
		return ErrBusy
	}
	if w.pos == 0 {
		return ErrFirstStep
	}
	w.pos--
	w.settle()
	return w.reload()
}

// Run is Next followed by waiting for the execution and Finish, for hosts
// without an event loop. Cancelling ctx cancels the execution.
func (w *Wizard) Run(ctx context.Context) error {
	exec, err := w.Next()
	if err != nil || exec == nil {
		return err
	}

	select {
	case res := <-exec.Done():
		return w.Finish(res)
	case <-ctx.Done():
		exec.Cancel()
		return w.Finish(<-exec.Done())
	}
}

func (w *Wizard) advance() {
	w.pos++
	w.settle()
	if err := w.reload(); err != nil {
		w.logger.Warn(w.ctx, "reloading step form", ports.F("step", w.pos), ports.Err(err))
	}
}

// reload rebuilds the current form from the task's saved values.
func (w *Wizard) reload() error {
	step := w.steps[w.pos]
	return step.Controller.Init(step.Task)
}

// settle returns the phase machine to idle after a move.
func (w *Wizard) settle() {
	if w.interp == nil {
		return
	}
	switch Phase(w.interp.State().Value) {
	case PhaseFailed, PhaseCancelled:
		w.send(EventNavigate)
	}
}

func (w *Wizard) send(event string) {
	if w.interp != nil {
		w.interp.Send(statekit.Event{Type: statekit.EventType(event)})
	}
}
