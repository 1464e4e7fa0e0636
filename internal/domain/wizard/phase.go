package wizard

import (
	"github.com/felixgeelhaar/statekit"
)

// Phase is the execution state of the current step.
type Phase string

const (
	stateIdle      = "idle"
	stateExecuting = "executing"
	stateFailed    = "failed"
	stateCancelled = "cancelled"
)

const (
	// PhaseIdle means the step is waiting for input.
	PhaseIdle Phase = stateIdle
	// PhaseExecuting means the step's task is running.
	PhaseExecuting Phase = stateExecuting
	// PhaseFailed means the last execution failed.
	PhaseFailed Phase = stateFailed
	// PhaseCancelled means the last execution was cancelled.
	PhaseCancelled Phase = stateCancelled
)

// Event types for the phase machine.
const (
	EventExecute  = "EXECUTE"
	EventSucceed  = "SUCCEED"
	EventFail     = "FAIL"
	EventCancel   = "CANCEL"
	EventNavigate = "NAVIGATE"
)

// phaseContext counts executions for diagnostics.
type phaseContext struct {
	Executions int
	Failures   int
}

func buildPhaseMachine(stats *phaseContext) (*statekit.Interpreter[phaseContext], error) {
	machine, err := statekit.NewMachine[phaseContext]("wizard-phase").
		WithInitial(stateIdle).
		WithContext(phaseContext{}).
		WithAction("countExecution", func(_ *phaseContext, _ statekit.Event) {
			stats.Executions++
		}).
		WithAction("countFailure", func(_ *phaseContext, _ statekit.Event) {
			stats.Failures++
		}).
		State(stateIdle).
		On(EventExecute).Target(stateExecuting).Done().
		State(stateExecuting).
		OnEntry("countExecution").
		On(EventSucceed).Target(stateIdle).
		On(EventFail).Target(stateFailed).
		On(EventCancel).Target(stateCancelled).Done().
		State(stateFailed).
		OnEntry("countFailure").
		On(EventExecute).Target(stateExecuting).
		On(EventNavigate).Target(stateIdle).Done().
		State(stateCancelled).
		On(EventExecute).Target(stateExecuting).
		On(EventNavigate).Target(stateIdle).Done().
		Build()
	if err != nil {
		return nil, err
	}

	interp := statekit.NewInterpreter(machine)
	interp.Start()
	return interp, nil
}
