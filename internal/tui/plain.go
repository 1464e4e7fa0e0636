package tui

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/huh"

	"github.com/felixgeelhaar/devsetup/internal/domain/task"
	"github.com/felixgeelhaar/devsetup/internal/domain/wizard"
)

// Prompter asks the user for the values of one step.
type Prompter interface {
	// Edit lets the user change the fields of step in place.
	Edit(ctx context.Context, step wizard.Step) error
	// Confirm asks a yes/no question.
	Confirm(ctx context.Context, question string) (bool, error)
}

// PlainOptions configures the line-mode host.
type PlainOptions struct {
	Out      io.Writer
	Prompter Prompter
}

// RunPlain walks w with one form per step, for terminals where the full
// screen does not work. A failed step can be retried after confirmation.
func RunPlain(ctx context.Context, w *wizard.Wizard, opts PlainOptions) (*WizardResult, error) {
	out := opts.Out
	if out == nil {
		out = io.Discard
	}
	prompter := opts.Prompter
	if prompter == nil {
		prompter = HuhPrompter{}
	}

	result := func(finished, cancelled bool) *WizardResult {
		started, failed := w.Executions()
		return &WizardResult{
			Finished:   finished,
			Cancelled:  cancelled,
			Position:   w.Position(),
			Executions: started,
			Failures:   failed,
		}
	}

	for {
		if err := ctx.Err(); err != nil {
			return result(false, true), nil
		}

		step := w.Current()
		fmt.Fprintf(out, "\n== %s (%s) ==\n", task.Title(step.Task), w.PosText())
		if d, ok := step.Task.(task.Describer); ok {
			fmt.Fprintln(out, d.Describe())
		}

		if !w.HasNext() {
			return result(true, false), nil
		}

		if step.Controller.RefreshStatus().Completed {
			fmt.Fprintln(out, "Already completed.")
		} else if len(step.Controller.Fields()) > 0 {
			if err := prompter.Edit(ctx, step); err != nil {
				if errors.Is(err, huh.ErrUserAborted) || errors.Is(err, context.Canceled) {
					return result(false, true), nil
				}
				return nil, fmt.Errorf("reading %s: %w", step.Task.TypeID(), err)
			}
		}

		err := w.Run(ctx)
		var invalid *wizard.ValidationError
		switch {
		case err == nil:
			fmt.Fprintf(out, "%s completed.\n", task.Title(step.Task))
		case errors.As(err, &invalid):
			for _, msg := range invalid.Messages {
				fmt.Fprintf(out, "  - %s\n", msg)
			}
		case errors.Is(err, wizard.ErrCancelled):
			return result(false, true), nil
		case wizard.IsExecutionError(err):
			fmt.Fprintf(out, "Failed: %v\n", err)
			again, cerr := prompter.Confirm(ctx, "Try "+task.Title(step.Task)+" again?")
			if cerr != nil || !again {
				return result(false, true), nil
			}
		default:
			return nil, err
		}
	}
}

// HuhPrompter asks with huh forms.
type HuhPrompter struct {
	// Accessible switches huh to its screen-reader friendly mode.
	Accessible bool
}

// Edit runs a form for the fields of step and stores the answers.
func (p HuhPrompter) Edit(ctx context.Context, step wizard.Step) error {
	fields := step.Controller.Fields()
	values := make([]string, len(fields))
	form := BuildForm(task.Title(step.Task), fields, values).WithAccessible(p.Accessible)
	if err := form.RunWithContext(ctx); err != nil {
		return err
	}
	for i, f := range fields {
		f.Value = values[i]
	}
	return nil
}

// Confirm asks a yes/no question.
func (p HuhPrompter) Confirm(ctx context.Context, question string) (bool, error) {
	answer := true
	err := huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title(question).
				Affirmative("Yes").
				Negative("No").
				Value(&answer),
		),
	).WithAccessible(p.Accessible).RunWithContext(ctx)
	return answer, err
}

// BuildForm creates a huh form with one input per field. Answers are
// written to values, which starts out with the current field values.
func BuildForm(title string, fields []*task.Field, values []string) *huh.Form {
	inputs := make([]huh.Field, 0, len(fields))
	for i, f := range fields {
		values[i] = f.Value
		label := f.Label
		if label == "" {
			label = f.Key
		}

		switch {
		case len(f.Choices) > 0:
			inputs = append(inputs, huh.NewSelect[string]().
				Title(label).
				Description(f.Help).
				Options(huh.NewOptions(f.Choices...)...).
				Value(&values[i]))
		case f.List:
			inputs = append(inputs, huh.NewText().
				Title(label).
				Description(f.Help).
				Placeholder(f.Placeholder).
				Value(&values[i]).
				Validate(checker(f)))
		default:
			input := huh.NewInput().
				Title(label).
				Description(f.Help).
				Placeholder(f.Placeholder).
				Value(&values[i]).
				Validate(checker(f))
			if f.Secret {
				input = input.EchoMode(huh.EchoModePassword)
			}
			inputs = append(inputs, input)
		}
	}
	return huh.NewForm(huh.NewGroup(inputs...).Title(title))
}

// checker validates a candidate value with the rules of f.
func checker(f *task.Field) func(string) error {
	return func(value string) error {
		candidate := *f
		candidate.Value = value
		if errs := candidate.Validate(); len(errs) > 0 {
			return errors.New(strings.Join(errs, "; "))
		}
		return nil
	}
}
