// Package tui hosts a setup wizard in the terminal, either full screen with
// bubbletea or line by line with huh forms.
package tui

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/felixgeelhaar/devsetup/internal/domain/wizard"
)

// WizardOptions configures the full-screen host.
type WizardOptions struct {
	// Feed carries task output to the screen; nil hides the output panel.
	Feed *Feed
	// AltScreen runs the program on the alternate screen buffer.
	AltScreen bool
}

// NewWizardOptions creates default wizard options.
func NewWizardOptions() WizardOptions {
	return WizardOptions{AltScreen: true}
}

// WithFeed sets the output feed.
func (o WizardOptions) WithFeed(feed *Feed) WizardOptions {
	o.Feed = feed
	return o
}

// WithAltScreen toggles the alternate screen.
func (o WizardOptions) WithAltScreen(alt bool) WizardOptions {
	o.AltScreen = alt
	return o
}

// WizardResult holds the outcome of a wizard session.
type WizardResult struct {
	// Finished is true when the user left through the summary step.
	Finished bool
	// Cancelled is true when the user quit early.
	Cancelled bool
	// Position is the step the wizard stopped at.
	Position   int
	Executions int
	Failures   int
}

// RunWizard runs the full-screen wizard until the user finishes or quits.
func RunWizard(ctx context.Context, w *wizard.Wizard, opts WizardOptions) (*WizardResult, error) {
	var model wizardModel
	if opts.Feed != nil {
		model = newWizardModel(w, opts.Feed.Lines())
	} else {
		model = newWizardModel(w, nil)
	}

	programOpts := []tea.ProgramOption{tea.WithContext(ctx)}
	if opts.AltScreen {
		programOpts = append(programOpts, tea.WithAltScreen())
	}

	p := tea.NewProgram(model, programOpts...)
	finalModel, err := p.Run()
	if err != nil {
		return nil, fmt.Errorf("wizard failed: %w", err)
	}

	m, ok := finalModel.(wizardModel)
	if !ok {
		return nil, fmt.Errorf("unexpected model type")
	}

	started, failed := w.Executions()
	return &WizardResult{
		Finished:   m.finished,
		Cancelled:  m.cancelled,
		Position:   w.Position(),
		Executions: started,
		Failures:   failed,
	}, nil
}
