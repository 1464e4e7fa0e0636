// Package components holds the widgets of the wizard screen.
package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/felixgeelhaar/devsetup/internal/tui/ui"
)

// Progress shows how far the wizard has come: a bar plus "current / total".
type Progress struct {
	current int
	total   int
	message string
	width   int
	styles  ui.Styles
}

// NewProgress creates a progress bar over total steps.
func NewProgress(total int) Progress {
	if total < 0 {
		total = 0
	}
	return Progress{
		total:  total,
		width:  ui.DefaultProgressBarWidth,
		styles: ui.DefaultStyles(),
	}
}

// Current returns the number of the current step, starting at 1.
func (p Progress) Current() int {
	return p.current
}

// Total returns the number of steps.
func (p Progress) Total() int {
	return p.total
}

// Percent returns the share of steps reached (0.0 to 1.0).
func (p Progress) Percent() float64 {
	if p.total == 0 {
		return 0
	}
	return float64(p.current) / float64(p.total)
}

// Message returns the status message.
func (p Progress) Message() string {
	return p.message
}

// SetCurrent sets the current step number, clamped to [0, total].
func (p Progress) SetCurrent(current int) Progress {
	if current < 0 {
		current = 0
	}
	if current > p.total {
		current = p.total
	}
	p.current = current
	return p
}

// SetMessage sets the status message.
func (p Progress) SetMessage(message string) Progress {
	p.message = message
	return p
}

// WithWidth sets the bar width.
func (p Progress) WithWidth(width int) Progress {
	p.width = width
	return p
}

// View renders the bar.
func (p Progress) View() string {
	barWidth := p.width - 2
	if barWidth < 1 {
		barWidth = 1
	}
	filled := int(p.Percent() * float64(barWidth))

	var b strings.Builder
	b.WriteString(p.styles.ProgressBar.Render(fmt.Sprintf("[%s%s]",
		strings.Repeat("█", filled),
		strings.Repeat("░", barWidth-filled),
	)))
	fmt.Fprintf(&b, " %d / %d", p.current, p.total)
	if p.message != "" {
		b.WriteString("  ")
		b.WriteString(p.styles.Help.Render(p.message))
	}
	return b.String()
}

// Spinner is shown while a task executes.
type Spinner struct {
	spinner spinner.Model
	message string
}

// NewSpinner creates a spinner.
func NewSpinner() Spinner {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = ui.DefaultStyles().Spinner
	return Spinner{spinner: s}
}

// Message returns the current message.
func (s Spinner) Message() string {
	return s.message
}

// SetMessage sets the spinner message.
func (s Spinner) SetMessage(message string) Spinner {
	s.message = message
	return s
}

// Tick returns the command that starts the animation.
func (s Spinner) Tick() tea.Msg {
	return s.spinner.Tick()
}

// Update handles spinner animation.
func (s Spinner) Update(msg tea.Msg) (Spinner, tea.Cmd) {
	var cmd tea.Cmd
	s.spinner, cmd = s.spinner.Update(msg)
	return s, cmd
}

// View renders the spinner.
func (s Spinner) View() string {
	if s.message != "" {
		return fmt.Sprintf("%s %s", s.spinner.View(), s.message)
	}
	return s.spinner.View()
}
