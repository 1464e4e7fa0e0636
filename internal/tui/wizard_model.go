package tui

import (
	"errors"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/felixgeelhaar/devsetup/internal/domain/task"
	"github.com/felixgeelhaar/devsetup/internal/domain/wizard"
	"github.com/felixgeelhaar/devsetup/internal/tui/components"
	"github.com/felixgeelhaar/devsetup/internal/tui/ui"
)

// statusKind colours the status line.
type statusKind int

const (
	statusNone statusKind = iota
	statusOK
	statusWarn
	statusError
)

// wizardModel hosts a wizard.Wizard. All wizard calls happen in Update,
// which bubbletea runs on one goroutine.
type wizardModel struct {
	w      *wizard.Wizard
	lines  <-chan ui.LogLineMsg
	styles ui.Styles
	keys   ui.KeyMap
	help   help.Model
	width  int
	height int

	fields   []components.Field
	focus    int
	progress components.Progress
	spinner  components.Spinner
	logs     components.LogView

	exec       *wizard.Execution
	invalid    []string
	status     string
	statusKind statusKind
	showHelp   bool

	finished  bool
	quitting  bool
	cancelled bool
}

func newWizardModel(w *wizard.Wizard, lines <-chan ui.LogLineMsg) wizardModel {
	m := wizardModel{
		w:        w,
		lines:    lines,
		styles:   ui.DefaultStyles(),
		keys:     ui.DefaultKeyMap(),
		help:     help.New(),
		width:    ui.DefaultWidth,
		height:   ui.DefaultHeight,
		progress: components.NewProgress(w.Len()),
		spinner:  components.NewSpinner(),
		logs:     components.NewLogView(ui.DefaultWidth-6, ui.DefaultLogHeight),
	}
	m, _ = m.loadStep()
	return m
}

func (m wizardModel) Init() tea.Cmd {
	cmds := []tea.Cmd{m.spinner.Tick, ui.WaitForLine(m.lines)}
	if len(m.fields) > 0 {
		var cmd tea.Cmd
		m.fields[0], cmd = m.fields[0].Focus()
		cmds = append(cmds, cmd)
	}
	return tea.Batch(cmds...)
}

func (m wizardModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.styles = m.styles.WithWidth(msg.Width)
		m.help.Width = msg.Width
		m.logs = m.logs.SetSize(msg.Width-6, ui.DefaultLogHeight)
		return m, nil

	case ui.LogLineMsg:
		m.logs = m.logs.Append(msg.Level, msg.Text)
		return m, ui.WaitForLine(m.lines)

	case ui.FeedClosedMsg:
		return m, nil

	case ui.ExecutionDoneMsg:
		return m.finish(msg.Result)

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	var cmd tea.Cmd
	m.logs, cmd = m.logs.Update(msg)
	return m, cmd
}

func (m wizardModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.Quit) {
		if m.exec != nil {
			m.exec.Cancel()
			m.quitting = true
			m.setStatus(statusWarn, "Cancelling "+m.exec.TypeID()+" before quitting...")
			return m, nil
		}
		m.cancelled = true
		return m, tea.Quit
	}

	if m.exec != nil {
		if key.Matches(msg, m.keys.Cancel) {
			m.exec.Cancel()
			m.setStatus(statusWarn, "Cancelling...")
		}
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.Help):
		m.showHelp = !m.showHelp
		return m, nil
	case m.keys.IsNext(msg):
		return m.next()
	case m.keys.IsPrevious(msg):
		return m.previous()
	}

	if m.captures(msg) {
		return m.updateFocused(msg)
	}

	switch {
	case key.Matches(msg, m.keys.NextField):
		if msg.Type == tea.KeyEnter && m.focus >= len(m.fields)-1 {
			return m.next()
		}
		return m.moveFocus(1)
	case key.Matches(msg, m.keys.PrevField):
		return m.moveFocus(-1)
	}
	return m.updateFocused(msg)
}

// captures reports whether the focused widget consumes msg itself. List
// fields keep enter and the arrow keys for editing.
func (m wizardModel) captures(msg tea.KeyMsg) bool {
	if m.focus >= len(m.fields) || m.fields[m.focus].Kind() != components.KindList {
		return false
	}
	switch msg.Type {
	case tea.KeyEnter, tea.KeyUp, tea.KeyDown:
		return true
	default:
		return false
	}
}

func (m wizardModel) updateFocused(msg tea.Msg) (tea.Model, tea.Cmd) {
	if m.focus >= len(m.fields) {
		return m, nil
	}
	var cmd tea.Cmd
	m.fields[m.focus], cmd = m.fields[m.focus].Update(msg)
	return m, cmd
}

func (m wizardModel) moveFocus(delta int) (tea.Model, tea.Cmd) {
	if len(m.fields) == 0 {
		return m, nil
	}
	m.fields[m.focus] = m.fields[m.focus].Blur()
	m.focus = (m.focus + delta + len(m.fields)) % len(m.fields)
	var cmd tea.Cmd
	m.fields[m.focus], cmd = m.fields[m.focus].Focus()
	return m, cmd
}

func (m wizardModel) next() (tea.Model, tea.Cmd) {
	if !m.w.HasNext() {
		m.finished = true
		return m, tea.Quit
	}

	for _, f := range m.fields {
		f.Commit()
	}

	exec, err := m.w.Next()
	var invalid *wizard.ValidationError
	switch {
	case errors.As(err, &invalid):
		m.invalid = invalid.Messages
		m.setStatus(statusNone, "")
		return m, nil
	case err != nil:
		m.setStatus(statusError, err.Error())
		return m, nil
	case exec == nil:
		return m.loadStep()
	}

	m.exec = exec
	m.invalid = nil
	m.setStatus(statusNone, "")
	m.logs = m.logs.Clear()
	m.spinner = m.spinner.SetMessage("Running " + task.Title(m.w.Current().Task) + "...")
	return m, ui.WaitForExecution(exec)
}

func (m wizardModel) finish(res wizard.Result) (tea.Model, tea.Cmd) {
	title := task.Title(m.w.Current().Task)
	err := m.w.Finish(res)
	m.exec = nil

	var cmd tea.Cmd
	switch {
	case err == nil:
		m, cmd = m.loadStep()
		m.setStatus(statusOK, title+" completed.")
	case errors.Is(err, wizard.ErrCancelled):
		m.setStatus(statusWarn, title+" was cancelled. Press ctrl+n to try again.")
	case errors.Is(err, wizard.ErrNotExecuting):
		return m, nil
	default:
		m.setStatus(statusError, err.Error())
	}

	if m.quitting {
		m.cancelled = true
		return m, tea.Quit
	}
	return m, cmd
}

func (m wizardModel) previous() (tea.Model, tea.Cmd) {
	if err := m.w.Previous(); err != nil {
		if !errors.Is(err, wizard.ErrFirstStep) {
			m.setStatus(statusError, err.Error())
		}
		return m, nil
	}
	m, cmd := m.loadStep()
	m.setStatus(statusNone, "")
	return m, cmd
}

// loadStep rebuilds the form for the current step. A completed step is
// shown read-only since Next replays it without saving.
func (m wizardModel) loadStep() (wizardModel, tea.Cmd) {
	step := m.w.Current()
	completed := step.Controller.RefreshStatus().Completed
	m.fields = m.fields[:0:0]
	for _, f := range step.Controller.Fields() {
		field := components.NewField(f)
		if completed {
			field = field.ReadOnly()
		}
		m.fields = append(m.fields, field)
	}
	m.focus = 0
	m.invalid = nil
	m.progress = m.progress.SetCurrent(m.w.Position() + 1).SetMessage(step.Task.TypeID())

	if len(m.fields) == 0 || completed {
		return m, nil
	}
	var cmd tea.Cmd
	m.fields[0], cmd = m.fields[0].Focus()
	return m, cmd
}

func (m *wizardModel) setStatus(kind statusKind, text string) {
	m.statusKind = kind
	m.status = text
}

func (m wizardModel) View() string {
	step := m.w.Current()

	var b strings.Builder
	b.WriteString(m.styles.Header.Render(m.w.Document().Name() + "  " + m.progress.View()))
	b.WriteString("\n")
	status := step.Controller.RefreshStatus()
	b.WriteString(m.styles.Title.Render(task.Title(step.Task)))
	if status.Label != "" {
		b.WriteString("  " + m.styles.Subtitle.Render(status.Label))
	}
	b.WriteString("\n")

	if d, ok := step.Task.(task.Describer); ok {
		b.WriteString(m.styles.Paragraph.Render(d.Describe()))
		b.WriteString("\n\n")
	}
	if status.Completed && m.exec == nil {
		b.WriteString(m.styles.Success.Render("Already completed. Press ctrl+n to continue."))
		b.WriteString("\n\n")
	}

	for _, f := range m.fields {
		b.WriteString(f.View())
		b.WriteString("\n\n")
	}

	for _, msg := range m.invalid {
		b.WriteString(m.styles.Error.Render("• " + msg))
		b.WriteString("\n")
	}

	if m.exec != nil {
		b.WriteString(m.spinner.View())
		b.WriteString("\n")
	}

	switch m.statusKind {
	case statusOK:
		b.WriteString(m.styles.Success.Render(m.status) + "\n")
	case statusWarn:
		b.WriteString(m.styles.Warning.Render(m.status) + "\n")
	case statusError:
		b.WriteString(m.styles.Error.Render(m.status) + "\n")
	}

	if logs := m.logs.View(); logs != "" {
		b.WriteString(logs)
		b.WriteString("\n")
	}

	if !m.w.HasNext() {
		b.WriteString(m.styles.Help.Render("Press ctrl+n to finish."))
		b.WriteString("\n")
	}
	if m.showHelp {
		b.WriteString(m.help.FullHelpView(m.keys.FullHelp()))
	} else {
		b.WriteString(m.help.ShortHelpView(m.keys.ShortHelp()))
	}

	return m.styles.App.Render(b.String())
}
