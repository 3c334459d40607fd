package prompt

import (
	"context"
	"fmt"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var spinnerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))

// actionDoneMsg carries the result of the spinner's action.
type actionDoneMsg struct {
	err error
}

// spinnerModel shows a spinner until its action finishes.
type spinnerModel struct {
	spinner spinner.Model
	title   string
	action  func() error
	done    bool
	err     error
}

func (m *spinnerModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, func() tea.Msg {
		return actionDoneMsg{err: m.action()}
	})
}

func (m *spinnerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case actionDoneMsg:
		m.done = true
		m.err = msg.err

		return m, tea.Quit
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Interrupt
		}
	}

	var cmd tea.Cmd

	m.spinner, cmd = m.spinner.Update(msg)

	return m, cmd
}

func (m *spinnerModel) View() string {
	if m.done {
		return ""
	}

	return fmt.Sprintf("%s %s\n", m.spinner.View(), m.title)
}

// Spin runs action while a spinner titled title is drawn on out. Without a
// terminal (accessible mode) only the title is printed. The action receives
// ctx; canceling ctx stops the spinner.
func (p *Prompter) Spin(ctx context.Context, title string, action func(ctx context.Context) error) error {
	if p.Accessible {
		fmt.Fprintln(p.out(), title)

		return action(ctx)
	}

	spin := spinner.New()
	spin.Spinner = spinner.Dot
	spin.Style = spinnerStyle

	model := &spinnerModel{
		spinner: spin,
		title:   title,
		action:  func() error { return action(ctx) },
	}

	_, err := tea.NewProgram(model,
		tea.WithContext(ctx),
		tea.WithInput(p.in()),
		tea.WithOutput(p.out()),
	).Run()
	if err != nil {
		return fmt.Errorf("spinner: %w", err)
	}

	return model.err
}

// Done prints a dimmed status line, usually after a spinner.
func (p *Prompter) Done(message string) {
	fmt.Fprintln(p.out(), dimStyle.Render(message))
}
