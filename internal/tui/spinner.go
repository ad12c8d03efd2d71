package tui

import (
	"io"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

type doneMsg struct{}

type spinnerModel struct {
	spinner spinner.Model
	title   string
	done    bool
}

func newSpinnerModel(title string, color bool) spinnerModel {
	s := spinner.New(spinner.WithSpinner(spinner.Dot))
	if color {
		s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("63"))
	}
	return spinnerModel{spinner: s, title: title}
}

func (m spinnerModel) Init() tea.Cmd {
	return m.spinner.Tick
}

func (m spinnerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case doneMsg:
		m.done = true
		return m, tea.Quit
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m spinnerModel) View() string {
	if m.done {
		return ""
	}
	return m.spinner.View() + " " + m.title + "\n"
}

// Spin shows a spinner titled title on out while fn runs and returns fn's
// result. Without a terminal fn runs directly. The program reads no input, so
// an interrupt reaches the caller's signal handling instead of the spinner.
func Spin[T any](out io.Writer, interactive, color bool, title string, fn func() T) T {
	if !interactive {
		return fn()
	}

	p := tea.NewProgram(newSpinnerModel(title, color),
		tea.WithOutput(out),
		tea.WithInput(nil),
	)

	result := make(chan T, 1)
	go func() {
		result <- fn()
		p.Send(doneMsg{})
	}()

	// A failed render only loses the animation.
	_, _ = p.Run()
	return <-result
}
