// Package tui asks the user for text with a one-line bubbletea prompt.
package tui

import (
	"fmt"
	"io"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

// Prompter runs a prompt program per request. Nil In and Out use the terminal.
type Prompter struct {
	In  io.Reader
	Out io.Writer
}

// RequestText shows label and waits for Enter. Esc and Ctrl+C cancel.
func (p Prompter) RequestText(label string) (string, bool) {
	var opts []tea.ProgramOption
	if p.In != nil {
		opts = append(opts, tea.WithInput(p.In))
	}
	if p.Out != nil {
		opts = append(opts, tea.WithOutput(p.Out))
	}

	final, err := tea.NewProgram(newModel(label), opts...).StartReturningModel()
	if err != nil {
		return "", false
	}
	m, ok := final.(model)
	if !ok || m.cancelled {
		return "", false
	}
	return m.textInput.Value(), true
}

type (
	errMsg error
)

type model struct {
	label     string
	textInput textinput.Model
	err       error
	done      bool
	cancelled bool
}

func newModel(label string) model {
	ti := textinput.New()
	ti.Focus()
	ti.CharLimit = 2048
	ti.Width = 60

	return model{
		label:     label,
		textInput: ti,
	}
}

func (m model) Init() tea.Cmd {
	return textinput.Blink
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			m.cancelled = true
			return m, tea.Quit
		case tea.KeyEnter:
			m.done = true
			return m, tea.Quit
		}

	// We handle errors just like any other message
	case errMsg:
		m.err = msg
		return m, nil
	}

	m.textInput, cmd = m.textInput.Update(msg)
	return m, cmd
}

func (m model) View() string {
	if m.done || m.cancelled {
		return ""
	}
	return fmt.Sprintf(
		"%s\n\n%s\n\n%s",
		m.label,
		m.textInput.View(),
		"(enter to confirm, esc to cancel)",
	) + "\n"
}
