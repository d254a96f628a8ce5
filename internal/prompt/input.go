package prompt

import (
	"context"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

type inputModel struct {
	title   string
	input   textinput.Model
	value   string
	done    bool
	aborted bool
	empty   bool
}

func newInput(title, placeholder string) inputModel {
	ti := textinput.New()
	ti.Placeholder = placeholder
	ti.Prompt = cursorStyle.Render("❯ ")
	ti.CharLimit = 200
	ti.Focus()

	return inputModel{title: title, input: ti}
}

func (m inputModel) Init() tea.Cmd { return textinput.Blink }

func (m inputModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.String() {
		case "enter":
			if strings.TrimSpace(m.input.Value()) == "" {
				m.empty = true
				return m, nil
			}
			m.value, m.done = m.input.Value(), true
			return m, tea.Quit
		case "esc", "ctrl+c":
			m.aborted = true
			return m, tea.Quit
		}
		m.empty = false
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m inputModel) View() string {
	title := titleStyle.Render(m.title)
	switch {
	case m.done:
		return title + " " + answerStyle.Render(m.value) + "\n"
	case m.aborted:
		return title + "\n"
	}

	view := title + "\n" + m.input.View() + "\n"
	if m.empty {
		view += errorStyle.Render("a value is required") + "\n"
	}
	return view
}

// Input reads one line that is not blank. The line is returned as typed.
func Input(ctx context.Context, title, placeholder string, opts ...tea.ProgramOption) (string, error) {
	m, err := run(ctx, newInput(title, placeholder), opts...)
	if err != nil {
		return "", err
	}
	if m.aborted || !m.done {
		return "", ErrAborted
	}
	return m.value, nil
}
