package prompt

import (
	"context"
	"errors"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
)

type selectModel struct {
	title   string
	options []string
	cursor  int
	chosen  int
	aborted bool
}

func newSelect(title string, options []string) selectModel {
	return selectModel{title: title, options: options, chosen: -1}
}

func (m selectModel) Init() tea.Cmd { return nil }

func (m selectModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	switch key.String() {
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.options)-1 {
			m.cursor++
		}
	case "home", "g":
		m.cursor = 0
	case "end", "G":
		m.cursor = len(m.options) - 1
	case "enter":
		m.chosen = m.cursor
		return m, tea.Quit
	case "esc", "q", "ctrl+c":
		m.aborted = true
		return m, tea.Quit
	}
	return m, nil
}

func (m selectModel) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(m.title))

	if m.chosen >= 0 {
		b.WriteString(" " + answerStyle.Render(m.options[m.chosen]) + "\n")
		return b.String()
	}
	if m.aborted {
		b.WriteString("\n")
		return b.String()
	}

	b.WriteString(" " + hintStyle.Render("(↑/↓, enter)") + "\n")
	for i, opt := range m.options {
		if i == m.cursor {
			b.WriteString(cursorStyle.Render("❯ "+opt) + "\n")
			continue
		}
		b.WriteString("  " + opt + "\n")
	}
	return b.String()
}

// Select shows options under title and returns the index picked.
func Select(ctx context.Context, title string, options []string, opts ...tea.ProgramOption) (int, error) {
	if len(options) == 0 {
		return -1, errors.New("nothing to select")
	}

	m, err := run(ctx, newSelect(title, options), opts...)
	if err != nil {
		return -1, err
	}
	if m.aborted || m.chosen < 0 {
		return -1, ErrAborted
	}
	return m.chosen, nil
}
