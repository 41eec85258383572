package ui

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/ty-ras/start/internal/output"
)

// SelectModel is a single-selection list
type SelectModel struct {
	prompt   string
	choices  []string
	cursor   int
	selected int
	done     bool
}

// NewSelect creates a new selection prompt with the cursor on
// defaultChoice, or on the first choice when it is not listed.
func NewSelect(prompt string, choices []string, defaultChoice string) SelectModel {
	cursor := 0
	for i, c := range choices {
		if c == defaultChoice {
			cursor = i
			break
		}
	}
	return SelectModel{
		prompt:   prompt,
		choices:  choices,
		cursor:   cursor,
		selected: -1,
	}
}

func (m SelectModel) Init() tea.Cmd {
	return nil
}

func (m SelectModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "up", "k":
			if m.cursor > 0 {
				m.cursor--
			}
		case "down", "j":
			if m.cursor < len(m.choices)-1 {
				m.cursor++
			}
		case "enter":
			m.selected = m.cursor
			m.done = true
			return m, tea.Quit
		case "ctrl+c", "esc":
			m.done = true
			return m, tea.Quit
		}
	}

	return m, nil
}

func (m SelectModel) View() string {
	if m.done {
		if m.selected >= 0 {
			return fmt.Sprintf("%s %s %s\n", output.IconDesign, m.prompt, output.SuccessStyle.Render(m.choices[m.selected]))
		}
		return ""
	}

	s := fmt.Sprintf("%s %s\n\n", output.IconDesign, output.SubtitleStyle.Render(m.prompt))

	for i, choice := range m.choices {
		cursor := " "
		style := output.UnselectedStyle
		if i == m.cursor {
			cursor = ">"
			style = output.SelectedStyle
		}

		s += fmt.Sprintf("  %s %s\n", cursor, style.Render(choice))
	}

	s += fmt.Sprintf("\n%s", output.HelpStyle.Render("↑/↓: navigate • enter: select • esc: cancel"))

	return s
}

// GetSelected returns the selected choice index
func (m SelectModel) GetSelected() int {
	return m.selected
}

// GetSelectedValue returns the selected choice value
func (m SelectModel) GetSelectedValue() string {
	if m.selected >= 0 && m.selected < len(m.choices) {
		return m.choices[m.selected]
	}
	return ""
}

// IsDone returns whether selection is complete
func (m SelectModel) IsDone() bool {
	return m.done
}
