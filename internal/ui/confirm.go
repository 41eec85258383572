package ui

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/ty-ras/start/internal/output"
)

// ConfirmModel is a yes/no confirmation prompt
type ConfirmModel struct {
	prompt    string
	selected  bool
	confirmed bool
	cancelled bool
}

// NewConfirm creates a new confirmation prompt
func NewConfirm(prompt string, defaultYes bool) ConfirmModel {
	return ConfirmModel{
		prompt:   prompt,
		selected: defaultYes,
	}
}

func (m ConfirmModel) Init() tea.Cmd {
	return nil
}

func (m ConfirmModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "y", "Y":
			m.selected = true
			m.confirmed = true
			return m, tea.Quit
		case "n", "N":
			m.selected = false
			m.confirmed = true
			return m, tea.Quit
		case "enter":
			m.confirmed = true
			return m, tea.Quit
		case "left", "right", "tab":
			m.selected = !m.selected
		case "ctrl+c", "esc":
			m.cancelled = true
			return m, tea.Quit
		}
	}

	return m, nil
}

func (m ConfirmModel) View() string {
	if m.cancelled {
		return ""
	}
	if m.confirmed {
		answer := "No"
		if m.selected {
			answer = "Yes"
		}
		return fmt.Sprintf("%s %s %s\n", output.IconDesign, m.prompt, output.SuccessStyle.Render(answer))
	}

	yesStyle := output.UnselectedStyle
	noStyle := output.UnselectedStyle

	if m.selected {
		yesStyle = output.SelectedStyle
	} else {
		noStyle = output.SelectedStyle
	}

	return fmt.Sprintf(
		"%s %s\n\n  %s Yes    %s No\n\n%s",
		output.IconDesign,
		output.SubtitleStyle.Render(m.prompt),
		yesStyle.Render(">"),
		noStyle.Render(">"),
		output.HelpStyle.Render("←/→: toggle • enter: confirm • y/n: quick select • esc: cancel"),
	)
}

// Answer returns the chosen value once confirmed.
func (m ConfirmModel) Answer() bool {
	return m.selected
}

// IsConfirmed returns whether the user answered
func (m ConfirmModel) IsConfirmed() bool {
	return m.confirmed
}

// IsCancelled returns whether the user cancelled
func (m ConfirmModel) IsCancelled() bool {
	return m.cancelled
}
