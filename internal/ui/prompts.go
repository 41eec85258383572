// Package ui implements the interactive terminal side of tyras-start:
// prompts for the stage collector and the progress reporter.
package ui

import (
	"errors"
	"fmt"
	"io"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/manifoldco/promptui"
	"golang.org/x/term"

	"github.com/ty-ras/start/internal/stage"
)

// Prompter asks questions on the terminal. All methods return
// stage.ErrPromptUnavailable when stdin is not a terminal or the user
// cancels.
type Prompter struct {
	in          *os.File
	out         io.Writer
	interactive func() bool
}

// NewPrompter creates a prompter reading from stdin and drawing on stderr.
func NewPrompter() *Prompter {
	return &Prompter{
		in:  os.Stdin,
		out: os.Stderr,
		interactive: func() bool {
			return term.IsTerminal(int(os.Stdin.Fd()))
		},
	}
}

var _ stage.Prompter = (*Prompter)(nil)

// Input asks for text. Invalid input is rejected inline and asked again.
func (p *Prompter) Input(pr stage.Prompt, validate func(string) error) (string, error) {
	if !p.interactive() {
		return "", stage.ErrPromptUnavailable
	}

	def, _ := pr.Default.(string)
	prompt := promptui.Prompt{
		Label:     pr.Message,
		Default:   def,
		AllowEdit: true,
		Validate:  validate,
		Stdin:     p.in,
		Stdout:    nopCloser{p.out},
	}
	value, err := prompt.Run()
	if err != nil {
		return "", promptError(err)
	}
	return value, nil
}

// Select asks to pick one of choices.
func (p *Prompter) Select(pr stage.Prompt, choices []string) (string, error) {
	if !p.interactive() {
		return "", stage.ErrPromptUnavailable
	}

	def, _ := pr.Default.(string)
	final, err := p.run(NewSelect(pr.Message, choices, def))
	if err != nil {
		return "", err
	}

	result := final.(SelectModel)
	if !result.IsDone() || result.GetSelected() < 0 {
		return "", stage.ErrPromptUnavailable
	}
	return result.GetSelectedValue(), nil
}

// Confirm asks a yes/no question.
func (p *Prompter) Confirm(pr stage.Prompt) (bool, error) {
	if !p.interactive() {
		return false, stage.ErrPromptUnavailable
	}

	def, _ := pr.Default.(bool)
	final, err := p.run(NewConfirm(pr.Message, def))
	if err != nil {
		return false, err
	}

	result := final.(ConfirmModel)
	if result.IsCancelled() || !result.IsConfirmed() {
		return false, stage.ErrPromptUnavailable
	}
	return result.Answer(), nil
}

func (p *Prompter) run(m tea.Model) (tea.Model, error) {
	program := tea.NewProgram(m, tea.WithInput(p.in), tea.WithOutput(p.out))
	final, err := program.Run()
	if err != nil {
		return nil, promptError(err)
	}
	return final, nil
}

// promptError maps cancellation and end of input to
// stage.ErrPromptUnavailable.
func promptError(err error) error {
	switch {
	case errors.Is(err, promptui.ErrInterrupt),
		errors.Is(err, promptui.ErrEOF),
		errors.Is(err, promptui.ErrAbort),
		errors.Is(err, io.EOF),
		errors.Is(err, tea.ErrProgramKilled),
		errors.Is(err, tea.ErrInterrupted):
		return fmt.Errorf("%w: %v", stage.ErrPromptUnavailable, err)
	default:
		return err
	}
}

type nopCloser struct {
	io.Writer
}

func (nopCloser) Close() error { return nil }
