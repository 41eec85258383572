package stage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/ty-ras/start/internal/output"
)

// ErrPromptUnavailable is returned when a question must be asked
// interactively but no answer can be obtained (no terminal, end of input
// or user cancellation).
var ErrPromptUnavailable = errors.New("prompting unavailable")

// Prompter asks questions interactively.
type Prompter interface {
	// Input asks for free text. The prompter must re-ask until validate
	// returns nil.
	Input(p Prompt, validate func(string) error) (string, error)
	Select(p Prompt, choices []string) (string, error)
	Confirm(p Prompt) (bool, error)
}

// FlagSource gives access to command-line supplied values.
type FlagSource interface {
	// Lookup returns the raw value of the named flag if it was supplied.
	Lookup(name string) (string, bool)
	// Positional returns the unnamed argument at index if it was supplied.
	Positional(index int) (string, bool)
}

// Source is where Collect looks for values before prompting.
type Source struct {
	Flags FlagSource
	// Exhausted lists keys whose command-line value was consumed in an
	// earlier round. These keys are always prompted for.
	Exhausted Provenance
}

// MapFlags is a FlagSource backed by plain values.
type MapFlags struct {
	Named map[string]string
	Args  []string
}

func (m MapFlags) Lookup(name string) (string, bool) {
	v, ok := m.Named[name]
	return v, ok
}

func (m MapFlags) Positional(index int) (string, bool) {
	if index < 0 || index >= len(m.Args) {
		return "", false
	}
	return m.Args[index], true
}

// Collector drives a stage table.
type Collector struct {
	prompter Prompter
	out      io.Writer
}

// NewCollector creates a collector printing messages and notices to out.
func NewCollector(prompter Prompter, out io.Writer) *Collector {
	return &Collector{prompter: prompter, out: out}
}

// Collect processes the stages in order and returns the extended answers
// together with the provenance of the command-line values consumed during
// this call. The given answers are not modified; stages whose key is
// already answered are skipped.
func (c *Collector) Collect(ctx context.Context, stages []Spec, src Source, answers Answers) (Answers, Provenance, error) {
	result := answers.Clone()
	delta := Provenance{}
	positional := 0

	for _, st := range Sorted(stages) {
		if err := ctx.Err(); err != nil {
			return result, delta, err
		}
		if result.Has(st.Key) {
			continue
		}

		switch st.Kind {
		case Message:
			if st.Message == nil {
				continue
			}
			if msg := st.Message(result.Clone()); msg != "" {
				fmt.Fprintln(c.out, msg)
			}

		case Question:
			if st.Condition != nil && !st.Condition.IsApplicable(result.Clone()) {
				output.Debug("skipping stage", "key", st.Key, "reason", st.Condition.Description)
				continue
			}

			index := -1
			if st.Flag != nil && st.Flag.Positional {
				index = positional
				positional++
			}

			value, origin, found := c.fromCLI(st, src, index)
			if origin != 0 {
				delta[st.Key] = origin
			}
			if !found {
				var err error
				value, err = c.ask(st)
				if err != nil {
					return result, delta, fmt.Errorf("asking for %s: %w", st.Key, err)
				}
			}
			result[st.Key] = value
		}
	}

	return result, delta, nil
}

// fromCLI reads and validates the command-line value of a stage. The
// returned origin is zero when no command-line value was consumed.
func (c *Collector) fromCLI(st Spec, src Source, index int) (interface{}, Origin, bool) {
	if st.Flag == nil || src.Flags == nil || src.Exhausted.Exhausted(st.Key) {
		return nil, 0, false
	}

	var raw string
	var ok bool
	if st.Flag.Positional {
		raw, ok = src.Flags.Positional(index)
	} else {
		raw, ok = src.Flags.Lookup(st.Key)
	}
	if !ok {
		return nil, 0, false
	}

	value, err := coerce(raw, st.Flag.Type)
	if err == nil && st.Schema != nil {
		err = st.Schema.Validate(value)
	}
	if err != nil {
		fmt.Fprintln(c.out, output.WarningStyle.Render(fmt.Sprintf(
			"%sValue %q supplied for %q via command-line arguments is invalid (%v), will prompt instead.",
			output.IconWarning, raw, st.Key, err)))
		return nil, OriginCLIRejected, false
	}

	fmt.Fprintln(c.out, output.HelpStyle.Render(fmt.Sprintf(
		"Using %q as %q, supplied via command-line arguments.", raw, st.Key)))
	return value, OriginCLI, true
}

// ask prompts until the answer satisfies the stage schema.
func (c *Collector) ask(st Spec) (interface{}, error) {
	if st.Prompt == nil {
		return nil, fmt.Errorf("stage %q has no prompt", st.Key)
	}

	validate := func(v interface{}) error {
		if st.Schema == nil {
			return nil
		}
		return st.Schema.Validate(v)
	}

	for {
		var value interface{}
		switch st.Prompt.Kind {
		case PromptInput:
			text, err := c.prompter.Input(*st.Prompt, func(s string) error { return validate(s) })
			if err != nil {
				return nil, err
			}
			value = text
		case PromptSelect:
			choices := st.Prompt.Choices
			if len(choices) == 0 && st.Schema != nil {
				choices = st.Schema.Choices()
			}
			choice, err := c.prompter.Select(*st.Prompt, choices)
			if err != nil {
				return nil, err
			}
			value = choice
		case PromptConfirm:
			yes, err := c.prompter.Confirm(*st.Prompt)
			if err != nil {
				return nil, err
			}
			value = yes
		default:
			return nil, fmt.Errorf("stage %q has unknown prompt kind %d", st.Key, st.Prompt.Kind)
		}

		err := validate(value)
		if err == nil {
			return value, nil
		}
		fmt.Fprintln(c.out, output.WarningStyle.Render(fmt.Sprintf("%s%v", output.IconWarning, err)))
	}
}

func coerce(raw string, t FlagType) (interface{}, error) {
	switch t {
	case FlagBool:
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return nil, fmt.Errorf("not a boolean")
		}
		return b, nil
	default:
		return raw, nil
	}
}
