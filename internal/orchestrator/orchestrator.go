// Package orchestrator drives a generator run: it collects and validates
// the input until a valid configuration is obtained, materializes the
// project and finally runs the selected initializers.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/ty-ras/start/internal/input"
	"github.com/ty-ras/start/internal/output"
	"github.com/ty-ras/start/internal/stage"
)

// ErrTooManyRounds is returned when the configured number of collection
// rounds is exhausted without a valid configuration.
var ErrTooManyRounds = errors.New("too many input rounds without a valid configuration")

// State is the state of the input loop.
type State int

const (
	Collecting State = iota
	Validating
	Done
)

func (s State) String() string {
	switch s {
	case Collecting:
		return "collecting"
	case Validating:
		return "validating"
	case Done:
		return "done"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Validator turns answers into a configuration.
type Validator interface {
	Validate(ctx context.Context, answers stage.Answers) (input.Config, []input.FieldError, error)
}

// Materializer writes the project for a configuration.
type Materializer interface {
	Materialize(ctx context.Context, cfg input.Config) error
}

// Initializer runs the post-generation steps selected by the answers.
type Initializer interface {
	Run(ctx context.Context, dir string, answers stage.Answers) error
}

// Options configures an Orchestrator.
type Options struct {
	Collector    *stage.Collector
	Validator    Validator
	Materializer Materializer
	Initializer  Initializer
	// Stages collect the project configuration.
	Stages []stage.Spec
	// InitStages select the initializers. They are collected after the
	// project was written.
	InitStages []stage.Spec
	// Out receives diagnostics.
	Out io.Writer
	// MaxRounds caps the collection rounds; 0 is unlimited.
	MaxRounds int
}

// Result describes a successful run.
type Result struct {
	Config  input.Config
	Answers stage.Answers
	Rounds  int
	// InitErr holds initializer failures. They do not fail the run.
	InitErr error
}

// Orchestrator runs the generator.
type Orchestrator struct {
	opts Options
}

// New creates an Orchestrator.
func New(opts Options) *Orchestrator {
	if opts.Out == nil {
		opts.Out = io.Discard
	}
	return &Orchestrator{opts: opts}
}

// Run collects a valid configuration, reading command-line values from
// flags, and materializes it.
func (o *Orchestrator) Run(ctx context.Context, flags stage.FlagSource) (*Result, error) {
	cfg, answers, provenance, rounds, err := o.configure(ctx, flags)
	if err != nil {
		return nil, err
	}

	if err := o.opts.Materializer.Materialize(ctx, cfg); err != nil {
		return nil, err
	}
	result := &Result{Config: cfg, Answers: answers, Rounds: rounds}

	if len(o.opts.InitStages) == 0 || o.opts.Initializer == nil {
		return result, nil
	}
	initAnswers, _, err := o.opts.Collector.Collect(ctx, o.opts.InitStages,
		stage.Source{Flags: flags, Exhausted: provenance}, answers)
	if errors.Is(err, stage.ErrPromptUnavailable) {
		output.Debug("skipping initializers", "reason", err)
		return result, nil
	}
	if err != nil {
		return nil, err
	}
	result.Answers = initAnswers

	if err := o.opts.Initializer.Run(ctx, cfg.Base().FolderName, initAnswers); err != nil {
		fmt.Fprintln(o.opts.Out, output.WarningStyle.Render(fmt.Sprintf("%s%v", output.IconWarning, err)))
		result.InitErr = err
	}
	return result, nil
}

// configure runs the Collecting → Validating loop until a configuration is
// valid. Field errors clear the rejected answers; shape errors clear all
// answers and provenance.
func (o *Orchestrator) configure(ctx context.Context, flags stage.FlagSource) (input.Config, stage.Answers, stage.Provenance, int, error) {
	var (
		cfg        input.Config
		answers    = stage.Answers{}
		provenance = stage.Provenance{}
		rounds     int
		state      = Collecting
	)

	for state != Done {
		output.Debug("input loop", "state", state, "round", rounds)

		switch state {
		case Collecting:
			if o.opts.MaxRounds > 0 && rounds >= o.opts.MaxRounds {
				return nil, nil, nil, rounds, ErrTooManyRounds
			}
			rounds++
			collected, delta, err := o.opts.Collector.Collect(ctx, o.opts.Stages,
				stage.Source{Flags: flags, Exhausted: provenance}, answers)
			if err != nil {
				return nil, nil, nil, rounds, fmt.Errorf("collecting input: %w", err)
			}
			answers = collected
			provenance = provenance.Merge(delta)
			state = Validating

		case Validating:
			validated, fieldErrs, err := o.opts.Validator.Validate(ctx, answers)
			var shapeErr *input.ShapeError
			switch {
			case errors.As(err, &shapeErr):
				fmt.Fprintln(o.opts.Out, output.ErrorStyle.Render(fmt.Sprintf(
					"%sInternal error, starting over: %v", output.IconError, shapeErr)))
				answers = stage.Answers{}
				provenance = stage.Provenance{}
				state = Collecting
			case err != nil:
				return nil, nil, nil, rounds, fmt.Errorf("validating input: %w", err)
			case len(fieldErrs) > 0:
				keys := make([]string, len(fieldErrs))
				for i, fe := range fieldErrs {
					keys[i] = fe.Key
					fmt.Fprintln(o.opts.Out, output.WarningStyle.Render(fmt.Sprintf("%s%s", output.IconWarning, fe.Message)))
				}
				answers = answers.Without(keys...)
				state = Collecting
			default:
				cfg = validated
				state = Done
			}
		}
	}

	return cfg, answers, provenance, rounds, nil
}
