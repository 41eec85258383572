// Package initialize runs the optional steps after a project was generated:
// creating a git repository and installing the dependencies.
package initialize

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"

	"github.com/ty-ras/start/internal/input"
	"github.com/ty-ras/start/internal/output"
	"github.com/ty-ras/start/internal/stage"
)

// Stage keys.
const (
	KeySetupGit            = "setupGit"
	KeyInstallDependencies = "installDependencies"
)

// Detector reports whether a tool is available.
type Detector interface {
	Available(tool string) bool
}

// PathDetector looks tools up in PATH.
type PathDetector struct{}

// Available reports whether tool is found in PATH.
func (PathDetector) Available(tool string) bool {
	_, err := exec.LookPath(tool)
	return err == nil
}

// Stages returns the stages asking which initializers to run. A stage is
// only applicable when its tool is available.
func Stages(d Detector) []stage.Spec {
	return []stage.Spec{
		{
			Key:         KeySetupGit,
			OrderNumber: 8,
			Kind:        stage.Question,
			Condition: &stage.Condition{
				Description: "Only if Git is detected to be installed",
				IsApplicable: func(stage.Answers) bool {
					return d.Available("git")
				},
			},
			Schema: stage.Boolean(),
			Prompt: &stage.Prompt{
				Kind:    stage.PromptConfirm,
				Message: "Should the project folder be initialized with Git?",
				Default: true,
			},
			Flag: &stage.Flag{
				Alias:       "g",
				Description: "Should the project folder be initialized with Git?",
				Type:        stage.FlagBool,
			},
		},
		{
			Key:         KeyInstallDependencies,
			OrderNumber: 9,
			Kind:        stage.Question,
			Condition: &stage.Condition{
				Description: "Only if selected package manager is detected to be installed",
				IsApplicable: func(a stage.Answers) bool {
					pm, _ := a.String(input.KeyPackageManager)
					return pm != "" && pm != input.PackageManagerUnspecified && d.Available(pm)
				},
			},
			Schema: stage.Boolean(),
			Prompt: &stage.Prompt{
				Kind:    stage.PromptConfirm,
				Message: "Should the project dependencies be installed?",
				Default: true,
			},
			Flag: &stage.Flag{
				Alias:       "i",
				Description: "Should the project dependencies be installed?",
				Type:        stage.FlagBool,
			},
		},
	}
}

// SubprocessError reports an initializer command that failed.
type SubprocessError struct {
	Command  string
	ExitCode int
	Cause    error
}

func (e *SubprocessError) Error() string {
	if e.ExitCode > 0 {
		return fmt.Sprintf("%s exited with code %d", e.Command, e.ExitCode)
	}
	return fmt.Sprintf("%s failed: %v", e.Command, e.Cause)
}

func (e *SubprocessError) Unwrap() error {
	return e.Cause
}

// CommandRunner runs a command in dir.
type CommandRunner interface {
	Run(ctx context.Context, dir, name string, args ...string) error
}

// ExecRunner runs commands as subprocesses which share the given output
// streams and get no input.
type ExecRunner struct {
	Stdout io.Writer
	Stderr io.Writer
}

// Run runs the command and returns a *SubprocessError when it fails.
func (r ExecRunner) Run(ctx context.Context, dir, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir
	cmd.Stdout = r.Stdout
	cmd.Stderr = r.Stderr
	if cmd.Stdout == nil {
		cmd.Stdout = os.Stdout
	}
	if cmd.Stderr == nil {
		cmd.Stderr = os.Stderr
	}

	if err := cmd.Run(); err != nil {
		serr := &SubprocessError{Command: strings.Join(append([]string{name}, args...), " "), Cause: err}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			serr.ExitCode = exitErr.ExitCode()
		}
		return serr
	}
	return nil
}

// Initializer runs the initializers selected by the answers.
type Initializer struct {
	runner CommandRunner
}

// New creates an Initializer.
func New(runner CommandRunner) *Initializer {
	if runner == nil {
		runner = ExecRunner{}
	}
	return &Initializer{runner: runner}
}

// Run runs the selected initializers in dir. Every initializer is attempted;
// failures are returned joined.
func (i *Initializer) Run(ctx context.Context, dir string, answers stage.Answers) error {
	var errs []error

	if yes, _ := answers.Bool(KeySetupGit); yes {
		output.Info("initializing git repository", "dir", dir)
		if err := i.runner.Run(ctx, dir, "git", "init"); err != nil {
			errs = append(errs, err)
		}
	}

	if yes, _ := answers.Bool(KeyInstallDependencies); yes {
		pm, _ := answers.String(input.KeyPackageManager)
		output.Info("installing dependencies", "dir", dir, "packageManager", pm)
		if err := i.runner.Run(ctx, dir, pm, "install"); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}
