package orchestrator

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ty-ras/start/internal/initialize"
	"github.com/ty-ras/start/internal/input"
	"github.com/ty-ras/start/internal/stage"
)

const folderPrompt = "Where should the project be created?"

type scriptedPrompter struct {
	answers map[string][]interface{}
	asked   []string
}

func (s *scriptedPrompter) next(p stage.Prompt) (interface{}, error) {
	s.asked = append(s.asked, p.Message)
	queue := s.answers[p.Message]
	if len(queue) == 0 {
		return nil, stage.ErrPromptUnavailable
	}
	s.answers[p.Message] = queue[1:]
	return queue[0], nil
}

func (s *scriptedPrompter) Input(p stage.Prompt, validate func(string) error) (string, error) {
	for {
		v, err := s.next(p)
		if err != nil {
			return "", err
		}
		if validate(v.(string)) == nil {
			return v.(string), nil
		}
	}
}

func (s *scriptedPrompter) Select(p stage.Prompt, _ []string) (string, error) {
	v, err := s.next(p)
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

func (s *scriptedPrompter) Confirm(p stage.Prompt) (bool, error) {
	v, err := s.next(p)
	if err != nil {
		return false, err
	}
	return v.(bool), nil
}

type fakeMaterializer struct {
	configs []input.Config
	err     error
}

func (f *fakeMaterializer) Materialize(_ context.Context, cfg input.Config) error {
	f.configs = append(f.configs, cfg)
	return f.err
}

type fakeInitializer struct {
	calls []stage.Answers
	err   error
}

func (f *fakeInitializer) Run(_ context.Context, _ string, answers stage.Answers) error {
	f.calls = append(f.calls, answers)
	return f.err
}

type allTools struct{}

func (allTools) Available(string) bool { return true }

func backendFlags(folder string) stage.MapFlags {
	return stage.MapFlags{
		Named: map[string]string{
			input.KeyPackageManager: "yarn",
			input.KeyComponents:     "be",
			input.KeyDataValidation: "zod",
			input.KeyServer:         "node",
		},
		Args: []string{folder},
	}
}

func TestRunRepromptsOnlyRejectedFolder(t *testing.T) {
	dir := t.TempDir()
	occupied := filepath.Join(dir, "taken")
	require.NoError(t, os.MkdirAll(occupied, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(occupied, "file.txt"), []byte("x"), 0o644))
	fresh := filepath.Join(dir, "fresh")

	prompter := &scriptedPrompter{answers: map[string][]interface{}{folderPrompt: {fresh}}}
	var out bytes.Buffer
	materializer := &fakeMaterializer{}
	o := New(Options{
		Collector:    stage.NewCollector(prompter, &out),
		Validator:    input.NewValidator(afero.NewOsFs()),
		Materializer: materializer,
		Stages:       input.Stages(),
		Out:          &out,
	})

	result, err := o.Run(context.Background(), backendFlags(occupied))
	require.NoError(t, err)

	assert.Equal(t, []string{folderPrompt}, prompter.asked)
	assert.Equal(t, 2, result.Rounds)
	assert.Equal(t, fresh, result.Config.Base().FolderName)
	require.Len(t, materializer.configs, 1)
	assert.Equal(t, &input.BackendConfig{
		Common: input.Common{
			FolderName:     fresh,
			PackageManager: "yarn",
			DataValidation: "zod",
		},
		ServerFlavor: "node",
	}, materializer.configs[0])
	assert.Contains(t, out.String(), "must be empty")

	info, err := os.Stat(fresh)
	require.NoError(t, err)
	assert.True(t, info.IsDir(), "missing folder is created")
}

func TestRunResetsEverythingOnShapeError(t *testing.T) {
	// Without the data validation stage the answers never decode.
	var stages []stage.Spec
	for _, st := range input.Stages() {
		if st.Key != input.KeyDataValidation {
			stages = append(stages, st)
		}
	}

	prompter := &scriptedPrompter{answers: map[string][]interface{}{}}
	var out bytes.Buffer
	materializer := &fakeMaterializer{}
	o := New(Options{
		Collector:    stage.NewCollector(prompter, &out),
		Validator:    input.NewValidatorWith(nil),
		Materializer: materializer,
		Stages:       stages,
		Out:          &out,
		MaxRounds:    2,
	})

	_, err := o.Run(context.Background(), backendFlags(filepath.Join(t.TempDir(), "app")))
	assert.ErrorIs(t, err, ErrTooManyRounds)

	assert.Empty(t, prompter.asked)
	assert.Empty(t, materializer.configs)
	assert.Equal(t, 2, strings.Count(out.String(), "Internal error, starting over"))
	// Provenance was reset, so the command-line values were read again.
	assert.Equal(t, 2, strings.Count(out.String(), `Using "yarn" as "packageManager"`))
}

func TestRunFailsWhenPromptingIsUnavailable(t *testing.T) {
	prompter := &scriptedPrompter{answers: map[string][]interface{}{}}
	o := New(Options{
		Collector:    stage.NewCollector(prompter, &bytes.Buffer{}),
		Validator:    input.NewValidatorWith(nil),
		Materializer: &fakeMaterializer{},
		Stages:       input.Stages(),
	})

	_, err := o.Run(context.Background(), stage.MapFlags{})
	assert.ErrorIs(t, err, stage.ErrPromptUnavailable)
}

func TestRunPropagatesMaterializationErrors(t *testing.T) {
	boom := errors.New("disk full")
	o := New(Options{
		Collector:    stage.NewCollector(&scriptedPrompter{}, &bytes.Buffer{}),
		Validator:    input.NewValidatorWith(nil),
		Materializer: &fakeMaterializer{err: boom},
		Stages:       input.Stages(),
	})

	_, err := o.Run(context.Background(), backendFlags("app"))
	assert.ErrorIs(t, err, boom)
}

func TestRunInitializers(t *testing.T) {
	newOrchestrator := func(prompter *scriptedPrompter, initializer *fakeInitializer, out *bytes.Buffer) *Orchestrator {
		return New(Options{
			Collector:    stage.NewCollector(prompter, out),
			Validator:    input.NewValidatorWith(nil),
			Materializer: &fakeMaterializer{},
			Initializer:  initializer,
			Stages:       input.Stages(),
			InitStages:   initialize.Stages(allTools{}),
			Out:          out,
		})
	}

	t.Run("selected on the command line", func(t *testing.T) {
		flags := backendFlags("app")
		flags.Named[initialize.KeySetupGit] = "true"
		flags.Named[initialize.KeyInstallDependencies] = "false"
		initializer := &fakeInitializer{}

		result, err := newOrchestrator(&scriptedPrompter{}, initializer, &bytes.Buffer{}).Run(context.Background(), flags)
		require.NoError(t, err)

		require.Len(t, initializer.calls, 1)
		assert.Equal(t, true, initializer.calls[0][initialize.KeySetupGit])
		assert.Equal(t, false, initializer.calls[0][initialize.KeyInstallDependencies])
		assert.Equal(t, "yarn", initializer.calls[0][input.KeyPackageManager])
		assert.Equal(t, true, result.Answers[initialize.KeySetupGit])
	})

	t.Run("prompting unavailable skips them", func(t *testing.T) {
		initializer := &fakeInitializer{}

		result, err := newOrchestrator(&scriptedPrompter{answers: map[string][]interface{}{}}, initializer, &bytes.Buffer{}).
			Run(context.Background(), backendFlags("app"))
		require.NoError(t, err)

		assert.Empty(t, initializer.calls)
		assert.NotContains(t, result.Answers, initialize.KeySetupGit)
	})

	t.Run("failures are reported but not fatal", func(t *testing.T) {
		flags := backendFlags("app")
		flags.Named[initialize.KeySetupGit] = "true"
		flags.Named[initialize.KeyInstallDependencies] = "true"
		failure := &initialize.SubprocessError{Command: "yarn install", ExitCode: 1}
		var out bytes.Buffer

		result, err := newOrchestrator(&scriptedPrompter{}, &fakeInitializer{err: failure}, &out).
			Run(context.Background(), flags)
		require.NoError(t, err)

		assert.ErrorIs(t, result.InitErr, failure)
		assert.Contains(t, out.String(), "yarn install exited with code 1")
	})
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "collecting", Collecting.String())
	assert.Equal(t, "validating", Validating.String())
	assert.Equal(t, "done", Done.String())
	assert.Equal(t, "State(7)", State(7).String())
}
