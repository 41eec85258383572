package input

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ty-ras/start/internal/stage"
)

func TestStagesHaveUniqueKeysAndOrder(t *testing.T) {
	keys := map[string]bool{}
	orders := map[int]bool{}
	for _, st := range Stages() {
		assert.False(t, keys[st.Key], "duplicate key %s", st.Key)
		assert.False(t, orders[st.OrderNumber], "duplicate order %d", st.OrderNumber)
		keys[st.Key] = true
		orders[st.OrderNumber] = true
		if st.Kind == stage.Question {
			assert.NotNil(t, st.Schema, st.Key)
			assert.NotNil(t, st.Prompt, st.Key)
			assert.NotNil(t, st.Flag, st.Key)
		}
	}
}

func TestServerAndClientConditions(t *testing.T) {
	byKey := map[string]stage.Spec{}
	for _, st := range Stages() {
		byKey[st.Key] = st
	}

	tests := []struct {
		components string
		server     bool
		client     bool
	}{
		{ComponentsBackend, true, false},
		{ComponentsFrontend, false, true},
		{ComponentsFullStack, true, true},
	}
	for _, tt := range tests {
		t.Run(tt.components, func(t *testing.T) {
			answers := stage.Answers{KeyComponents: tt.components}
			assert.Equal(t, tt.server, byKey[KeyServer].Condition.IsApplicable(answers))
			assert.Equal(t, tt.client, byKey[KeyClient].Condition.IsApplicable(answers))
		})
	}
	assert.Equal(t, `Used only when components is "be" or "be-and-fe".`, byKey[KeyServer].Condition.Description)
}

func TestDecode(t *testing.T) {
	common := func(extra stage.Answers) stage.Answers {
		a := stage.Answers{
			KeyFolderName:     "/tmp/project",
			KeyPackageManager: PackageManagerYarn,
			KeyDataValidation: "zod",
		}
		for k, v := range extra {
			a[k] = v
		}
		return a
	}

	tests := []struct {
		name    string
		answers stage.Answers
		want    Config
	}{
		{
			name:    "backend",
			answers: common(stage.Answers{KeyComponents: "be", KeyServer: "node"}),
			want: &BackendConfig{
				Common:       Common{FolderName: "/tmp/project", PackageManager: "yarn", DataValidation: "zod"},
				ServerFlavor: "node",
			},
		},
		{
			name:    "frontend",
			answers: common(stage.Answers{KeyComponents: "fe", KeyClient: "fetch"}),
			want: &FrontendConfig{
				Common:       Common{FolderName: "/tmp/project", PackageManager: "yarn", DataValidation: "zod"},
				ClientFlavor: "fetch",
			},
		},
		{
			name:    "full stack",
			answers: common(stage.Answers{KeyComponents: "be-and-fe", KeyServer: "koa", KeyClient: "fetch"}),
			want: &FullStackConfig{
				Common:       Common{FolderName: "/tmp/project", PackageManager: "yarn", DataValidation: "zod"},
				ServerFlavor: "koa",
				ClientFlavor: "fetch",
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Decode(tt.answers)
			require.NoError(t, err)
			assert.Equal(t, tt.want, cfg)
		})
	}
}

func TestDecodeShapeErrors(t *testing.T) {
	tests := []struct {
		name    string
		answers stage.Answers
	}{
		{"empty", stage.Answers{}},
		{"missing server", stage.Answers{
			KeyFolderName: "x", KeyPackageManager: "npm", KeyDataValidation: "zod", KeyComponents: "be",
		}},
		{"server for frontend", stage.Answers{
			KeyFolderName: "x", KeyPackageManager: "npm", KeyDataValidation: "zod", KeyComponents: "fe",
			KeyClient: "fetch", KeyServer: "node",
		}},
		{"wrong primitive type", stage.Answers{
			KeyFolderName: true, KeyPackageManager: "npm", KeyDataValidation: "zod", KeyComponents: "be",
			KeyServer: "node",
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Decode(tt.answers)
			assert.Nil(t, cfg)
			var shapeErr *ShapeError
			require.True(t, errors.As(err, &shapeErr), "expected ShapeError, got %v", err)
			assert.NotEmpty(t, shapeErr.Details)
		})
	}
}

func backendAnswers(folder string) stage.Answers {
	return stage.Answers{
		KeyFolderName:     folder,
		KeyPackageManager: PackageManagerNPM,
		KeyComponents:     ComponentsBackend,
		KeyDataValidation: "zod",
		KeyServer:         "node",
	}
}

func TestValidatorRejectsNonEmptyFolder(t *testing.T) {
	folder := filepath.Join(t.TempDir(), "my-project")
	require.NoError(t, os.MkdirAll(folder, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(folder, "existing.txt"), []byte("x"), 0o644))

	cfg, fieldErrs, err := NewValidator(afero.NewOsFs()).Validate(context.Background(), backendAnswers(folder))
	require.NoError(t, err)
	assert.Nil(t, cfg)
	require.Len(t, fieldErrs, 1)
	assert.Equal(t, KeyFolderName, fieldErrs[0].Key)
	assert.Contains(t, fieldErrs[0].Message, "must be empty")
}

func TestValidatorCreatesMissingFolder(t *testing.T) {
	folder := filepath.Join(t.TempDir(), "nested", "my-project")

	cfg, fieldErrs, err := NewValidator(afero.NewOsFs()).Validate(context.Background(), backendAnswers(folder))
	require.NoError(t, err)
	assert.Empty(t, fieldErrs)
	require.NotNil(t, cfg)
	assert.Equal(t, folder, cfg.Base().FolderName)

	info, err := os.Stat(folder)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestFolderValidator(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, fs.MkdirAll("/work/empty", 0o755))
	require.NoError(t, afero.WriteFile(fs, "/work/file", []byte("x"), 0o644))

	tests := []struct {
		name    string
		folder  string
		wantMsg string
	}{
		{"empty folder", "/work/empty", ""},
		{"missing folder", "/work/new-project", ""},
		{"file", "/work/file", "is not a folder"},
		{"invalid name", "/work/My Project", "can not be used as package name"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Decode(backendAnswers(tt.folder))
			require.NoError(t, err)
			msg := FolderValidator(fs)(context.Background(), cfg)
			if tt.wantMsg == "" {
				assert.Empty(t, msg)
			} else {
				assert.Contains(t, msg, tt.wantMsg)
			}
		})
	}
}

func TestValidatorReturnsShapeErrorBeforeFieldValidators(t *testing.T) {
	called := false
	v := NewValidatorWith(map[string]FieldValidator{
		KeyFolderName: func(context.Context, Config) string { called = true; return "" },
	})

	_, _, err := v.Validate(context.Background(), stage.Answers{KeyComponents: "be"})
	var shapeErr *ShapeError
	assert.True(t, errors.As(err, &shapeErr))
	assert.False(t, called)
}

func TestValidatorSortsFieldErrors(t *testing.T) {
	v := NewValidatorWith(map[string]FieldValidator{
		KeyServer:     func(context.Context, Config) string { return "bad server" },
		KeyFolderName: func(context.Context, Config) string { return "bad folder" },
	})

	_, fieldErrs, err := v.Validate(context.Background(), backendAnswers("x"))
	require.NoError(t, err)
	assert.Equal(t, []FieldError{
		{Key: KeyFolderName, Message: "bad folder"},
		{Key: KeyServer, Message: "bad server"},
	}, fieldErrs)
}
