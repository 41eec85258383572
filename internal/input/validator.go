package input

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"

	"github.com/spf13/afero"
	"golang.org/x/sync/errgroup"

	"github.com/ty-ras/start/internal/output"
	"github.com/ty-ras/start/internal/stage"
)

// FieldError is a user-correctable rejection of one answer.
type FieldError struct {
	Key     string
	Message string
}

func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Key, e.Message)
}

// FieldValidator checks one decoded value. It returns an empty string when
// the value is acceptable. Validators may have side effects.
type FieldValidator func(ctx context.Context, cfg Config) string

// Validator decodes answers and runs the secondary validators.
type Validator struct {
	fields map[string]FieldValidator
}

// NewValidator creates the validator used by the generator. The folder
// validator works on fs.
func NewValidator(fs afero.Fs) *Validator {
	return &Validator{
		fields: map[string]FieldValidator{
			KeyFolderName: FolderValidator(fs),
		},
	}
}

// NewValidatorWith creates a validator with custom field validators.
func NewValidatorWith(fields map[string]FieldValidator) *Validator {
	return &Validator{fields: fields}
}

// Validate decodes answers and runs every registered field validator
// concurrently. A decode failure is returned as a *ShapeError; field
// rejections are returned as FieldErrors sorted by key, with a nil config.
func (v *Validator) Validate(ctx context.Context, answers stage.Answers) (Config, []FieldError, error) {
	cfg, err := Decode(answers)
	if err != nil {
		return nil, nil, err
	}

	keys := make([]string, 0, len(v.fields))
	for k := range v.fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	messages := make([]string, len(keys))
	g, gctx := errgroup.WithContext(ctx)
	for i, key := range keys {
		i, key := i, key
		g.Go(func() error {
			messages[i] = v.fields[key](gctx, cfg)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	var fieldErrs []FieldError
	for i, msg := range messages {
		if msg != "" {
			fieldErrs = append(fieldErrs, FieldError{Key: keys[i], Message: msg})
		}
	}
	if len(fieldErrs) > 0 {
		output.Debug("answers rejected", "count", len(fieldErrs))
		return nil, fieldErrs, nil
	}
	return cfg, nil, nil
}

// packageNamePattern matches names usable as npm package names and scopes.
var packageNamePattern = regexp.MustCompile(`^[a-z0-9][a-z0-9._~-]*$`)

// ValidatePackageName checks that name can be used as an npm package name.
func ValidatePackageName(name string) error {
	if len(name) > 214 {
		return fmt.Errorf("name must not be longer than 214 characters")
	}
	if !packageNamePattern.MatchString(name) {
		return fmt.Errorf("name must be lowercase and consist of letters, numbers, '.', '_', '~' and '-', starting with a letter or number")
	}
	return nil
}

// FolderValidator requires the target folder to be absent or empty and its
// base name to be a valid package name. A missing folder is created.
func FolderValidator(fs afero.Fs) FieldValidator {
	return func(_ context.Context, cfg Config) string {
		folder := cfg.Base().FolderName
		if err := ValidatePackageName(filepath.Base(filepath.Clean(folder))); err != nil {
			return fmt.Sprintf("The folder name %q can not be used as package name: %v.", filepath.Base(folder), err)
		}

		info, err := fs.Stat(folder)
		switch {
		case os.IsNotExist(err):
			if err := fs.MkdirAll(folder, 0o755); err != nil {
				return fmt.Sprintf("The target folder %q could not be created: %v.", folder, err)
			}
			return ""
		case err != nil:
			return fmt.Sprintf("The target folder %q could not be inspected: %v.", folder, err)
		case !info.IsDir():
			return fmt.Sprintf("The target %q is not a folder.", folder)
		}

		entries, err := afero.ReadDir(fs, folder)
		if err != nil {
			return fmt.Sprintf("The target folder %q could not be read: %v.", folder, err)
		}
		if len(entries) > 0 {
			return fmt.Sprintf("The target folder %q must be empty.", folder)
		}
		return ""
	}
}
