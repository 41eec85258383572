// Package templates provides the project template trees shipped with
// tyras-start.
package templates

import (
	"embed"
	"fmt"
	"os"
	"path"

	"github.com/spf13/afero"
)

// assets holds one tree per data validation library and components choice,
// component overrides under code/components, and files shared by all
// projects.
//
//go:embed all:assets
var assets embed.FS

const (
	assetsRoot = "assets"
	sharedDir  = "shared"
	codeDir    = "code/components"
)

// Component names of the overridable component sources.
const (
	ComponentBackend  = "backend"
	ComponentFrontend = "frontend"
)

// Manager resolves template locations within a template file system.
type Manager struct {
	fs   afero.Fs
	root string
}

// NewManager creates a manager over the embedded templates.
func NewManager() *Manager {
	return NewManagerFrom(afero.FromIOFS{FS: assets}, assetsRoot)
}

// NewManagerFrom creates a manager over templates stored below root of fs.
func NewManagerFrom(fs afero.Fs, root string) *Manager {
	return &Manager{fs: fs, root: root}
}

// FS returns the file system the template paths refer to.
func (m *Manager) FS() afero.Fs {
	return m.fs
}

// GetTemplatePath returns the path to the project tree for the given data
// validation library and components choice.
func (m *Manager) GetTemplatePath(dataValidation, components string) (string, error) {
	return m.existing(path.Join(m.root, dataValidation, components),
		"template not found: %s/%s", dataValidation, components)
}

// GetComponentPath returns the path to the sources overriding the given
// component (ComponentBackend or ComponentFrontend).
func (m *Manager) GetComponentPath(dataValidation, component string) (string, error) {
	return m.existing(path.Join(m.root, dataValidation, codeDir, component),
		"component template not found: %s/%s", dataValidation, component)
}

// GetSharedPath returns the path to the files copied into every project.
func (m *Manager) GetSharedPath() (string, error) {
	return m.existing(path.Join(m.root, sharedDir), "shared templates not found")
}

func (m *Manager) existing(p, format string, args ...interface{}) (string, error) {
	info, err := m.fs.Stat(p)
	if os.IsNotExist(err) || (err == nil && !info.IsDir()) {
		return "", fmt.Errorf(format, args...)
	}
	if err != nil {
		return "", fmt.Errorf("failed to stat template %s: %w", p, err)
	}
	return p, nil
}
