package materialize

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"

	"github.com/ty-ras/start/internal/input"
	"github.com/ty-ras/start/internal/templates"
)

// WorkspaceFileName is the pnpm workspace definition emitted next to the
// root manifest.
const WorkspaceFileName = "pnpm-workspace.yaml"

// Generator produces file content at copy time. It may read files written
// by earlier instructions below root of out.
type Generator func(out afero.Fs, root string) ([]byte, error)

// CopyInstruction copies From (a template path) or the output of Generate
// to To, relative to the output root. Exactly one of From and Generate is
// set.
type CopyInstruction struct {
	From     string
	Generate Generator
	To       string
}

// Plan returns the copy instructions for cfg, in execution order.
func Plan(cfg input.Config, tm *templates.Manager) ([]CopyInstruction, error) {
	common := cfg.Base()

	shared, err := tm.GetSharedPath()
	if err != nil {
		return nil, err
	}
	tree, err := tm.GetTemplatePath(common.DataValidation, cfg.Components())
	if err != nil {
		return nil, err
	}
	plan := []CopyInstruction{
		{From: shared, To: "."},
		{From: tree, To: "."},
	}

	var component string
	switch cfg.(type) {
	case *input.BackendConfig:
		component = templates.ComponentBackend
	case *input.FrontendConfig:
		component = templates.ComponentFrontend
	}
	if component != "" {
		code, err := tm.GetComponentPath(common.DataValidation, component)
		if err != nil {
			return nil, err
		}
		plan = append(plan, CopyInstruction{From: code, To: "."})
	}

	if _, ok := cfg.(*input.FullStackConfig); ok && common.PackageManager == input.PackageManagerPNPM {
		plan = append(plan,
			CopyInstruction{Generate: workspaceFile, To: WorkspaceFileName},
			CopyInstruction{Generate: stripWorkspaces, To: ManifestFileName},
		)
	}
	return plan, nil
}

type pnpmWorkspace struct {
	Packages []string `yaml:"packages"`
}

// workspaceFile renders the workspace members of the root manifest as a
// pnpm workspace definition.
func workspaceFile(out afero.Fs, root string) ([]byte, error) {
	m, err := readManifest(out, filepath.Join(root, ManifestFileName))
	if err != nil {
		return nil, err
	}
	var members []string
	found, err := m.Get("workspaces", &members)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, fmt.Errorf("root %s declares no workspaces", ManifestFileName)
	}
	return yaml.Marshal(pnpmWorkspace{Packages: members})
}

// stripWorkspaces returns the root manifest without its workspaces field.
func stripWorkspaces(out afero.Fs, root string) ([]byte, error) {
	m, err := readManifest(out, filepath.Join(root, ManifestFileName))
	if err != nil {
		return nil, err
	}
	m.Delete("workspaces")
	return m.Marshal()
}

func readManifest(fs afero.Fs, name string) (*Manifest, error) {
	data, err := afero.ReadFile(fs, name)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", name, err)
	}
	m, err := ParseManifest(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return m, nil
}
