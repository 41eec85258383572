package materialize

import (
	"fmt"
	"path"

	"github.com/ty-ras/start/internal/input"
)

// SampleScope is the package scope used by the templates. It is replaced by
// the project scope in multi-package projects.
const SampleScope = "@ty-ras-sample"

// Placeholder tokens found in template files.
const (
	TokenPackageManager = "__TYRAS_PACKAGE_MANAGER__"
	TokenServer         = "__TYRAS_SERVER__"
	TokenClient         = "__TYRAS_CLIENT__"
)

const (
	tyrasRange      = "^2.0.0"
	typesNodeRange  = "18.18.4"
	protocolPackage = SampleScope + "/protocol"
)

// HookContext is passed to a DependencyHook for each manifest.
type HookContext struct {
	Config input.Config
	// Path is the slash-separated manifest path relative to the project.
	Path     string
	Manifest *Manifest
	// Manifests holds every manifest of the project by path.
	Manifests map[string]*Manifest
}

// DependencyHook rewrites the dependencies of a manifest before they are
// resolved.
type DependencyHook func(HookContext) error

// NameStrategy names a manifest of a multi-package project. base is the
// project folder name.
type NameStrategy func(manifestPath string, m *Manifest, base string) string

// DefaultNameStrategy names the root manifest after the project folder and
// keeps member names, which name-fix later moves into the project scope.
func DefaultNameStrategy(manifestPath string, m *Manifest, base string) string {
	if manifestPath == ManifestFileName {
		return base
	}
	return m.Name()
}

type packageRole int

const (
	roleRoot packageRole = iota
	roleBackend
	roleFrontend
	roleProtocol
	roleOther
)

func roleOf(cfg input.Config, manifestPath string) packageRole {
	if manifestPath == ManifestFileName {
		switch cfg.(type) {
		case *input.BackendConfig:
			return roleBackend
		case *input.FrontendConfig:
			return roleFrontend
		default:
			return roleRoot
		}
	}
	switch path.Base(path.Dir(manifestPath)) {
	case "backend":
		return roleBackend
	case "frontend":
		return roleFrontend
	case "protocol":
		return roleProtocol
	default:
		return roleOther
	}
}

// WorkspaceHook injects the TyRAS libraries matching the chosen server and
// client, pins workspace members to the shared protocol package, and adds
// the Node type definitions pnpm does not hoist.
func WorkspaceHook(hc HookContext) error {
	cfg := hc.Config
	common := cfg.Base()
	role := roleOf(cfg, hc.Path)

	deps, err := hc.Manifest.Dependencies(Dependencies)
	if err != nil {
		return err
	}
	devDeps, err := hc.Manifest.Dependencies(DevDependencies)
	if err != nil {
		return err
	}

	switch role {
	case roleBackend:
		deps[fmt.Sprintf("@ty-ras/backend-%s-%s-openapi", cfg.Server(), common.DataValidation)] = tyrasRange
	case roleFrontend:
		deps[fmt.Sprintf("@ty-ras/frontend-%s-%s", cfg.Client(), common.DataValidation)] = tyrasRange
	}

	if _, fullStack := cfg.(*input.FullStackConfig); fullStack && (role == roleBackend || role == roleFrontend) {
		version, err := protocolVersion(hc.Manifests)
		if err != nil {
			return err
		}
		deps[protocolPackage] = version
	}

	if common.PackageManager == input.PackageManagerPNPM && role != roleRoot {
		devDeps["@types/node"] = typesNodeRange
	}

	if err := hc.Manifest.SetDependencies(Dependencies, deps); err != nil {
		return err
	}
	return hc.Manifest.SetDependencies(DevDependencies, devDeps)
}

func protocolVersion(manifests map[string]*Manifest) (string, error) {
	for _, m := range manifests {
		if m.Name() != protocolPackage {
			continue
		}
		var version string
		if _, err := m.Get("version", &version); err != nil {
			return "", err
		}
		if version == "" {
			break
		}
		return version, nil
	}
	return "", fmt.Errorf("no versioned %s manifest found", protocolPackage)
}

// Placeholders returns the token replacements for cfg. Only tokens with a
// value for the chosen components are included.
func Placeholders(cfg input.Config) map[string]string {
	pm := cfg.Base().PackageManager
	if pm == input.PackageManagerUnspecified || pm == "" {
		pm = input.PackageManagerNPM
	}
	replacements := map[string]string{TokenPackageManager: pm}
	if server := cfg.Server(); server != "" {
		replacements[TokenServer] = server
	}
	if client := cfg.Client(); client != "" {
		replacements[TokenClient] = client
	}
	return replacements
}
