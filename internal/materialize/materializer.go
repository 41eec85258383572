// Package materialize turns a validated project configuration into a
// project on disk: it copies the template trees, pins every dependency to
// a concrete version, moves multi-package projects into their own package
// scope and fills in the placeholder tokens.
package materialize

import (
	"context"
	"fmt"
	"path"
	"path/filepath"
	"sort"

	"github.com/spf13/afero"
	"golang.org/x/sync/errgroup"

	"github.com/ty-ras/start/internal/fileops"
	"github.com/ty-ras/start/internal/input"
	"github.com/ty-ras/start/internal/output"
	"github.com/ty-ras/start/internal/templates"
)

// Resolver resolves a version range of a package to a concrete version.
// Implementations must be safe for concurrent use.
type Resolver interface {
	Resolve(ctx context.Context, name, versionRange string) (string, error)
}

// Options configures a Materializer.
type Options struct {
	// Templates defaults to the embedded templates.
	Templates *templates.Manager
	// Out is the file system the project is written to. Defaults to the OS
	// file system.
	Out      afero.Fs
	Resolver Resolver
	Observer Observer
	// Hook defaults to WorkspaceHook.
	Hook DependencyHook
	// NameStrategy defaults to DefaultNameStrategy.
	NameStrategy NameStrategy
	// Concurrency limits parallel resolutions. Zero means unlimited.
	Concurrency int
}

// Materializer writes projects. A Materializer may be reused for several
// projects but not concurrently.
type Materializer struct {
	templates    *templates.Manager
	out          afero.Fs
	resolver     Resolver
	hook         DependencyHook
	nameStrategy NameStrategy
	concurrency  int
	events       *emitter
}

// New creates a Materializer.
func New(opts Options) *Materializer {
	m := &Materializer{
		templates:    opts.Templates,
		out:          opts.Out,
		resolver:     opts.Resolver,
		hook:         opts.Hook,
		nameStrategy: opts.NameStrategy,
		concurrency:  opts.Concurrency,
		events:       &emitter{observer: opts.Observer},
	}
	if m.templates == nil {
		m.templates = templates.NewManager()
	}
	if m.out == nil {
		m.out = afero.NewOsFs()
	}
	if m.hook == nil {
		m.hook = WorkspaceHook
	}
	if m.nameStrategy == nil {
		m.nameStrategy = DefaultNameStrategy
	}
	return m
}

// Materialize writes the project described by cfg into its folder. Output
// already written is left in place when a phase fails.
func (m *Materializer) Materialize(ctx context.Context, cfg input.Config) error {
	root := cfg.Base().FolderName

	plan, err := Plan(cfg, m.templates)
	if err != nil {
		return err
	}
	if err := m.copy(root, plan); err != nil {
		return err
	}

	manifests, err := m.fixVersions(ctx, cfg, root)
	if err != nil {
		return err
	}

	if len(manifests) > 1 {
		if err := m.fixNames(root); err != nil {
			return err
		}
	}

	return m.substitute(root, Placeholders(cfg))
}

func (m *Materializer) copy(root string, plan []CopyInstruction) error {
	m.events.emit(CopyStarted{Instructions: len(plan)})

	for _, ins := range plan {
		target := filepath.Join(root, filepath.FromSlash(ins.To))
		if ins.Generate == nil {
			output.Debug("copying template", "from", ins.From, "to", target)
			if err := fileops.CopyTree(m.templates.FS(), ins.From, m.out, target); err != nil {
				return err
			}
			continue
		}

		output.Debug("generating file", "to", target)
		data, err := ins.Generate(m.out, root)
		if err == nil {
			err = fileops.WriteFile(m.out, target, data)
		}
		if err != nil {
			return &fileops.CopyError{From: "generated " + path.Base(ins.To), To: target, Cause: err}
		}
	}

	files, err := fileops.ListFiles(m.out, root)
	if err != nil {
		return err
	}
	m.events.emit(CopyFinished{Files: len(files)})
	return nil
}

type resolution struct {
	manifest string
	section  string
	name     string
	rng      string
	version  string
}

func (m *Materializer) fixVersions(ctx context.Context, cfg input.Config, root string) (map[string]*Manifest, error) {
	paths, err := fileops.FindFiles(m.out, root, "**/"+ManifestFileName)
	if err != nil {
		return nil, err
	}
	m.events.emit(VersionFixStarted{Manifests: paths})

	manifests := make(map[string]*Manifest, len(paths))
	for _, p := range paths {
		manifest, err := readManifest(m.out, filepath.Join(root, filepath.FromSlash(p)))
		if err != nil {
			return nil, err
		}
		manifests[p] = manifest
	}

	for _, p := range paths {
		hc := HookContext{Config: cfg, Path: p, Manifest: manifests[p], Manifests: manifests}
		if err := m.hook(hc); err != nil {
			return nil, fmt.Errorf("rewriting dependencies of %s: %w", p, err)
		}
	}

	base := fileops.Base(root)
	for _, p := range paths {
		name := base
		if len(paths) > 1 {
			name = m.nameStrategy(p, manifests[p], base)
		}
		if name == "" {
			continue
		}
		if err := manifests[p].SetName(name); err != nil {
			return nil, err
		}
	}

	var jobs []*resolution
	for _, p := range paths {
		for _, section := range []string{Dependencies, DevDependencies} {
			deps, err := manifests[p].Dependencies(section)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", p, err)
			}
			names := make([]string, 0, len(deps))
			for name := range deps {
				names = append(names, name)
			}
			sort.Strings(names)
			for _, name := range names {
				jobs = append(jobs, &resolution{manifest: p, section: section, name: name, rng: deps[name]})
			}
		}
	}

	if err := m.resolveAll(ctx, jobs); err != nil {
		return nil, err
	}

	resolved := make(map[string]map[string]string, len(paths))
	sections := make(map[string]map[string]map[string]string, len(paths))
	for _, job := range jobs {
		if sections[job.manifest] == nil {
			sections[job.manifest] = map[string]map[string]string{}
			resolved[job.manifest] = map[string]string{}
		}
		if sections[job.manifest][job.section] == nil {
			sections[job.manifest][job.section] = map[string]string{}
		}
		sections[job.manifest][job.section][job.name] = job.version
		resolved[job.manifest][job.name] = job.version
	}

	for _, p := range paths {
		manifest := manifests[p]
		for section, deps := range sections[p] {
			if err := manifest.SetDependencies(section, deps); err != nil {
				return nil, err
			}
		}
		data, err := manifest.Marshal()
		if err != nil {
			return nil, fmt.Errorf("%s: %w", p, err)
		}
		if err := fileops.WriteFile(m.out, filepath.Join(root, filepath.FromSlash(p)), data); err != nil {
			return nil, err
		}
	}

	m.events.emit(VersionFixFinished{Versions: resolved})
	return manifests, nil
}

// resolveAll resolves every job concurrently. In-flight resolutions are not
// cancelled when one fails; the first failure is returned once all finished.
func (m *Materializer) resolveAll(ctx context.Context, jobs []*resolution) error {
	var g errgroup.Group
	if m.concurrency > 0 {
		g.SetLimit(m.concurrency)
	}
	for _, job := range jobs {
		job := job
		g.Go(func() error {
			m.events.emit(PackageResolveStarted{Manifest: job.manifest, Package: job.name, Range: job.rng})
			version, err := m.resolver.Resolve(ctx, job.name, job.rng)
			if err != nil {
				return err
			}
			job.version = version
			m.events.emit(PackageResolveFinished{
				Manifest: job.manifest,
				Package:  job.name,
				Range:    job.rng,
				Version:  version,
			})
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return fmt.Errorf("resolving dependencies: %w", err)
	}
	return nil
}

func (m *Materializer) fixNames(root string) error {
	scope := "@" + fileops.Base(root)
	m.events.emit(NameFixStarted{From: SampleScope, To: scope})

	files, err := fileops.ListFiles(m.out, root)
	if err != nil {
		return err
	}
	modified, err := fileops.Substitute(m.out, root, files, map[string]string{SampleScope: scope})
	if err != nil {
		return err
	}

	m.events.emit(NameFixFinished{Modified: modified})
	return nil
}

func (m *Materializer) substitute(root string, replacements map[string]string) error {
	m.events.emit(SubstituteStarted{Replacements: replacements})

	files, err := fileops.ListFiles(m.out, root)
	if err != nil {
		return err
	}
	modified, err := fileops.Substitute(m.out, root, files, replacements)
	if err != nil {
		return err
	}

	m.events.emit(SubstituteFinished{Modified: modified})
	return nil
}
