// Package project loads the vxpack.yaml project descriptor.
//
// The descriptor supplies everything a build tool would otherwise know about
// the application: its name, where compiled classes and resources live, the
// launcher and verticle, and the declared dependencies with their transitive
// closure.
package project

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"sigs.k8s.io/yaml"

	"ocm.software/open-component-model/vxpack/internal/coordinate"
	logv1 "ocm.software/open-component-model/vxpack/internal/flags/log/config/v1"
	"ocm.software/open-component-model/vxpack/internal/resolver"
)

const (
	DefaultFileName = "vxpack.yaml"
	DefaultLauncher = "io.vertx.core.Launcher"

	DefaultBuildDir     = "target"
	DefaultClassesDir   = "target/classes"
	DefaultResourcesDir = "src/main/resources"
	DefaultConf         = "src/main/conf/application.json"
)

var ErrInvalidProject = errors.New("invalid project descriptor")

type Project struct {
	// Name is the artifact name of the application.
	Name    string `json:"name"`
	Version string `json:"version,omitempty"`

	// Launcher is the main class of the fat archive.
	Launcher string `json:"launcher,omitempty"`
	// Verticle is the application unit handed to the launcher.
	Verticle string `json:"verticle,omitempty"`

	Build    Build     `json:"build,omitempty"`
	Redeploy *Redeploy `json:"redeploy,omitempty"`
	Run      Run       `json:"run,omitempty"`

	// Repository is the root of a maven layout repository. It defaults to
	// $M2_REPO or ~/.m2/repository.
	Repository   string       `json:"repository,omitempty"`
	Dependencies []Dependency `json:"dependencies,omitempty"`

	Logging *logv1.Config `json:"logging,omitempty"`

	// BaseDir anchors all relative paths. It is the directory of the
	// descriptor file.
	BaseDir string `json:"-"`
}

type Build struct {
	Directory    string   `json:"directory,omitempty"`
	ClassesDir   string   `json:"classesDir,omitempty"`
	ResourceDirs []string `json:"resourceDirs,omitempty"`
	// OutputDir receives the fat archive, it defaults to Directory.
	OutputDir string `json:"outputDir,omitempty"`
	FinalName string `json:"finalName,omitempty"`
	Extension string `json:"extension,omitempty"`
	// Relocation selects how service registries are treated after assembly.
	Relocation string `json:"relocation,omitempty" jsonschema:"enum=combine"`
}

type Redeploy struct {
	Enabled  bool     `json:"enabled,omitempty"`
	Patterns []string `json:"patterns,omitempty"`
}

type Run struct {
	// Conf is passed as -conf when the file exists.
	Conf    string   `json:"conf,omitempty"`
	WorkDir string   `json:"workDir,omitempty"`
	Java    string   `json:"java,omitempty"`
	Args    []string `json:"args,omitempty"`
}

type Dependency struct {
	Coordinate   string       `json:"coordinate"`
	Scope        string       `json:"scope,omitempty" jsonschema:"enum=compile,enum=runtime,enum=provided,enum=test,enum=system,enum=import"`
	Optional     bool         `json:"optional,omitempty"`
	Dependencies []Dependency `json:"dependencies,omitempty"`
}

// Load reads, validates and defaults the descriptor at path.
func Load(path string) (*Project, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("unable to read project descriptor: %w", err)
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("unable to resolve project descriptor path: %w", err)
	}
	return Parse(data, filepath.Dir(abs))
}

// Parse decodes a YAML or JSON descriptor and anchors it at baseDir.
func Parse(data []byte, baseDir string) (*Project, error) {
	jsonData, err := yaml.YAMLToJSON(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidProject, err)
	}
	if err := Validate(jsonData); err != nil {
		return nil, err
	}
	var p Project
	if err := json.Unmarshal(jsonData, &p); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidProject, err)
	}
	p.BaseDir = baseDir
	p.Default()
	if _, err := p.CoordinateDependencies(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidProject, err)
	}
	return &p, nil
}

// Default fills every unset field. It is idempotent.
func (p *Project) Default() {
	if p.Launcher == "" {
		p.Launcher = DefaultLauncher
	}
	if p.Build.Directory == "" {
		p.Build.Directory = DefaultBuildDir
	}
	if p.Build.ClassesDir == "" {
		p.Build.ClassesDir = DefaultClassesDir
	}
	if len(p.Build.ResourceDirs) == 0 {
		p.Build.ResourceDirs = []string{DefaultResourcesDir}
	}
	if p.Build.OutputDir == "" {
		p.Build.OutputDir = p.Build.Directory
	}
	if p.Build.FinalName == "" {
		p.Build.FinalName = p.Name
		if p.Version != "" {
			p.Build.FinalName += "-" + p.Version
		}
	}
	if p.Build.Extension == "" {
		p.Build.Extension = "jar"
	}
	if p.Redeploy == nil {
		p.Redeploy = &Redeploy{}
	}
	if p.Run.Conf == "" {
		p.Run.Conf = DefaultConf
	}
	if p.Run.WorkDir == "" {
		p.Run.WorkDir = "."
	}
}

// Path resolves a descriptor relative path against BaseDir.
func (p *Project) Path(rel string) string {
	if rel == "" || filepath.IsAbs(rel) {
		return rel
	}
	return filepath.Join(p.BaseDir, filepath.FromSlash(rel))
}

func (p *Project) BuildDir() string {
	return p.Path(p.Build.Directory)
}

func (p *Project) ClassesDir() string {
	return p.Path(p.Build.ClassesDir)
}

func (p *Project) ResourceDirs() []string {
	dirs := make([]string, 0, len(p.Build.ResourceDirs))
	for _, d := range p.Build.ResourceDirs {
		dirs = append(dirs, p.Path(d))
	}
	return dirs
}

func (p *Project) OutputDir() string {
	return p.Path(p.Build.OutputDir)
}

func (p *Project) WorkDir() string {
	return p.Path(p.Run.WorkDir)
}

// PrimaryPath is the location of the thin application archive.
func (p *Project) PrimaryPath() string {
	return filepath.Join(p.BuildDir(), p.Build.FinalName+"."+p.Build.Extension)
}

// RepositoryRoot returns the configured repository or the default one.
func (p *Project) RepositoryRoot() (string, error) {
	if p.Repository != "" {
		return p.Path(p.Repository), nil
	}
	return resolver.DefaultLocalRepositoryRoot()
}

// CoordinateDependencies converts the declared dependency tree.
func (p *Project) CoordinateDependencies() ([]coordinate.Dependency, error) {
	return convert(p.Dependencies)
}

func convert(deps []Dependency) ([]coordinate.Dependency, error) {
	if len(deps) == 0 {
		return nil, nil
	}
	out := make([]coordinate.Dependency, 0, len(deps))
	for _, d := range deps {
		c, err := coordinate.Parse(d.Coordinate)
		if err != nil {
			return nil, err
		}
		scope, err := coordinate.ParseScope(d.Scope)
		if err != nil {
			return nil, fmt.Errorf("dependency %s: %w", d.Coordinate, err)
		}
		transitive, err := convert(d.Dependencies)
		if err != nil {
			return nil, err
		}
		out = append(out, coordinate.Dependency{
			Coordinate: c,
			Scope:      scope,
			Optional:   d.Optional,
			Transitive: transitive,
		})
	}
	return out, nil
}
