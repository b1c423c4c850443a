// Package pipeline turns a loaded project into the inputs of the archive and
// launch packages.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	slogcontext "github.com/veqryn/slog-context"

	"ocm.software/open-component-model/vxpack/internal/archive"
	"ocm.software/open-component-model/vxpack/internal/launch"
	"ocm.software/open-component-model/vxpack/internal/project"
	"ocm.software/open-component-model/vxpack/internal/resolver"
)

// Resolve plans the project's dependencies against its repository. Absent
// artifacts are logged and left out by the callers.
func Resolve(ctx context.Context, p *project.Project) (*resolver.Plan, error) {
	logger := slogcontext.FromCtx(ctx).With(slog.String("realm", "resolver"))

	root, err := p.RepositoryRoot()
	if err != nil {
		return nil, fmt.Errorf("unable to determine repository: %w", err)
	}
	deps, err := p.CoordinateDependencies()
	if err != nil {
		return nil, err
	}
	plan, err := resolver.ForRoot(root).Plan(ctx, deps)
	if err != nil {
		return nil, fmt.Errorf("unable to plan dependencies: %w", err)
	}
	for _, a := range plan.Absent() {
		logger.DebugContext(ctx, "dependency not resolved", "coordinate", a.Coordinate.String(), "error", a.Err)
	}
	return plan, nil
}

// ResolutionContext lists the project's classes, resources and resolved
// dependencies.
func ResolutionContext(p *project.Project, plan *resolver.Plan) launch.ResolutionContext {
	direct, transitive := plan.Paths()
	return launch.ResolutionContext{
		ClassesDir:   p.ClassesDir(),
		ResourceDirs: p.ResourceDirs(),
		Dependencies: append(direct, transitive...),
	}
}

// LaunchOptions carries the command line overrides of a launch.
type LaunchOptions struct {
	Command launch.Command
	Forked  bool
	// Redeploy overrides the descriptor when not nil.
	Redeploy         *bool
	RedeployPatterns []string
	Conf             string
}

// Descriptor merges the project's launch settings with opts.
func Descriptor(ctx context.Context, p *project.Project, opts LaunchOptions) (launch.Descriptor, error) {
	desc := launch.Descriptor{
		Launcher:         p.Launcher,
		ApplicationUnit:  p.Verticle,
		Command:          opts.Command,
		Redeploy:         p.Redeploy.Enabled,
		RedeployPatterns: p.Redeploy.Patterns,
		ExtraArgs:        p.Run.Args,
		WorkDir:          p.WorkDir(),
		BaseDir:          p.BaseDir,
		Forked:           opts.Forked,
	}
	if opts.Redeploy != nil {
		desc.Redeploy = *opts.Redeploy
	}
	if len(opts.RedeployPatterns) > 0 {
		desc.RedeployPatterns = opts.RedeployPatterns
	}
	if opts.Command != launch.CommandStop {
		conf, err := p.ResolveConfig(ctx, opts.Conf)
		if err != nil {
			return launch.Descriptor{}, err
		}
		desc.ConfigPath = conf
	}
	return desc, nil
}

// Java returns the java executable named by the command line, falling back
// to run.java of the descriptor. Empty leaves the lookup to the runner.
func Java(p *project.Project, flag string) string {
	if flag != "" || p == nil || p.Run.Java == "" {
		return flag
	}
	java := filepath.FromSlash(p.Run.Java)
	// bare names are looked up on PATH
	if filepath.IsAbs(java) || !strings.ContainsRune(java, filepath.Separator) {
		return java
	}
	return filepath.Join(p.BaseDir, java)
}

// Package assembles the fat archive of p and merges service registries when
// relocation is combine. relocation overrides the descriptor when not empty.
func Package(ctx context.Context, p *project.Project, plan *resolver.Plan, outputDir, relocation string) (*archive.AssembleResult, error) {
	logger := slogcontext.FromCtx(ctx).With(slog.String("realm", "archive"))

	if relocation == "" {
		relocation = p.Build.Relocation
	}
	mode, err := archive.ParseRelocationMode(relocation)
	if err != nil {
		return nil, err
	}
	if outputDir == "" {
		outputDir = p.OutputDir()
	}

	primary := p.PrimaryPath()
	if _, err := os.Stat(primary); errors.Is(err, fs.ErrNotExist) {
		logger.InfoContext(ctx, "primary artifact missing, packing classes", "path", primary)
		dirs := append(p.ResourceDirs(), p.ClassesDir())
		if _, err := archive.Pack(ctx, primary, dirs...); err != nil {
			return nil, err
		}
	}

	direct, transitive := plan.Paths()
	req := archive.AssembleRequest{
		Primary:         primary,
		Direct:          direct,
		Transitive:      transitive,
		OutputDir:       outputDir,
		BaseName:        p.Build.FinalName,
		Extension:       p.Build.Extension,
		Launcher:        p.Launcher,
		ApplicationUnit: p.Verticle,
	}
	res, err := archive.Assemble(ctx, req)
	if err != nil {
		return nil, err
	}

	if mode == archive.RelocationCombine {
		if err := archive.MergeServiceRegistries(ctx, archive.MergeRequest{
			Primary:    primary,
			Direct:     direct,
			Transitive: transitive,
			Target:     res.Path,
			WorkDir:    p.BuildDir(),
		}); err != nil {
			return nil, err
		}
		// the merge rewrote the archive, its entry set is unchanged
		if res.Digest, err = archive.FileDigest(res.Path); err != nil {
			return nil, err
		}
	}
	return res, nil
}
