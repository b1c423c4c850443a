package archive

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/opencontainers/go-digest"
	slogcontext "github.com/veqryn/slog-context"
	"golang.org/x/sync/errgroup"
)

const (
	DefaultExtension = "jar"
	FatSuffix        = "-fat"
)

var (
	ErrMissingPrimary  = errors.New("primary artifact is missing")
	ErrMissingLauncher = errors.New("launcher class is required")
)

// AssembleRequest describes one fat archive. Direct and Transitive are
// imported in the given order after the primary artifact.
type AssembleRequest struct {
	Primary    string
	Direct     []string
	Transitive []string

	OutputDir string
	// BaseName defaults to the primary file name without extension.
	BaseName string
	// Extension defaults to DefaultExtension.
	Extension string

	Launcher        string
	ApplicationUnit string
}

// Target is the path the request exports to.
func (r AssembleRequest) Target() string {
	base := r.BaseName
	if base == "" {
		base = strings.TrimSuffix(filepath.Base(r.Primary), filepath.Ext(r.Primary))
	}
	ext := r.Extension
	if ext == "" {
		ext = DefaultExtension
	}
	return filepath.Join(r.OutputDir, base+FatSuffix+"."+ext)
}

type AssembleResult struct {
	Path    string        `json:"path"`
	Digest  digest.Digest `json:"digest"`
	Entries int           `json:"entries"`
}

// Assemble builds the fat archive described by req and exports it to
// req.Target(). Later imports overwrite earlier entries at the same path.
func Assemble(ctx context.Context, req AssembleRequest) (*AssembleResult, error) {
	logger := slogcontext.FromCtx(ctx).With(slog.String("realm", "archive"))

	if req.Launcher == "" {
		return nil, ErrMissingLauncher
	}
	if req.Primary == "" {
		return nil, ErrMissingPrimary
	}
	if _, err := os.Stat(req.Primary); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMissingPrimary, err)
	}

	sources := make([]string, 0, 1+len(req.Direct)+len(req.Transitive))
	sources = append(sources, req.Primary)
	sources = append(sources, req.Direct...)
	sources = append(sources, req.Transitive...)

	parts, err := openAll(ctx, logger, sources)
	if err != nil {
		return nil, err
	}

	fat := New()
	for _, part := range parts {
		fat.Merge(part)
	}
	fat.SetManifest(Manifest{
		MainClass:    req.Launcher,
		MainVerticle: req.ApplicationUnit,
	})

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	target := req.Target()
	dig, err := fat.Export(target)
	if err != nil {
		return nil, err
	}
	logger.InfoContext(ctx, "assembled fat archive", "path", target, "entries", fat.Len(), "digest", dig.String())

	return &AssembleResult{
		Path:    target,
		Digest:  dig,
		Entries: fat.Len(),
	}, nil
}

// openAll reads all paths concurrently and returns them in input order.
func openAll(ctx context.Context, logger *slog.Logger, paths []string) ([]*Archive, error) {
	parts := make([]*Archive, len(paths))
	eg, egctx := errgroup.WithContext(ctx)
	eg.SetLimit(runtime.GOMAXPROCS(0))
	for i, p := range paths {
		eg.Go(func() error {
			logger.DebugContext(egctx, "reading archive", "path", p)
			a, err := Open(egctx, p)
			if err != nil {
				return err
			}
			parts[i] = a
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return parts, nil
}

// Pack builds a thin archive at target from the given directories, in order.
// Directories that do not exist are skipped. It stands in for the jar step
// of a build when the primary artifact is missing.
func Pack(ctx context.Context, target string, dirs ...string) (*AssembleResult, error) {
	logger := slogcontext.FromCtx(ctx).With(slog.String("realm", "archive"))

	a := New()
	for _, dir := range dirs {
		fi, err := os.Stat(dir)
		if errors.Is(err, fs.ErrNotExist) {
			logger.DebugContext(ctx, "skipping missing directory", "path", dir)
			continue
		}
		if err != nil {
			return nil, err
		}
		if !fi.IsDir() {
			return nil, fmt.Errorf("%s is not a directory", dir)
		}
		if err := a.ImportFS(os.DirFS(dir)); err != nil {
			return nil, fmt.Errorf("unable to import %s: %w", dir, err)
		}
	}
	if a.Len() == 0 {
		return nil, fmt.Errorf("%w: nothing to pack in %s", ErrMissingPrimary, strings.Join(dirs, ", "))
	}
	if _, ok := a.Get(ManifestPath); !ok {
		a.SetManifest(Manifest{})
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	dig, err := a.Export(target)
	if err != nil {
		return nil, err
	}
	logger.InfoContext(ctx, "packed primary archive", "path", target, "entries", a.Len())
	return &AssembleResult{Path: target, Digest: dig, Entries: a.Len()}, nil
}
