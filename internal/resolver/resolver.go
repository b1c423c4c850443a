// Package resolver turns declared dependencies into local artifact files.
//
// Only compile and runtime scoped dependencies are considered. A dependency
// that cannot be located is recorded as absent instead of failing the whole
// resolution, so packaging can proceed with everything else.
package resolver

import (
	"context"
	"log/slog"
	"runtime"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	slogcontext "github.com/veqryn/slog-context"
	"golang.org/x/sync/errgroup"

	"ocm.software/open-component-model/vxpack/internal/coordinate"
)

const (
	DefaultCacheSize = 1024
	DefaultCacheTTL  = 10 * time.Minute
)

// Artifact is a coordinate together with its resolved file. Path is empty
// when resolution failed, Err then holds the reason.
type Artifact struct {
	Coordinate coordinate.Coordinate `json:"coordinate"`
	Path       string                `json:"path,omitempty"`
	Err        error                 `json:"-"`
}

func (a Artifact) Present() bool {
	return a.Path != ""
}

type Resolver struct {
	repo        Repository
	cache       *expirable.LRU[coordinate.Coordinate, string]
	concurrency int
}

type Option func(*Resolver)

// WithConcurrency limits the number of parallel repository lookups.
func WithConcurrency(n int) Option {
	return func(r *Resolver) {
		if n > 0 {
			r.concurrency = n
		}
	}
}

// WithCache replaces the lookup cache.
func WithCache(size int, ttl time.Duration) Option {
	return func(r *Resolver) {
		r.cache = expirable.NewLRU[coordinate.Coordinate, string](size, nil, ttl)
	}
}

func New(repo Repository, opts ...Option) *Resolver {
	r := &Resolver{
		repo:        repo,
		concurrency: runtime.GOMAXPROCS(0),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.cache == nil {
		r.cache = expirable.NewLRU[coordinate.Coordinate, string](DefaultCacheSize, nil, DefaultCacheTTL)
	}
	return r
}

// Resolve locates every packaged dependency. The result holds one entry per
// distinct coordinate, absent ones included.
func (r *Resolver) Resolve(ctx context.Context, deps []coordinate.Dependency) map[coordinate.Coordinate]Artifact {
	logger := slogcontext.FromCtx(ctx).With(slog.String("realm", "resolver"))

	seen := make(map[coordinate.Coordinate]struct{}, len(deps))
	var wanted []coordinate.Coordinate
	for _, dep := range deps {
		if !dep.Scope.Packaged() {
			logger.DebugContext(ctx, "skipping dependency outside of packaged scopes", "dependency", dep.String())
			continue
		}
		c := dep.Coordinate.Normalize()
		if _, ok := seen[c]; ok {
			continue
		}
		seen[c] = struct{}{}
		wanted = append(wanted, c)
	}

	results := make([]Artifact, len(wanted))
	eg := errgroup.Group{}
	eg.SetLimit(r.concurrency)
	for i, c := range wanted {
		eg.Go(func() error {
			results[i] = r.locate(ctx, logger, c)
			return nil
		})
	}
	_ = eg.Wait()

	resolved := make(map[coordinate.Coordinate]Artifact, len(results))
	for _, a := range results {
		resolved[a.Coordinate] = a
	}
	return resolved
}

func (r *Resolver) locate(ctx context.Context, logger *slog.Logger, c coordinate.Coordinate) Artifact {
	if p, ok := r.cache.Get(c); ok {
		return Artifact{Coordinate: c, Path: p}
	}
	p, err := r.repo.Locate(ctx, c)
	if err != nil {
		logger.DebugContext(ctx, "unable to resolve dependency", "coordinate", c.String(), "error", err)
		return Artifact{Coordinate: c, Err: err}
	}
	r.cache.Add(c, p)
	logger.DebugContext(ctx, "resolved dependency", "coordinate", c.String(), "path", p)
	return Artifact{Coordinate: c, Path: p}
}
