package launch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"slices"
	"sync"

	slogcontext "github.com/veqryn/slog-context"
	"golang.org/x/sync/errgroup"
)

var (
	ErrNoEntryPoint  = errors.New("no entry point registered")
	ErrNoWorkerGroup = errors.New("not running inside an inline launch")
	ErrPanic         = errors.New("entry point panicked")
)

// EntryPoint is the inline counterpart of a launcher main class. It receives
// the same arguments the forked launcher would.
type EntryPoint func(ctx context.Context, args []string) error

var entryPoints = struct {
	sync.RWMutex
	m map[string]EntryPoint
}{m: map[string]EntryPoint{}}

// Register makes ep available under the launcher name. It panics if the name
// is taken or ep is nil.
func Register(name string, ep EntryPoint) {
	entryPoints.Lock()
	defer entryPoints.Unlock()
	if ep == nil {
		panic("launch: Register entry point is nil")
	}
	if _, dup := entryPoints.m[name]; dup {
		panic("launch: Register called twice for entry point " + name)
	}
	entryPoints.m[name] = ep
}

// EntryPoints lists the registered launcher names, sorted.
func EntryPoints() []string {
	entryPoints.RLock()
	defer entryPoints.RUnlock()
	names := make([]string, 0, len(entryPoints.m))
	for name := range entryPoints.m {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

func lookup(name string) (EntryPoint, bool) {
	entryPoints.RLock()
	defer entryPoints.RUnlock()
	ep, ok := entryPoints.m[name]
	return ep, ok
}

// ResolutionContext is what an inline entry point gets instead of a class
// loader: where the compiled application and its dependencies live.
type ResolutionContext struct {
	ClassesDir   string
	ResourceDirs []string
	// Dependencies holds direct dependencies followed by transitive ones.
	Dependencies []string
}

// Classpath orders the resolution context as resources, classes, dependencies.
func (rc ResolutionContext) Classpath() []string {
	cp := make([]string, 0, len(rc.ResourceDirs)+1+len(rc.Dependencies))
	cp = append(cp, rc.ResourceDirs...)
	if rc.ClassesDir != "" {
		cp = append(cp, rc.ClassesDir)
	}
	return append(cp, rc.Dependencies...)
}

type resolutionContextKey struct{}

func WithResolutionContext(ctx context.Context, rc ResolutionContext) context.Context {
	return context.WithValue(ctx, resolutionContextKey{}, rc)
}

func ResolutionContextFrom(ctx context.Context) (ResolutionContext, bool) {
	rc, ok := ctx.Value(resolutionContextKey{}).(ResolutionContext)
	return rc, ok
}

type workersKey struct{}

type workers struct {
	eg  *errgroup.Group
	ctx context.Context
}

// Go runs fn as another worker of the inline launch that owns ctx. RunInline
// does not return before fn does.
func Go(ctx context.Context, fn func(ctx context.Context) error) error {
	w, ok := ctx.Value(workersKey{}).(*workers)
	if !ok {
		return ErrNoWorkerGroup
	}
	w.eg.Go(recovered(w.ctx, fn))
	return nil
}

// RunInline runs the entry point registered for the descriptor's launcher and
// blocks until it and every worker it started through Go have returned. The
// first failure is returned.
func RunInline(ctx context.Context, desc Descriptor, rc ResolutionContext) error {
	logger := slogcontext.FromCtx(ctx).With(slog.String("realm", "launch"))

	ep, ok := lookup(desc.launcher())
	if !ok {
		return fmt.Errorf("%w for launcher %s", ErrNoEntryPoint, desc.launcher())
	}
	args, err := desc.Args("")
	if err != nil {
		return err
	}

	eg, egctx := errgroup.WithContext(ctx)
	w := &workers{eg: eg}
	w.ctx = context.WithValue(WithResolutionContext(egctx, rc), workersKey{}, w)

	logger.InfoContext(ctx, "running inline", "launcher", desc.launcher(), "args", args)
	eg.Go(recovered(w.ctx, func(ctx context.Context) error {
		return ep(ctx, args)
	}))

	if err := eg.Wait(); err != nil {
		return fmt.Errorf("error occurred while running: %w", err)
	}
	return nil
}

func recovered(ctx context.Context, fn func(ctx context.Context) error) func() error {
	return func() (err error) {
		defer func() {
			if p := recover(); p != nil {
				slogcontext.FromCtx(ctx).ErrorContext(ctx, "recovered from panic", "panic", p, "stack", string(debug.Stack()))
				err = fmt.Errorf("%w: %v", ErrPanic, p)
			}
		}()
		return fn(ctx)
	}
}
