package launch

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRunInline(t *testing.T) {
	r := require.New(t)

	var workers atomic.Int32
	var gotArgs []string
	var gotRC ResolutionContext
	Register("test.inline.Workers", func(ctx context.Context, args []string) error {
		gotArgs = args
		rc, ok := ResolutionContextFrom(ctx)
		if !ok {
			return errors.New("no resolution context")
		}
		gotRC = rc
		for range 3 {
			if err := Go(ctx, func(ctx context.Context) error {
				workers.Add(1)
				return nil
			}); err != nil {
				return err
			}
		}
		return nil
	})

	rc := ResolutionContext{ClassesDir: "classes", ResourceDirs: []string{"res"}, Dependencies: []string{"a.jar"}}
	err := RunInline(t.Context(), Descriptor{Launcher: "test.inline.Workers", ApplicationUnit: "app.Main"}, rc)
	r.NoError(err)
	r.Equal(int32(3), workers.Load())
	r.Equal([]string{"run", "app.Main", ArgLauncherClass, "test.inline.Workers"}, gotArgs)
	r.Equal(rc, gotRC)
	r.Equal([]string{"res", "classes", "a.jar"}, gotRC.Classpath())
	r.Contains(EntryPoints(), "test.inline.Workers")
}

func TestRunInlineReportsWorkerFailureOnce(t *testing.T) {
	r := require.New(t)
	boom := errors.New("boom")

	Register("test.inline.Failing", func(ctx context.Context, _ []string) error {
		if err := Go(ctx, func(ctx context.Context) error { return boom }); err != nil {
			return err
		}
		<-ctx.Done()
		return nil
	})

	err := RunInline(t.Context(), Descriptor{Launcher: "test.inline.Failing"}, ResolutionContext{})
	r.ErrorIs(err, boom)
	r.Equal("error occurred while running: boom", err.Error())
}

func TestRunInlineRecoversPanics(t *testing.T) {
	r := require.New(t)
	Register("test.inline.Panicking", func(context.Context, []string) error {
		panic("kaputt")
	})

	err := RunInline(t.Context(), Descriptor{Launcher: "test.inline.Panicking"}, ResolutionContext{})
	r.ErrorIs(err, ErrPanic)
	r.ErrorContains(err, "kaputt")
}

func TestRunInlineUnknownLauncher(t *testing.T) {
	r := require.New(t)
	err := RunInline(t.Context(), Descriptor{Launcher: "test.inline.Missing"}, ResolutionContext{})
	r.ErrorIs(err, ErrNoEntryPoint)
}

func TestGoOutsideInlineLaunch(t *testing.T) {
	r := require.New(t)
	r.ErrorIs(Go(t.Context(), func(context.Context) error { return nil }), ErrNoWorkerGroup)
}

func TestRegisterTwicePanics(t *testing.T) {
	r := require.New(t)
	ep := func(context.Context, []string) error { return nil }
	Register("test.inline.Twice", ep)
	r.Panics(func() { Register("test.inline.Twice", ep) })
}
