package launch

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strconv"
	"time"

	slogcontext "github.com/veqryn/slog-context"
)

const (
	DefaultStopTimeout = 10 * time.Second
	stopPollInterval   = 100 * time.Millisecond
)

type stopOptions struct {
	launcher *launcherStop
}

type launcherStop struct {
	desc Descriptor
	rc   ResolutionContext
	opts []Option
}

type StopOption func(*stopOptions)

// WithLauncher first asks the launcher to stop the process by running
// "<launcher> stop <pid>" as a forked process.
func WithLauncher(desc Descriptor, rc ResolutionContext, opts ...Option) StopOption {
	return func(o *stopOptions) {
		o.launcher = &launcherStop{desc: desc, rc: rc, opts: opts}
	}
}

// Stop ends the process recorded in the pid file of workDir. The process is
// terminated and polled until it is gone or timeout elapsed. A process that
// outlives the timeout is killed and ErrStopTimeout is returned, the pid file
// is kept then. A zero timeout means DefaultStopTimeout.
func Stop(ctx context.Context, workDir string, timeout time.Duration, opts ...StopOption) error {
	logger := slogcontext.FromCtx(ctx).With(slog.String("realm", "launch"))
	if timeout <= 0 {
		timeout = DefaultStopTimeout
	}
	var o stopOptions
	for _, opt := range opts {
		opt(&o)
	}

	pid, err := ReadPID(workDir)
	if err != nil {
		return err
	}
	logger.InfoContext(ctx, "stopping process", "pid", pid, "timeout", timeout)

	deadline := time.Now().Add(timeout)

	if o.launcher != nil {
		if err := o.launcher.run(ctx, pid, workDir, timeout); err != nil {
			logger.WarnContext(ctx, "launcher stop failed, signalling process", "pid", pid, "error", err)
		}
	}

	if processAlive(pid) {
		if err := terminateProcess(pid); err != nil && !processGone(err) {
			return fmt.Errorf("unable to terminate process %d: %w", pid, err)
		}
	}

	ticker := time.NewTicker(stopPollInterval)
	defer ticker.Stop()
	for processAlive(pid) {
		if !time.Now().Before(deadline) {
			if err := killProcess(pid); err != nil && !processGone(err) {
				logger.WarnContext(ctx, "unable to kill process", "pid", pid, "error", err)
			}
			return fmt.Errorf("%w of %s: process %d", ErrStopTimeout, timeout, pid)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}

	logger.InfoContext(ctx, "process stopped", "pid", pid)
	return RemovePID(workDir)
}

func (l *launcherStop) run(ctx context.Context, pid int, workDir string, timeout time.Duration) error {
	desc := l.desc
	desc.Command = CommandStop
	if desc.WorkDir == "" {
		desc.WorkDir = workDir
	}
	opts := append(slices.Clone(l.opts), WithReadiness(0), withStopTarget(strconv.Itoa(pid)))

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	r := NewRunner(desc, l.rc, opts...)
	if err := r.Start(ctx); err != nil {
		return err
	}
	return r.Wait()
}
