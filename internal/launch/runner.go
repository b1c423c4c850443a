package launch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"sync"
	"syscall"
	"time"

	slogcontext "github.com/veqryn/slog-context"
)

const (
	DefaultReadiness   = 3 * time.Second
	DefaultGracePeriod = 10 * time.Second

	// signals arriving this soon after the child exited are not forwarded
	signalQuietPeriod = 500 * time.Millisecond
	relayDrainTimeout = time.Second

	DetachedLogFileName = "vertx-start-process.log"
)

var (
	ErrJavaNotFound   = errors.New("unable to locate java binary")
	ErrAlreadyStarted = errors.New("process already started")
	ErrNotStarted     = errors.New("process not started")
	ErrStopTimeout    = errors.New("unable to stop process within timeout")
	ErrInterrupted    = errors.New("interrupted")
)

// ExitError carries a non-zero exit code of the child.
type ExitError struct {
	Code int
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("process exited with code %d", e.Code)
}

type State int

const (
	StateIdle State = iota
	StateStarting
	StateRunning
	StateStopped
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "Idle"
	case StateStarting:
		return "Starting"
	case StateRunning:
		return "Running"
	case StateStopped:
		return "Stopped"
	case StateFailed:
		return "Failed"
	default:
		return "State(" + strconv.Itoa(int(s)) + ")"
	}
}

type Option func(*Runner)

// WithJava sets the java executable instead of looking it up.
func WithJava(path string) Option {
	return func(r *Runner) { r.java = path }
}

// WithOutput receives the merged stdout and stderr of the child.
func WithOutput(w io.Writer) Option {
	return func(r *Runner) { r.output = w }
}

// WithEnv adds KEY=value pairs to the inherited environment.
func WithEnv(env ...string) Option {
	return func(r *Runner) { r.env = append(r.env, env...) }
}

// WithReadiness sets how long Start waits for the child to stay up. Zero
// returns right after spawning.
func WithReadiness(d time.Duration) Option {
	return func(r *Runner) { r.readiness = d }
}

// WithGracePeriod bounds the graceful stop triggered by signals or context
// cancellation.
func WithGracePeriod(d time.Duration) Option {
	return func(r *Runner) { r.grace = d }
}

// WithDetached leaves the child running when the parent exits.
func WithDetached(detached bool) Option {
	return func(r *Runner) { r.detached = detached }
}

func withStopTarget(pid string) Option {
	return func(r *Runner) { r.stopTarget = pid }
}

// Runner runs the launcher in a forked java process.
type Runner struct {
	desc Descriptor
	rc   ResolutionContext

	java       string
	output     io.Writer
	env        []string
	readiness  time.Duration
	grace      time.Duration
	detached   bool
	stopTarget string

	logger *slog.Logger

	mu            sync.Mutex
	state         State
	cmd           *exec.Cmd
	stopRequested bool
	exitCode      int
	exitErr       error
	exitedAt      time.Time

	done      chan struct{}
	relayDone chan struct{}
}

func NewRunner(desc Descriptor, rc ResolutionContext, opts ...Option) *Runner {
	r := &Runner{
		desc:      desc,
		rc:        rc,
		output:    os.Stdout,
		readiness: DefaultReadiness,
		grace:     DefaultGracePeriod,
		done:      make(chan struct{}),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// ResolveJava returns explicit if set, else $JAVA_HOME/bin/java, else java
// from PATH.
func ResolveJava(explicit string) (string, error) {
	if explicit != "" {
		return explicit, nil
	}
	name := "java"
	if runtime.GOOS == "windows" {
		name = "java.exe"
	}
	if home := os.Getenv("JAVA_HOME"); home != "" {
		candidate := filepath.Join(home, "bin", name)
		if fi, err := os.Stat(candidate); err == nil && !fi.IsDir() {
			return candidate, nil
		}
	}
	path, err := exec.LookPath(name)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrJavaNotFound, err)
	}
	return path, nil
}

// CommandLine returns the full argument vector of the child, starting with
// the java executable.
func (r *Runner) CommandLine() ([]string, error) {
	java, err := ResolveJava(r.java)
	if err != nil {
		return nil, err
	}
	args, err := r.desc.Args(r.stopTarget)
	if err != nil {
		return nil, err
	}
	argv := []string{java}
	if cp := r.rc.Classpath(); len(cp) > 0 {
		argv = append(argv, "-cp", strings.Join(cp, string(os.PathListSeparator)))
	}
	argv = append(argv, r.desc.launcher())
	return append(argv, args...), nil
}

func (r *Runner) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// Pid is the child's process id, or 0 before it was spawned.
func (r *Runner) Pid() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.cmd == nil || r.cmd.Process == nil {
		return 0
	}
	return r.cmd.Process.Pid
}

func (r *Runner) setState(s State) {
	r.mu.Lock()
	r.state = s
	r.mu.Unlock()
}

// Run starts the child and waits for it to exit.
func (r *Runner) Run(ctx context.Context) error {
	if err := r.Start(ctx); err != nil {
		return err
	}
	return r.Wait()
}

// Start spawns the child and waits for readiness. A child that died within
// the readiness period fails the start. On success the pid file is written
// to the work directory.
//
// SIGINT and SIGTERM stop the child gracefully from the moment it is spawned.
// Attached children are also stopped when ctx is cancelled after the start,
// detached ones are left alone once they are ready.
func (r *Runner) Start(ctx context.Context) error {
	r.logger = slogcontext.FromCtx(ctx).With(slog.String("realm", "launch"))

	r.mu.Lock()
	if r.state != StateIdle {
		r.mu.Unlock()
		return ErrAlreadyStarted
	}
	r.state = StateStarting
	r.mu.Unlock()

	if err := r.spawn(ctx); err != nil {
		r.setState(StateFailed)
		return err
	}
	pid := r.Pid()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, os.Interrupt, syscall.SIGTERM)
	watching := false
	defer func() {
		if !watching {
			signal.Stop(sigs)
		}
	}()

	if r.readiness > 0 {
		timer := time.NewTimer(r.readiness)
		defer timer.Stop()
	ready:
		for {
			select {
			case <-r.done:
				return r.startFailure()
			case <-ctx.Done():
				_ = r.StopGracefully(r.grace)
				return ctx.Err()
			case sig := <-sigs:
				if !r.handleSignal(ctx, sig) {
					continue
				}
				return fmt.Errorf("unable to start process: %w by %s", ErrInterrupted, sig)
			case <-timer.C:
				break ready
			}
		}
	}

	r.mu.Lock()
	if r.state == StateStarting {
		r.state = StateRunning
	}
	r.mu.Unlock()

	if r.desc.command() != CommandStop {
		if err := WritePID(r.workDir(), pid); err != nil {
			return err
		}
	}
	r.logger.InfoContext(ctx, "process started", "pid", pid, "detached", r.detached)

	if !r.detached {
		watching = true
		go r.watch(ctx, sigs)
	}
	return nil
}

func (r *Runner) startFailure() error {
	r.setState(StateFailed)
	r.mu.Lock()
	code := r.exitCode
	r.mu.Unlock()
	var cause error = &ExitError{Code: code}
	if code == 0 {
		cause = errors.New("process exited with code 0")
	}
	return fmt.Errorf("unable to start process: %w", cause)
}

func (r *Runner) workDir() string {
	if r.desc.WorkDir != "" {
		return r.desc.WorkDir
	}
	return "."
}

func (r *Runner) spawn(ctx context.Context) error {
	argv, err := r.CommandLine()
	if err != nil {
		return err
	}

	cmd := exec.Command(argv[0], argv[1:]...)
	cmd.Dir = r.desc.WorkDir
	cmd.Env = append(os.Environ(), r.env...)
	cmd.SysProcAttr = sysProcAttr(r.detached)

	var closeAfterStart []io.Closer
	switch f, direct := outputFile(r.output); {
	case r.detached:
		if err := os.MkdirAll(r.workDir(), 0o755); err != nil {
			return fmt.Errorf("unable to create work directory: %w", err)
		}
		logFile, err := os.OpenFile(filepath.Join(r.workDir(), DetachedLogFileName), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return fmt.Errorf("unable to open process log: %w", err)
		}
		cmd.Stdout, cmd.Stderr = logFile, logFile
		closeAfterStart = append(closeAfterStart, logFile)
	case direct:
		cmd.Stdout, cmd.Stderr = f, f
	default:
		pr, pw, err := os.Pipe()
		if err != nil {
			return fmt.Errorf("unable to create output pipe: %w", err)
		}
		cmd.Stdout, cmd.Stderr = pw, pw
		closeAfterStart = append(closeAfterStart, pw)
		r.relayDone = make(chan struct{})
		go relay(r.logger, pr, r.output, r.relayDone)
	}
	if !r.detached && DetectCapabilities().StdinTerminal {
		cmd.Stdin = os.Stdin
	}

	r.logger.DebugContext(ctx, "spawning process", "command", argv, "dir", cmd.Dir)
	err = cmd.Start()
	for _, c := range closeAfterStart {
		_ = c.Close()
	}
	if err != nil {
		return fmt.Errorf("unable to start process: %w", err)
	}

	r.mu.Lock()
	r.cmd = cmd
	r.mu.Unlock()
	go r.reap(cmd)
	return nil
}

// reap waits for the child so an exited child never lingers as a zombie.
func (r *Runner) reap(cmd *exec.Cmd) {
	err := cmd.Wait()

	r.mu.Lock()
	defer r.mu.Unlock()
	r.exitedAt = time.Now()
	r.exitCode = cmd.ProcessState.ExitCode()
	switch {
	case r.stopRequested:
		r.state = StateStopped
	case err == nil:
		r.state = StateStopped
	default:
		r.state = StateFailed
		var ee *exec.ExitError
		if errors.As(err, &ee) {
			r.exitErr = &ExitError{Code: ee.ExitCode()}
		} else {
			r.exitErr = err
		}
	}
	close(r.done)
}

// watch forwards parent signals and context cancellation as a graceful stop.
// It owns sigs and stops the notification when it returns.
func (r *Runner) watch(ctx context.Context, sigs chan os.Signal) {
	defer signal.Stop(sigs)

	for {
		select {
		case <-r.done:
			return
		case <-ctx.Done():
			r.logger.InfoContext(ctx, "context cancelled, stopping process", "pid", r.Pid())
			if err := r.StopGracefully(r.grace); err != nil {
				r.logger.WarnContext(ctx, "graceful stop failed", "error", err)
			}
			return
		case sig := <-sigs:
			if r.handleSignal(ctx, sig) {
				return
			}
		}
	}
}

// handleSignal stops the child gracefully and reports whether it did so.
// Signals arriving shortly after the child exited are ignored, they belong
// to the same interrupt that ended the child.
func (r *Runner) handleSignal(ctx context.Context, sig os.Signal) bool {
	if r.exitedWithin(signalQuietPeriod) {
		r.logger.DebugContext(ctx, "ignoring signal, process already exited", "signal", sig.String())
		return false
	}
	r.logger.InfoContext(ctx, "received signal, stopping process", "signal", sig.String(), "pid", r.Pid())
	if err := r.StopGracefully(r.grace); err != nil {
		r.logger.WarnContext(ctx, "graceful stop failed", "error", err)
	}
	return true
}

func (r *Runner) exitedWithin(d time.Duration) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return !r.exitedAt.IsZero() && time.Since(r.exitedAt) < d
}

// StopGracefully terminates the child and kills it if it is still alive after
// timeout. ErrStopTimeout is returned in that case.
func (r *Runner) StopGracefully(timeout time.Duration) error {
	r.mu.Lock()
	cmd := r.cmd
	if cmd == nil {
		r.mu.Unlock()
		return ErrNotStarted
	}
	r.stopRequested = true
	r.mu.Unlock()

	select {
	case <-r.done:
		return nil
	default:
	}

	pid := cmd.Process.Pid
	if err := terminateProcess(pid); err != nil && !processGone(err) {
		r.logger.Warn("unable to terminate process", "pid", pid, "error", err)
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case <-r.done:
		return nil
	case <-timer.C:
	}

	if err := killProcess(pid); err != nil && !processGone(err) {
		r.logger.Warn("unable to kill process", "pid", pid, "error", err)
	}
	<-r.done
	return fmt.Errorf("%w of %s", ErrStopTimeout, timeout)
}

// Wait blocks until the child exited. It returns nil for a zero exit code or
// a requested stop, and an *ExitError otherwise. The pid file is removed if it
// still names the child.
func (r *Runner) Wait() error {
	if r.Pid() == 0 {
		return ErrNotStarted
	}
	<-r.done
	if r.relayDone != nil {
		select {
		case <-r.relayDone:
		case <-time.After(relayDrainTimeout):
		}
	}
	if err := removePIDIfOwned(r.workDir(), r.Pid()); err != nil {
		r.logger.Warn("unable to delete process file", "error", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	return r.exitErr
}
