package launch

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// helperEnv turns the test binary into a stand-in for java. The mode decides
// what the fake launcher does with its arguments.
const helperEnv = "VXPACK_LAUNCH_HELPER"

// helperPIDEnv names a file the sleeping helper writes its pid to.
const helperPIDEnv = "VXPACK_LAUNCH_HELPER_PID"

func TestMain(m *testing.M) {
	if mode := os.Getenv(helperEnv); mode != "" {
		os.Exit(helperMain(mode, os.Args[1:]))
	}
	os.Exit(m.Run())
}

func helperMain(mode string, args []string) int {
	switch mode {
	case "echo":
		fmt.Println(strings.Join(args, " "))
		fmt.Fprintln(os.Stderr, "stderr line")
		return 0
	case "exit":
		return 3
	case "sleep":
		if path := os.Getenv(helperPIDEnv); path != "" {
			if err := os.WriteFile(path, []byte(strconv.Itoa(os.Getpid())), 0o644); err != nil {
				return 2
			}
		}
		time.Sleep(time.Minute)
		return 0
	case "parent":
		return parentMain(args)
	case "stubborn":
		signal.Ignore(syscall.SIGTERM)
		time.Sleep(time.Minute)
		return 0
	case "stopper":
		pid, err := strconv.Atoi(args[len(args)-1])
		if err != nil {
			return 2
		}
		p, err := os.FindProcess(pid)
		if err != nil {
			return 2
		}
		if err := p.Kill(); err != nil {
			return 2
		}
		return 0
	default:
		return 99
	}
}

// parentMain runs a sleeping child through a Runner with work directory
// args[0] and readiness args[1], and reports the outcome on stdout.
func parentMain(args []string) int {
	if len(args) != 2 {
		return 2
	}
	readiness, err := time.ParseDuration(args[1])
	if err != nil {
		return 2
	}
	exe, err := os.Executable()
	if err != nil {
		return 2
	}
	desc := Descriptor{ApplicationUnit: "org.example.MainVerticle", WorkDir: args[0], Forked: true}
	runner := NewRunner(desc, ResolutionContext{ClassesDir: args[0]},
		WithJava(exe),
		WithEnv(helperEnv+"=sleep"),
		WithReadiness(readiness),
		WithGracePeriod(5*time.Second),
		WithOutput(io.Discard),
	)
	if err := runner.Start(context.Background()); err != nil {
		fmt.Printf("start failed: %v\n", err)
		fmt.Printf("state %s\n", runner.State())
		return 3
	}
	fmt.Println("ready")
	err = runner.Wait()
	fmt.Printf("state %s\n", runner.State())
	if err != nil {
		return 1
	}
	return 0
}

func testBinary(t *testing.T) string {
	t.Helper()
	exe, err := os.Executable()
	require.NoError(t, err)
	return exe
}

func helperRunner(t *testing.T, mode string, workDir string, opts ...Option) *Runner {
	t.Helper()
	desc := Descriptor{
		ApplicationUnit: "org.example.MainVerticle",
		WorkDir:         workDir,
		Forked:          true,
	}
	base := []Option{
		WithJava(testBinary(t)),
		WithEnv(helperEnv + "=" + mode),
	}
	return NewRunner(desc, ResolutionContext{ClassesDir: workDir}, append(base, opts...)...)
}
