package launch

import (
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestRunnerStopsChildOnParentSignal(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("signals cannot be sent to processes on windows")
	}

	tests := []struct {
		name      string
		readiness string
		waitReady bool
		wantCode  int
		wantOut   []string
	}{
		{
			name:      "while running",
			readiness: "100ms",
			waitReady: true,
			wantCode:  0,
			wantOut:   []string{"ready", "state Stopped"},
		},
		{
			name:      "during readiness",
			readiness: "1m",
			wantCode:  3,
			wantOut:   []string{"start failed", ErrInterrupted.Error(), "state Stopped"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := require.New(t)
			workDir := t.TempDir()
			childPIDFile := filepath.Join(workDir, "child.pid")

			var out syncBuffer
			parent := exec.Command(testBinary(t), workDir, tt.readiness)
			parent.Env = append(os.Environ(), helperEnv+"=parent", helperPIDEnv+"="+childPIDFile)
			parent.Stdout = &out
			r.NoError(parent.Start())
			t.Cleanup(func() { _ = parent.Process.Kill() })

			r.Eventually(func() bool {
				_, err := os.Stat(childPIDFile)
				return err == nil
			}, 10*time.Second, 20*time.Millisecond)
			if tt.waitReady {
				r.Eventually(func() bool { return strings.Contains(out.String(), "ready") }, 10*time.Second, 20*time.Millisecond)
			} else {
				// the parent installs its handler right after spawning
				time.Sleep(200 * time.Millisecond)
			}

			r.NoError(parent.Process.Signal(syscall.SIGTERM))
			err := parent.Wait()
			code := 0
			var exitErr *exec.ExitError
			if errors.As(err, &exitErr) {
				code = exitErr.ExitCode()
			} else {
				r.NoError(err)
			}
			r.Equal(tt.wantCode, code, out.String())
			for _, want := range tt.wantOut {
				r.Contains(out.String(), want)
			}

			data, err := os.ReadFile(childPIDFile)
			r.NoError(err)
			childPID, err := strconv.Atoi(string(data))
			r.NoError(err)
			r.False(processAlive(childPID))
			r.NoFileExists(PIDFilePath(workDir))
		})
	}
}

func TestRunnerIgnoresSignalRightAfterExit(t *testing.T) {
	r := require.New(t)
	runner := helperRunner(t, "exit", t.TempDir(), WithOutput(&syncBuffer{}), WithReadiness(0))
	r.NoError(runner.Start(t.Context()))
	var exitErr *ExitError
	r.ErrorAs(runner.Wait(), &exitErr)

	r.False(runner.handleSignal(t.Context(), syscall.SIGTERM))

	runner.mu.Lock()
	runner.exitedAt = time.Now().Add(-2 * signalQuietPeriod)
	runner.mu.Unlock()
	r.True(runner.handleSignal(t.Context(), syscall.SIGTERM))
	r.Equal(StateFailed, runner.State())
}
