package launch

import (
	"os"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestPIDFile(t *testing.T) {
	r := require.New(t)
	workDir := t.TempDir()

	_, err := ReadPID(workDir)
	r.ErrorIs(err, ErrNotRunning)

	r.NoError(WritePID(workDir, 1234))
	data, err := os.ReadFile(PIDFilePath(workDir))
	r.NoError(err)
	r.Equal("1234", string(data))

	pid, err := ReadPID(workDir)
	r.NoError(err)
	r.Equal(1234, pid)

	r.NoError(removePIDIfOwned(workDir, 99))
	r.FileExists(PIDFilePath(workDir))
	r.NoError(removePIDIfOwned(workDir, 1234))
	r.NoFileExists(PIDFilePath(workDir))

	r.NoError(os.WriteFile(PIDFilePath(workDir), []byte("not-a-pid"), 0o644))
	_, err = ReadPID(workDir)
	r.ErrorIs(err, ErrInvalidPID)
}

func TestStopWithoutProcessFile(t *testing.T) {
	r := require.New(t)
	r.ErrorIs(Stop(t.Context(), t.TempDir(), time.Second), ErrNotRunning)
}

func TestStopAfterStart(t *testing.T) {
	r := require.New(t)
	workDir := t.TempDir()
	runner := helperRunner(t, "sleep", workDir, WithOutput(&syncBuffer{}), WithReadiness(200*time.Millisecond))
	r.NoError(runner.Start(t.Context()))

	r.NoError(Stop(t.Context(), workDir, 5*time.Second))
	r.NoFileExists(PIDFilePath(workDir))
	_ = runner.Wait()

	r.ErrorIs(Stop(t.Context(), workDir, 5*time.Second), ErrNotRunning)
}

func TestStopProcessAlreadyGone(t *testing.T) {
	r := require.New(t)
	workDir := t.TempDir()
	runner := helperRunner(t, "echo", t.TempDir(), WithOutput(&syncBuffer{}), WithReadiness(0))
	r.NoError(runner.Run(t.Context()))

	r.NoError(WritePID(workDir, runner.Pid()))
	r.NoError(Stop(t.Context(), workDir, time.Second))
	r.NoFileExists(PIDFilePath(workDir))
}

func TestStopEscalatesToKill(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("terminate already kills on windows")
	}
	r := require.New(t)
	workDir := t.TempDir()
	runner := helperRunner(t, "stubborn", workDir, WithOutput(&syncBuffer{}), WithReadiness(500*time.Millisecond))
	r.NoError(runner.Start(t.Context()))

	start := time.Now()
	err := Stop(t.Context(), workDir, 300*time.Millisecond)
	r.ErrorIs(err, ErrStopTimeout)
	r.Less(time.Since(start), 5*time.Second)

	done := make(chan struct{})
	go func() {
		_ = runner.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		r.Fail("process survived the kill")
	}
}

func TestStopThroughLauncher(t *testing.T) {
	r := require.New(t)
	workDir := t.TempDir()
	target := helperRunner(t, "sleep", workDir, WithOutput(&syncBuffer{}), WithReadiness(200*time.Millisecond))
	r.NoError(target.Start(t.Context()))

	err := Stop(t.Context(), workDir, 5*time.Second, WithLauncher(
		Descriptor{WorkDir: workDir},
		ResolutionContext{},
		WithJava(testBinary(t)),
		WithEnv(helperEnv+"=stopper"),
		WithOutput(&syncBuffer{}),
	))
	r.NoError(err)
	r.NoFileExists(PIDFilePath(workDir))
	_ = target.Wait()
}
