package launch

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// PIDFileName is the process handle left in the work directory by a forked
// start and consumed by Stop.
const PIDFileName = "vertx-start-process.id"

var (
	ErrNotRunning = errors.New("no running process found")
	ErrInvalidPID = errors.New("invalid process id")
)

func PIDFilePath(workDir string) string {
	return filepath.Join(workDir, PIDFileName)
}

// WritePID stores pid as plain decimal text without a trailing newline.
func WritePID(workDir string, pid int) error {
	if err := os.MkdirAll(workDir, 0o755); err != nil {
		return fmt.Errorf("unable to create work directory %s: %w", workDir, err)
	}
	tmp, err := os.CreateTemp(workDir, "."+PIDFileName+"-*")
	if err != nil {
		return fmt.Errorf("unable to write process file: %w", err)
	}
	_, werr := tmp.WriteString(strconv.Itoa(pid))
	if err := errors.Join(werr, tmp.Close()); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("unable to write process file: %w", err)
	}
	if err := os.Rename(tmp.Name(), PIDFilePath(workDir)); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("unable to write process file: %w", err)
	}
	return nil
}

// ReadPID returns the stored pid. A missing or unreadable file yields
// ErrNotRunning.
func ReadPID(workDir string) (int, error) {
	path := PIDFilePath(workDir)
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("%w: unable to read process file from directory %s: %w", ErrNotRunning, workDir, err)
	}
	raw := strings.TrimSpace(string(data))
	pid, err := strconv.Atoi(raw)
	if err != nil || pid <= 0 {
		return 0, fmt.Errorf("%w %q in %s", ErrInvalidPID, raw, path)
	}
	return pid, nil
}

func RemovePID(workDir string) error {
	if err := os.Remove(PIDFilePath(workDir)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("unable to delete process file: %w", err)
	}
	return nil
}

// removePIDIfOwned deletes the process file only while it still names pid.
func removePIDIfOwned(workDir string, pid int) error {
	stored, err := ReadPID(workDir)
	if err != nil || stored != pid {
		return nil
	}
	return RemovePID(workDir)
}
