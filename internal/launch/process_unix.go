//go:build unix

package launch

import (
	"errors"

	"golang.org/x/sys/unix"
)

// processAlive probes pid with signal 0. EPERM means the process exists but
// belongs to someone else.
func processAlive(pid int) bool {
	err := unix.Kill(pid, 0)
	return err == nil || errors.Is(err, unix.EPERM)
}

func terminateProcess(pid int) error {
	return signalProcess(pid, unix.SIGTERM)
}

func killProcess(pid int) error {
	return signalProcess(pid, unix.SIGKILL)
}

// signalProcess signals the process group led by pid and falls back to the
// single process if pid does not lead a group.
func signalProcess(pid int, sig unix.Signal) error {
	if err := unix.Kill(-pid, sig); err == nil {
		return nil
	}
	return unix.Kill(pid, sig)
}

func processGone(err error) bool {
	return errors.Is(err, unix.ESRCH)
}
