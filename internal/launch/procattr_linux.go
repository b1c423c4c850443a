package launch

import (
	"syscall"

	"golang.org/x/sys/unix"
)

// sysProcAttr puts attached children in their own process group and has the
// kernel terminate them when the parent dies. Detached children get their own
// session.
func sysProcAttr(detached bool) *syscall.SysProcAttr {
	if detached {
		return &syscall.SysProcAttr{Setsid: true}
	}
	return &syscall.SysProcAttr{Setpgid: true, Pdeathsig: unix.SIGTERM}
}
