package launch

import (
	"syscall"

	"golang.org/x/sys/windows"
)

func sysProcAttr(detached bool) *syscall.SysProcAttr {
	flags := uint32(windows.CREATE_NEW_PROCESS_GROUP)
	if detached {
		flags |= windows.DETACHED_PROCESS
	}
	return &syscall.SysProcAttr{CreationFlags: flags}
}
