//go:build unix

package executor

import (
	"errors"
	"os"
	"os/exec"
	"syscall"
	"time"

	"golang.org/x/sys/unix"
)

const (
	defaultShell = "/bin/sh"
	shellFlag    = "-c"
)

// processGroupWaitDelay bounds pipe draining after the group was killed
const processGroupWaitDelay = 3 * time.Second

// setupProcessGroup starts cmd as the leader of a new process group and
// makes cancellation kill the whole group, so no descendant outlives the
// timeout. The command stays in luna's session and keeps its controlling
// terminal, which sudo uses to find the grant EnsureAccess obtained.
func setupProcessGroup(cmd *exec.Cmd) {
	if cmd.SysProcAttr == nil {
		cmd.SysProcAttr = &syscall.SysProcAttr{}
	}
	cmd.SysProcAttr.Setpgid = true

	cmd.Cancel = func() error {
		if cmd.Process == nil {
			return os.ErrProcessDone
		}
		pid := cmd.Process.Pid
		// kill(-1) and kill(0) would hit far more than the child's group
		if pid <= 1 {
			return os.ErrProcessDone
		}
		if err := unix.Kill(-pid, unix.SIGKILL); err != nil {
			if errors.Is(err, unix.ESRCH) {
				return os.ErrProcessDone
			}
			return err
		}
		return nil
	}
	cmd.WaitDelay = processGroupWaitDelay
}
