//go:build !unix

package executor

import (
	"os/exec"
	"time"
)

const (
	defaultShell = "cmd.exe"
	shellFlag    = "/C"
)

const processGroupWaitDelay = 3 * time.Second

// setupProcessGroup relies on the default Cancel, which kills the direct child
func setupProcessGroup(cmd *exec.Cmd) {
	cmd.WaitDelay = processGroupWaitDelay
}
