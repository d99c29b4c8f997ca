//go:build unix

package dap

import (
	"os/exec"
	"syscall"

	"golang.org/x/sys/unix"
)

// terminateProcessGroup sends SIGTERM to the process group of cmd, not
// just its direct child, so a server-spawned adapter that forks helper
// processes of its own (js-debug's bootstrapper does this) is reaped
// along with them. Falls back to killing just the process if the group
// signal fails (e.g. the process was not started in its own group).
func terminateProcessGroup(cmd *exec.Cmd) {
	pid := cmd.Process.Pid
	if err := unix.Kill(-pid, syscall.SIGTERM); err != nil {
		_ = cmd.Process.Kill()
	}
}
