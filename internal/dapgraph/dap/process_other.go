//go:build !unix

package dap

import "os/exec"

// terminateProcessGroup falls back to killing just the direct child on
// platforms without POSIX process groups.
func terminateProcessGroup(cmd *exec.Cmd) {
	_ = cmd.Process.Kill()
}
