//go:build !windows

package supervise

import (
	"os/exec"
	"syscall"
)

// configureDetached starts the child in its own session so it is not a
// member of the parent's process group and survives the parent's exit.
func configureDetached(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{
		Setsid: true,
	}
	cmd.Stdin = nil
	cmd.Stdout = nil
	cmd.Stderr = nil
}
