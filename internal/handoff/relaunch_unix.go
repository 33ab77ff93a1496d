//go:build !windows

package handoff

import (
	"os/exec"
	"syscall"
)

// Relaunch starts the executable at path in its own session so it survives
// the handoff executor exiting.
func Relaunch(path string, args ...string) error {
	cmd := exec.Command(path, args...)
	cmd.SysProcAttr = &syscall.SysProcAttr{Setsid: true}
	if err := cmd.Start(); err != nil {
		return err
	}
	return cmd.Process.Release()
}
