//go:build windows

package handoff

import (
	"os/exec"
	"syscall"

	"golang.org/x/sys/windows"
)

// Relaunch starts the executable at path detached from the handoff executor's
// console and process group.
func Relaunch(path string, args ...string) error {
	cmd := exec.Command(path, args...)
	cmd.SysProcAttr = &syscall.SysProcAttr{
		CreationFlags: windows.DETACHED_PROCESS | windows.CREATE_NEW_PROCESS_GROUP,
	}
	if err := cmd.Start(); err != nil {
		return err
	}
	return cmd.Process.Release()
}
