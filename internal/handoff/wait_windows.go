//go:build windows

package handoff

import (
	"fmt"
	"time"

	"golang.org/x/sys/windows"
)

// WaitForExit blocks until the process handle signals, or fails with
// ErrWaitTimeout. On timeout the caller must not touch any files.
func WaitForExit(pid int, timeout time.Duration) error {
	h, err := windows.OpenProcess(windows.SYNCHRONIZE, false, uint32(pid))
	if err != nil {
		// If we cannot open it, assume it's already gone.
		return nil
	}
	defer windows.CloseHandle(h)

	ms := uint32(timeout / time.Millisecond)
	status, err := windows.WaitForSingleObject(h, ms)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrWaitTimeout, err)
	}
	if status == uint32(windows.WAIT_TIMEOUT) {
		return fmt.Errorf("%w: pid %d still alive after %s", ErrWaitTimeout, pid, timeout)
	}
	return nil
}
