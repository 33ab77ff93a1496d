//go:build !windows

package handoff

import (
	"fmt"
	"syscall"
	"time"
)

// WaitForExit blocks until the process no longer exists, polling with
// kill(pid, 0). On timeout it returns ErrWaitTimeout and the caller must not
// touch any files — the old executable may still be mapped.
func WaitForExit(pid int, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	for {
		if err := syscall.Kill(pid, 0); err != nil {
			// ESRCH => process does not exist
			return nil
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("%w: pid %d still alive after %s", ErrWaitTimeout, pid, timeout)
		}
		time.Sleep(200 * time.Millisecond)
	}
}
