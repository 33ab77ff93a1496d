package supervise

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/shirou/gopsutil/v3/process"
	log "github.com/sirupsen/logrus"
)

var (
	// ErrTerminateFailed is returned when a process survives both the
	// graceful signal and the forced kill within their wait budgets.
	ErrTerminateFailed = errors.New("process termination failed")

	// ErrLaunchFailed is returned when a process cannot be started.
	ErrLaunchFailed = errors.New("process launch failed")
)

// Proc is a handle on a running process found by name.
type Proc struct {
	Pid  int32
	Name string
	proc *process.Process
}

// FindRunning returns handles for every process whose name, executable path,
// or command line mentions the given identity (case-insensitive). Processes
// that disappear or deny access mid-scan are skipped.
func FindRunning(identity string) ([]*Proc, error) {
	needle := strings.ToLower(identity)

	procs, err := process.Processes()
	if err != nil {
		return nil, fmt.Errorf("listing processes: %w", err)
	}

	var found []*Proc
	for _, p := range procs {
		name, err := p.Name()
		if err != nil {
			continue
		}

		match := strings.Contains(strings.ToLower(name), needle)
		if !match {
			if exe, err := p.Exe(); err == nil {
				match = strings.Contains(strings.ToLower(exe), needle)
			}
		}
		if !match {
			if cmdline, err := p.Cmdline(); err == nil {
				match = strings.Contains(strings.ToLower(cmdline), needle)
			}
		}
		if match && int(p.Pid) != os.Getpid() {
			found = append(found, &Proc{Pid: p.Pid, Name: name, proc: p})
		}
	}
	return found, nil
}

// Terminate stops a process: graceful signal first, forced kill after the
// grace period elapses. The wait is deadline-bounded polling, not a spin
// loop. Context cancellation aborts the wait early.
func Terminate(ctx context.Context, p *Proc, grace time.Duration) error {
	if err := p.proc.Terminate(); err != nil {
		// Already gone is success.
		if gone, _ := stillRunning(p); !gone {
			return nil
		}
		log.Debugf("graceful signal to pid %d: %v", p.Pid, err)
	}

	if exited := waitForExit(ctx, p, grace); exited {
		return nil
	}

	log.Warnf("force killing process %d (%s)", p.Pid, p.Name)
	if err := p.proc.Kill(); err != nil {
		if gone, _ := stillRunning(p); !gone {
			return nil
		}
		return fmt.Errorf("%w: pid %d: %v", ErrTerminateFailed, p.Pid, err)
	}

	if exited := waitForExit(ctx, p, 5*time.Second); !exited {
		return fmt.Errorf("%w: pid %d survived kill", ErrTerminateFailed, p.Pid)
	}
	return nil
}

// TerminateAll stops every process matching the identity. The first failure
// is returned after all candidates have been attempted.
func TerminateAll(ctx context.Context, identity string, grace time.Duration) error {
	procs, err := FindRunning(identity)
	if err != nil {
		return err
	}
	if len(procs) == 0 {
		log.Debugf("no %s processes found", identity)
		return nil
	}

	var firstErr error
	for _, p := range procs {
		log.Infof("stopping %s process %d", identity, p.Pid)
		if err := Terminate(ctx, p, grace); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func waitForExit(ctx context.Context, p *Proc, timeout time.Duration) bool {
	deadline := time.Now().Add(timeout)
	ticker := time.NewTicker(200 * time.Millisecond)
	defer ticker.Stop()

	for {
		if running, _ := stillRunning(p); !running {
			return true
		}
		if time.Now().After(deadline) {
			return false
		}
		select {
		case <-ctx.Done():
			return false
		case <-ticker.C:
		}
	}
}

func stillRunning(p *Proc) (bool, error) {
	running, err := p.proc.IsRunning()
	if err != nil {
		return false, err
	}
	return running, nil
}

// Launch starts an executable. A detached launch places the child outside
// the parent's session/process group and releases the handle, so the child
// keeps running after the parent exits — the handoff executor and the worker
// are both started this way.
func Launch(path string, args []string, detached bool) (int, error) {
	cmd := exec.Command(path, args...)
	cmd.Dir = workingDirOf(path)

	if detached {
		configureDetached(cmd)
	} else {
		cmd.Stdout = os.Stdout
		cmd.Stderr = os.Stderr
	}

	if err := cmd.Start(); err != nil {
		return 0, fmt.Errorf("%w: %s: %v", ErrLaunchFailed, path, err)
	}
	pid := cmd.Process.Pid

	if detached {
		if err := cmd.Process.Release(); err != nil {
			log.Debugf("releasing process handle: %v", err)
		}
	} else {
		// Reap the child in the background so it never zombies.
		go func() { _ = cmd.Wait() }()
	}

	log.Infof("started %s (pid %d, detached=%v)", path, pid, detached)
	return pid, nil
}

func workingDirOf(path string) string {
	if i := strings.LastIndexByte(path, os.PathSeparator); i > 0 {
		return path[:i]
	}
	return ""
}
