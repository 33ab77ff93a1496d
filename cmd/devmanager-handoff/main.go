// devmanager-handoff is the detached executor that replaces a running
// executable with a freshly downloaded one. The manager spawns it and exits;
// this process waits for the manager's pid to disappear, swaps the file, and
// optionally relaunches the target. It stays free of the manager's
// dependencies so the two never share state beyond the filesystem.
package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/cyberionsoft/devmanager/internal/handoff"
)

const (
	exitOK          = 0
	exitUsage       = 1
	exitApplyFailed = 2
	exitWaitTimeout = 3
)

func main() {
	os.Exit(run())
}

func run() int {
	var (
		pid         = flag.Int("pid", 0, "pid of the process to wait for before replacing")
		target      = flag.String("target", "", "path of the executable to replace")
		source      = flag.String("source", "", "path of the replacement executable or .zip archive")
		relaunch    = flag.Bool("relaunch", false, "start the target after replacement")
		waitTimeout = flag.Duration("wait-timeout", 30*time.Second, "how long to wait for the old process to exit")
	)
	flag.Parse()

	if *target == "" || *source == "" {
		fmt.Fprintln(os.Stderr, "devmanager-handoff: -target and -source are required")
		flag.Usage()
		return exitUsage
	}

	if *pid > 0 {
		if err := handoff.WaitForExit(*pid, *waitTimeout); err != nil {
			fmt.Fprintf(os.Stderr, "devmanager-handoff: %v\n", err)
			if errors.Is(err, handoff.ErrWaitTimeout) {
				return exitWaitTimeout
			}
			return exitApplyFailed
		}
	}

	if err := apply(*source, *target); err != nil {
		fmt.Fprintf(os.Stderr, "devmanager-handoff: %v\n", err)
		return exitApplyFailed
	}

	if *relaunch {
		if err := handoff.Relaunch(*target); err != nil {
			fmt.Fprintf(os.Stderr, "devmanager-handoff: relaunch: %v\n", err)
			return exitApplyFailed
		}
	}
	return exitOK
}

// apply installs source over target. A .zip source is unpacked first and the
// executable with target's base name is pulled out of it.
func apply(source, target string) error {
	if !strings.EqualFold(filepath.Ext(source), ".zip") {
		return handoff.Apply(source, target)
	}

	tmp, err := os.MkdirTemp("", "devmanager-handoff-")
	if err != nil {
		return err
	}
	defer os.RemoveAll(tmp)

	exeName := filepath.Base(target)
	extracted := filepath.Join(tmp, exeName)
	if err := handoff.ExtractExecutable(source, exeName, extracted); err != nil {
		return err
	}
	if err := handoff.Apply(extracted, target); err != nil {
		return err
	}
	os.Remove(source)
	return nil
}
