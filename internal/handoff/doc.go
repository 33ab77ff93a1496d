// Package handoff implements the executable-swap procedure run by the
// detached handoff executor: wait for the old process to exit, replace the
// file (or extract an archive over the install directory), and relaunch.
// It deliberately has no dependency on the manager's runtime state — the two
// sides communicate only through the filesystem and the process table.
package handoff
