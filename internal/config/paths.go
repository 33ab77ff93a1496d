package config

import (
	"os"
	"path/filepath"
	"runtime"

	"github.com/cyberionsoft/devmanager/internal/branding"
)

// InstallDir returns the directory that holds both the manager and worker
// executables. The handoff executor writes into this directory, so it must be
// the same on every code path. An explicit override via config key
// "install_dir" (or the matching env var) wins.
func InstallDir() string {
	if dir := Get("install_dir"); dir != "" {
		return dir
	}

	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}

	switch runtime.GOOS {
	case "windows":
		return filepath.Join("C:\\", "Program Files", branding.DisplayName())
	case "darwin":
		return filepath.Join(home, "Applications", branding.DisplayName())
	default:
		return filepath.Join(home, ".local", "share", branding.CLIName())
	}
}

// ManagerPath returns the installed manager executable path.
func ManagerPath() string {
	return filepath.Join(InstallDir(), branding.DisplayName()+branding.ExecutableExt())
}

// WorkerPath returns the installed worker executable path.
func WorkerPath() string {
	return filepath.Join(InstallDir(), branding.WorkerName()+branding.ExecutableExt())
}

// HandoffPath returns the handoff executor path, expected to sit next to the
// running manager executable.
func HandoffPath(managerExe string) string {
	name := branding.CLIName() + "-handoff" + branding.ExecutableExt()
	return filepath.Join(filepath.Dir(managerExe), name)
}

// LogFilePath returns the rotating log file path inside the config directory.
func LogFilePath() string {
	return filepath.Join(Dir(), branding.CLIName()+".log")
}
