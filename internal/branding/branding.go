// Package branding provides compile-time identity values for the manager and
// its worker executable.
//
// Forkers edit branding.yaml in this package, and Go's //go:embed bakes it
// into both binaries so the manager and the handoff executor always agree on
// names, repositories, and the application identifier.
package branding

import (
	_ "embed"
	"fmt"
	"runtime"
	"strings"
	"sync"

	"go.yaml.in/yaml/v3"
)

//go:embed branding.yaml
var rawBranding []byte

var (
	once     sync.Once
	defaults brand
)

type brand struct {
	CLIName       string `yaml:"cli_name"`
	DisplayName   string `yaml:"display_name"`
	WorkerName    string `yaml:"worker_name"`
	WorkerExe     string `yaml:"worker_exe"`
	Description   string `yaml:"description"`
	HomeDir       string `yaml:"home_dir"`
	EnvPrefix     string `yaml:"env_prefix"`
	GoModule      string `yaml:"go_module"`
	GitHubOwner   string `yaml:"github_owner"`
	ManagerRepo   string `yaml:"manager_repo"`
	WorkerRepo    string `yaml:"worker_repo"`
	AppIdentifier string `yaml:"app_identifier"`
}

func load() {
	once.Do(func() {
		// Set hard defaults in case the embedded file is missing/empty.
		defaults = brand{
			CLIName:       "devmanager",
			DisplayName:   "DevManager",
			WorkerName:    "DevAutomator",
			WorkerExe:     "devautomator",
			Description:   "Self-updating launcher and supervisor for DevAutomator",
			HomeDir:       ".devmanager",
			EnvPrefix:     "DEVMANAGER",
			GoModule:      "github.com/cyberionsoft/devmanager",
			GitHubOwner:   "cyberionsoft",
			ManagerRepo:   "css_dev_manager",
			WorkerRepo:    "css_dev_automator",
			AppIdentifier: "DevManager-v0.1.0",
		}
		// Overlay with embedded YAML values.
		_ = yaml.Unmarshal(rawBranding, &defaults)
	})
}

// CLIName returns the root command name (e.g., "devmanager").
func CLIName() string { load(); return defaults.CLIName }

// DisplayName returns the human-readable manager name (e.g., "DevManager").
func DisplayName() string { load(); return defaults.DisplayName }

// WorkerName returns the human-readable worker name (e.g., "DevAutomator").
func WorkerName() string { load(); return defaults.WorkerName }

// WorkerExe returns the worker executable base name without extension.
func WorkerExe() string { load(); return defaults.WorkerExe }

// Description returns the short product description.
func Description() string { load(); return defaults.Description }

// HomeDir returns the dot-directory name under $HOME (e.g., ".devmanager").
func HomeDir() string { load(); return defaults.HomeDir }

// EnvPrefix returns the environment variable prefix (e.g., "DEVMANAGER").
func EnvPrefix() string { load(); return defaults.EnvPrefix }

// GoModule returns the Go module path. Used by scripts/rebrand.sh — not
// consumed at runtime.
func GoModule() string { load(); return defaults.GoModule }

// GitHubOwner returns the GitHub organization that publishes releases.
func GitHubOwner() string { load(); return defaults.GitHubOwner }

// ManagerRepo returns the release repository name for the manager.
func ManagerRepo() string { load(); return defaults.ManagerRepo }

// WorkerRepo returns the release repository name for the worker.
func WorkerRepo() string { load(); return defaults.WorkerRepo }

// AppIdentifier returns the application-identifying passphrase used for
// deterministic key derivation. Bundled ciphertexts are bound to this value:
// rotating it invalidates every secret checked into the repository.
func AppIdentifier() string { load(); return defaults.AppIdentifier }

// EnvVar returns a fully qualified env var name, e.g., EnvVar("TOKEN") →
// "DEVMANAGER_TOKEN".
func EnvVar(suffix string) string {
	return EnvPrefix() + "_" + strings.ToUpper(suffix)
}

// PlatformKey returns the release-asset platform identifier for the current
// OS ("windows", "macos", or "linux").
func PlatformKey() string {
	switch runtime.GOOS {
	case "windows":
		return "windows"
	case "darwin":
		return "macos"
	default:
		return "linux"
	}
}

// ExecutableExt returns the executable filename extension for the current OS.
func ExecutableExt() string {
	if runtime.GOOS == "windows" {
		return ".exe"
	}
	return ""
}

// ManagerAssetName returns the expected release asset name for the manager at
// the given version, e.g. "DevManager_v1.2.0_windows.zip".
func ManagerAssetName(version string) string {
	return assetName(DisplayName(), version)
}

// WorkerAssetName returns the expected release asset name for the worker at
// the given version.
func WorkerAssetName(version string) string {
	return assetName(WorkerName(), version)
}

func assetName(app, version string) string {
	version = strings.TrimPrefix(version, "v")
	return fmt.Sprintf("%s_v%s_%s.zip", app, version, PlatformKey())
}
