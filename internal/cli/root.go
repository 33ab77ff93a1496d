package cli

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/cyberionsoft/devmanager/internal/branding"
	"github.com/cyberionsoft/devmanager/internal/config"
	"github.com/cyberionsoft/devmanager/internal/handoff"
	"github.com/cyberionsoft/devmanager/internal/release"
	"github.com/cyberionsoft/devmanager/internal/supervise"
)

var (
	buildVersion string
	buildCommit  string
	buildDate    string
)

// errInvalidStartupToken marks a developer token rejected at startup, which
// has its own exit code.
var errInvalidStartupToken = errors.New("invalid developer token")

var (
	startupToken string
	logLevel     string
)

var rootCmd = &cobra.Command{
	Use:   branding.CLIName(),
	Short: branding.Description(),
	Long: branding.DisplayName() + ` keeps itself and the ` + branding.WorkerName() + ` worker up to date from
GitHub releases and starts the worker with a single-use launch token.

Run without arguments to update and start the worker. Pass --token with a
developer token to unlock the release commands.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		config.Load()
		if err := config.InitLog(logLevel, config.LogFilePath()); err != nil {
			fmt.Fprintf(os.Stderr, "logging setup: %v\n", err)
		}

		// Non-blocking banner from the cached version check; the update and
		// run paths do their own live check.
		if name := cmd.Name(); name == "update" || name == "run" || name == branding.CLIName() {
			return
		}
		printUpdateBanner(os.Stderr)
	},
	RunE: runManager,
}

// printUpdateBanner reports a pending update from the version cache without
// touching the network.
func printUpdateBanner(w io.Writer) {
	cache, err := release.LoadCache(config.Dir())
	if err != nil || cache == nil {
		return
	}
	if release.IsCacheStale(cache, release.DefaultCacheMaxAge) {
		return
	}
	if cache.UpdateAvailable && cache.LatestVersion != buildVersion {
		fmt.Fprintf(w, "A new %s version is available: %s -> %s (run '%s update')\n",
			branding.DisplayName(), buildVersion, cache.LatestVersion, branding.CLIName())
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&startupToken, "token", "", "Developer token unlocking release operations")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
}

// Execute runs the root command and maps failures onto the process exit
// codes: 2 when the worker could not be launched, 3 when a handoff wait
// timed out, 4 when the startup token was rejected, 1 for everything else.
func Execute(version, commit, date string) int {
	buildVersion = version
	buildCommit = commit
	buildDate = date

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		switch {
		case errors.Is(err, errInvalidStartupToken):
			return 4
		case errors.Is(err, handoff.ErrWaitTimeout):
			return 3
		case errors.Is(err, supervise.ErrLaunchFailed):
			return 2
		}
		return 1
	}
	return 0
}
