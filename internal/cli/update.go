package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/spf13/cobra"

	"github.com/cyberionsoft/devmanager/internal/branding"
	"github.com/cyberionsoft/devmanager/internal/config"
	"github.com/cyberionsoft/devmanager/internal/release"
	"github.com/cyberionsoft/devmanager/internal/secrets"
	"github.com/cyberionsoft/devmanager/internal/supervise"
)

var (
	updateCheck bool
	updateForce bool
)

func init() {
	updateCmd.Flags().BoolVar(&updateCheck, "check", false, "Only check for updates, don't install")
	updateCmd.Flags().BoolVar(&updateForce, "force", false, "Reinstall even when already on the latest version")

	rootCmd.AddCommand(updateCmd)
}

var updateCmd = &cobra.Command{
	Use:     "update",
	Aliases: []string{"self-update"},
	Short:   "Update " + branding.DisplayName() + " to the latest release",
	Long: `Downloads the latest ` + branding.DisplayName() + ` release and replaces this executable
through the detached handoff executor.

  ` + branding.CLIName() + ` update          # update to latest
  ` + branding.CLIName() + ` update --check  # check only`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		tokens := secrets.NewTokenSource(secrets.NewStore(), config.Dir())
		var opts []release.Option
		if tok := tokens.GitHubToken(); tok != "" {
			opts = append(opts, release.WithToken(tok))
		}
		client := release.NewClient(branding.GitHubOwner(), opts...)

		fmt.Fprintln(os.Stderr, "Checking for updates...")
		rel, err := client.LatestRelease(ctx, branding.ManagerRepo())
		if err != nil {
			return fmt.Errorf("checking for updates: %w", err)
		}

		current, err := release.ParseVersion(currentVersion())
		if err != nil {
			current = nil
		}
		remote, err := rel.Version()
		if err != nil {
			return fmt.Errorf("release channel published tag %q: %w", rel.TagName, err)
		}

		decision := release.Decide(current, rel, branding.ManagerAssetName(remote.String()))

		cache := &release.VersionCache{
			LatestVersion:   remote.String(),
			CurrentVersion:  currentVersion(),
			CheckedAt:       time.Now(),
			UpdateAvailable: decision.NeedsUpdate,
		}
		_ = release.SaveCache(config.Dir(), cache)

		if updateCheck {
			if decision.NeedsUpdate {
				fmt.Printf("Update available: %s -> %s\n", currentVersion(), remote)
			} else {
				fmt.Printf("You are on the latest version (%s)\n", currentVersion())
			}
			return nil
		}

		if !decision.NeedsUpdate && !updateForce {
			fmt.Printf("You are on the latest version (%s)\n", currentVersion())
			return nil
		}
		if decision.Asset == nil {
			return fmt.Errorf("release %s has no asset for %s/%s", rel.TagName, runtime.GOOS, runtime.GOARCH)
		}

		fmt.Fprintf(os.Stderr, "Downloading %s %s for %s...\n", branding.DisplayName(), remote, branding.PlatformKey())

		staging := filepath.Join(config.Dir(), "staging")
		if err := os.MkdirAll(staging, 0o755); err != nil {
			return fmt.Errorf("creating staging directory: %w", err)
		}

		expectedSHA, err := client.FetchChecksum(ctx, rel, decision.Asset.Name)
		if err != nil {
			fmt.Fprintln(os.Stderr, "No published checksum, downloading unverified.")
			expectedSHA = ""
		}

		dest := filepath.Join(staging, decision.Asset.Name)
		progress := func(written, total int64) {
			if total > 0 {
				fmt.Fprintf(os.Stderr, "\r  %3.0f%%", float64(written)/float64(total)*100)
			}
		}
		if err := client.DownloadAsset(ctx, *decision.Asset, dest, expectedSHA, progress); err != nil {
			return fmt.Errorf("downloading update: %w", err)
		}
		fmt.Fprintln(os.Stderr)

		exe, err := os.Executable()
		if err != nil {
			return fmt.Errorf("finding current executable: %w", err)
		}

		handoffArgs := []string{
			"--pid", fmt.Sprint(os.Getpid()),
			"--target", exe,
			"--source", dest,
			"--relaunch",
		}
		if _, err := supervise.Launch(config.HandoffPath(exe), handoffArgs, true); err != nil {
			return fmt.Errorf("starting handoff executor: %w", err)
		}

		fmt.Printf("Installing %s %s, restarting...\n", branding.DisplayName(), remote)
		return nil
	},
}
