package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/cyberionsoft/devmanager/internal/branding"
	"github.com/cyberionsoft/devmanager/internal/config"
	"github.com/cyberionsoft/devmanager/internal/orchestrate"
	"github.com/cyberionsoft/devmanager/internal/release"
	"github.com/cyberionsoft/devmanager/internal/secrets"
	"github.com/cyberionsoft/devmanager/internal/token"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Update and start the worker (default action)",
	Long: `Checks the release channel for a newer ` + branding.DisplayName() + `, replaces the worker
binary when a newer release exists, and starts the worker with a fresh
launch token. This is what running ` + branding.CLIName() + ` with no arguments does.`,
	Args: cobra.NoArgs,
	RunE: runManager,
}

func init() {
	rootCmd.AddCommand(runCmd)
}

func runManager(cmd *cobra.Command, args []string) error {
	if startupToken != "" {
		return enterDeveloperMode(cmd)
	}

	if err := config.EnsureDir(); err != nil {
		return fmt.Errorf("preparing config directory: %w", err)
	}

	log := logrus.WithField("component", "manager")

	current, err := release.ParseVersion(currentVersion())
	if err != nil {
		// Dev builds have no release version; treated as older than anything.
		log.WithField("version", currentVersion()).Debug("unversioned build")
		current = nil
	}

	exe, err := os.Executable()
	if err != nil {
		return fmt.Errorf("locating own executable: %w", err)
	}

	tokens := secrets.NewTokenSource(secrets.NewStore(), config.Dir())
	var clientOpts []release.Option
	if tok := tokens.GitHubToken(); tok != "" {
		clientOpts = append(clientOpts, release.WithToken(tok))
	}
	client := release.NewClient(branding.GitHubOwner(), clientOpts...)

	events := make(chan orchestrate.Event, 64)
	done := make(chan struct{})
	go func() {
		defer close(done)
		reportEvents(cmd.ErrOrStderr(), events)
	}()

	orch := orchestrate.New(orchestrate.Config{
		Source:         client,
		Tokens:         token.NewAuthority(branding.WorkerName()),
		CurrentVersion: current,
		ExecutablePath: exe,
		WorkerPath:     config.WorkerPath(),
		HandoffPath:    config.HandoffPath(exe),
		ConfigDir:      config.Dir(),
		StagingDir:     filepath.Join(config.Dir(), "staging"),
		Log:            log,
		Events:         events,
	})

	outcome, err := orch.Run(cmd.Context())
	close(events)
	<-done
	if err != nil {
		return err
	}

	if outcome == orchestrate.OutcomeHandedOff {
		fmt.Fprintf(cmd.ErrOrStderr(), "Updating %s, restarting...\n", branding.DisplayName())
	}
	return nil
}

// reportEvents renders orchestrator progress for an interactive user.
func reportEvents(w io.Writer, events <-chan orchestrate.Event) {
	lastState := orchestrate.State(-1)
	for ev := range events {
		if ev.Progress > 0 {
			fmt.Fprintf(w, "\r  downloading... %3.0f%%", ev.Progress*100)
			if ev.Progress >= 1 {
				fmt.Fprintln(w)
			}
			continue
		}
		if ev.State == lastState {
			continue
		}
		lastState = ev.State
		switch ev.State {
		case orchestrate.CheckingSelf:
			fmt.Fprintln(w, "Checking for updates...")
		case orchestrate.DownloadingSelf:
			fmt.Fprintf(w, "Downloading %s %s\n", branding.DisplayName(), ev.Message)
		case orchestrate.UpdatingWorker:
			fmt.Fprintf(w, "Updating %s (%s)\n", branding.WorkerName(), ev.Message)
		case orchestrate.LaunchingWorker:
			fmt.Fprintf(w, "Starting %s...\n", branding.WorkerName())
		}
	}
}

// enterDeveloperMode validates the startup token and lists the unlocked
// operations. The release commands re-validate on their own invocation.
func enterDeveloperMode(cmd *cobra.Command) error {
	claims, err := validateDeveloperToken()
	if err != nil {
		return err
	}

	expiry := "unknown"
	if claims.ExpiresAt != nil {
		expiry = claims.ExpiresAt.Format("2006-01-02 15:04 MST")
	}
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Developer mode: token for %q valid until %s\n", claims.Subject, expiry)
	fmt.Fprintln(out, "Available operations:")
	fmt.Fprintf(out, "  %s release worker  --token <token> --version <v> --build-dir <dir>\n", branding.CLIName())
	fmt.Fprintf(out, "  %s release manager --token <token> --version <v> --build-dir <dir>\n", branding.CLIName())
	return nil
}

// validateDeveloperToken checks the persistent --token flag against the
// local verification key.
func validateDeveloperToken() (*token.DeveloperClaims, error) {
	if startupToken == "" {
		return nil, fmt.Errorf("%w: no token supplied (use --token)", errInvalidStartupToken)
	}
	claims, err := token.NewVerifier(config.Dir()).ValidateDeveloperToken(startupToken)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errInvalidStartupToken, err)
	}
	return claims, nil
}

func currentVersion() string {
	if buildVersion == "" {
		return "dev"
	}
	return buildVersion
}
