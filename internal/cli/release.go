package cli

import (
	"fmt"
	"path/filepath"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/cyberionsoft/devmanager/internal/branding"
	"github.com/cyberionsoft/devmanager/internal/buildrel"
	"github.com/cyberionsoft/devmanager/internal/config"
	"github.com/cyberionsoft/devmanager/internal/manifest"
	"github.com/cyberionsoft/devmanager/internal/release"
	"github.com/cyberionsoft/devmanager/internal/secrets"
)

var (
	releaseVersion  string
	releaseNotes    string
	releaseBuildDir string
	releaseOutDir   string
)

func init() {
	for _, c := range []*cobra.Command{releaseWorkerCmd, releaseManagerCmd} {
		c.Flags().StringVar(&releaseVersion, "version", "", "Version to publish (e.g. 1.2.0)")
		c.Flags().StringVar(&releaseNotes, "notes", "", "Release notes")
		c.Flags().StringVar(&releaseBuildDir, "build-dir", "", "Directory holding the built application")
		c.Flags().StringVar(&releaseOutDir, "out-dir", "", "Where archives are written (default: <config>/releases)")
		_ = c.MarkFlagRequired("version")
		_ = c.MarkFlagRequired("build-dir")
		releaseCmd.AddCommand(c)
	}
	rootCmd.AddCommand(releaseCmd)
}

var releaseCmd = &cobra.Command{
	Use:   "release",
	Short: "Package and publish releases (requires a developer token)",
	Long: `Packages a built application directory into the platform archive and
publishes it as a GitHub release together with checksums and the version
manifest. Every subcommand requires a valid developer token via --token.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		rootCmd.PersistentPreRun(cmd, args)
		_, err := validateDeveloperToken()
		return err
	},
}

var releaseWorkerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Publish a " + branding.WorkerName() + " release",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return publishRelease(cmd, branding.WorkerName(), branding.WorkerRepo(), branding.WorkerAssetName(releaseVersion))
	},
}

var releaseManagerCmd = &cobra.Command{
	Use:   "manager",
	Short: "Publish a " + branding.DisplayName() + " release",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return publishRelease(cmd, branding.CLIName(), branding.ManagerRepo(), branding.ManagerAssetName(releaseVersion))
	},
}

func publishRelease(cmd *cobra.Command, app, repo, assetName string) error {
	if _, err := release.ParseVersion(releaseVersion); err != nil {
		return err
	}

	githubToken := secrets.NewTokenSource(secrets.NewStore(), config.Dir()).GitHubToken()
	if githubToken == "" {
		return fmt.Errorf("no GitHub token available (set GITHUB_TOKEN or run '%s secret set-github-token')",
			branding.CLIName())
	}

	outDir := releaseOutDir
	if outDir == "" {
		outDir = filepath.Join(config.Dir(), "releases", app)
	}

	ref, err := buildrel.Release(cmd.Context(), buildrel.ReleaseInput{
		App:          app,
		Repo:         repo,
		Version:      releaseVersion,
		Notes:        releaseNotes,
		BuildDir:     releaseBuildDir,
		OutDir:       outDir,
		AssetName:    assetName,
		ManifestPath: filepath.Join(outDir, manifest.FileName),
		Publisher:    buildrel.NewPublisher(branding.GitHubOwner(), repo, githubToken),
		Log:          logrus.WithField("component", "release"),
	})
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Published %s %s: %s\n", app, releaseVersion, ref.HTMLURL)
	return nil
}
