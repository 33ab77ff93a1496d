package cli

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/cyberionsoft/devmanager/internal/branding"
	"github.com/cyberionsoft/devmanager/internal/config"
	"github.com/cyberionsoft/devmanager/internal/token"
)

var tokenSubject string

func init() {
	tokenIssueCmd.Flags().StringVar(&tokenSubject, "subject", "developer", "Subject the token is issued to")
	tokenCmd.AddCommand(tokenIssueCmd)
	tokenCmd.AddCommand(tokenIssueLaunchCmd)
	tokenCmd.AddCommand(tokenInspectCmd)
	rootCmd.AddCommand(tokenCmd)
}

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Issue and inspect developer tokens",
}

var tokenIssueCmd = &cobra.Command{
	Use:   "issue",
	Short: "Issue a 24-hour developer token",
	Long: `Signs a developer token with the local RSA key (generated on first use).
The token unlocks the release commands via the --token flag.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		tok, err := token.NewSigner(config.Dir()).IssueDeveloperToken(tokenSubject)
		if err != nil {
			return fmt.Errorf("issuing developer token: %w", err)
		}
		fmt.Println(tok)
		return nil
	},
}

var tokenIssueLaunchCmd = &cobra.Command{
	Use:    "issue-launch",
	Short:  "Issue a short-lived single-use launch token",
	Hidden: true,
	Args:   cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		tok, err := token.NewAuthority(branding.WorkerName()).IssueLaunchToken(branding.WorkerName())
		if err != nil {
			return fmt.Errorf("issuing launch token: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), tok)
		return nil
	},
}

var tokenInspectCmd = &cobra.Command{
	Use:   "inspect <token>",
	Short: "Validate a developer token and print its claims",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		claims, err := token.NewVerifier(config.Dir()).ValidateDeveloperToken(args[0])
		if err != nil {
			// Show the raw claims even for rejected tokens so an expired one
			// can still be identified.
			if payload := rawClaims(args[0]); payload != "" {
				fmt.Fprintf(cmd.OutOrStdout(), "Claims (unverified): %s\n", payload)
			}
			return fmt.Errorf("token invalid: %w", err)
		}

		out, err := json.MarshalIndent(claims, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Token valid.\n%s\n", out)
		return nil
	},
}

// rawClaims decodes the middle JWT segment without verifying anything.
func rawClaims(tok string) string {
	parts := strings.Split(tok, ".")
	if len(parts) != 3 {
		return ""
	}
	payload, err := base64.RawURLEncoding.DecodeString(parts[1])
	if err != nil {
		return ""
	}
	return string(payload)
}
