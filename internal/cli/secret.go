package cli

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/cyberionsoft/devmanager/internal/branding"
	"github.com/cyberionsoft/devmanager/internal/config"
	"github.com/cyberionsoft/devmanager/internal/secrets"
)

var secretValue string

func init() {
	secretEncryptCmd.Flags().StringVar(&secretValue, "value", "", "Plaintext to encrypt (read from stdin when omitted)")
	secretCmd.AddCommand(secretEncryptCmd)
	secretCmd.AddCommand(secretSetTokenCmd)
	rootCmd.AddCommand(secretCmd)
}

var secretCmd = &cobra.Command{
	Use:   "secret",
	Short: "Encrypt values for bundling or local storage",
}

var secretEncryptCmd = &cobra.Command{
	Use:   "encrypt",
	Short: "Encrypt a value with the application key",
	Long: `Encrypts a plaintext with the key derived from the application identity and
prints the ciphertext. Encryption is deterministic, so the output is stable
across runs and can be committed as a bundled secret.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		plaintext := secretValue
		if plaintext == "" {
			fmt.Fprintln(os.Stderr, "Reading plaintext from stdin...")
			reader := bufio.NewReader(cmd.InOrStdin())
			line, err := reader.ReadString('\n')
			if err != nil && line == "" {
				return fmt.Errorf("reading plaintext: %w", err)
			}
			plaintext = strings.TrimRight(line, "\r\n")
		}
		if plaintext == "" {
			return fmt.Errorf("nothing to encrypt")
		}

		key := secrets.DeriveKey(branding.AppIdentifier())
		ciphertext, err := secrets.Seal(key, plaintext)
		if err != nil {
			return fmt.Errorf("encrypting value: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), ciphertext)
		return nil
	},
}

var secretSetTokenCmd = &cobra.Command{
	Use:   "set-github-token <token>",
	Short: "Store an encrypted GitHub token in the config directory",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := config.EnsureDir(); err != nil {
			return err
		}
		ts := secrets.NewTokenSource(secrets.NewStore(), config.Dir())
		if err := ts.SaveConfiguredToken(args[0]); err != nil {
			return fmt.Errorf("storing token: %w", err)
		}
		fmt.Println("GitHub token stored.")
		return nil
	},
}
