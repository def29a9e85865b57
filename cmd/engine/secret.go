package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"

	"jobsearch-engine/internal/config"
	"jobsearch-engine/internal/secrets"
)

var secretCmd = &cobra.Command{
	Use:   "secret",
	Short: "Store or remove credentials in the OS keychain",
}

var secretSetCmd = &cobra.Command{
	Use:       "set <gemini|imap>",
	Short:     "Prompt for a secret and store it in the keychain",
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{"gemini", "imap"},
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, _, err := loadConfig()
		if err != nil {
			return err
		}
		account, err := secretAccount(cfg, args[0])
		if err != nil {
			return err
		}

		prompt := promptui.Prompt{
			Label: args[0] + " secret",
			Mask:  '*',
			Validate: func(s string) error {
				if strings.TrimSpace(s) == "" {
					return errors.New("secret is empty")
				}
				return nil
			},
		}
		value, err := prompt.Run()
		if err != nil {
			return err
		}
		if err := secrets.Set(account, value); err != nil {
			return fmt.Errorf("keychain: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "stored %s\n", account)
		return nil
	},
}

var secretDeleteCmd = &cobra.Command{
	Use:       "delete <gemini|imap>",
	Short:     "Remove a secret from the keychain",
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{"gemini", "imap"},
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, _, err := loadConfig()
		if err != nil {
			return err
		}
		account, err := secretAccount(cfg, args[0])
		if err != nil {
			return err
		}
		if err := secrets.Delete(account); err != nil {
			return fmt.Errorf("keychain: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "removed %s\n", account)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(secretCmd)
	secretCmd.AddCommand(secretSetCmd, secretDeleteCmd)
}

func secretAccount(cfg config.Config, name string) (string, error) {
	switch name {
	case "gemini":
		return secrets.GeminiAccount(), nil
	case "imap":
		user, host := strings.TrimSpace(cfg.Email.Username), strings.TrimSpace(cfg.Email.IMAPHost)
		if user == "" || host == "" {
			return "", errors.New("set email.username and email.imap_host before storing the imap password")
		}
		return secrets.IMAPAccount(user, host), nil
	default:
		return "", fmt.Errorf("unknown secret %q (want gemini or imap)", name)
	}
}
