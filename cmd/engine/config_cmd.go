package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"jobsearch-engine/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect the user config",
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print where config.yml lives, creating it from defaults if missing",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		_, path, err := loadConfig()
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), path)
		return nil
	},
}

var configValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check config.yml and print errors and warnings",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, path, err := loadConfig()
		if err != nil {
			return err
		}
		_, v := config.NormalizeAndValidate(cfg)
		if err := printJSON(cmd.OutOrStdout(), v); err != nil {
			return err
		}
		if !v.OK() {
			return fmt.Errorf("%s: %d error(s)", path, len(v.Errors))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configPathCmd, configValidateCmd)
}
