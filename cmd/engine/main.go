// Command engine ingests job postings from the configured sources, ranks them
// against the user's profile and tracks applications through their lifecycle.
package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"jobsearch-engine/internal/config"
)

const app = "jobsearch"

var rootCmd = &cobra.Command{
	Use:           "engine",
	Short:         "engine finds job postings, scores them against your profile and tracks your applications",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().String("data-dir", ".", "directory holding config.yml, the database and generated files")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "verbose/debug output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "json format for logging")

	// bound on the global viper; copied onto the config loader in loadConfig
	_ = viper.BindPFlag("data_dir", rootCmd.PersistentFlags().Lookup("data-dir"))
	_ = viper.BindPFlag("app.debug", rootCmd.PersistentFlags().Lookup("debug"))
	_ = viper.BindPFlag("app.log_json", rootCmd.PersistentFlags().Lookup("json"))
	_ = viper.BindEnv("data_dir", config.EnvPrefix+"_DATA_DIR")
}

func main() {
	// .env is optional; real environment variables win
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "%s: loading .env: %v\n", app, err)
	}

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", app, err)
		os.Exit(1)
	}
}
