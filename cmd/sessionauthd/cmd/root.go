package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

const defaultConfigPath = "config/configuration.yaml"

var configPath string

var rootCmd = &cobra.Command{
	Use:   "sessionauthd",
	Short: "sessionauthd serves session-based login and authorization",
	Long: `Session authentication service.

Logins open a row in the session table and return a signed token naming it.
Protected endpoints renew the session on every request; a background reaper
deletes sessions that have been dead for a while.`,
	SilenceUsage: true,
}

func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", defaultConfigPath, "Path to the YAML or JSON configuration file")
}

// loadFromFlags reads the configuration named by --config. A missing file
// is only an error when the flag was set explicitly.
func loadFromFlags(cmd *cobra.Command) (*Config, error) {
	return LoadConfig(configPath, cmd.Flags().Changed("config"))
}
