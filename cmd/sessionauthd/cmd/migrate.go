package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/MrEthical07/sessionauth/internal/database"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or upgrade the account and session tables",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadFromFlags(cmd)
		if err != nil {
			return err
		}

		db, closeDB, err := database.Open(cmd.Context(), cfg.databaseConfig())
		if err != nil {
			return err
		}
		defer closeDB()

		if err := database.Migrate(db); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "migrations applied")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
