package main

import (
	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending database migrations and exit",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := loadConfig()
		if err != nil {
			return err
		}
		db, err := openPostgres(cmd.Context(), cfg, logger)
		if err != nil {
			return err
		}
		defer db.Close()

		logger.Info("database schema is up to date")
		return nil
	},
}
