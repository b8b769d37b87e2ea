package cmd

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/cloudvelous/answerd/db"
	"github.com/cloudvelous/answerd/internal/config"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Run pending database migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		slog.SetDefault(initLogger())

		cfg, err := config.Load()
		if err != nil {
			return err
		}
		return db.Migrate(cfg.PostgresURL())
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
