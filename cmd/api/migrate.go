package main

import (
	"github.com/spf13/cobra"

	"github.com/spec-kit/team-task-service/internal/persistence"
	"github.com/spec-kit/team-task-service/migrations"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending database migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		pg, err := persistence.NewPostgres(cmd.Context(), cfg.Postgres, logger)
		if err != nil {
			return err
		}
		defer pg.Close()

		return persistence.RunMigrations(cmd.Context(), pg.PoolHandle(), migrations.FS, logger)
	},
}
