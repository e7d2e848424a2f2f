package main

import (
	"database/sql"

	"github.com/spf13/cobra"

	"github.com/azhengyongqin/forkhub/internal/logger"
	"github.com/azhengyongqin/forkhub/internal/storage"
	"github.com/azhengyongqin/forkhub/internal/storage/migrations"
	"github.com/azhengyongqin/forkhub/internal/storage/postgres"
	"github.com/azhengyongqin/forkhub/internal/storage/sqlite"
)

func newMigrateCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply the embedded schema to the configured database",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			var db *sql.DB
			switch cfg.Database.Driver {
			case "sqlite":
				db, err = sqlite.Open(cmd.Context(), cfg.Database.SQLitePath)
			default:
				db, err = postgres.OpenStdlib(cfg.Database.PostgresDSN)
			}
			if err != nil {
				return err
			}
			defer db.Close()

			fsys, err := migrations.For(cfg.Database.Driver)
			if err != nil {
				return err
			}
			if err := storage.ApplyMigrations(cmd.Context(), db, fsys); err != nil {
				return err
			}
			logger.L.Info().Str("driver", cfg.Database.Driver).Msg("数据库迁移完成")
			return nil
		},
	}
}
