package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"calendar_backend/internal/app/di"
	"calendar_backend/internal/platform/db"
)

// migrateCmd はテーブルを作成・更新します。
var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the users and events tables",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, gdb, err := openDB()
		if err != nil {
			return err
		}
		defer closeDB(gdb)

		if err := db.Migrate(gdb, di.Models()...); err != nil {
			return fmt.Errorf("migrate failed: %w", err)
		}
		slog.Info("migration complete", "driver", cfg.Database.Driver)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
