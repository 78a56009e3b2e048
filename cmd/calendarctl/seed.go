package main

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"calendar_backend/internal/app/di"
	"calendar_backend/internal/app/seed"
	"calendar_backend/internal/platform/db"
	"calendar_backend/internal/platform/password"
)

var skipMigrate bool

// seedCmd はデモ用のユーザーとイベントを投入します。
var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Insert demo users and events",
	Long: `Insert two demo users and a handful of events for the current
and next week. Users that already exist are left untouched. Usage:

	calendarctl seed
`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, gdb, err := openDB()
		if err != nil {
			return err
		}
		defer closeDB(gdb)

		if !skipMigrate {
			if err := db.Migrate(gdb, di.Models()...); err != nil {
				return fmt.Errorf("migrate failed: %w", err)
			}
		}

		res, err := seed.Run(cmd.Context(), gdb, password.NewHasher(cfg.Password.Iterations), time.Now())
		if err != nil {
			return fmt.Errorf("seed failed: %w", err)
		}
		slog.Info("seed complete",
			"users_created", res.UsersCreated,
			"users_skipped", res.UsersSkipped,
			"events_created", res.EventsCreated,
		)
		if res.UsersCreated > 0 {
			fmt.Fprintf(cmd.OutOrStdout(), "demo accounts use the password %q\n", seed.DemoPassword)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(seedCmd)
	seedCmd.Flags().BoolVar(&skipMigrate, "skip-migrate", false, "do not create tables before seeding")
}
