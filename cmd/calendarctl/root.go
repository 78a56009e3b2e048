package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"calendar_backend/internal/app/config"
	"calendar_backend/internal/platform/db"
)

var rootCmd = &cobra.Command{
	Use:          "calendarctl",
	Short:        "Administrative tasks for the calendar database",
	SilenceUsage: true,
}

// openDB は設定を読み込み、データベースへ接続します。
func openDB() (config.Config, *gorm.DB, error) {
	cfg, err := config.Load()
	if err != nil {
		return cfg, nil, fmt.Errorf("invalid configuration: %w", err)
	}
	gdb, err := db.Open(cfg.Database, cfg.DBConnTimeout)
	if err != nil {
		return cfg, nil, fmt.Errorf("failed to connect database: %w", err)
	}
	return cfg, gdb, nil
}

func closeDB(gdb *gorm.DB) {
	if sqlDB, err := gdb.DB(); err == nil {
		_ = sqlDB.Close()
	}
}
