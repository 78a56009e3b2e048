package main

import (
	"context"
	"log/slog"
	"os"

	redisv9 "github.com/redis/go-redis/v9"

	"calendar_backend/internal/app/config"
	"calendar_backend/internal/app/di"
	"calendar_backend/internal/platform/db"
	"calendar_backend/internal/platform/redis"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	// db
	gdb, err := db.Open(cfg.Database, cfg.DBConnTimeout)
	if err != nil {
		slog.Error("failed to connect database", "driver", cfg.Database.Driver, "error", err)
		os.Exit(1)
	}
	if cfg.RunMigrations {
		if err := db.Migrate(gdb, di.Models()...); err != nil {
			slog.Error("failed to migrate", "error", err)
			os.Exit(1)
		}
	}

	// Redis（任意）。未設定・接続失敗時はキャッシュなしで起動する
	var rdb *redisv9.Client
	if cfg.Redis.Enabled() {
		if tmp, err := redis.NewRedisClient(context.Background(), cfg.Redis); err != nil {
			slog.Warn("redis unavailable, running without cache", "addr", cfg.Redis.Addr, "error", err)
		} else {
			rdb = tmp
			defer func() {
				if err := rdb.Close(); err != nil {
					slog.Error("failed to close redis client", "error", err)
				}
			}()
		}
	}

	r := di.NewAPI(cfg, gdb, rdb)

	slog.Info("starting resource api", "addr", cfg.ServerAddr)
	if err := r.Run(cfg.ServerAddr); err != nil {
		slog.Error("server stopped", "error", err)
		os.Exit(1)
	}
}
