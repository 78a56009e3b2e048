package main

import (
	"log/slog"
	"os"
	_ "time/tzdata"

	"calendar_backend/internal/app/config"
	"calendar_backend/internal/app/di"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	r := di.NewWebapp(cfg)

	slog.Info("starting webapp", "addr", cfg.WebappAddr, "api", cfg.APIBaseURL)
	if err := r.Run(cfg.WebappAddr); err != nil {
		slog.Error("webapp stopped", "error", err)
		os.Exit(1)
	}
}
