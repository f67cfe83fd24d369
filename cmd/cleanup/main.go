// Command cleanup deletes recorded spells older than the configured
// retention period. It is intended to be invoked by an external cron job.
//
// Exit codes: 0 = success, 1 = error.
package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"time"

	"github.com/heartmarshall/quotespell/internal/adapter/postgres"
	spellrepo "github.com/heartmarshall/quotespell/internal/adapter/postgres/spell"
	"github.com/heartmarshall/quotespell/internal/app"
	"github.com/heartmarshall/quotespell/internal/config"
	"github.com/heartmarshall/quotespell/internal/service/history"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger := app.NewLogger(cfg.Log)

	if !cfg.Database.Enabled() {
		logger.Error("DATABASE_DSN is not set; nothing to clean")
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	pool, err := postgres.NewPool(ctx, cfg.Database)
	if err != nil {
		logger.Error("connect to database", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer pool.Close()

	svc := history.NewService(logger, spellrepo.New(pool))

	deleted, err := svc.Purge(ctx, cfg.History.RetentionDays)
	if err != nil {
		logger.Error("purge failed",
			slog.String("error", err.Error()),
			slog.Int("retention_days", cfg.History.RetentionDays),
		)
		os.Exit(1)
	}

	logger.Info("cleanup completed", slog.Int64("deleted", deleted))
}
