package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"lottery-relay/internal/adapters/extract"
	"lottery-relay/internal/infra/config"
	applog "lottery-relay/internal/infra/log"
	"lottery-relay/internal/runner"
)

const job = "singapore-crawler"

func main() {
	cfg := config.Load()
	base := applog.NewLogger(cfg.AppEnv)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	env, err := runner.NewEnv(cfg, base, job)
	if err != nil {
		base.Fatal().Err(err).Msg("singapore-crawler: некорректная конфигурация")
	}
	logger := env.Logger

	svc, err := runner.NewCrawler(env, "singapore", runner.Engines{PDF: extract.PDFText{}, Raster: extract.Fitz{}})
	if err != nil {
		logger.Fatal().Err(err).Msg("singapore-crawler: не удалось собрать краулер")
	}

	lock, closeLock := runner.NewLock(cfg)
	defer closeLock()

	err = runner.Execute(ctx, env, lock, job, func(ctx context.Context) error {
		_, err := svc.Run(ctx, env.Resolver.Now())
		return err
	})
	if err != nil {
		stop()
		_ = closeLock()
		os.Exit(1)
	}
}
