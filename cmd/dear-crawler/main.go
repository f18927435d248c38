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

const job = "dear-crawler"

func main() {
	cfg := config.Load()
	base := applog.NewLogger(cfg.AppEnv)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	env, err := runner.NewEnv(cfg, base, job)
	if err != nil {
		base.Fatal().Err(err).Msg("dear-crawler: некорректная конфигурация")
	}
	logger := env.Logger

	ocr, err := extract.NewTesseract(cfg.OCR.Language)
	if err != nil {
		logger.Fatal().Err(err).Msg("dear-crawler: не удалось запустить OCR")
	}
	defer ocr.Close()

	svc, err := runner.NewCrawler(env, "dear", runner.Engines{OCR: ocr})
	if err != nil {
		logger.Fatal().Err(err).Msg("dear-crawler: не удалось собрать краулер")
	}

	lock, closeLock := runner.NewLock(cfg)
	defer closeLock()

	err = runner.Execute(ctx, env, lock, job, func(ctx context.Context) error {
		local := env.Resolver.Now()
		logger.Info().Str("now", local.Format("2006-01-02 03:04 PM")).Msg("dear-crawler: текущее время IST")
		_, err := svc.Run(ctx, local)
		return err
	})
	if err != nil {
		stop()
		_ = closeLock()
		_ = ocr.Close()
		os.Exit(1)
	}
}
