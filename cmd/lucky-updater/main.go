package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"lottery-relay/internal/infra/config"
	applog "lottery-relay/internal/infra/log"
	"lottery-relay/internal/runner"
	"lottery-relay/internal/usecase/schedule"
)

const job = "lucky-updater"

func main() {
	cfg := config.Load()
	base := applog.NewLogger(cfg.AppEnv)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	env, err := runner.NewEnv(cfg, base, job)
	if err != nil {
		base.Fatal().Err(err).Msg("lucky-updater: некорректная конфигурация")
	}

	svc, err := runner.NewLucky(env)
	if err != nil {
		env.Logger.Fatal().Err(err).Msg("lucky-updater: не удалось собрать сервис")
	}

	lock, closeLock := runner.NewLock(cfg)
	defer closeLock()

	err = runner.Execute(ctx, env, lock, job, func(ctx context.Context) error {
		_, err := svc.Run(ctx, schedule.Date(env.Resolver.Now()))
		return err
	})
	if err != nil {
		stop()
		_ = closeLock()
		os.Exit(1)
	}
}
