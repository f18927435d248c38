package runner

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"lottery-relay/internal/domain"
	"lottery-relay/internal/infra/cache"
	"lottery-relay/internal/infra/config"
	"lottery-relay/internal/infra/httpclient"
	applog "lottery-relay/internal/infra/log"
	"lottery-relay/internal/infra/metrics"
	"lottery-relay/internal/usecase/schedule"
)

// Env хранит общее окружение одного запуска.
type Env struct {
	Config    config.AppConfig
	Sources   config.Sources
	Resolver  *schedule.Resolver
	API       *http.Client
	Publisher *http.Client
	Logger    zerolog.Logger
	RunID     string
}

// NewEnv собирает окружение запуска из конфига.
func NewEnv(cfg config.AppConfig, base zerolog.Logger, component string) (Env, error) {
	sources, err := config.DefaultSources()
	if err != nil {
		return Env{}, err
	}
	offset, err := schedule.ParseOffset(cfg.TZOffset)
	if err != nil {
		return Env{}, fmt.Errorf("TZ_OFFSET: %w", err)
	}
	runID := uuid.NewString()
	api, publisher := HTTPClients(cfg)
	return Env{
		Config:    cfg,
		Sources:   sources,
		Resolver:  schedule.NewResolver(offset),
		API:       api,
		Publisher: publisher,
		Logger:    applog.ForRun(base, component, runID),
		RunID:     runID,
	}, nil
}

// HTTPClients возвращает клиенты для API результатов и сайтов издателей.
// Ограничение частоты применяется только к издателям.
func HTTPClients(cfg config.AppConfig) (*http.Client, *http.Client) {
	common := []httpclient.Option{httpclient.WithRetries(cfg.HTTP.RetryMax, time.Second)}
	if cfg.HTTP.UserAgent != "" {
		common = append(common, httpclient.WithUserAgent(cfg.HTTP.UserAgent))
	}
	api := httpclient.New(common...)
	publisherOpts := common
	if cfg.HTTP.PublisherRPS > 0 {
		publisherOpts = append(append([]httpclient.Option(nil), common...),
			httpclient.WithLimiter(rate.NewLimiter(rate.Limit(cfg.HTTP.PublisherRPS), 1)))
	}
	return api, httpclient.New(publisherOpts...)
}

// NewLock возвращает блокировку запусков: Redis при заданном REDIS_ADDR, иначе no-op.
func NewLock(cfg config.AppConfig) (domain.RunLock, func() error) {
	if cfg.RedisAddr == "" {
		return cache.NoopLock{}, func() error { return nil }
	}
	client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	return cache.NewRedisLock(client, cfg.RunLockTTL), client.Close
}

// Execute выполняет fn под блокировкой job, фиксирует метрики запуска и отправляет их в Pushgateway.
func Execute(ctx context.Context, env Env, lock domain.RunLock, job string, fn func(ctx context.Context) error) error {
	registry := prometheus.NewRegistry()
	metrics.MustRegister(registry)

	start := time.Now()
	env.Logger.Info().Msg(job + ": старт")
	acquired, err := lock.Do(ctx, job, fn)
	if !acquired && errors.Is(err, domain.ErrLockUnavailable) {
		env.Logger.Warn().Err(err).Msg(job + ": блокировка недоступна, запускаемся без неё")
		acquired, err = cache.NoopLock{}.Do(ctx, job, fn)
	}
	if !acquired && err == nil {
		env.Logger.Warn().Msg(job + ": предыдущий запуск ещё выполняется, выходим")
		return nil
	}
	metrics.ObserveRun(start, err)
	if err != nil {
		env.Logger.Error().Err(err).Dur("elapsed", time.Since(start)).Msg(job + ": запуск прерван")
	} else {
		env.Logger.Info().Dur("elapsed", time.Since(start)).Msg(job + ": готово")
	}

	pushCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()
	if pushErr := metrics.Push(pushCtx, env.Config.PushgatewayURL, job, registry); pushErr != nil {
		env.Logger.Warn().Err(pushErr).Msg(job + ": не удалось отправить метрики")
	}
	return err
}
