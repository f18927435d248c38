package metrics

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"
)

// Исходы обработки слота.
const (
	OutcomePublished = "published"
	OutcomeSkipped   = "skipped"
	OutcomeFailed    = "failed"
)

var (
	SlotsProcessed = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "slots_processed_total",
		Help: "Обработанные слоты по исходу",
	}, []string{"flow", "slot", "outcome"})

	ExtractionSeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "extraction_duration_seconds",
		Help:    "Длительность распознавания документа",
		Buckets: []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 20, 40},
	}, []string{"kind"})

	NetworkRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "network_request_duration_seconds",
		Help:    "Длительность сетевых запросов",
		Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 15, 20, 30, 60},
	}, []string{"component", "operation", "target", "status"})

	NetworkRequestTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "network_request_total",
		Help: "Количество сетевых запросов",
	}, []string{"component", "operation", "target", "status"})

	LuckyBackfill = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "lucky_backfill_total",
		Help: "Заполнение счастливых чисел по исходу",
	}, []string{"type", "outcome"})

	RunDuration = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "run_duration_seconds",
		Help: "Длительность последнего запуска",
	})

	RunLastSuccess = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "run_last_success_timestamp_seconds",
		Help: "Время последнего успешного запуска",
	})
)

// MustRegister регистрирует метрики.
func MustRegister(registerer prometheus.Registerer) {
	registerer.MustRegister(
		SlotsProcessed,
		ExtractionSeconds,
		NetworkRequestDuration,
		NetworkRequestTotal,
		LuckyBackfill,
		RunDuration,
		RunLastSuccess,
	)
}

// Push отправляет метрики запуска в Pushgateway. Пустой url ничего не делает.
func Push(ctx context.Context, url, job string, gatherer prometheus.Gatherer) error {
	if url == "" {
		return nil
	}
	return push.New(url, job).Gatherer(gatherer).PushContext(ctx)
}

// ObserveRun фиксирует длительность запуска и время успеха.
func ObserveRun(start time.Time, err error) {
	RunDuration.Set(time.Since(start).Seconds())
	if err == nil {
		RunLastSuccess.SetToCurrentTime()
	}
}

// ObserveSlot увеличивает счётчик исходов слота.
func ObserveSlot(flow, slot, outcome string) {
	SlotsProcessed.WithLabelValues(flow, slot, outcome).Inc()
}

// ObserveExtraction записывает длительность распознавания.
func ObserveExtraction(kind string, start time.Time) {
	if kind == "" {
		kind = "unknown"
	}
	ExtractionSeconds.WithLabelValues(kind).Observe(time.Since(start).Seconds())
}

// ObserveLucky увеличивает счётчик заполнения счастливых чисел.
func ObserveLucky(lottoType, outcome string) {
	LuckyBackfill.WithLabelValues(lottoType, outcome).Inc()
}

// ObserveNetworkRequest записывает длительность и статус сетевого запроса.
func ObserveNetworkRequest(component, operation, target string, start time.Time, err error) {
	if component == "" {
		component = "unknown"
	}
	if operation == "" {
		operation = "unknown"
	}
	if target == "" {
		target = "unknown"
	}
	status := "success"
	if err != nil {
		status = "error"
	}
	duration := time.Since(start).Seconds()
	NetworkRequestDuration.WithLabelValues(component, operation, target, status).Observe(duration)
	NetworkRequestTotal.WithLabelValues(component, operation, target, status).Inc()
}
