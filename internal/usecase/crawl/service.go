package crawl

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"lottery-relay/internal/domain"
	"lottery-relay/internal/infra/metrics"
	"lottery-relay/internal/usecase/plan"
	"lottery-relay/internal/usecase/schedule"
)

// DayState отдаёт запись текущего дня.
type DayState interface {
	Today(ctx context.Context, date string) (domain.DayRecord, error)
}

// Deps собирает зависимости одного потока краулера.
type Deps struct {
	Flow      string
	Windows   []domain.SlotWindow
	State     DayState
	Planner   plan.Planner
	Locator   domain.SourceLocator
	Documents domain.DocumentFetcher
	Extractor domain.Extractor
	Publisher domain.ResultPublisher
	Encoder   domain.SnapshotEncoder
	Logger    zerolog.Logger
}

// Service проводит слоты дня через поиск, распознавание и публикацию.
type Service struct {
	flow      string
	windows   []domain.SlotWindow
	state     DayState
	planner   plan.Planner
	locator   domain.SourceLocator
	documents domain.DocumentFetcher
	extractor domain.Extractor
	publisher domain.ResultPublisher
	encoder   domain.SnapshotEncoder
	log       zerolog.Logger
}

func NewService(d Deps) *Service {
	return &Service{
		flow:      d.Flow,
		windows:   append([]domain.SlotWindow(nil), d.Windows...),
		state:     d.State,
		planner:   d.Planner,
		locator:   d.Locator,
		documents: d.Documents,
		extractor: d.Extractor,
		publisher: d.Publisher,
		encoder:   d.Encoder,
		log:       d.Logger,
	}
}

// SlotResult описывает итог обработки одного слота.
type SlotResult struct {
	Slot    domain.Slot
	Outcome string
	Number  string
	Err     error
}

// Report собирает итоги запуска.
type Report struct {
	Date    string
	Planned []domain.Slot
	Results []SlotResult
}

// Count возвращает число слотов с данным исходом.
func (r Report) Count(outcome string) int {
	n := 0
	for _, res := range r.Results {
		if res.Outcome == outcome {
			n++
		}
	}
	return n
}

// Run обрабатывает слоты на момент local. Ошибки слотов изолированы;
// запуск прерывают только ошибка состояния, недоступный список и отмена контекста.
func (s *Service) Run(ctx context.Context, local time.Time) (Report, error) {
	report := Report{Date: schedule.Date(local)}
	if _, ok := schedule.CurrentSlot(local, s.windows); !ok {
		s.log.Info().Str("time", local.Format("15:04")).Msg(s.flow + ": слишком рано, ни одно окно ещё не открылось")
		return report, nil
	}

	record, err := s.state.Today(ctx, report.Date)
	if err != nil {
		return report, err
	}
	report.Planned = s.planner.Plan(record, local)
	if len(report.Planned) == 0 {
		s.log.Info().Str("date", report.Date).Msg(s.flow + ": все открытые слоты уже заполнены")
		return report, nil
	}
	s.log.Info().Str("date", report.Date).Interface("slots", report.Planned).Msg(s.flow + ": слоты к обработке")

	for _, slot := range report.Planned {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		res := s.processSlot(ctx, slot, local, report.Date)
		report.Results = append(report.Results, res)
		metrics.ObserveSlot(s.flow, string(slot), res.Outcome)

		logger := s.log.With().Str("slot", string(slot)).Logger()
		switch res.Outcome {
		case metrics.OutcomePublished:
			logger.Info().Str("number", res.Number).Msg(s.flow + ": слот опубликован")
		case metrics.OutcomeSkipped:
			logger.Info().Err(res.Err).Msg(s.flow + ": слот пропущен")
		default:
			logger.Error().Err(res.Err).Msg(s.flow + ": ошибка обработки слота")
		}
		if errors.Is(res.Err, domain.ErrListingUnavailable) {
			return report, res.Err
		}
	}
	return report, nil
}

func (s *Service) processSlot(ctx context.Context, slot domain.Slot, local time.Time, date string) (res SlotResult) {
	res = SlotResult{Slot: slot}
	defer func() {
		if r := recover(); r != nil {
			res.Outcome = metrics.OutcomeFailed
			res.Err = fmt.Errorf("slot %s panicked: %v", slot, r)
		}
	}()
	number, err := s.relay(ctx, slot, local, date)
	res.Number, res.Err = number, err
	switch {
	case err == nil:
		res.Outcome = metrics.OutcomePublished
	case domain.IsSkip(err):
		res.Outcome = metrics.OutcomeSkipped
	default:
		res.Outcome = metrics.OutcomeFailed
	}
	return res
}

func (s *Service) relay(ctx context.Context, slot domain.Slot, local time.Time, date string) (string, error) {
	doc, err := s.locator.Locate(ctx, slot, local)
	if err != nil {
		return "", err
	}
	s.log.Debug().Str("slot", string(slot)).Str("url", doc.URL).Msg(s.flow + ": документ найден")

	data, err := s.documents.Fetch(ctx, doc.URL)
	if err != nil {
		return "", err
	}

	start := time.Now()
	extraction, err := s.extractor.Extract(ctx, doc, data)
	metrics.ObserveExtraction(string(doc.Kind), start)
	if err != nil {
		return "", err
	}
	jpeg, err := s.encoder.Encode(extraction.Snapshot)
	if err != nil {
		return "", fmt.Errorf("snapshot: %w", err)
	}

	for _, endpoint := range domain.DigitEndpoints {
		payload := domain.PublishPayload(date, slot, extraction.Digits.Suffix(endpoint.Length))
		if err := s.publisher.PublishDigit(ctx, endpoint, payload); err != nil {
			return extraction.Number, fmt.Errorf("publish %s: %w", endpoint.Path, err)
		}
	}
	err = s.publisher.PublishSnapshot(ctx, domain.Snapshot{Type: s.flow, Date: date, Slot: slot, JPEG: jpeg})
	if err != nil {
		return extraction.Number, fmt.Errorf("publish snapshot: %w", err)
	}
	return extraction.Number, nil
}
