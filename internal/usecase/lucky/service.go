package lucky

import (
	"context"
	"math/rand/v2"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"lottery-relay/internal/domain"
	"lottery-relay/internal/infra/metrics"
)

// Исходы заполнения.
const (
	OutcomeExists  = "exists"
	OutcomeCreated = "created"
	OutcomeFailed  = "failed"
)

// DefaultTypes перечисляет категории, для которых нужно счастливое число.
var DefaultTypes = []string{"singapore", "dear"}

const luckyDigits = 4

// Generate возвращает четыре случайные цифры через запятую: "3, 0, 7, 1".
func Generate(rnd *rand.Rand) string {
	parts := make([]string, luckyDigits)
	for i := range parts {
		parts[i] = strconv.Itoa(rnd.IntN(10))
	}
	return strings.Join(parts, ", ")
}

// Result описывает итог по одной категории.
type Result struct {
	Type    string
	Outcome string
	Lucky   string
	Err     error
}

// Service заполняет счастливые числа, которых ещё нет на дату.
type Service struct {
	store domain.LuckyStore
	types []string
	rnd   *rand.Rand
	log   zerolog.Logger
}

func NewService(store domain.LuckyStore, types []string, rnd *rand.Rand, logger zerolog.Logger) *Service {
	if len(types) == 0 {
		types = DefaultTypes
	}
	if rnd == nil {
		rnd = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return &Service{store: store, types: append([]string(nil), types...), rnd: rnd, log: logger}
}

// Run проходит все категории. Ошибка чтения не мешает записи нового числа.
func (s *Service) Run(ctx context.Context, date string) ([]Result, error) {
	results := make([]Result, 0, len(s.types))
	for _, lottoType := range s.types {
		if err := ctx.Err(); err != nil {
			return results, err
		}
		res := s.backfill(ctx, lottoType, date)
		metrics.ObserveLucky(lottoType, res.Outcome)
		results = append(results, res)
	}
	return results, nil
}

func (s *Service) backfill(ctx context.Context, lottoType, date string) Result {
	logger := s.log.With().Str("type", lottoType).Str("date", date).Logger()

	existing, found, err := s.store.FindLucky(ctx, lottoType, date)
	if err != nil {
		logger.Warn().Err(err).Msg("lucky-updater: не удалось проверить число, создаём новое")
	}
	if found {
		logger.Info().Str("lucky", existing.Lucky).Msg("lucky-updater: число уже есть")
		return Result{Type: lottoType, Outcome: OutcomeExists, Lucky: existing.Lucky}
	}

	record := domain.LuckyRecord{Type: lottoType, Date: date, Lucky: Generate(s.rnd), Active: true}
	if err := s.store.SaveLucky(ctx, record); err != nil {
		logger.Error().Err(err).Msg("lucky-updater: не удалось сохранить число")
		return Result{Type: lottoType, Outcome: OutcomeFailed, Lucky: record.Lucky, Err: err}
	}
	logger.Info().Str("lucky", record.Lucky).Msg("lucky-updater: число сохранено")
	return Result{Type: lottoType, Outcome: OutcomeCreated, Lucky: record.Lucky}
}
