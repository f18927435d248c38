package state

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"lottery-relay/internal/domain"
)

// Fetcher читает состояние дня из API.
// С failOpen любая ошибка превращается в пустую запись дня.
type Fetcher struct {
	source   domain.DayStateSource
	failOpen bool
	log      zerolog.Logger
}

// NewFetcher создаёт Fetcher.
func NewFetcher(source domain.DayStateSource, failOpen bool, logger zerolog.Logger) *Fetcher {
	return &Fetcher{source: source, failOpen: failOpen, log: logger}
}

// Today возвращает запись за дату.
func (f *Fetcher) Today(ctx context.Context, date string) (domain.DayRecord, error) {
	rec, err := f.source.FetchDay(ctx, date)
	if err != nil {
		if !f.failOpen {
			return domain.DayRecord{}, fmt.Errorf("состояние дня %s: %w", date, err)
		}
		f.log.Warn().Err(err).Str("date", date).Msg("state: не удалось получить запись дня, начинаем с пустой")
		return domain.EmptyDay(date), nil
	}
	if rec.Date == "" {
		rec.Date = date
	}
	f.log.Debug().Str("date", rec.Date).Str("mor", rec.Value(domain.SlotMorning)).
		Str("day", rec.Value(domain.SlotDay)).Str("evn", rec.Value(domain.SlotEvening)).
		Msg("state: запись дня")
	return rec, nil
}
