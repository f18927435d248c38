package schedule

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"lottery-relay/internal/domain"
)

// ErrInvalidOffset возвращается, если смещение зоны указано некорректно.
var ErrInvalidOffset = errors.New("invalid utc offset")

// DateLayout задаёт формат даты в API.
const DateLayout = "2006-01-02"

// Resolver переводит текущее время в локальную зону издателя.
type Resolver struct {
	zone *time.Location
	now  func() time.Time
}

// Option настраивает Resolver.
type Option func(*Resolver)

// WithClock подменяет источник текущего времени.
func WithClock(now func() time.Time) Option {
	return func(r *Resolver) {
		if now != nil {
			r.now = now
		}
	}
}

// NewResolver создаёт резолвер с фиксированным смещением от UTC.
func NewResolver(offset time.Duration, opts ...Option) *Resolver {
	r := &Resolver{
		zone: time.FixedZone(formatOffset(offset), int(offset/time.Second)),
		now:  time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Now возвращает текущее время в зоне издателя.
func (r *Resolver) Now() time.Time {
	return r.In(r.now())
}

// In переводит момент времени в зону издателя.
func (r *Resolver) In(t time.Time) time.Time {
	return t.In(r.zone)
}

// Date форматирует локальную дату для API.
func Date(local time.Time) string {
	return local.Format(DateLayout)
}

// MinuteOfDay возвращает минуты от локальной полуночи.
func MinuteOfDay(local time.Time) int {
	return local.Hour()*60 + local.Minute()
}

// EligibleSlots возвращает слоты, чьё окно уже открылось, в порядке объявления.
func EligibleSlots(local time.Time, windows []domain.SlotWindow) []domain.Slot {
	minute := MinuteOfDay(local)
	var out []domain.Slot
	for _, w := range windows {
		if minute >= w.After.Minutes() {
			out = append(out, w.Slot)
		}
	}
	return out
}

// CurrentSlot возвращает последний открывшийся слот. До первого окна слота нет.
func CurrentSlot(local time.Time, windows []domain.SlotWindow) (domain.Slot, bool) {
	minute := MinuteOfDay(local)
	var (
		current domain.Slot
		found   bool
	)
	for _, w := range windows {
		if minute < w.After.Minutes() {
			break
		}
		current, found = w.Slot, true
	}
	return current, found
}

// ParseOffset разбирает смещение вида +05:30, -03:00 или 5:30.
func ParseOffset(raw string) (time.Duration, error) {
	candidate := strings.TrimSpace(raw)
	if candidate == "" {
		return 0, ErrInvalidOffset
	}
	sign := time.Duration(1)
	switch candidate[0] {
	case '+':
		candidate = candidate[1:]
	case '-':
		sign = -1
		candidate = candidate[1:]
	}
	hoursPart, minutesPart, found := strings.Cut(candidate, ":")
	if !found {
		minutesPart = "0"
	}
	hours, err := strconv.Atoi(hoursPart)
	if err != nil || hours < 0 || hours > 14 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidOffset, raw)
	}
	minutes, err := strconv.Atoi(minutesPart)
	if err != nil || minutes < 0 || minutes > 59 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidOffset, raw)
	}
	return sign * (time.Duration(hours)*time.Hour + time.Duration(minutes)*time.Minute), nil
}

func formatOffset(offset time.Duration) string {
	sign := "+"
	if offset < 0 {
		sign = "-"
		offset = -offset
	}
	return fmt.Sprintf("UTC%s%02d:%02d", sign, int(offset/time.Hour), int(offset%time.Hour/time.Minute))
}
