package plan

import (
	"time"

	"lottery-relay/internal/domain"
	"lottery-relay/internal/usecase/schedule"
)

// Planner решает, какие слоты ещё нужно обработать в этом запуске.
type Planner interface {
	Plan(record domain.DayRecord, local time.Time) []domain.Slot
}

// Cumulative берёт каждый слот, чьё окно открылось и значение ещё не записано.
type Cumulative struct {
	windows []domain.SlotWindow
}

// NewCumulative создаёт накопительный планировщик.
func NewCumulative(windows []domain.SlotWindow) *Cumulative {
	return &Cumulative{windows: append([]domain.SlotWindow(nil), windows...)}
}

// Plan возвращает слоты в порядке объявления.
func (p *Cumulative) Plan(record domain.DayRecord, local time.Time) []domain.Slot {
	var needed []domain.Slot
	for _, slot := range schedule.EligibleSlots(local, p.windows) {
		if !record.Recorded(slot) {
			needed = append(needed, slot)
		}
	}
	return needed
}

// Sequential проходит слоты по порядку и останавливается на текущем.
type Sequential struct {
	windows []domain.SlotWindow
}

// NewSequential создаёт последовательный планировщик.
func NewSequential(windows []domain.SlotWindow) *Sequential {
	return &Sequential{windows: append([]domain.SlotWindow(nil), windows...)}
}

// Plan возвращает незаполненные слоты до текущего включительно.
func (p *Sequential) Plan(record domain.DayRecord, local time.Time) []domain.Slot {
	current, ok := schedule.CurrentSlot(local, p.windows)
	if !ok {
		return nil
	}
	var needed []domain.Slot
	for _, w := range p.windows {
		if !record.Recorded(w.Slot) {
			needed = append(needed, w.Slot)
		}
		if w.Slot == current {
			break
		}
	}
	return needed
}
