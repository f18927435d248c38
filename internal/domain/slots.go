package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// Slot обозначает окно тиража внутри дня.
type Slot string

const (
	// SlotMorning обозначает дневной тираж (mor).
	SlotMorning Slot = "mor"
	// SlotDay обозначает тираж после обеда (day).
	SlotDay Slot = "day"
	// SlotEvening обозначает вечерний тираж (evn).
	SlotEvening Slot = "evn"
)

// Placeholder хранится в слоте, пока результат не известен.
const Placeholder = "-"

// AllSlots возвращает слоты в порядке объявления.
func AllSlots() []Slot {
	return []Slot{SlotMorning, SlotDay, SlotEvening}
}

// ParseSlot проверяет имя слота.
func ParseSlot(raw string) (Slot, error) {
	slot := Slot(strings.ToLower(strings.TrimSpace(raw)))
	for _, known := range AllSlots() {
		if slot == known {
			return slot, nil
		}
	}
	return "", fmt.Errorf("unknown slot %q", raw)
}

// ClockTime задаёт время суток без даты.
type ClockTime struct {
	Hour   int
	Minute int
}

// ParseClockTime разбирает строку вида 13:00 или 12.30.
func ParseClockTime(raw string) (ClockTime, error) {
	var ct ClockTime
	normalized := strings.ReplaceAll(strings.TrimSpace(raw), ".", ":")
	if _, err := fmt.Sscanf(normalized, "%d:%d", &ct.Hour, &ct.Minute); err != nil {
		return ClockTime{}, fmt.Errorf("parse clock time %q: %w", raw, err)
	}
	if ct.Hour < 0 || ct.Hour > 23 || ct.Minute < 0 || ct.Minute > 59 {
		return ClockTime{}, fmt.Errorf("clock time %q out of range", raw)
	}
	return ct, nil
}

// Minutes возвращает количество минут от полуночи.
func (c ClockTime) Minutes() int {
	return c.Hour*60 + c.Minute
}

func (c ClockTime) String() string {
	return fmt.Sprintf("%02d:%02d", c.Hour, c.Minute)
}

// SlotWindow связывает слот с моментом, после которого результат может появиться.
type SlotWindow struct {
	Slot  Slot
	After ClockTime
}

// DayRecord хранит запись дня в удалённом API, по значению на каждый слот.
type DayRecord struct {
	Date string `json:"date"`
	Mor  string `json:"mor"`
	Day  string `json:"day"`
	Evn  string `json:"evn"`
}

// EmptyDay создаёт запись, в которой все слоты ещё не заполнены.
func EmptyDay(date string) DayRecord {
	return DayRecord{Date: date, Mor: Placeholder, Day: Placeholder, Evn: Placeholder}
}

// PublishPayload строит тело upsert-запроса: значение только у целевого слота.
func PublishPayload(date string, slot Slot, value string) DayRecord {
	return EmptyDay(date).With(slot, value)
}

// Value возвращает значение слота; пустое значение читается как Placeholder.
func (r DayRecord) Value(slot Slot) string {
	var v string
	switch slot {
	case SlotMorning:
		v = r.Mor
	case SlotDay:
		v = r.Day
	case SlotEvening:
		v = r.Evn
	}
	if strings.TrimSpace(v) == "" {
		return Placeholder
	}
	return v
}

// Recorded сообщает, есть ли у слота реальное значение.
func (r DayRecord) Recorded(slot Slot) bool {
	return r.Value(slot) != Placeholder
}

// With возвращает копию записи с новым значением слота.
func (r DayRecord) With(slot Slot, value string) DayRecord {
	switch slot {
	case SlotMorning:
		r.Mor = value
	case SlotDay:
		r.Day = value
	case SlotEvening:
		r.Evn = value
	}
	return r
}

// UnmarshalJSON принимает значения слотов строками, числами или null.
func (r *DayRecord) UnmarshalJSON(data []byte) error {
	var raw struct {
		Date string          `json:"date"`
		Mor  json.RawMessage `json:"mor"`
		Day  json.RawMessage `json:"day"`
		Evn  json.RawMessage `json:"evn"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	rec := DayRecord{Date: raw.Date}
	var err error
	if rec.Mor, err = slotValue(raw.Mor); err != nil {
		return fmt.Errorf("mor: %w", err)
	}
	if rec.Day, err = slotValue(raw.Day); err != nil {
		return fmt.Errorf("day: %w", err)
	}
	if rec.Evn, err = slotValue(raw.Evn); err != nil {
		return fmt.Errorf("evn: %w", err)
	}
	*r = rec
	return nil
}

func slotValue(raw json.RawMessage) (string, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return Placeholder, nil
	}
	if trimmed[0] == '"' {
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return "", err
		}
		if strings.TrimSpace(s) == "" {
			return Placeholder, nil
		}
		return s, nil
	}
	var n json.Number
	if err := json.Unmarshal(trimmed, &n); err != nil {
		return "", err
	}
	return n.String(), nil
}
