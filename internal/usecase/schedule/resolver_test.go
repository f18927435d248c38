package schedule

import (
	"errors"
	"testing"
	"time"

	"lottery-relay/internal/domain"
)

var testWindows = []domain.SlotWindow{
	{Slot: domain.SlotMorning, After: domain.ClockTime{Hour: 12, Minute: 30}},
	{Slot: domain.SlotDay, After: domain.ClockTime{Hour: 16, Minute: 30}},
	{Slot: domain.SlotEvening, After: domain.ClockTime{Hour: 20, Minute: 30}},
}

func istResolver(utc time.Time) *Resolver {
	return NewResolver(5*time.Hour+30*time.Minute, WithClock(func() time.Time { return utc }))
}

func TestResolverShiftsToFixedOffset(t *testing.T) {
	r := istResolver(time.Date(2026, 1, 31, 20, 0, 0, 0, time.UTC))
	local := r.Now()
	if Date(local) != "2026-02-01" {
		t.Fatalf("ожидали переход на следующий день, получили %s", Date(local))
	}
	if local.Hour() != 1 || local.Minute() != 30 {
		t.Fatalf("ожидали 01:30, получили %s", local.Format("15:04"))
	}
}

func TestEligibleSlots(t *testing.T) {
	r := istResolver(time.Date(2026, 2, 14, 11, 0, 0, 0, time.UTC)) // 16:30 IST
	got := EligibleSlots(r.Now(), testWindows)
	if len(got) != 2 || got[0] != domain.SlotMorning || got[1] != domain.SlotDay {
		t.Fatalf("ожидали mor и day, получили %v", got)
	}
}

func TestCurrentSlot(t *testing.T) {
	cases := []struct {
		utc   time.Time
		want  domain.Slot
		found bool
	}{
		{time.Date(2026, 2, 14, 6, 59, 0, 0, time.UTC), "", false},              // 12:29
		{time.Date(2026, 2, 14, 7, 0, 0, 0, time.UTC), domain.SlotMorning, true}, // 12:30
		{time.Date(2026, 2, 14, 10, 59, 0, 0, time.UTC), domain.SlotMorning, true},
		{time.Date(2026, 2, 14, 11, 0, 0, 0, time.UTC), domain.SlotDay, true},
		{time.Date(2026, 2, 14, 18, 0, 0, 0, time.UTC), domain.SlotEvening, true}, // 23:30
	}
	for _, tc := range cases {
		got, found := CurrentSlot(istResolver(tc.utc).Now(), testWindows)
		if got != tc.want || found != tc.found {
			t.Fatalf("%s: ожидали %q/%v, получили %q/%v", tc.utc, tc.want, tc.found, got, found)
		}
	}
}

func TestParseOffset(t *testing.T) {
	cases := map[string]time.Duration{
		"+05:30": 5*time.Hour + 30*time.Minute,
		"5:30":   5*time.Hour + 30*time.Minute,
		"-03:00": -3 * time.Hour,
		"+8":     8 * time.Hour,
	}
	for input, want := range cases {
		got, err := ParseOffset(input)
		if err != nil {
			t.Fatalf("не ожидали ошибку для %s: %v", input, err)
		}
		if got != want {
			t.Fatalf("%s: ожидали %s, получили %s", input, want, got)
		}
	}
	for _, bad := range []string{"", "IST", "+25:00", "+05:99"} {
		if _, err := ParseOffset(bad); !errors.Is(err, ErrInvalidOffset) {
			t.Fatalf("ожидали ErrInvalidOffset для %q, получили %v", bad, err)
		}
	}
}
