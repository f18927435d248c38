package domain

import (
	"errors"
	"fmt"
	"testing"
)

func TestDigitsFrom(t *testing.T) {
	d, err := DigitsFrom("82497")
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if d.L1 != "7" || d.L2 != "97" || d.L3 != "497" {
		t.Fatalf("неверные суффиксы: %+v", d)
	}
	if d.Suffix(2) != "97" || d.Suffix(4) != "" {
		t.Fatalf("неверный Suffix: %+v", d)
	}
}

func TestDigitsFromKeepsLeadingZeros(t *testing.T) {
	d, err := DigitsFrom("10007")
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if d.L2 != "07" || d.L3 != "007" {
		t.Fatalf("нули в суффиксах потерялись: %+v", d)
	}
}

func TestDigitsFromRejectsGarbage(t *testing.T) {
	for _, bad := range []string{"", "12", "12a45"} {
		if _, err := DigitsFrom(bad); err == nil {
			t.Fatalf("ожидали ошибку для %q", bad)
		}
	}
}

func TestIsSkip(t *testing.T) {
	if !IsSkip(fmt.Errorf("wrap: %w", ErrStaleContent)) || !IsSkip(ErrNotPublished) {
		t.Fatalf("stale и not published должны пропускаться")
	}
	if IsSkip(ErrNetwork) || IsSkip(&ExtractionError{Reason: "x"}) {
		t.Fatalf("сетевые ошибки и ошибки распознавания не пропускаются")
	}
	var extErr *ExtractionError
	if !errors.As(fmt.Errorf("slot: %w", &ExtractionError{Reason: "no digits", Sample: "abc"}), &extErr) {
		t.Fatalf("ожидали ExtractionError")
	}
	if extErr.Sample != "abc" {
		t.Fatalf("потеряли фрагмент текста")
	}
}
