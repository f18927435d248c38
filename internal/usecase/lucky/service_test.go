package lucky

import (
	"context"
	"errors"
	"math/rand/v2"
	"regexp"
	"testing"

	"github.com/rs/zerolog"

	"lottery-relay/internal/domain"
)

var luckyPattern = regexp.MustCompile(`^\d, \d, \d, \d$`)

type stubStore struct {
	existing map[string]domain.LuckyRecord
	findErr  error
	saveErr  error
	saved    []domain.LuckyRecord
}

func (s *stubStore) FindLucky(_ context.Context, lottoType, date string) (domain.LuckyRecord, bool, error) {
	if s.findErr != nil {
		return domain.LuckyRecord{}, false, s.findErr
	}
	rec, ok := s.existing[lottoType+"|"+date]
	return rec, ok && rec.Lucky != "", nil
}

func (s *stubStore) SaveLucky(_ context.Context, rec domain.LuckyRecord) error {
	if s.saveErr != nil {
		return s.saveErr
	}
	s.saved = append(s.saved, rec)
	return nil
}

func testRand() *rand.Rand {
	return rand.New(rand.NewPCG(1, 2))
}

func TestGenerateFormat(t *testing.T) {
	rnd := testRand()
	for i := 0; i < 200; i++ {
		if got := Generate(rnd); !luckyPattern.MatchString(got) {
			t.Fatalf("неожиданный формат: %q", got)
		}
	}
}

func TestRunSkipsExistingAndCreatesMissing(t *testing.T) {
	store := &stubStore{existing: map[string]domain.LuckyRecord{
		"singapore|2026-02-14": {Type: "singapore", Date: "2026-02-14", Lucky: "1, 2, 3, 4", Active: true},
	}}
	svc := NewService(store, nil, testRand(), zerolog.Nop())

	results, err := svc.Run(context.Background(), "2026-02-14")
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if len(results) != 2 || results[0].Outcome != OutcomeExists || results[1].Outcome != OutcomeCreated {
		t.Fatalf("неожиданные итоги: %+v", results)
	}
	if len(store.saved) != 1 {
		t.Fatalf("ожидали одну запись, получили %d", len(store.saved))
	}
	saved := store.saved[0]
	if saved.Type != "dear" || saved.Date != "2026-02-14" || !saved.Active || !luckyPattern.MatchString(saved.Lucky) {
		t.Fatalf("неожиданная запись: %+v", saved)
	}
}

func TestRunFindErrorStillCreates(t *testing.T) {
	store := &stubStore{findErr: domain.ErrNetwork}
	svc := NewService(store, []string{"dear"}, testRand(), zerolog.Nop())

	results, err := svc.Run(context.Background(), "2026-02-14")
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if results[0].Outcome != OutcomeCreated || len(store.saved) != 1 {
		t.Fatalf("ошибка чтения не мешает записи: %+v", results)
	}
}

func TestRunSaveFailureReported(t *testing.T) {
	store := &stubStore{saveErr: domain.ErrNetwork}
	svc := NewService(store, []string{"singapore", "dear"}, testRand(), zerolog.Nop())

	results, err := svc.Run(context.Background(), "2026-02-14")
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	for _, res := range results {
		if res.Outcome != OutcomeFailed || !errors.Is(res.Err, domain.ErrNetwork) {
			t.Fatalf("ожидали сбой: %+v", res)
		}
	}
}

func TestRunStopsOnCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	store := &stubStore{}

	_, err := NewService(store, nil, testRand(), zerolog.Nop()).Run(ctx, "2026-02-14")
	if !errors.Is(err, context.Canceled) || len(store.saved) != 0 {
		t.Fatalf("ожидали отмену без записей: %v", err)
	}
}
