package crawl

import (
	"context"
	"errors"
	"fmt"
	"image"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"lottery-relay/internal/domain"
	"lottery-relay/internal/infra/metrics"
	"lottery-relay/internal/usecase/plan"
)

var windows = []domain.SlotWindow{
	{Slot: domain.SlotMorning, After: domain.ClockTime{Hour: 13}},
	{Slot: domain.SlotDay, After: domain.ClockTime{Hour: 18}},
	{Slot: domain.SlotEvening, After: domain.ClockTime{Hour: 20}},
}

func ist(h, m int) time.Time {
	return time.Date(2026, 2, 14, h, m, 0, 0, time.FixedZone("IST", 5*3600+1800))
}

type stubState struct {
	record domain.DayRecord
	err    error
	calls  int
}

func (s *stubState) Today(_ context.Context, date string) (domain.DayRecord, error) {
	s.calls++
	if s.err != nil {
		return domain.DayRecord{}, s.err
	}
	if s.record.Date == "" {
		return domain.EmptyDay(date), nil
	}
	return s.record, nil
}

type stubLocator struct {
	errs map[domain.Slot]error
}

func (s stubLocator) Locate(_ context.Context, slot domain.Slot, _ time.Time) (domain.Document, error) {
	if err := s.errs[slot]; err != nil {
		return domain.Document{}, err
	}
	return domain.Document{Slot: slot, URL: "https://example.test/" + string(slot), Kind: domain.KindImage}, nil
}

type stubDocuments struct{}

func (stubDocuments) Fetch(_ context.Context, url string) ([]byte, error) {
	return []byte(url), nil
}

type stubExtractor struct {
	numbers map[string]string
}

func (s stubExtractor) Extract(_ context.Context, doc domain.Document, _ []byte) (domain.Extraction, error) {
	number, ok := s.numbers[doc.URL]
	if !ok {
		return domain.Extraction{}, &domain.ExtractionError{Reason: "1st prize not detected", Sample: "noise"}
	}
	digits, err := domain.DigitsFrom(number)
	if err != nil {
		return domain.Extraction{}, err
	}
	return domain.Extraction{Number: number, Digits: digits, Snapshot: image.NewRGBA(image.Rect(0, 0, 2, 2))}, nil
}

type recordingPublisher struct {
	calls   []string
	digits  []domain.DayRecord
	snaps   []domain.Snapshot
	failOn  string
	failErr error
}

func (p *recordingPublisher) PublishDigit(_ context.Context, endpoint domain.DigitEndpoint, payload domain.DayRecord) error {
	p.calls = append(p.calls, endpoint.Path)
	if p.failOn == endpoint.Path {
		return p.failErr
	}
	p.digits = append(p.digits, payload)
	return nil
}

func (p *recordingPublisher) PublishSnapshot(_ context.Context, snap domain.Snapshot) error {
	p.calls = append(p.calls, "fax")
	p.snaps = append(p.snaps, snap)
	return nil
}

type panickingExtractor struct {
	stubExtractor
	panicOn string
}

func (p panickingExtractor) Extract(ctx context.Context, doc domain.Document, data []byte) (domain.Extraction, error) {
	if doc.URL == p.panicOn {
		panic("unexpected keyword \"obj\" parsing object")
	}
	return p.stubExtractor.Extract(ctx, doc, data)
}

type stubEncoder struct {
	err error
}

func (s stubEncoder) Encode(image.Image) ([]byte, error) {
	if s.err != nil {
		return nil, s.err
	}
	return []byte("jpeg"), nil
}

func newService(state DayState, planner plan.Planner, locator domain.SourceLocator, extractor domain.Extractor, pub domain.ResultPublisher) *Service {
	return NewService(Deps{
		Flow:      "dear",
		Windows:   windows,
		State:     state,
		Planner:   planner,
		Locator:   locator,
		Documents: stubDocuments{},
		Extractor: extractor,
		Publisher: pub,
		Encoder:   stubEncoder{},
		Logger:    zerolog.Nop(),
	})
}

func TestRunPublishesDigitsThenSnapshot(t *testing.T) {
	pub := &recordingPublisher{}
	extractor := stubExtractor{numbers: map[string]string{"https://example.test/mor": "82497"}}
	svc := newService(&stubState{}, plan.NewCumulative(windows), stubLocator{}, extractor, pub)

	report, err := svc.Run(context.Background(), ist(13, 5))
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	want := []string{"last-digit", "last-two-digit", "last-three-digit", "fax"}
	if fmt.Sprint(pub.calls) != fmt.Sprint(want) {
		t.Fatalf("порядок публикации: %v", pub.calls)
	}
	values := []string{pub.digits[0].Mor, pub.digits[1].Mor, pub.digits[2].Mor}
	if fmt.Sprint(values) != "[7 97 497]" {
		t.Fatalf("неожиданные значения: %v", values)
	}
	for _, d := range pub.digits {
		if d.Day != domain.Placeholder || d.Evn != domain.Placeholder || d.Date != "2026-02-14" {
			t.Fatalf("другие слоты не должны получать значения: %+v", d)
		}
	}
	snap := pub.snaps[0]
	if snap.Type != "dear" || snap.Slot != domain.SlotMorning || snap.Date != "2026-02-14" || len(snap.JPEG) == 0 {
		t.Fatalf("неожиданный снимок: %+v", snap)
	}
	if report.Count(metrics.OutcomePublished) != 1 {
		t.Fatalf("неожиданный отчёт: %+v", report)
	}
}

func TestRunTooEarlyMakesNoCalls(t *testing.T) {
	state := &stubState{}
	pub := &recordingPublisher{}
	svc := newService(state, plan.NewSequential(windows), stubLocator{}, stubExtractor{}, pub)

	report, err := svc.Run(context.Background(), ist(12, 59))
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if state.calls != 0 || len(pub.calls) != 0 || len(report.Planned) != 0 {
		t.Fatalf("до первого окна сетевых вызовов быть не должно")
	}
}

func TestRunSkipsRecordedSlots(t *testing.T) {
	state := &stubState{record: domain.DayRecord{Date: "2026-02-14", Mor: "497", Day: "120", Evn: "-"}}
	pub := &recordingPublisher{}
	svc := newService(state, plan.NewCumulative(windows), stubLocator{}, stubExtractor{}, pub)

	report, err := svc.Run(context.Background(), ist(19, 0))
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if len(report.Planned) != 0 || len(pub.calls) != 0 {
		t.Fatalf("заполненные слоты не обрабатываются: %+v", report)
	}
}

func TestRunStaleSlotIsSkippedWithoutPublishing(t *testing.T) {
	pub := &recordingPublisher{}
	locator := stubLocator{errs: map[domain.Slot]error{
		domain.SlotMorning: fmt.Errorf("%w: /2026/01/", domain.ErrStaleContent),
	}}
	svc := newService(&stubState{}, plan.NewCumulative(windows), locator, stubExtractor{}, pub)

	report, err := svc.Run(context.Background(), ist(13, 30))
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if len(pub.calls) != 0 {
		t.Fatalf("устаревший слот не публикуется: %v", pub.calls)
	}
	if report.Count(metrics.OutcomeSkipped) != 1 {
		t.Fatalf("ожидали пропуск: %+v", report)
	}
}

func TestRunIsolatesSlotFailures(t *testing.T) {
	pub := &recordingPublisher{}
	extractor := stubExtractor{numbers: map[string]string{"https://example.test/day": "55120"}}
	svc := newService(&stubState{}, plan.NewCumulative(windows), stubLocator{}, extractor, pub)

	report, err := svc.Run(context.Background(), ist(18, 30))
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if report.Count(metrics.OutcomeFailed) != 1 || report.Count(metrics.OutcomePublished) != 1 {
		t.Fatalf("ожидали один сбой и одну публикацию: %+v", report.Results)
	}
	var extErr *domain.ExtractionError
	if !errors.As(report.Results[0].Err, &extErr) {
		t.Fatalf("ошибка mor должна быть ExtractionError: %v", report.Results[0].Err)
	}
	if pub.snaps[0].Slot != domain.SlotDay {
		t.Fatalf("публикация day должна пройти: %+v", pub.snaps)
	}
}

func TestRunListingUnavailableAbortsRun(t *testing.T) {
	pub := &recordingPublisher{}
	listingErr := fmt.Errorf("%w: timeout", domain.ErrListingUnavailable)
	locator := stubLocator{errs: map[domain.Slot]error{
		domain.SlotMorning: listingErr,
		domain.SlotDay:     listingErr,
	}}
	svc := newService(&stubState{}, plan.NewSequential(windows), locator, stubExtractor{}, pub)

	report, err := svc.Run(context.Background(), ist(19, 0))
	if !errors.Is(err, domain.ErrListingUnavailable) {
		t.Fatalf("ожидали ErrListingUnavailable, получили %v", err)
	}
	if len(report.Results) != 1 {
		t.Fatalf("после сбоя списка слоты не обрабатываются: %+v", report.Results)
	}
}

func TestRunPublishFailureStopsSlot(t *testing.T) {
	pub := &recordingPublisher{failOn: "last-two-digit", failErr: domain.ErrNetwork}
	extractor := stubExtractor{numbers: map[string]string{"https://example.test/mor": "82497"}}
	svc := newService(&stubState{}, plan.NewCumulative(windows), stubLocator{}, extractor, pub)

	report, err := svc.Run(context.Background(), ist(13, 5))
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if !errors.Is(report.Results[0].Err, domain.ErrNetwork) || len(pub.snaps) != 0 {
		t.Fatalf("сбой публикации цифр останавливает слот: %+v %v", report.Results, pub.calls)
	}
}

func TestRunStateErrorAborts(t *testing.T) {
	boom := errors.New("state down")
	svc := newService(&stubState{err: boom}, plan.NewCumulative(windows), stubLocator{}, stubExtractor{}, &recordingPublisher{})

	if _, err := svc.Run(context.Background(), ist(13, 5)); !errors.Is(err, boom) {
		t.Fatalf("ожидали ошибку состояния, получили %v", err)
	}
}

func TestRunPanickingSlotDoesNotStopOthers(t *testing.T) {
	pub := &recordingPublisher{}
	extractor := panickingExtractor{
		stubExtractor: stubExtractor{numbers: map[string]string{"https://example.test/day": "55120"}},
		panicOn:       "https://example.test/mor",
	}
	svc := newService(&stubState{}, plan.NewCumulative(windows), stubLocator{}, extractor, pub)

	report, err := svc.Run(context.Background(), ist(18, 30))
	if err != nil {
		t.Fatalf("паника одного слота не прерывает запуск: %v", err)
	}
	if len(report.Results) != 2 || report.Results[0].Outcome != metrics.OutcomeFailed || report.Results[0].Err == nil {
		t.Fatalf("слот mor должен завершиться сбоем: %+v", report.Results)
	}
	if report.Results[1].Outcome != metrics.OutcomePublished || len(pub.snaps) != 1 || pub.snaps[0].Slot != domain.SlotDay {
		t.Fatalf("слот day должен опубликоваться: %+v", report.Results)
	}
}

func TestRunEncodeFailurePublishesNothing(t *testing.T) {
	pub := &recordingPublisher{}
	extractor := stubExtractor{numbers: map[string]string{"https://example.test/mor": "82497"}}
	svc := NewService(Deps{
		Flow:      "dear",
		Windows:   windows,
		State:     &stubState{},
		Planner:   plan.NewCumulative(windows),
		Locator:   stubLocator{},
		Documents: stubDocuments{},
		Extractor: extractor,
		Publisher: pub,
		Encoder:   stubEncoder{err: errors.New("nil image")},
		Logger:    zerolog.Nop(),
	})

	report, err := svc.Run(context.Background(), ist(13, 5))
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if report.Count(metrics.OutcomeFailed) != 1 || len(pub.calls) != 0 {
		t.Fatalf("без снимка цифры не публикуются: %+v %v", report.Results, pub.calls)
	}
}
