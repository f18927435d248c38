package domain

import (
	"context"
	"image"
	"time"
)

// DayStateSource отдаёт записанные значения слотов за день.
type DayStateSource interface {
	FetchDay(ctx context.Context, date string) (DayRecord, error)
}

// SourceLocator находит документ с результатом слота.
type SourceLocator interface {
	Locate(ctx context.Context, slot Slot, local time.Time) (Document, error)
}

// DocumentFetcher скачивает страницу или документ целиком.
type DocumentFetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// Extractor распознаёт выигрышный номер в документе.
type Extractor interface {
	Extract(ctx context.Context, doc Document, data []byte) (Extraction, error)
}

// ResultPublisher отправляет цифры и снимок результата в API.
type ResultPublisher interface {
	PublishDigit(ctx context.Context, endpoint DigitEndpoint, payload DayRecord) error
	PublishSnapshot(ctx context.Context, snapshot Snapshot) error
}

// LuckyStore читает и записывает счастливые числа.
type LuckyStore interface {
	// FindLucky возвращает запись и признак того, что значение непустое.
	FindLucky(ctx context.Context, lottoType, date string) (LuckyRecord, bool, error)
	SaveLucky(ctx context.Context, record LuckyRecord) error
}

// Recognizer распознаёт текст на картинке и возвращает его фрагменты.
type Recognizer interface {
	Recognize(ctx context.Context, image []byte) ([]string, error)
}

// PDFTextReader извлекает встроенный текст PDF.
type PDFTextReader interface {
	Text(pdf []byte) (string, error)
}

// Rasterizer рендерит страницу PDF в картинку.
type Rasterizer interface {
	RenderPage(pdf []byte, page int, scale float64) (image.Image, error)
}

// SnapshotEncoder сжимает картинку результата для эндпоинта fax.
type SnapshotEncoder interface {
	Encode(img image.Image) ([]byte, error)
}

// RunLock не даёт двум запускам одного потока пересечься.
type RunLock interface {
	// Do выполняет fn под блокировкой. Возвращает false, если блокировка занята.
	Do(ctx context.Context, key string, fn func(ctx context.Context) error) (bool, error)
}
