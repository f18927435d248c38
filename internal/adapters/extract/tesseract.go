package extract

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/otiai10/gosseract/v2"

	"lottery-relay/internal/domain"
)

// Tesseract распознаёт текст через gosseract. Создаётся один раз за запуск.
type Tesseract struct {
	mu     sync.Mutex
	client *gosseract.Client
}

var _ domain.Recognizer = (*Tesseract)(nil)

// NewTesseract поднимает клиент tesseract с указанным языком.
func NewTesseract(language string) (*Tesseract, error) {
	client := gosseract.NewClient()
	if language != "" {
		if err := client.SetLanguage(language); err != nil {
			_ = client.Close()
			return nil, fmt.Errorf("tesseract language %q: %w", language, err)
		}
	}
	return &Tesseract{client: client}, nil
}

// Recognize возвращает непустые строки распознанного текста.
func (t *Tesseract) Recognize(ctx context.Context, image []byte) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.client.SetImageFromBytes(image); err != nil {
		return nil, fmt.Errorf("tesseract set image: %w", err)
	}
	text, err := t.client.Text()
	if err != nil {
		return nil, fmt.Errorf("tesseract text: %w", err)
	}
	var fragments []string
	for _, line := range strings.Split(text, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			fragments = append(fragments, line)
		}
	}
	return fragments, nil
}

// Close освобождает ресурсы tesseract.
func (t *Tesseract) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.client.Close()
}
