package extract

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"lottery-relay/internal/adapters/snapshot"
	"lottery-relay/internal/domain"
)

const sampleLength = 50

var (
	imageNumberPattern = regexp.MustCompile(`\d{5}`)
	pdfNumberPattern   = regexp.MustCompile(`(?i)1st\s*Prize.*?(\d{4,})`)
)

// Image распознаёт номер на картинке через OCR.
type Image struct {
	ocr domain.Recognizer
}

var _ domain.Extractor = (*Image)(nil)

func NewImage(ocr domain.Recognizer) *Image {
	return &Image{ocr: ocr}
}

// Extract ищет первое пятизначное число в тексте картинки. Снимком служит исходная картинка.
func (e *Image) Extract(ctx context.Context, doc domain.Document, data []byte) (domain.Extraction, error) {
	fragments, err := e.ocr.Recognize(ctx, data)
	if err != nil {
		return domain.Extraction{}, fmt.Errorf("ocr %s: %w", doc.URL, err)
	}
	text := strings.Join(fragments, " ")
	number := imageNumberPattern.FindString(text)
	if number == "" {
		return domain.Extraction{}, &domain.ExtractionError{Reason: "1st prize not detected", Sample: sample(text)}
	}
	return finish(number, func() (extraction domain.Extraction, err error) {
		extraction.Snapshot, _, err = snapshot.Decode(data)
		return extraction, err
	})
}

// PDF ищет номер первого приза в тексте PDF. Снимком служит первая страница в масштабе scale.
type PDF struct {
	text   domain.PDFTextReader
	raster domain.Rasterizer
	scale  float64
}

var _ domain.Extractor = (*PDF)(nil)

func NewPDF(text domain.PDFTextReader, raster domain.Rasterizer, scale float64) *PDF {
	if scale <= 0 {
		scale = 2
	}
	return &PDF{text: text, raster: raster, scale: scale}
}

func (e *PDF) Extract(ctx context.Context, doc domain.Document, data []byte) (domain.Extraction, error) {
	if err := ctx.Err(); err != nil {
		return domain.Extraction{}, err
	}
	text, err := e.text.Text(data)
	if err != nil {
		return domain.Extraction{}, fmt.Errorf("pdf text %s: %w", doc.URL, err)
	}
	match := pdfNumberPattern.FindStringSubmatch(text)
	if match == nil {
		return domain.Extraction{}, &domain.ExtractionError{Reason: "1st prize number not found in pdf", Sample: sample(text)}
	}
	return finish(match[1], func() (extraction domain.Extraction, err error) {
		extraction.Snapshot, err = e.raster.RenderPage(data, 0, e.scale)
		return extraction, err
	})
}

// Multi выбирает экстрактор по типу документа.
type Multi map[domain.DocumentKind]domain.Extractor

var _ domain.Extractor = Multi(nil)

func (m Multi) Extract(ctx context.Context, doc domain.Document, data []byte) (domain.Extraction, error) {
	extractor, ok := m[doc.Kind]
	if !ok {
		return domain.Extraction{}, fmt.Errorf("%w: %q", domain.ErrUnsupported, doc.Kind)
	}
	return extractor.Extract(ctx, doc, data)
}

// finish считает суффиксы и готовит снимок.
func finish(number string, render func() (domain.Extraction, error)) (domain.Extraction, error) {
	digits, err := domain.DigitsFrom(number)
	if err != nil {
		return domain.Extraction{}, &domain.ExtractionError{Reason: err.Error()}
	}
	extraction, err := render()
	if err != nil {
		return domain.Extraction{}, fmt.Errorf("snapshot: %w", err)
	}
	extraction.Number = number
	extraction.Digits = digits
	return extraction, nil
}

func sample(text string) string {
	runes := []rune(text)
	if len(runes) > sampleLength {
		runes = runes[:sampleLength]
	}
	return string(runes)
}
