package extract

import (
	"bytes"
	"fmt"
	"image"
	"strings"

	"github.com/gen2brain/go-fitz"
	"github.com/ledongthuc/pdf"

	"lottery-relay/internal/domain"
)

// PDFText читает встроенный текст всех страниц PDF.
type PDFText struct{}

var _ domain.PDFTextReader = PDFText{}

// Text склеивает текст страниц подряд. Паника разбора повреждённого файла возвращается как ErrParse.
func (PDFText) Text(data []byte) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			text, err = "", fmt.Errorf("%w: damaged pdf: %v", domain.ErrParse, r)
		}
	}()
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("open pdf: %w", err)
	}
	var sb strings.Builder
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		pageText, err := page.GetPlainText(nil)
		if err != nil {
			return "", fmt.Errorf("pdf page %d: %w", i, err)
		}
		sb.WriteString(pageText)
	}
	return sb.String(), nil
}

// Fitz рендерит страницы PDF через MuPDF.
type Fitz struct{}

var _ domain.Rasterizer = Fitz{}

// RenderPage рендерит страницу (с нуля) с масштабом относительно 72 dpi.
func (Fitz) RenderPage(data []byte, page int, scale float64) (image.Image, error) {
	doc, err := fitz.NewFromMemory(data)
	if err != nil {
		return nil, fmt.Errorf("open pdf for render: %w", err)
	}
	defer doc.Close()
	if page < 0 || page >= doc.NumPage() {
		return nil, fmt.Errorf("pdf has %d pages, page %d requested", doc.NumPage(), page)
	}
	if scale <= 0 {
		scale = 1
	}
	img, err := doc.ImageDPI(page, 72*scale)
	if err != nil {
		return nil, fmt.Errorf("render pdf page %d: %w", page, err)
	}
	return img, nil
}
