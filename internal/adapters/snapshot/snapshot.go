package snapshot

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"

	"lottery-relay/internal/domain"
)

// DefaultQuality задаёт качество JPEG для эндпоинта fax.
const DefaultQuality = 60

// JPEGEncoder кодирует снимки с заданным качеством.
type JPEGEncoder struct {
	Quality int
}

var _ domain.SnapshotEncoder = JPEGEncoder{}

func (e JPEGEncoder) Encode(img image.Image) ([]byte, error) {
	return EncodeJPEG(img, e.Quality)
}

// Decode читает картинку в любом зарегистрированном формате.
func Decode(data []byte) (image.Image, string, error) {
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, "", fmt.Errorf("decode image: %w", err)
	}
	return img, format, nil
}

// EncodeJPEG перекодирует картинку в JPEG. Прозрачные области заливаются белым.
func EncodeJPEG(img image.Image, quality int) ([]byte, error) {
	if img == nil {
		return nil, fmt.Errorf("encode jpeg: nil image")
	}
	if quality < 1 || quality > 100 {
		quality = DefaultQuality
	}
	bounds := img.Bounds()
	canvas := image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	draw.Draw(canvas, canvas.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)
	draw.Draw(canvas, canvas.Bounds(), img, bounds.Min, draw.Over)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, canvas, &jpeg.Options{Quality: quality}); err != nil {
		return nil, fmt.Errorf("encode jpeg: %w", err)
	}
	return buf.Bytes(), nil
}
