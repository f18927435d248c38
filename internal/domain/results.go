package domain

import (
	"fmt"
	"image"
)

// DocumentKind определяет формат документа с результатом.
type DocumentKind string

const (
	// KindImage обозначает картинку с таблицей результатов.
	KindImage DocumentKind = "image"
	// KindPDF обозначает PDF с результатами.
	KindPDF DocumentKind = "pdf"
)

// Document указывает, где лежит результат слота.
type Document struct {
	Slot Slot
	URL  string
	Kind DocumentKind
}

// Digits хранит последние 1, 2 и 3 цифры выигрышного номера.
type Digits struct {
	L1 string
	L2 string
	L3 string
}

// DigitsFrom выделяет суффиксы без дополнения нулями.
func DigitsFrom(number string) (Digits, error) {
	if len(number) < 3 {
		return Digits{}, fmt.Errorf("number %q is too short", number)
	}
	for _, r := range number {
		if r < '0' || r > '9' {
			return Digits{}, fmt.Errorf("number %q contains non-digit characters", number)
		}
	}
	return Digits{
		L1: number[len(number)-1:],
		L2: number[len(number)-2:],
		L3: number[len(number)-3:],
	}, nil
}

// Suffix возвращает суффикс указанной длины.
func (d Digits) Suffix(length int) string {
	switch length {
	case 1:
		return d.L1
	case 2:
		return d.L2
	case 3:
		return d.L3
	}
	return ""
}

// Extraction описывает результат распознавания документа.
type Extraction struct {
	Number   string
	Digits   Digits
	Snapshot image.Image
}

// DigitEndpoint связывает длину суффикса с эндпоинтом API.
type DigitEndpoint struct {
	Length int
	Path   string
}

// DigitEndpoints перечислены в порядке публикации.
var DigitEndpoints = []DigitEndpoint{
	{Length: 1, Path: "last-digit"},
	{Length: 2, Path: "last-two-digit"},
	{Length: 3, Path: "last-three-digit"},
}

// Snapshot содержит сжатую картинку результата для эндпоинта fax.
type Snapshot struct {
	Type string
	Date string
	Slot Slot
	JPEG []byte
}

// LuckyRecord хранит «счастливое число» категории на дату.
type LuckyRecord struct {
	Type   string `json:"type"`
	Date   string `json:"date"`
	Lucky  string `json:"lucky"`
	Active bool   `json:"active"`
}
