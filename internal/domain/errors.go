package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNetwork возвращается при таймауте, обрыве соединения или не-2xx ответе после повторов.
	ErrNetwork = errors.New("network error")

	// ErrParse возвращается, когда разметка страницы не похожа на ожидаемую.
	ErrParse = errors.New("unexpected document structure")

	// ErrStaleContent возвращается, если на странице лежит результат за другой месяц. Слот пропускается.
	ErrStaleContent = errors.New("stale content")

	// ErrNotPublished возвращается, пока документ для слота не выложен. Слот пропускается.
	ErrNotPublished = errors.New("result not published yet")

	// ErrListingUnavailable возвращается, если общую страницу со ссылками не удалось получить. Запуск прерывается.
	ErrListingUnavailable = errors.New("listing page unavailable")

	// ErrLockUnavailable возвращается, если хранилище блокировок не отвечает.
	ErrLockUnavailable = errors.New("run lock unavailable")

	// ErrUnsupported возвращается для формата документа без экстрактора.
	ErrUnsupported = errors.New("unsupported document kind")
)

// ExtractionError описывает неудачное распознавание номера.
type ExtractionError struct {
	Reason string
	Sample string
}

func (e *ExtractionError) Error() string {
	if e.Sample == "" {
		return e.Reason
	}
	return fmt.Sprintf("%s. recognized: %q", e.Reason, e.Sample)
}

// IsSkip сообщает, что слот нужно пропустить без ошибки.
func IsSkip(err error) bool {
	return errors.Is(err, ErrStaleContent) || errors.Is(err, ErrNotPublished)
}
