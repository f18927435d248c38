package source

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/rs/zerolog"

	"lottery-relay/internal/domain"
)

var parseHTML = goquery.NewDocumentFromReader

// Listing берёт ссылки на PDF с общей страницы: N-я ссылка принадлежит N-му слоту.
type Listing struct {
	fetcher  domain.DocumentFetcher
	url      string
	selector string
	slots    []domain.Slot
	log      zerolog.Logger

	once  sync.Once
	links []string
	err   error
}

var _ domain.SourceLocator = (*Listing)(nil)

// NewListing создаёт локатор. Страница скачивается один раз за запуск.
func NewListing(fetcher domain.DocumentFetcher, listingURL, selector string, slots []domain.Slot, logger zerolog.Logger) *Listing {
	return &Listing{
		fetcher:  fetcher,
		url:      listingURL,
		selector: selector,
		slots:    append([]domain.Slot(nil), slots...),
		log:      logger,
	}
}

// Locate возвращает ссылку по позиции слота. Сбой загрузки или разбора страницы превращается в ErrListingUnavailable.
func (l *Listing) Locate(ctx context.Context, slot domain.Slot, _ time.Time) (domain.Document, error) {
	index := -1
	for i, s := range l.slots {
		if s == slot {
			index = i
			break
		}
	}
	if index < 0 {
		return domain.Document{}, fmt.Errorf("slot %s is not declared for listing", slot)
	}
	links, err := l.load(ctx)
	if err != nil {
		return domain.Document{}, err
	}
	if index >= len(links) {
		return domain.Document{}, fmt.Errorf("%w: listing has %d links, slot %s is #%d", domain.ErrNotPublished, len(links), slot, index+1)
	}
	return domain.Document{Slot: slot, URL: links[index], Kind: domain.KindPDF}, nil
}

func (l *Listing) load(ctx context.Context) ([]string, error) {
	l.once.Do(func() {
		html, err := l.fetcher.Fetch(ctx, l.url)
		if err != nil {
			l.err = fmt.Errorf("%w: %v", domain.ErrListingUnavailable, err)
			return
		}
		links, err := l.parse(bytes.NewReader(html))
		if err != nil {
			l.err = fmt.Errorf("%w: %v", domain.ErrListingUnavailable, err)
			return
		}
		l.links = links
		l.log.Debug().Int("links", len(l.links)).Str("url", l.url).Msg("source: ссылки со страницы списка")
	})
	return l.links, l.err
}

func (l *Listing) parse(html io.Reader) ([]string, error) {
	doc, err := parseHTML(html)
	if err != nil {
		return nil, fmt.Errorf("%w: parse listing: %v", domain.ErrParse, err)
	}
	var links []string
	doc.Find(l.selector).Each(func(_ int, sel *goquery.Selection) {
		href := strings.TrimSpace(sel.AttrOr("href", ""))
		if href == "" {
			return
		}
		resolved, err := resolve(l.url, href)
		if err != nil {
			return
		}
		links = append(links, resolved)
	})
	return links, nil
}
