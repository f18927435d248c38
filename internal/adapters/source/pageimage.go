package source

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/rs/zerolog"

	"lottery-relay/internal/domain"
)

// ImageRule описывает, какой <img> на странице содержит результат.
type ImageRule struct {
	// Attrs задаёт точные значения атрибутов, например fetchpriority=high.
	Attrs map[string]string
	// Class должен совпасть хотя бы с одним классом.
	Class *regexp.Regexp
}

// Matches проверяет тег по правилу.
func (r ImageRule) Matches(sel *goquery.Selection) bool {
	for name, want := range r.Attrs {
		got, ok := sel.Attr(name)
		if !ok || got != want {
			return false
		}
	}
	if r.Class == nil {
		return true
	}
	class, _ := sel.Attr("class")
	for _, token := range strings.Fields(class) {
		if r.Class.MatchString(token) {
			return true
		}
	}
	return false
}

// PageImage находит картинку результата на отдельной странице каждого слота.
type PageImage struct {
	fetcher domain.DocumentFetcher
	pages   map[domain.Slot]string
	rule    ImageRule
	log     zerolog.Logger
}

var _ domain.SourceLocator = (*PageImage)(nil)

// NewPageImage создаёт локатор по страницам слотов.
func NewPageImage(fetcher domain.DocumentFetcher, pages map[domain.Slot]string, rule ImageRule, logger zerolog.Logger) *PageImage {
	copied := make(map[domain.Slot]string, len(pages))
	for slot, page := range pages {
		copied[slot] = page
	}
	return &PageImage{fetcher: fetcher, pages: copied, rule: rule, log: logger}
}

// Locate возвращает URL картинки. Картинка за другой месяц даёт ErrStaleContent.
func (p *PageImage) Locate(ctx context.Context, slot domain.Slot, local time.Time) (domain.Document, error) {
	page, ok := p.pages[slot]
	if !ok {
		return domain.Document{}, fmt.Errorf("no page configured for slot %s", slot)
	}
	html, err := p.fetcher.Fetch(ctx, page)
	if err != nil {
		return domain.Document{}, err
	}
	src, err := p.findImage(html)
	if err != nil {
		return domain.Document{}, fmt.Errorf("slot %s: %w", slot, err)
	}
	resolved, err := resolve(page, src)
	if err != nil {
		return domain.Document{}, fmt.Errorf("%w: image src %q: %v", domain.ErrParse, src, err)
	}
	datePath := local.Format("/2006/01/")
	if !strings.Contains(resolved, datePath) {
		p.log.Info().Str("slot", string(slot)).Str("url", resolved).Str("expected", datePath).Msg("source: картинка за другой месяц")
		return domain.Document{}, fmt.Errorf("%w: %s does not contain %s", domain.ErrStaleContent, resolved, datePath)
	}
	return domain.Document{Slot: slot, URL: resolved, Kind: domain.KindImage}, nil
}

func (p *PageImage) findImage(html []byte) (string, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(html))
	if err != nil {
		return "", fmt.Errorf("%w: parse page: %v", domain.ErrParse, err)
	}
	var src string
	doc.Find("img").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		if !p.rule.Matches(sel) {
			return true
		}
		src = strings.TrimSpace(sel.AttrOr("src", ""))
		return false
	})
	if src == "" {
		return "", domain.ErrNotPublished
	}
	return src, nil
}

func resolve(base, ref string) (string, error) {
	baseURL, err := url.Parse(base)
	if err != nil {
		return "", err
	}
	refURL, err := url.Parse(ref)
	if err != nil {
		return "", err
	}
	return baseURL.ResolveReference(refURL).String(), nil
}
