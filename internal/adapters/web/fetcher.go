package web

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"lottery-relay/internal/domain"
	"lottery-relay/internal/infra/httpclient"
	"lottery-relay/internal/infra/metrics"
)

const maxBodySize = 32 << 20

// Fetcher скачивает страницы и документы издателей.
type Fetcher struct {
	client    *http.Client
	timeout   time.Duration
	operation string
	limit     int64
}

var _ domain.DocumentFetcher = (*Fetcher)(nil)

// NewFetcher создаёт загрузчик с таймаутом на одну попытку запроса.
func NewFetcher(client *http.Client, timeout time.Duration, operation string) *Fetcher {
	if client == nil {
		client = httpclient.New()
	}
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Fetcher{client: client, timeout: timeout, operation: operation, limit: maxBodySize}
}

// Fetch возвращает тело ответа. Не-2xx ответ и слишком большое тело считаются сетевой ошибкой.
func (f *Fetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	ctx = httpclient.AttemptTimeout(ctx, f.timeout)

	start := time.Now()
	data, err := f.fetch(ctx, url)
	metrics.ObserveNetworkRequest("publisher", f.operation, hostOf(url), start, err)
	return data, err
}

func (f *Fetcher) fetch(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: get %s: %v", domain.ErrNetwork, url, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: get %s: status %d", domain.ErrNetwork, url, resp.StatusCode)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, f.limit+1))
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %v", domain.ErrNetwork, url, err)
	}
	if int64(len(data)) > f.limit {
		return nil, fmt.Errorf("%w: get %s: body exceeds %d bytes", domain.ErrNetwork, url, f.limit)
	}
	return data, nil
}

func hostOf(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return "unknown"
	}
	return u.Host
}
