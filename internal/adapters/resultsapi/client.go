package resultsapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"lottery-relay/internal/domain"
	"lottery-relay/internal/infra/httpclient"
	"lottery-relay/internal/infra/metrics"
)

const (
	defaultReadTimeout   = 10 * time.Second
	defaultUploadTimeout = 15 * time.Second
)

// Client работает с API результатов: состояние дня, цифры, снимки и счастливые числа.
type Client struct {
	baseURL       *url.URL
	namespace     string
	httpClient    *http.Client
	strictStatus  bool
	readTimeout   time.Duration
	uploadTimeout time.Duration
	log           zerolog.Logger
}

var (
	_ domain.DayStateSource  = (*Client)(nil)
	_ domain.ResultPublisher = (*Client)(nil)
	_ domain.LuckyStore      = (*Client)(nil)
)

type Option func(*Client)

func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithNamespace задаёт раздел API для цифр (dear, singapore).
func WithNamespace(namespace string) Option {
	return func(c *Client) {
		c.namespace = strings.Trim(namespace, "/")
	}
}

// WithStrictStatus включает проверку статуса ответа при публикации.
func WithStrictStatus(strict bool) Option {
	return func(c *Client) {
		c.strictStatus = strict
	}
}

func WithTimeouts(read, upload time.Duration) Option {
	return func(c *Client) {
		if read > 0 {
			c.readTimeout = read
		}
		if upload > 0 {
			c.uploadTimeout = upload
		}
	}
}

func WithLogger(logger zerolog.Logger) Option {
	return func(c *Client) {
		c.log = logger
	}
}

func New(baseURL string, opts ...Option) (*Client, error) {
	if baseURL == "" {
		return nil, fmt.Errorf("baseURL is required")
	}
	parsed, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if parsed.Scheme == "" {
		parsed.Scheme = "https"
	}
	parsed.Path = strings.TrimRight(parsed.Path, "/")
	client := &Client{
		baseURL:       parsed,
		httpClient:    httpclient.New(),
		readTimeout:   defaultReadTimeout,
		uploadTimeout: defaultUploadTimeout,
		log:           zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

// FetchDay возвращает запись за дату. 404 и отсутствие даты в списке дают пустую запись.
func (c *Client) FetchDay(ctx context.Context, date string) (domain.DayRecord, error) {
	if c.namespace == "" {
		return domain.DayRecord{}, errors.New("results api: namespace is not set")
	}
	ctx = httpclient.AttemptTimeout(ctx, c.readTimeout)

	query := url.Values{"date": {date}}
	req, err := c.newRequest(ctx, http.MethodGet, c.endpoint(c.namespace, "last-three-digit"), query, nil, "")
	if err != nil {
		return domain.DayRecord{}, err
	}
	start := time.Now()
	rec, err := c.fetchDay(req, date)
	metrics.ObserveNetworkRequest("results_api", "fetch_day", c.namespace, start, err)
	return rec, err
}

func (c *Client) fetchDay(req *http.Request, date string) (domain.DayRecord, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return domain.DayRecord{}, fmt.Errorf("%w: results api request failed: %v", domain.ErrNetwork, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusNotFound {
		return domain.EmptyDay(date), nil
	}
	if err := checkStatus(resp); err != nil {
		return domain.DayRecord{}, err
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return domain.DayRecord{}, fmt.Errorf("%w: read response: %v", domain.ErrNetwork, err)
	}
	return decodeDay(data, date)
}

// decodeDay принимает как один объект, так и список записей.
func decodeDay(data []byte, date string) (domain.DayRecord, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return domain.DayRecord{}, fmt.Errorf("%w: empty response", domain.ErrParse)
	}
	switch trimmed[0] {
	case '[':
		var list []domain.DayRecord
		if err := json.Unmarshal(trimmed, &list); err != nil {
			return domain.DayRecord{}, fmt.Errorf("%w: decode list: %v", domain.ErrParse, err)
		}
		for _, rec := range list {
			if rec.Date == date {
				return rec, nil
			}
		}
		return domain.EmptyDay(date), nil
	case '{':
		var rec domain.DayRecord
		if err := json.Unmarshal(trimmed, &rec); err != nil {
			return domain.DayRecord{}, fmt.Errorf("%w: decode record: %v", domain.ErrParse, err)
		}
		return rec, nil
	}
	return domain.DayRecord{}, fmt.Errorf("%w: unexpected response %q", domain.ErrParse, truncate(string(trimmed), 64))
}

// PublishDigit делает upsert одного суффикса для одного слота.
func (c *Client) PublishDigit(ctx context.Context, endpoint domain.DigitEndpoint, payload domain.DayRecord) error {
	if c.namespace == "" {
		return errors.New("results api: namespace is not set")
	}
	ctx = httpclient.AttemptTimeout(ctx, c.readTimeout)

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}
	req, err := c.newRequest(ctx, http.MethodPost, c.endpoint(c.namespace, endpoint.Path), nil, bytes.NewReader(body), "application/json")
	if err != nil {
		return err
	}
	start := time.Now()
	err = c.publish(req)
	metrics.ObserveNetworkRequest("results_api", endpoint.Path, c.namespace, start, err)
	return err
}

// PublishSnapshot загружает JPEG результата в эндпоинт fax.
func (c *Client) PublishSnapshot(ctx context.Context, snapshot domain.Snapshot) error {
	ctx = httpclient.AttemptTimeout(ctx, c.uploadTimeout)

	body, contentType, err := snapshotForm(snapshot)
	if err != nil {
		return err
	}
	req, err := c.newRequest(ctx, http.MethodPost, c.endpoint("fax"), nil, body, contentType)
	if err != nil {
		return err
	}
	start := time.Now()
	err = c.publish(req)
	metrics.ObserveNetworkRequest("results_api", "fax", snapshot.Type, start, err)
	return err
}

// publish отправляет запрос. Без strictStatus не-2xx ответ только логируется.
func (c *Client) publish(req *http.Request) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: results api request failed: %v", domain.ErrNetwork, err)
	}
	defer resp.Body.Close()
	statusErr := checkStatus(resp)
	if statusErr == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if c.strictStatus {
		return statusErr
	}
	c.log.Warn().Err(statusErr).Str("url", req.URL.Path).Msg("results api: ответ с ошибкой, статус не проверяется")
	return nil
}

// FindLucky читает счастливое число. Ответ не 200 означает, что записи нет.
func (c *Client) FindLucky(ctx context.Context, lottoType, date string) (domain.LuckyRecord, bool, error) {
	ctx = httpclient.AttemptTimeout(ctx, c.readTimeout)

	query := url.Values{"type": {lottoType}, "date": {date}}
	req, err := c.newRequest(ctx, http.MethodGet, c.endpoint("luckyNumber"), query, nil, "")
	if err != nil {
		return domain.LuckyRecord{}, false, err
	}
	start := time.Now()
	rec, found, err := c.findLucky(req)
	metrics.ObserveNetworkRequest("results_api", "lucky_get", lottoType, start, err)
	return rec, found, err
}

func (c *Client) findLucky(req *http.Request) (domain.LuckyRecord, bool, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return domain.LuckyRecord{}, false, fmt.Errorf("%w: results api request failed: %v", domain.ErrNetwork, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		return domain.LuckyRecord{}, false, nil
	}
	var rec domain.LuckyRecord
	if err := json.NewDecoder(resp.Body).Decode(&rec); err != nil {
		return domain.LuckyRecord{}, false, fmt.Errorf("%w: decode lucky: %v", domain.ErrParse, err)
	}
	return rec, strings.TrimSpace(rec.Lucky) != "", nil
}

// SaveLucky записывает счастливое число. Успехом считаются 200 и 201.
func (c *Client) SaveLucky(ctx context.Context, record domain.LuckyRecord) error {
	ctx = httpclient.AttemptTimeout(ctx, c.readTimeout)

	body, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}
	req, err := c.newRequest(ctx, http.MethodPost, c.endpoint("luckyNumber"), nil, bytes.NewReader(body), "application/json")
	if err != nil {
		return err
	}
	start := time.Now()
	err = c.saveLucky(req)
	metrics.ObserveNetworkRequest("results_api", "lucky_post", record.Type, start, err)
	return err
}

func (c *Client) saveLucky(req *http.Request) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: results api request failed: %v", domain.ErrNetwork, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusOK || resp.StatusCode == http.StatusCreated {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
	return fmt.Errorf("%w: status %d: %s", domain.ErrNetwork, resp.StatusCode, strings.TrimSpace(string(data)))
}

// endpoint собирает путь с завершающим слешем: API его требует.
func (c *Client) endpoint(parts ...string) string {
	return c.baseURL.Path + "/" + strings.Join(parts, "/") + "/"
}

func (c *Client) newRequest(ctx context.Context, method, path string, query url.Values, body io.Reader, contentType string) (*http.Request, error) {
	resolved := *c.baseURL
	resolved.Path = path
	resolved.RawQuery = query.Encode()
	req, err := http.NewRequestWithContext(ctx, method, resolved.String(), body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json")
	return req, nil
}

func checkStatus(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
	return fmt.Errorf("%w: results api error: status=%d message=%s", domain.ErrNetwork, resp.StatusCode, truncate(strings.TrimSpace(string(data)), 200))
}

func truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit]) + "…"
}
