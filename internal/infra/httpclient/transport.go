package httpclient

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	"golang.org/x/time/rate"
)

// DefaultUserAgent похож на обычный браузер: некоторые сайты отдают заглушку ботам.
const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0 Safari/537.36"

var retryableStatuses = map[int]struct{}{
	http.StatusTooManyRequests:     {},
	http.StatusInternalServerError: {},
	http.StatusBadGateway:          {},
	http.StatusServiceUnavailable:  {},
	http.StatusGatewayTimeout:      {},
}

// Transport повторяет идемпотентные запросы при временных ошибках.
type Transport struct {
	base            http.RoundTripper
	userAgent       string
	maxRetries      int
	initialInterval time.Duration
	limiter         *rate.Limiter
}

// Option настраивает Transport.
type Option func(*Transport)

// WithBase задаёт нижележащий транспорт.
func WithBase(base http.RoundTripper) Option {
	return func(t *Transport) {
		if base != nil {
			t.base = base
		}
	}
}

// WithUserAgent задаёт заголовок User-Agent для запросов без него.
func WithUserAgent(ua string) Option {
	return func(t *Transport) {
		t.userAgent = ua
	}
}

// WithRetries задаёт число повторов и первую паузу.
func WithRetries(maxRetries int, initial time.Duration) Option {
	return func(t *Transport) {
		if maxRetries >= 0 {
			t.maxRetries = maxRetries
		}
		if initial > 0 {
			t.initialInterval = initial
		}
	}
}

// WithLimiter ограничивает частоту запросов.
func WithLimiter(l *rate.Limiter) Option {
	return func(t *Transport) {
		t.limiter = l
	}
}

// NewTransport создаёт транспорт: 3 повтора, экспоненциальная пауза от 1с.
func NewTransport(opts ...Option) *Transport {
	t := &Transport{
		base:            http.DefaultTransport,
		userAgent:       DefaultUserAgent,
		maxRetries:      3,
		initialInterval: time.Second,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// New возвращает http.Client поверх Transport. Таймауты задаются через AttemptTimeout.
func New(opts ...Option) *http.Client {
	return &http.Client{Transport: NewTransport(opts...)}
}

type attemptTimeoutKey struct{}

// AttemptTimeout задаёт таймаут одной попытки запроса вместе с чтением тела.
// Паузы между повторами в него не входят, контекст ctx остаётся только для отмены.
func AttemptTimeout(ctx context.Context, d time.Duration) context.Context {
	return context.WithValue(ctx, attemptTimeoutKey{}, d)
}

func attemptTimeoutFrom(ctx context.Context) (time.Duration, bool) {
	d, ok := ctx.Value(attemptTimeoutKey{}).(time.Duration)
	return d, ok && d > 0
}

// RoundTrip реализует http.RoundTripper.
func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	if t.userAgent != "" && req.Header.Get("User-Agent") == "" {
		req = req.Clone(req.Context())
		req.Header.Set("User-Agent", t.userAgent)
	}
	if t.limiter != nil {
		if err := t.limiter.Wait(req.Context()); err != nil {
			return nil, err
		}
	}
	if t.maxRetries == 0 || !idempotent(req.Method) {
		return t.attempt(req)
	}

	var last *http.Response
	operation := func() error {
		if last != nil {
			drain(last)
			last = nil
		}
		resp, err := t.attempt(req)
		if err != nil {
			if req.Context().Err() != nil {
				return backoff.Permanent(err)
			}
			return err
		}
		last = resp
		if _, ok := retryableStatuses[resp.StatusCode]; ok {
			return fmt.Errorf("retryable status %d", resp.StatusCode)
		}
		return nil
	}
	err := backoff.Retry(operation, backoff.WithContext(backoff.WithMaxRetries(t.newBackOff(), uint64(t.maxRetries)), req.Context()))
	if last != nil {
		return last, nil
	}
	return nil, err
}

// attempt выполняет одну попытку. Дедлайн попытки снимается при закрытии тела ответа.
func (t *Transport) attempt(req *http.Request) (*http.Response, error) {
	timeout, ok := attemptTimeoutFrom(req.Context())
	if !ok {
		return t.base.RoundTrip(req)
	}
	ctx, cancel := context.WithTimeout(req.Context(), timeout)
	resp, err := t.base.RoundTrip(req.WithContext(ctx))
	if err != nil {
		cancel()
		return nil, err
	}
	resp.Body = &cancelBody{ReadCloser: resp.Body, cancel: cancel}
	return resp, nil
}

type cancelBody struct {
	io.ReadCloser
	cancel context.CancelFunc
}

func (b *cancelBody) Close() error {
	err := b.ReadCloser.Close()
	b.cancel()
	return err
}

func (t *Transport) newBackOff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = t.initialInterval
	b.Multiplier = 2
	b.RandomizationFactor = 0
	b.MaxInterval = 30 * time.Second
	b.MaxElapsedTime = 0
	return b
}

func idempotent(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return true
	}
	return false
}

func drain(resp *http.Response) {
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
	_ = resp.Body.Close()
}
