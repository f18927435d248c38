package web

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"lottery-relay/internal/domain"
	"lottery-relay/internal/infra/httpclient"
)

func TestFetchReturnsBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("<html></html>"))
	}))
	defer srv.Close()

	data, err := NewFetcher(srv.Client(), time.Second, "page").Fetch(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if string(data) != "<html></html>" {
		t.Fatalf("неожиданное тело: %q", data)
	}
}

func TestFetchNon2xxIsNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	_, err := NewFetcher(srv.Client(), time.Second, "page").Fetch(context.Background(), srv.URL)
	if !errors.Is(err, domain.ErrNetwork) {
		t.Fatalf("ожидали ErrNetwork, получили %v", err)
	}
}

func TestFetchRejectsOversizedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(strings.Repeat("x", 17)))
	}))
	defer srv.Close()

	f := NewFetcher(srv.Client(), time.Second, "document")
	f.limit = 16
	data, err := f.Fetch(context.Background(), srv.URL)
	if !errors.Is(err, domain.ErrNetwork) {
		t.Fatalf("ожидали ErrNetwork для обрезанного тела, получили %v", err)
	}
	if data != nil {
		t.Fatalf("обрезанный документ не должен возвращаться: %d байт", len(data))
	}

	f.limit = 17
	data, err = f.Fetch(context.Background(), srv.URL)
	if err != nil || len(data) != 17 {
		t.Fatalf("тело ровно по лимиту должно читаться: %d байт, %v", len(data), err)
	}
}

func TestFetchTimeoutAppliesPerAttempt(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := atomic.AddInt32(&calls, 1)
		time.Sleep(60 * time.Millisecond)
		if n < 4 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte("pdf"))
	}))
	defer srv.Close()

	client := httpclient.New(httpclient.WithRetries(3, 10*time.Millisecond))
	data, err := NewFetcher(client, 150*time.Millisecond, "document").Fetch(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("все попытки укладываются в свой таймаут, ошибка: %v", err)
	}
	if got := atomic.LoadInt32(&calls); string(data) != "pdf" || got != 4 {
		t.Fatalf("ожидали 4 попытки и тело pdf, получили %d и %q", got, data)
	}
}

func TestHostOf(t *testing.T) {
	cases := map[string]string{
		"https://pxwell.co/today-result/":                                "pxwell.co",
		"http://127.0.0.1:8080?x=1":                                      "127.0.0.1:8080",
		"https://lotterysambad.one/wp-content/uploads/2026/02/x.jpg#top": "lotterysambad.one",
		"lotterysambad.one/nagaland-state-1-pm":                          "unknown",
		"://bad":                                                         "unknown",
	}
	for input, want := range cases {
		if got := hostOf(input); got != want {
			t.Fatalf("%s: ожидали %s, получили %s", input, want, got)
		}
	}
}
