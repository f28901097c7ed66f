package collyfetcher

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gocolly/colly/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JakeFAU/floorplan-crawler/internal/crawler"
)

func TestNewAppliesConfig(t *testing.T) {
	t.Parallel()

	f := New(Config{UserAgent: "coverage-agent", RespectRobots: true, Timeout: time.Second}, nil)
	collector := f.buildCollector(crawler.FetchRequest{URL: "https://example.com"}, time.Unix(0, 0), &crawler.FetchResponse{}, new(error))
	if collector.UserAgent != "coverage-agent" {
		t.Fatalf("expected user agent override, got %q", collector.UserAgent)
	}
	if collector.IgnoreRobotsTxt {
		t.Fatal("expected robots txt to be honored")
	}
	if !collector.AllowURLRevisit {
		t.Fatal("expected url revisits to be allowed")
	}
}

func TestConfigureCollectorHooks(t *testing.T) {
	t.Parallel()

	f := New(Config{}, nil)
	req := crawler.FetchRequest{URL: "https://example.com", Accept: "application/json"}
	start := time.Unix(0, 0)
	var result crawler.FetchResponse
	var fetchErr error

	hooks := &stubHooks{}
	f.configureCollectorHooks(hooks, req, start, &result, &fetchErr)
	if hooks.onRequest == nil || hooks.onResponse == nil || hooks.onError == nil {
		t.Fatal("expected hooks to be registered")
	}

	collyReq := &colly.Request{Headers: &http.Header{}}
	hooks.onRequest(collyReq)
	if collyReq.Headers.Get("Accept") != "application/json" {
		t.Fatalf("expected accept header, got %+v", collyReq.Headers)
	}

	hooks.onResponse(&colly.Response{
		StatusCode: http.StatusOK,
		Body:       []byte("body"),
		Request: &colly.Request{
			URL: mustParseURL(t, "https://example.com"),
		},
	})
	if result.StatusCode != http.StatusOK || string(result.Body) != "body" {
		t.Fatalf("unexpected result: %+v", result)
	}

	hooks.onError(&colly.Response{StatusCode: http.StatusNotFound}, errors.New("Not Found"))
	if fetchErr == nil || fetchErr.Error() != "status 404: Not Found" {
		t.Fatalf("expected fetchErr set, got %v", fetchErr)
	}
}

func TestSetAcceptHandlesEmpty(t *testing.T) {
	t.Parallel()

	collyReq := &colly.Request{Headers: &http.Header{}}
	setAccept(crawler.FetchRequest{}, collyReq)
	if len(*collyReq.Headers) != 0 {
		t.Fatalf("expected no headers to be set, got %+v", *collyReq.Headers)
	}
}

func TestFetchAgainstServer(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/ok":
			w.Header().Set("Content-Type", "text/plain")
			_, _ = w.Write([]byte(r.Header.Get("Accept")))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)

	f := New(Config{Timeout: 2 * time.Second}, nil)
	ctx := context.Background()

	// The same URL twice proves revisits are allowed.
	for range 2 {
		resp, err := f.Fetch(ctx, crawler.FetchRequest{URL: srv.URL + "/ok", Accept: "text/html"})
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "text/html", string(resp.Body))
	}

	_, err := f.Fetch(ctx, crawler.FetchRequest{URL: srv.URL + "/missing"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "404")
}

func TestFetchMalformedURL(t *testing.T) {
	t.Parallel()

	f := New(Config{}, nil)
	_, err := f.Fetch(context.Background(), crawler.FetchRequest{URL: "http://%zz"})
	require.Error(t, err)
}

func TestFetchCanceledContext(t *testing.T) {
	t.Parallel()

	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		<-release
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(func() {
		close(release)
		srv.Close()
	})

	f := New(Config{Timeout: 5 * time.Second}, nil)
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := f.Fetch(ctx, crawler.FetchRequest{URL: srv.URL})
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestFetchWaitsOnLimiter(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(srv.Close)

	limiter := &countingWaiter{}
	f := New(Config{}, limiter)
	_, err := f.Fetch(context.Background(), crawler.FetchRequest{URL: srv.URL})
	require.NoError(t, err)
	assert.Equal(t, int32(1), limiter.calls.Load())

	limiter.err = errors.New("limited")
	_, err = f.Fetch(context.Background(), crawler.FetchRequest{URL: srv.URL})
	require.ErrorContains(t, err, "limited")
}

func mustParseURL(t *testing.T, raw string) *url.URL {
	t.Helper()
	u, err := url.Parse(raw)
	if err != nil {
		t.Fatalf("failed to parse url %q: %v", raw, err)
	}
	return u
}

type countingWaiter struct {
	calls atomic.Int32
	err   error
}

func (c *countingWaiter) Wait(context.Context, string) error {
	c.calls.Add(1)
	return c.err
}

type stubHooks struct {
	onRequest  colly.RequestCallback
	onResponse colly.ResponseCallback
	onError    colly.ErrorCallback
}

func (s *stubHooks) OnRequest(cb colly.RequestCallback) {
	s.onRequest = cb
}

func (s *stubHooks) OnResponse(cb colly.ResponseCallback) {
	s.onResponse = cb
}

func (s *stubHooks) OnError(cb colly.ErrorCallback) {
	s.onError = cb
}
