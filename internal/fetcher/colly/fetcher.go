// Package collyfetcher implements crawler.Fetcher using gocolly.
package collyfetcher

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gocolly/colly/v2"

	"github.com/JakeFAU/floorplan-crawler/internal/crawler"
)

const defaultTimeout = 15 * time.Second

// Config controls collector behavior.
type Config struct {
	UserAgent     string
	RespectRobots bool
	Timeout       time.Duration
	MaxBodySize   int
}

// Waiter paces requests before they leave the process.
type Waiter interface {
	Wait(ctx context.Context, rawURL string) error
}

// Fetcher implements crawler.Fetcher using the Colly collector. Every fetch
// clones one base collector, so all requests share a single pooled transport.
type Fetcher struct {
	cfg           Config
	limiter       Waiter
	baseCollector *colly.Collector
}

type collectorHooks interface {
	OnRequest(colly.RequestCallback)
	OnResponse(colly.ResponseCallback)
	OnError(colly.ErrorCallback)
}

// New builds a Fetcher. limiter may be nil.
func New(cfg Config, limiter Waiter) *Fetcher {
	// Clones share the visited-URL store; seeds may legitimately repeat.
	c := colly.NewCollector(colly.Async(false), colly.AllowURLRevisit())
	if cfg.UserAgent != "" {
		c.UserAgent = cfg.UserAgent
	}
	if cfg.MaxBodySize > 0 {
		c.MaxBodySize = cfg.MaxBodySize
	}
	c.IgnoreRobotsTxt = !cfg.RespectRobots

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	// Clones share the backend client, so transport and timeout are set once here.
	c.WithTransport(newHTTPTransport())
	c.SetRequestTimeout(timeout)

	return &Fetcher{
		cfg:           cfg,
		limiter:       limiter,
		baseCollector: c,
	}
}

// Fetch executes a single HTTP GET using Colly. Non-2xx statuses are errors.
func (f *Fetcher) Fetch(ctx context.Context, request crawler.FetchRequest) (crawler.FetchResponse, error) {
	if f.limiter != nil {
		if err := f.limiter.Wait(ctx, request.URL); err != nil {
			return crawler.FetchResponse{}, err
		}
	}

	var (
		result   crawler.FetchResponse
		fetchErr error
	)
	start := time.Now()
	collector := f.buildCollector(request, start, &result, &fetchErr)

	if err := f.runCollector(ctx, collector, request.URL, &fetchErr); err != nil {
		return crawler.FetchResponse{}, err
	}
	return result, nil
}

func (f *Fetcher) buildCollector(
	request crawler.FetchRequest,
	start time.Time,
	result *crawler.FetchResponse,
	fetchErr *error,
) *colly.Collector {
	collector := f.baseCollector.Clone()
	f.configureCollectorHooks(collector, request, start, result, fetchErr)
	return collector
}

func (f *Fetcher) configureCollectorHooks(
	hooks collectorHooks,
	request crawler.FetchRequest,
	start time.Time,
	result *crawler.FetchResponse,
	fetchErr *error,
) {
	hooks.OnRequest(func(r *colly.Request) {
		setAccept(request, r)
	})

	hooks.OnResponse(func(r *colly.Response) {
		*result = crawler.FetchResponse{
			URL:        r.Request.URL.String(),
			StatusCode: r.StatusCode,
			Body:       append([]byte(nil), r.Body...),
			Duration:   time.Since(start),
		}
	})

	hooks.OnError(func(r *colly.Response, err error) {
		if r != nil && r.StatusCode != 0 {
			*fetchErr = fmt.Errorf("status %d: %w", r.StatusCode, err)
			return
		}
		*fetchErr = err
	})
}

func (f *Fetcher) runCollector(ctx context.Context, collector *colly.Collector, url string, fetchErr *error) error {
	done := make(chan error, 1)
	go func() {
		done <- collector.Visit(url)
	}()

	select {
	case <-ctx.Done():
		return fmt.Errorf("colly fetch canceled: %w", ctx.Err())
	case err := <-done:
		if *fetchErr != nil {
			return fmt.Errorf("colly response failed: %w", *fetchErr)
		}
		if err != nil {
			return fmt.Errorf("colly visit failed: %w", err)
		}
		return nil
	}
}

func setAccept(request crawler.FetchRequest, r *colly.Request) {
	if request.Accept == "" {
		return
	}
	r.Headers.Set("Accept", request.Accept)
}

func newHTTPTransport() *http.Transport {
	return &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSHandshakeTimeout:   15 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		MaxIdleConns:          100,
		MaxIdleConnsPerHost:   16,
		IdleConnTimeout:       90 * time.Second,
	}
}
