package crawler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/JakeFAU/floorplan-crawler/internal/metrics"
)

// PageFetcher retrieves gallery pages as raw HTML.
type PageFetcher struct {
	fetcher Fetcher
	logger  *zap.Logger
}

// NewPageFetcher wraps the shared Fetcher for HTML pages.
func NewPageFetcher(fetcher Fetcher, logger *zap.Logger) *PageFetcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PageFetcher{fetcher: fetcher, logger: logger}
}

// Fetch issues a single GET for url and returns the body. On failure the body
// is nil and the returned *FetchError has already been logged.
func (p *PageFetcher) Fetch(ctx context.Context, runID, url string) ([]byte, error) {
	p.logger.Info("fetching html data", zap.String("run_id", runID), zap.String("url", url))
	resp, err := fetchOnce(ctx, p.fetcher, FetchRequest{
		RunID:  runID,
		URL:    url,
		Kind:   FetchKindPage,
		Accept: "text/html,application/xhtml+xml",
	})
	if err != nil {
		p.logger.Error("error fetching html data", zap.String("run_id", runID), zap.Error(err))
		return nil, err
	}
	return resp.Body, nil
}

// APIFetcher retrieves project documents from the JSON API.
type APIFetcher struct {
	fetcher Fetcher
	logger  *zap.Logger
}

// NewAPIFetcher wraps the shared Fetcher for JSON documents.
func NewAPIFetcher(fetcher Fetcher, logger *zap.Logger) *APIFetcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &APIFetcher{fetcher: fetcher, logger: logger}
}

// Fetch issues a single GET for url and decodes the body as a JSON object.
// On failure the document is nil and the returned *FetchError has already
// been logged.
func (a *APIFetcher) Fetch(ctx context.Context, runID, url string) (map[string]any, error) {
	a.logger.Info("fetching json data", zap.String("run_id", runID), zap.String("url", url))
	resp, err := fetchOnce(ctx, a.fetcher, FetchRequest{
		RunID:  runID,
		URL:    url,
		Kind:   FetchKindAPI,
		Accept: "application/json",
	})
	if err != nil {
		a.logger.Error("error fetching json data", zap.String("run_id", runID), zap.Error(err))
		return nil, err
	}
	var doc map[string]any
	if err := json.Unmarshal(resp.Body, &doc); err != nil {
		fetchErr := &FetchError{Kind: FetchKindAPI, URL: url, Err: fmt.Errorf("decode json: %w", err)}
		a.logger.Error("error fetching json data", zap.String("run_id", runID), zap.Error(fetchErr))
		return nil, fetchErr
	}
	if doc == nil {
		fetchErr := &FetchError{Kind: FetchKindAPI, URL: url, Err: errors.New("response is not a json object")}
		a.logger.Error("error fetching json data", zap.String("run_id", runID), zap.Error(fetchErr))
		return nil, fetchErr
	}
	return doc, nil
}

func fetchOnce(ctx context.Context, fetcher Fetcher, request FetchRequest) (FetchResponse, error) {
	if fetcher == nil {
		return FetchResponse{}, &FetchError{Kind: request.Kind, URL: request.URL, Err: errors.New("no fetcher configured")}
	}
	start := time.Now()
	resp, err := fetcher.Fetch(ctx, request)
	if err != nil {
		metrics.ObserveFetch(string(request.Kind), "error", time.Since(start))
		return FetchResponse{}, &FetchError{Kind: request.Kind, URL: request.URL, Err: err}
	}
	metrics.ObserveFetch(string(request.Kind), "ok", time.Since(start))
	metrics.ObserveBytes(request.URL, len(resp.Body))
	return resp, nil
}
