package app

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/JakeFAU/floorplan-crawler/internal/crawler"
	"github.com/JakeFAU/floorplan-crawler/internal/metrics"
)

// ErrCrawlInProgress is returned when a crawl is requested while another one runs.
var ErrCrawlInProgress = errors.New("crawl already in progress")

// Runner executes one crawl over a seed list.
type Runner interface {
	Run(ctx context.Context, seeds []string, maxConcurrent int) crawler.RunSummary
}

// Exporter ships a finished CSV somewhere durable.
type Exporter interface {
	ExportFile(ctx context.Context, runID, localPath string) (string, error)
}

// ServiceConfig fixes what every crawl processes and where the result lands.
type ServiceConfig struct {
	Seeds         []string
	MaxConcurrent int
	CSVPath       string
}

// Service runs at most one crawl at a time and exports its result.
type Service struct {
	runner   Runner
	exporter Exporter
	cfg      ServiceConfig
	logger   *zap.Logger

	mu      sync.Mutex
	running atomic.Bool
	last    atomic.Pointer[crawler.RunSummary]
}

// NewService constructs a Service. exporter may be nil.
func NewService(runner Runner, exporter Exporter, cfg ServiceConfig, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{runner: runner, exporter: exporter, cfg: cfg, logger: logger}
}

// Crawl runs the configured seeds to completion. It returns
// ErrCrawlInProgress without waiting if another crawl holds the service.
func (s *Service) Crawl(ctx context.Context) (crawler.RunSummary, error) {
	if !s.mu.TryLock() {
		metrics.ObserveRun("rejected")
		return crawler.RunSummary{}, ErrCrawlInProgress
	}
	defer s.mu.Unlock()
	s.running.Store(true)
	defer s.running.Store(false)

	summary := s.runner.Run(ctx, s.cfg.Seeds, s.cfg.MaxConcurrent)
	s.last.Store(&summary)

	if summary.Written() == 0 {
		metrics.ObserveRun("empty")
		s.logger.Warn("crawl wrote no rows", zap.String("run_id", summary.Run.ID))
		return summary, nil
	}
	metrics.ObserveRun("completed")
	s.export(ctx, summary)
	return summary, nil
}

func (s *Service) export(ctx context.Context, summary crawler.RunSummary) {
	if s.exporter == nil {
		return
	}
	uri, err := s.exporter.ExportFile(ctx, summary.Run.ID, s.cfg.CSVPath)
	if err != nil {
		s.logger.Error("csv export failed", zap.String("run_id", summary.Run.ID), zap.Error(err))
		return
	}
	s.logger.Info("csv exported", zap.String("run_id", summary.Run.ID), zap.String("uri", uri))
}

// Running reports whether a crawl is in flight.
func (s *Service) Running() bool {
	return s.running.Load()
}

// LastRun returns the summary of the most recent finished crawl.
func (s *Service) LastRun() (crawler.RunSummary, bool) {
	summary := s.last.Load()
	if summary == nil {
		return crawler.RunSummary{}, false
	}
	return *summary, true
}

// CSVPath returns the file crawls write to.
func (s *Service) CSVPath() string {
	return s.cfg.CSVPath
}
