// Package app wires configuration into long-lived services: the crawl
// pipeline, its optional mirrors and the CSV export.
package app

import (
	"context"
	"fmt"

	"cloud.google.com/go/pubsub"
	"cloud.google.com/go/storage"
	"go.uber.org/zap"

	"github.com/JakeFAU/floorplan-crawler/internal/clock/system"
	"github.com/JakeFAU/floorplan-crawler/internal/config"
	"github.com/JakeFAU/floorplan-crawler/internal/crawler"
	"github.com/JakeFAU/floorplan-crawler/internal/extract"
	collyfetcher "github.com/JakeFAU/floorplan-crawler/internal/fetcher/colly"
	"github.com/JakeFAU/floorplan-crawler/internal/id/uuid"
	"github.com/JakeFAU/floorplan-crawler/internal/policy/ratelimit"
	memorypublisher "github.com/JakeFAU/floorplan-crawler/internal/publisher/memory"
	pubsubpublisher "github.com/JakeFAU/floorplan-crawler/internal/publisher/pubsub"
	"github.com/JakeFAU/floorplan-crawler/internal/storage/csvfile"
	"github.com/JakeFAU/floorplan-crawler/internal/storage/gcs"
	"github.com/JakeFAU/floorplan-crawler/internal/storage/postgres"
)

// App holds the shared services built from one Config.
type App struct {
	Service *Service
	Sink    *csvfile.Sink
	// DryRun holds the events a pubsub.dry_run crawl would have published.
	DryRun *memorypublisher.Publisher

	logger  *zap.Logger
	closers []func()
}

// New builds every service the configuration enables. Optional backends are
// skipped when their settings are empty.
func New(ctx context.Context, cfg config.Config, logger *zap.Logger) (*App, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	a := &App{logger: logger}

	sink, err := csvfile.NewSink(cfg.Output.CSVPath, logger.Named("sink"))
	if err != nil {
		return nil, fmt.Errorf("create csv sink: %w", err)
	}
	a.Sink = sink

	clock := system.New()
	limiter := ratelimit.New(ratelimit.Config{
		DefaultRPS:   cfg.Crawler.RateLimitPerDomain,
		DefaultBurst: cfg.Crawler.RateLimitBurst,
	})
	fetcher := collyfetcher.New(collyfetcher.Config{
		UserAgent:     cfg.Crawler.UserAgent,
		RespectRobots: cfg.Crawler.RespectRobots,
		Timeout:       cfg.HTTPTimeout(),
		MaxBodySize:   cfg.HTTP.MaxBodyBytes,
	}, limiter)

	recorders, err := a.buildRecorders(ctx, cfg, clock)
	if err != nil {
		a.Close()
		return nil, err
	}

	fetchLogger := logger.Named("fetcher")
	pipeline, err := crawler.NewPipeline(crawler.PipelineConfig{APIBase: cfg.Crawler.APIBaseURL}, crawler.PipelineDeps{
		Pages:     crawler.NewPageFetcher(fetcher, fetchLogger),
		API:       crawler.NewAPIFetcher(fetcher, fetchLogger),
		HTML:      extract.NewHTMLKeyExtractor(cfg.Crawler.ProjectLinkXPath, cfg.Crawler.KeyParam, logger.Named("extract")),
		Project:   extract.NewProjectExtractor(logger.Named("extract")),
		Sink:      sink,
		Recorders: recorders,
		Clock:     clock,
		IDs:       uuid.New(),
	}, logger.Named("pipeline"))
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("create pipeline: %w", err)
	}

	exporter, err := a.buildExporter(ctx, cfg)
	if err != nil {
		a.Close()
		return nil, err
	}

	a.Service = NewService(pipeline, exporter, ServiceConfig{
		Seeds:         cfg.Crawler.SeedURLs,
		MaxConcurrent: cfg.Crawler.MaxConcurrent,
		CSVPath:       cfg.Output.CSVPath,
	}, logger.Named("service"))
	return a, nil
}

func (a *App) buildRecorders(ctx context.Context, cfg config.Config, clock crawler.Clock) ([]crawler.Recorder, error) {
	var recorders []crawler.Recorder

	if cfg.DB.DSN != "" {
		store, err := postgres.NewProjectStore(ctx, postgres.ProjectStoreConfig{
			DSN:      cfg.DB.DSN,
			Table:    cfg.DB.Table,
			MaxConns: cfg.DB.MaxConns,
		})
		if err != nil {
			return nil, fmt.Errorf("create project store: %w", err)
		}
		a.closers = append(a.closers, store.Close)
		if err := store.EnsureSchema(ctx); err != nil {
			return nil, fmt.Errorf("prepare project store: %w", err)
		}
		a.logger.Info("mirroring projects to postgres", zap.String("table", cfg.DB.Table))
		recorders = append(recorders, store)
	}

	switch {
	case cfg.PubSub.DryRun:
		a.DryRun = memorypublisher.New()
		recorder, err := crawler.NewPublishRecorder(a.DryRun, cfg.PubSub.TopicName, clock)
		if err != nil {
			return nil, fmt.Errorf("create publish recorder: %w", err)
		}
		a.logger.Info("pubsub dry run, events stay in memory", zap.String("topic", cfg.PubSub.TopicName))
		recorders = append(recorders, recorder)
	case cfg.PubSub.ProjectID != "":
		client, err := pubsub.NewClient(ctx, cfg.PubSub.ProjectID)
		if err != nil {
			return nil, fmt.Errorf("create pubsub client: %w", err)
		}
		publisher := pubsubpublisher.New(client)
		a.closers = append(a.closers, func() {
			publisher.Stop()
			if err := client.Close(); err != nil {
				a.logger.Warn("error closing pubsub client", zap.Error(err))
			}
		})
		recorder, err := crawler.NewPublishRecorder(publisher, cfg.PubSub.TopicName, clock)
		if err != nil {
			return nil, fmt.Errorf("create publish recorder: %w", err)
		}
		a.logger.Info("publishing projects to pubsub", zap.String("topic", cfg.PubSub.TopicName))
		recorders = append(recorders, recorder)
	}

	return recorders, nil
}

func (a *App) buildExporter(ctx context.Context, cfg config.Config) (Exporter, error) {
	if cfg.Storage.GCSBucket == "" {
		return nil, nil
	}
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("create storage client: %w", err)
	}
	a.closers = append(a.closers, func() {
		if err := client.Close(); err != nil {
			a.logger.Warn("error closing storage client", zap.Error(err))
		}
	})
	exporter, err := gcs.New(client, gcs.Config{
		Bucket:      cfg.Storage.GCSBucket,
		Prefix:      cfg.Storage.Prefix,
		ContentType: cfg.Storage.ContentType,
	})
	if err != nil {
		return nil, fmt.Errorf("create gcs exporter: %w", err)
	}
	a.logger.Info("exporting csv to gcs", zap.String("bucket", cfg.Storage.GCSBucket))
	return exporter, nil
}

// Close releases backend clients in reverse creation order.
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}
