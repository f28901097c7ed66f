package crawler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/JakeFAU/floorplan-crawler/internal/metrics"
)

// DefaultAPIBase is the Planner 5D project endpoint; the key and a trailing
// slash are appended to it.
const DefaultAPIBase = "https://planner5d.com/api/project/"

// PipelineConfig controls Pipeline behavior.
type PipelineConfig struct {
	APIBase string
}

// PipelineDeps are the collaborators a Pipeline drives for every seed.
type PipelineDeps struct {
	Pages     *PageFetcher
	API       *APIFetcher
	HTML      Extractor
	Project   Extractor
	Sink      ResultSink
	Recorders []Recorder
	Clock     Clock
	IDs       IDGenerator
}

// RunSummary tallies how the seeds of one run ended.
type RunSummary struct {
	Run      RunInfo
	Outcomes map[Outcome]int
	Duration time.Duration
}

// Written returns how many seeds produced a row.
func (s RunSummary) Written() int {
	return s.Outcomes[OutcomeWritten]
}

// Pipeline fans seeds out to bounded concurrent sub-pipelines that all write
// to one shared sink.
type Pipeline struct {
	cfg    PipelineConfig
	deps   PipelineDeps
	logger *zap.Logger
}

// NewPipeline constructs a Pipeline.
func NewPipeline(cfg PipelineConfig, deps PipelineDeps, logger *zap.Logger) (*Pipeline, error) {
	if deps.Pages == nil || deps.API == nil {
		return nil, errors.New("page and api fetchers are required")
	}
	if deps.HTML == nil || deps.Project == nil {
		return nil, errors.New("html and project extractors are required")
	}
	if deps.Sink == nil {
		return nil, errors.New("result sink is required")
	}
	if cfg.APIBase == "" {
		cfg.APIBase = DefaultAPIBase
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pipeline{cfg: cfg, deps: deps, logger: logger}, nil
}

// Run processes every seed and returns once all sub-pipelines finished.
// At most maxConcurrent seeds hold a permit at any time; values below one
// are treated as one. Per-seed failures are logged and never abort the run.
func (p *Pipeline) Run(ctx context.Context, seeds []string, maxConcurrent int) RunSummary {
	if maxConcurrent <= 0 {
		p.logger.Warn("max concurrency must be positive, using 1", zap.Int("max_concurrent", maxConcurrent))
		maxConcurrent = 1
	}

	run := RunInfo{ID: p.newRunID(), StartedAt: p.now()}
	logger := p.logger.With(zap.String("run_id", run.ID))
	logger.Info("run started", zap.Int("seeds", len(seeds)), zap.Int("max_concurrent", maxConcurrent))

	// The new generation begins before any seed can write.
	p.deps.Sink.CloseGeneration()

	var (
		mu       sync.Mutex
		outcomes = make(map[Outcome]int)
		sem      = semaphore.NewWeighted(int64(maxConcurrent))
		g        errgroup.Group
	)
	for _, seed := range seeds {
		g.Go(func() error {
			outcome := p.runSeed(ctx, sem, run, seed, logger)
			metrics.ObserveSeed(string(outcome))
			mu.Lock()
			outcomes[outcome]++
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	summary := RunSummary{Run: run, Outcomes: outcomes, Duration: p.now().Sub(run.StartedAt)}
	logger.Info("run finished",
		zap.Int("seeds", len(seeds)),
		zap.Int("written", summary.Written()),
		zap.Any("outcomes", outcomes),
		zap.Duration("duration", summary.Duration),
	)
	return summary
}

func (p *Pipeline) runSeed(
	ctx context.Context,
	sem *semaphore.Weighted,
	run RunInfo,
	seed string,
	logger *zap.Logger,
) (outcome Outcome) {
	logger = logger.With(zap.String("url", seed))
	if err := sem.Acquire(ctx, 1); err != nil {
		logger.Warn("seed skipped", zap.Error(err))
		return OutcomeCanceled
	}
	metrics.IncPermits()
	defer func() {
		if r := recover(); r != nil {
			logger.Error("seed pipeline panicked", zap.Any("panic", r), zap.Stack("stack"))
			outcome = OutcomePanic
		}
		metrics.DecPermits()
		sem.Release(1)
	}()

	return p.processSeed(ctx, run, seed, logger)
}

func (p *Pipeline) processSeed(ctx context.Context, run RunInfo, seed string, logger *zap.Logger) Outcome {
	if !IsValidURL(seed) {
		logger.Error("invalid url provided")
		return OutcomeInvalidURL
	}

	// A failed fetch yields a nil body; the extractor reports that as a soft failure.
	page, _ := p.deps.Pages.Fetch(ctx, run.ID, seed)
	htmlResult, err := p.deps.HTML.Extract(page)
	if err != nil {
		logger.Error("html extraction rejected input", zap.Error(err))
		return OutcomeBadInput
	}
	key, ok := htmlResult.ParameterValue()
	if !ok || key == "" {
		logger.Error("could not form api url from html data", zap.String("reason", htmlResult.Reason))
		return OutcomeNoKey
	}

	apiURL := APIURL(p.cfg.APIBase, key)
	doc, err := p.deps.API.Fetch(ctx, run.ID, apiURL)
	if err != nil {
		return OutcomeAPIFailed
	}
	projectResult, err := p.deps.Project.Extract(doc)
	if err != nil {
		logger.Error("project extraction rejected input", zap.Error(err))
		return OutcomeBadInput
	}
	record, ok := projectResult.ProjectRecord()
	if !ok {
		logger.Error("no project info extracted", zap.String("api_url", apiURL), zap.String("reason", projectResult.Reason))
		return OutcomeNoProject
	}

	p.deps.Sink.WriteRow(record.Row())
	logger.Info("project row written",
		zap.String("hash", record.Hash),
		zap.Int("floor_count", record.FloorCount),
		zap.Int("room_count", record.RoomCount),
	)
	p.record(ctx, run, record, logger)
	return OutcomeWritten
}

func (p *Pipeline) record(ctx context.Context, run RunInfo, record ProjectRecord, logger *zap.Logger) {
	for _, recorder := range p.deps.Recorders {
		if err := recorder.Record(ctx, run, record); err != nil {
			metrics.ObserveRecorderError(recorder.Name())
			logger.Error("failed to mirror project record",
				zap.String("recorder", recorder.Name()),
				zap.String("hash", record.Hash),
				zap.Error(err),
			)
		}
	}
}

func (p *Pipeline) newRunID() string {
	if p.deps.IDs != nil {
		id, err := p.deps.IDs.NewID()
		if err == nil {
			return id
		}
		p.logger.Warn("run id generation failed, using timestamp", zap.Error(err))
	}
	return fmt.Sprintf("run-%d", p.now().UnixNano())
}

func (p *Pipeline) now() time.Time {
	if p.deps.Clock != nil {
		return p.deps.Clock.Now()
	}
	return time.Now().UTC()
}
