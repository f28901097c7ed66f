package app

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/JakeFAU/floorplan-crawler/internal/crawler"
)

type MockExporter struct {
	mock.Mock
}

func (m *MockExporter) ExportFile(ctx context.Context, runID, localPath string) (string, error) {
	args := m.Called(ctx, runID, localPath)
	return args.String(0), args.Error(1)
}

type stubRunner struct {
	mu      sync.Mutex
	seeds   []string
	limit   int
	summary crawler.RunSummary
	started chan struct{}
	release chan struct{}
}

func (r *stubRunner) Run(_ context.Context, seeds []string, maxConcurrent int) crawler.RunSummary {
	r.mu.Lock()
	r.seeds = seeds
	r.limit = maxConcurrent
	r.mu.Unlock()
	if r.started != nil {
		close(r.started)
	}
	if r.release != nil {
		<-r.release
	}
	return r.summary
}

func summaryWith(id string, written int) crawler.RunSummary {
	return crawler.RunSummary{
		Run:      crawler.RunInfo{ID: id, StartedAt: time.Unix(0, 0).UTC()},
		Outcomes: map[crawler.Outcome]int{crawler.OutcomeWritten: written, crawler.OutcomeNoKey: 1},
	}
}

func TestServiceCrawlPassesConfig(t *testing.T) {
	t.Parallel()
	runner := &stubRunner{summary: summaryWith("run-1", 2)}
	svc := NewService(runner, nil, ServiceConfig{
		Seeds:         []string{"https://a.example", "https://b.example"},
		MaxConcurrent: 5,
		CSVPath:       "out.csv",
	}, nil)

	summary, err := svc.Crawl(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, summary.Written())
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, runner.seeds)
	assert.Equal(t, 5, runner.limit)
	assert.Equal(t, "out.csv", svc.CSVPath())

	last, ok := svc.LastRun()
	require.True(t, ok)
	assert.Equal(t, "run-1", last.Run.ID)
}

func TestServiceLastRunEmptyBeforeCrawl(t *testing.T) {
	t.Parallel()
	svc := NewService(&stubRunner{}, nil, ServiceConfig{}, nil)
	_, ok := svc.LastRun()
	assert.False(t, ok)
	assert.False(t, svc.Running())
}

func TestServiceRejectsConcurrentCrawl(t *testing.T) {
	t.Parallel()
	runner := &stubRunner{
		summary: summaryWith("run-1", 1),
		started: make(chan struct{}),
		release: make(chan struct{}),
	}
	svc := NewService(runner, nil, ServiceConfig{}, nil)

	done := make(chan error, 1)
	go func() {
		_, err := svc.Crawl(context.Background())
		done <- err
	}()
	<-runner.started
	assert.True(t, svc.Running())

	_, err := svc.Crawl(context.Background())
	require.ErrorIs(t, err, ErrCrawlInProgress)

	close(runner.release)
	require.NoError(t, <-done)
	assert.False(t, svc.Running())
}

func TestServiceExportsWhenRowsWritten(t *testing.T) {
	t.Parallel()
	exporter := new(MockExporter)
	exporter.On("ExportFile", mock.Anything, "run-7", "files/out.csv").
		Return("gs://bucket/floorplans/run-7.csv", nil).Once()

	svc := NewService(&stubRunner{summary: summaryWith("run-7", 3)}, exporter, ServiceConfig{CSVPath: "files/out.csv"}, nil)
	_, err := svc.Crawl(context.Background())
	require.NoError(t, err)
	exporter.AssertExpectations(t)
}

func TestServiceSkipsExportWhenNothingWritten(t *testing.T) {
	t.Parallel()
	exporter := new(MockExporter)

	svc := NewService(&stubRunner{summary: summaryWith("run-8", 0)}, exporter, ServiceConfig{CSVPath: "files/out.csv"}, nil)
	summary, err := svc.Crawl(context.Background())
	require.NoError(t, err)
	assert.Zero(t, summary.Written())
	exporter.AssertNotCalled(t, "ExportFile", mock.Anything, mock.Anything, mock.Anything)
}

func TestServiceExportFailureDoesNotFailCrawl(t *testing.T) {
	t.Parallel()
	exporter := new(MockExporter)
	exporter.On("ExportFile", mock.Anything, "run-9", "out.csv").Return("", errors.New("bucket gone")).Once()

	svc := NewService(&stubRunner{summary: summaryWith("run-9", 1)}, exporter, ServiceConfig{CSVPath: "out.csv"}, nil)
	summary, err := svc.Crawl(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Written())
	exporter.AssertExpectations(t)
}
