package crawler

import (
	"context"
	"time"
)

// Fetcher performs one GET over a shared connection pool.
type Fetcher interface {
	Fetch(ctx context.Context, request FetchRequest) (FetchResponse, error)
}

// Extractor turns a fetched body into an Extraction. Soft failures come back as
// a KindFailed Extraction; the error return is reserved for unsupported input.
type Extractor interface {
	Extract(input any) (Extraction, error)
}

// ResultSink is the append-only tabular output shared by every seed of a run.
type ResultSink interface {
	WriteRow(row Row)
	CloseGeneration()
}

// Recorder mirrors a written project record to a secondary destination.
type Recorder interface {
	Name() string
	Record(ctx context.Context, run RunInfo, record ProjectRecord) error
}

// Publisher pushes record events to Pub/Sub (or similar).
type Publisher interface {
	Publish(ctx context.Context, topic string, payload any) (string, error)
}

// Clock returns the current time (useful for testing).
type Clock interface {
	Now() time.Time
}

// IDGenerator produces run IDs (UUIDs).
type IDGenerator interface {
	NewID() (string, error)
}
