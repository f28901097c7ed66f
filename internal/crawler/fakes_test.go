package crawler

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"
)

type fakeResponse struct {
	body string
	err  error
}

// fakeFetcher serves canned bodies by URL and tracks peak concurrency.
type fakeFetcher struct {
	mu        sync.Mutex
	responses map[string]fakeResponse
	requests  []FetchRequest
	delay     time.Duration

	inFlight    atomic.Int32
	maxInFlight atomic.Int32
}

func newFakeFetcher(responses map[string]fakeResponse) *fakeFetcher {
	return &fakeFetcher{responses: responses}
}

func (f *fakeFetcher) Fetch(ctx context.Context, request FetchRequest) (FetchResponse, error) {
	current := f.inFlight.Add(1)
	defer f.inFlight.Add(-1)
	for {
		peak := f.maxInFlight.Load()
		if current <= peak || f.maxInFlight.CompareAndSwap(peak, current) {
			break
		}
	}

	f.mu.Lock()
	f.requests = append(f.requests, request)
	resp, ok := f.responses[request.URL]
	f.mu.Unlock()

	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return FetchResponse{}, ctx.Err()
		}
	}
	if !ok {
		return FetchResponse{}, errors.New("Not Found")
	}
	if resp.err != nil {
		return FetchResponse{}, resp.err
	}
	return FetchResponse{URL: request.URL, StatusCode: 200, Body: []byte(resp.body)}, nil
}

func (f *fakeFetcher) requestedURLs() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	urls := make([]string, len(f.requests))
	for i, r := range f.requests {
		urls[i] = r.URL
	}
	return urls
}

// keyExtractor treats the whole page body as the project key.
type keyExtractor struct {
	panicOn string
}

func (k keyExtractor) Extract(input any) (Extraction, error) {
	body, _ := input.([]byte)
	if k.panicOn != "" && string(body) == k.panicOn {
		panic("boom: " + k.panicOn)
	}
	if len(body) == 0 {
		return FailedExtraction("empty HTML body"), nil
	}
	return ParameterExtraction(string(body)), nil
}

// nameExtractor builds a record whose hash is the document's "hash" field.
type nameExtractor struct{}

func (nameExtractor) Extract(input any) (Extraction, error) {
	doc, ok := input.(map[string]any)
	if !ok {
		return Extraction{}, ErrUnsupportedInput
	}
	hash, _ := doc["hash"].(string)
	if hash == "" {
		return FailedExtraction("no hash"), nil
	}
	return ProjectExtraction(ProjectRecord{Hash: hash, Name: "Project " + hash, FloorCount: 1, RoomCount: 2}), nil
}

type sinkEvent struct {
	closeGeneration bool
	row             Row
}

type memorySink struct {
	mu     sync.Mutex
	events []sinkEvent
}

func (s *memorySink) WriteRow(row Row) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, sinkEvent{row: row})
}

func (s *memorySink) CloseGeneration() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, sinkEvent{closeGeneration: true})
}

func (s *memorySink) snapshot() []sinkEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]sinkEvent(nil), s.events...)
}

func (s *memorySink) hashes() []string {
	var hashes []string
	for _, e := range s.snapshot() {
		if !e.closeGeneration {
			hashes = append(hashes, e.row[0].Value)
		}
	}
	return hashes
}

type fixedClock struct{ t time.Time }

func (c fixedClock) Now() time.Time { return c.t }

type staticIDs struct {
	id  string
	err error
}

func (s staticIDs) NewID() (string, error) { return s.id, s.err }
