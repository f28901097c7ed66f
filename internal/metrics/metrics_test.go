package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestSanitizeSite(t *testing.T) {
	testCases := []struct {
		name     string
		input    string
		expected string
	}{
		{"standard http", "http://planner5d.com/gallery", "planner5d.com"},
		{"standard https", "https://Planner5D.com/api/project/x/", "planner5d.com"},
		{"no scheme", "planner5d.com/path", "planner5d.com"},
		{"just host", "planner5d.com", "planner5d.com"},
		{"host with port", "planner5d.com:8080", "planner5d.com"},
		{"ip address", "192.168.1.1", "192.168.1.1"},
		{"invalid url", "http://%", "unknown"},
		{"empty string", "", "unknown"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := SanitizeSite(tc.input); got != tc.expected {
				t.Errorf("SanitizeSite(%q) = %q; want %q", tc.input, got, tc.expected)
			}
		})
	}
}

func TestInitIsIdempotent(t *testing.T) {
	Init()
	first := crawlerSeedsTotal
	Init()

	if crawlerSeedsTotal == nil || crawlerSeedsTotal != first {
		t.Fatal("Init() re-created or failed to create collectors")
	}
}

func TestObserveSeedAndFetch(t *testing.T) {
	Init()
	before := testutil.ToFloat64(crawlerSeedsTotal.WithLabelValues("metrics_test"))
	ObserveSeed("metrics_test")
	if got := testutil.ToFloat64(crawlerSeedsTotal.WithLabelValues("metrics_test")); got != before+1 {
		t.Errorf("expected seed counter %v, got %v", before+1, got)
	}

	beforeFetch := testutil.ToFloat64(crawlerFetchesTotal.WithLabelValues("metrics_test", "ok"))
	ObserveFetch("metrics_test", "ok", 20*time.Millisecond)
	if got := testutil.ToFloat64(crawlerFetchesTotal.WithLabelValues("metrics_test", "ok")); got != beforeFetch+1 {
		t.Errorf("expected fetch counter %v, got %v", beforeFetch+1, got)
	}
}

func TestObserveBytesSkipsEmptyBodies(t *testing.T) {
	Init()
	ObserveBytes("https://bytes.metrics.test/x", 0)
	ObserveBytes("https://bytes.metrics.test/x", 128)
	if got := testutil.ToFloat64(crawlerBytesTotal.WithLabelValues("bytes.metrics.test")); got != 128 {
		t.Errorf("expected 128 bytes, got %v", got)
	}
}

// Fuzz test for SanitizeSite.
func FuzzSanitizeSite(f *testing.F) {
	testcases := []string{"http://example.com", "https://planner5d.com", "ftp://example.com"}
	for _, tc := range testcases {
		f.Add(tc)
	}
	f.Fuzz(func(t *testing.T, orig string) {
		sanitized := SanitizeSite(orig)
		if sanitized == "" {
			t.Errorf("SanitizeSite(%q) returned an empty string", orig)
		}
	})
}
