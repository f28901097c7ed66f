package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMiddleware(t *testing.T) {
	Init()
	r := chi.NewRouter()
	r.Use(Middleware)
	r.Get("/mw-ok", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	r.Get("/mw-teapot", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})

	beforeOK := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("GET", "200"))
	beforeTeapot := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("GET", "418"))

	for _, path := range []string{"/mw-ok", "/mw-teapot"} {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	}

	if val := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("GET", "200")); val != beforeOK+1 {
		t.Errorf("Expected httpRequestsTotal for GET 200 to be %v, got %f", beforeOK+1, val)
	}
	if val := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("GET", "418")); val != beforeTeapot+1 {
		t.Errorf("Expected httpRequestsTotal for GET 418 to be %v, got %f", beforeTeapot+1, val)
	}
	if val := testutil.CollectAndCount(httpRequestDurationSeconds); val <= 0 {
		t.Errorf("Expected httpRequestDurationSeconds to be observed, got %d", val)
	}
}
