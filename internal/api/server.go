package api

import (
	"bufio"
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/JakeFAU/floorplan-crawler/internal/app"
	"github.com/JakeFAU/floorplan-crawler/internal/config"
	"github.com/JakeFAU/floorplan-crawler/internal/crawler"
	"github.com/JakeFAU/floorplan-crawler/internal/metrics"
)

//go:embed static/index.html
var indexPage []byte

const csvContentType = "text/csv; charset=utf-8"

// CrawlService runs crawls and reports where their output lands.
type CrawlService interface {
	Crawl(ctx context.Context) (crawler.RunSummary, error)
	Running() bool
	CSVPath() string
}

// Server wires HTTP handlers to the crawl service.
type Server struct {
	router  chi.Router
	service CrawlService
	baseCtx context.Context
	cfg     config.Config
	logger  *zap.Logger
}

// NewServer constructs a Server with middleware and routes. Crawls run on
// baseCtx so they outlive the request that started them.
func NewServer(baseCtx context.Context, service CrawlService, cfg config.Config, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		service: service,
		baseCtx: baseCtx,
		cfg:     cfg,
		logger:  logger,
	}
	r := chi.NewRouter()
	r.Use(requestIDMiddleware)
	r.Use(loggingMiddleware(logger))
	r.Use(metrics.Middleware)
	r.Use(recoverMiddleware(logger))

	r.Get("/healthz", s.healthz)
	r.Get("/readyz", s.readyz)
	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	r.Group(func(r chi.Router) {
		r.Use(timeoutMiddleware(60 * time.Second))
		r.Get("/", s.index)
		r.Get("/download-csv", s.downloadCSV)
	})

	r.Group(func(r chi.Router) {
		if cfg.Auth.Enabled {
			r.Use(apiKeyMiddleware(cfg.Auth.APIKey))
		}
		r.Get("/generate-csv", s.generateCSV)
	})

	s.router = r
	return s
}

// Handler returns the Router for use with http.Server.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) readyz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"status": "ready", "crawl_running": s.service.Running()})
}

func (s *Server) index(w http.ResponseWriter, _ *http.Request) {
	s.logger.Info("serving main page")
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if _, err := w.Write(indexPage); err != nil {
		s.logger.Warn("index write failed", zap.Error(err))
	}
}

func (s *Server) generateCSV(w http.ResponseWriter, _ *http.Request) {
	summary, err := s.service.Crawl(s.baseCtx)
	if err != nil {
		if errors.Is(err, app.ErrCrawlInProgress) {
			writeError(w, http.StatusConflict, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, generateResponse{
		RunID:      summary.Run.ID,
		Written:    summary.Written(),
		Outcomes:   summary.Outcomes,
		DurationMS: summary.Duration.Milliseconds(),
	})
}

func (s *Server) downloadCSV(w http.ResponseWriter, r *http.Request) {
	path := s.service.CSVPath()
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			writeError(w, http.StatusNotFound, "csv not generated yet")
			return
		}
		s.logger.Error("open csv failed", zap.String("path", path), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "csv unavailable")
		return
	}
	defer func() {
		if cerr := f.Close(); cerr != nil {
			s.logger.Warn("close csv failed", zap.Error(cerr))
		}
	}()
	info, err := f.Stat()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "csv unavailable")
		return
	}
	w.Header().Set("Content-Type", csvContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filepath.Base(path)))
	http.ServeContent(w, r, filepath.Base(path), info.ModTime(), f)
}

type generateResponse struct {
	RunID      string                  `json:"run_id"`
	Written    int                     `json:"written"`
	Outcomes   map[crawler.Outcome]int `json:"outcomes"`
	DurationMS int64                   `json:"duration_ms"`
}

func requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqID := r.Header.Get("X-Request-ID")
		if reqID == "" {
			reqID = uuid.NewString()
		}
		ctx := context.WithValue(r.Context(), requestIDKey{}, reqID)
		w.Header().Set("X-Request-ID", reqID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func loggingMiddleware(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := &responseWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(ww, r)
			reqID, _ := r.Context().Value(requestIDKey{}).(string)
			logger.Info("request completed",
				zap.String("request_id", reqID),
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.status),
				zap.Int64("duration_ms", time.Since(start).Milliseconds()),
			)
		})
	}
}

func recoverMiddleware(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					logger.Error("panic recovered", zap.Any("error", rec), zap.String("path", r.URL.Path))
					writeError(w, http.StatusInternalServerError, "internal server error")
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

func timeoutMiddleware(d time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.TimeoutHandler(next, d, "request timed out")
	}
}

type responseWriter struct {
	http.ResponseWriter
	status int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.status = code
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	n, err := rw.ResponseWriter.Write(b)
	if err != nil {
		return n, fmt.Errorf("write response: %w", err)
	}
	return n, nil
}

func (rw *responseWriter) Flush() {
	if f, ok := rw.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (rw *responseWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	if h, ok := rw.ResponseWriter.(http.Hijacker); ok {
		conn, buf, err := h.Hijack()
		if err != nil {
			return nil, nil, fmt.Errorf("hijack connection: %w", err)
		}
		return conn, buf, nil
	}
	return nil, nil, errors.New("hijacker not supported")
}

type requestIDKey struct{}

func apiKeyMiddleware(expected string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := r.Header.Get("X-API-Key")
			if key == "" {
				key = r.URL.Query().Get("api_key")
			}
			if key != expected {
				writeError(w, http.StatusForbidden, "unauthorized")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		zap.L().Error("write JSON failed", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
