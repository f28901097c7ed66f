// Package csvfile implements the crawl result sink as a CSV file on local disk.
package csvfile

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/JakeFAU/floorplan-crawler/internal/crawler"
	"github.com/JakeFAU/floorplan-crawler/internal/metrics"
)

// Sink appends rows to one CSV file. The first row written after
// CloseGeneration truncates the file and writes a fresh header.
type Sink struct {
	mu     sync.Mutex
	path   string
	fresh  bool
	logger *zap.Logger
}

// NewSink creates a sink targeting path. A new sink starts a fresh generation.
func NewSink(path string, logger *zap.Logger) (*Sink, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("csv path is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Sink{
		path:   path,
		fresh:  true,
		logger: logger,
	}, nil
}

// Path returns the file the sink writes to.
func (s *Sink) Path() string {
	return s.path
}

// CloseGeneration marks the current generation finished. The file is not
// touched until the next WriteRow.
func (s *Sink) CloseGeneration() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fresh = true
}

// WriteRow writes one row. Empty rows are ignored; I/O failures are logged and dropped.
func (s *Sink) WriteRow(row crawler.Row) {
	if len(row) == 0 {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.write(row); err != nil {
		metrics.ObserveSinkError()
		s.logger.Error("failed to write csv row", zap.String("path", s.path), zap.Error(err))
		return
	}
	s.fresh = false
	metrics.ObserveRowWritten()
}

func (s *Sink) write(row crawler.Row) (err error) {
	if dir := filepath.Dir(s.path); dir != "" {
		if mkErr := os.MkdirAll(dir, 0o750); mkErr != nil {
			return fmt.Errorf("create directory: %w", mkErr)
		}
	}

	flags := os.O_CREATE | os.O_WRONLY
	if s.fresh {
		flags |= os.O_TRUNC
	} else {
		flags |= os.O_APPEND
	}
	f, err := os.OpenFile(s.path, flags, 0o644)
	if err != nil {
		return fmt.Errorf("open csv: %w", err)
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("close csv: %w", closeErr)
		}
	}()

	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("stat csv: %w", err)
	}

	w := csv.NewWriter(f)
	if s.fresh || info.Size() == 0 {
		if err := w.Write(row.Keys()); err != nil {
			return fmt.Errorf("write header: %w", err)
		}
	}
	if err := w.Write(row.Values()); err != nil {
		return fmt.Errorf("write row: %w", err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	return nil
}
