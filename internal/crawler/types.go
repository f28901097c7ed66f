package crawler

import (
	"errors"
	"fmt"
	"strconv"
	"time"
)

// ErrUnsupportedInput is returned by extractors handed a value they cannot interpret.
// It signals a caller bug rather than bad upstream data.
var ErrUnsupportedInput = errors.New("unsupported extractor input")

// ProjectRecord is the per-project row produced by one successful seed.
type ProjectRecord struct {
	Hash       string `json:"hash"`
	Name       string `json:"name"`
	FloorCount int    `json:"floor_count"`
	RoomCount  int    `json:"room_count"`
}

// Row returns the record as ordered CSV columns.
func (r ProjectRecord) Row() Row {
	return Row{
		{Key: "hash", Value: r.Hash},
		{Key: "name", Value: r.Name},
		{Key: "floor_count", Value: strconv.Itoa(r.FloorCount)},
		{Key: "room_count", Value: strconv.Itoa(r.RoomCount)},
	}
}

// Field is one named cell of a Row.
type Field struct {
	Key   string
	Value string
}

// Row is an ordered set of fields; keys become the CSV header.
type Row []Field

// Keys returns the column names in order.
func (r Row) Keys() []string {
	keys := make([]string, len(r))
	for i, f := range r {
		keys[i] = f.Key
	}
	return keys
}

// Values returns the cell values in column order.
func (r Row) Values() []string {
	values := make([]string, len(r))
	for i, f := range r {
		values[i] = f.Value
	}
	return values
}

// ExtractionKind tags which payload of an Extraction is valid.
type ExtractionKind int

// Extraction kinds.
const (
	KindFailed ExtractionKind = iota
	KindParameter
	KindProject
)

// String implements fmt.Stringer.
func (k ExtractionKind) String() string {
	switch k {
	case KindParameter:
		return "parameter"
	case KindProject:
		return "project"
	default:
		return "failed"
	}
}

// Extraction carries the result of one extraction stage.
type Extraction struct {
	Kind      ExtractionKind
	Parameter string
	Project   ProjectRecord
	Reason    string
}

// ParameterExtraction wraps a successfully extracted query parameter.
func ParameterExtraction(value string) Extraction {
	return Extraction{Kind: KindParameter, Parameter: value}
}

// ProjectExtraction wraps a successfully built project record.
func ProjectExtraction(record ProjectRecord) Extraction {
	return Extraction{Kind: KindProject, Project: record}
}

// FailedExtraction records a soft failure and its reason.
func FailedExtraction(format string, args ...any) Extraction {
	return Extraction{Kind: KindFailed, Reason: fmt.Sprintf(format, args...)}
}

// ParameterValue returns the extracted parameter if this is a parameter extraction.
func (e Extraction) ParameterValue() (string, bool) {
	if e.Kind != KindParameter {
		return "", false
	}
	return e.Parameter, true
}

// ProjectRecord returns the project if this is a project extraction.
func (e Extraction) ProjectRecord() (ProjectRecord, bool) {
	if e.Kind != KindProject {
		return ProjectRecord{}, false
	}
	return e.Project, true
}

// FetchKind distinguishes page fetches from API fetches.
type FetchKind string

// Fetch kinds.
const (
	FetchKindPage FetchKind = "page"
	FetchKindAPI  FetchKind = "api"
)

// FetchRequest captures everything needed to fetch a URL.
type FetchRequest struct {
	RunID  string
	URL    string
	Kind   FetchKind
	Accept string
}

// FetchResponse is the result returned by a Fetcher implementation.
type FetchResponse struct {
	URL        string
	StatusCode int
	Body       []byte
	Duration   time.Duration
}

// FetchError reports a failed page or API fetch.
type FetchError struct {
	Kind FetchKind
	URL  string
	Err  error
}

// Error implements error.
func (e *FetchError) Error() string {
	return fmt.Sprintf("%s fetch %s: %v", e.Kind, e.URL, e.Err)
}

// Unwrap exposes the underlying cause.
func (e *FetchError) Unwrap() error {
	return e.Err
}

// RunInfo identifies one crawl invocation.
type RunInfo struct {
	ID        string
	StartedAt time.Time
}

// Outcome classifies how a single seed's pipeline ended.
type Outcome string

// Seed outcomes recorded in logs and metrics.
const (
	OutcomeWritten    Outcome = "written"
	OutcomeInvalidURL Outcome = "invalid_url"
	OutcomeNoKey      Outcome = "no_key"
	OutcomeAPIFailed  Outcome = "api_failed"
	OutcomeNoProject  Outcome = "no_project"
	OutcomeBadInput   Outcome = "bad_input"
	OutcomePanic      Outcome = "panic"
	OutcomeCanceled   Outcome = "canceled"
)
