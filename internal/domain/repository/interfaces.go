package repository

import (
	"context"
	"errors"
	"time"

	"FGReport/internal/domain/models"
)

var (
	// ErrInputMissing means a required input file does not exist.
	ErrInputMissing = errors.New("input missing")
	// ErrColumnMissing means no candidate column for a required field was found.
	ErrColumnMissing = errors.New("required column missing")
)

// ObservationSource loads the primary sentiment table.
type ObservationSource interface {
	Load(ctx context.Context) (*models.Table, error)
}

// ForwardSummarySource loads the precomputed (bucket, horizon) summary.
// A missing file yields ErrInputMissing, which callers treat as optional.
type ForwardSummarySource interface {
	Load(ctx context.Context) (*models.ForwardSummary, error)
}

// SummarySource loads the optional key/value blob. Missing or malformed
// input yields an empty slice.
type SummarySource interface {
	Load(ctx context.Context) ([]models.SummaryEntry, error)
}

// NotesSource loads the Markdown shown in the notes card.
type NotesSource interface {
	Load(ctx context.Context) (string, error)
}

// InputFetcher refreshes local inputs from a remote origin.
type InputFetcher interface {
	Fetch(ctx context.Context) error
}

// ReportFiles names the files a report is written to, relative to the docs root.
type ReportFiles struct {
	Dated  string
	Latest string
	Index  string
}

// ReportWriter persists a rendered report. It returns the written paths and
// total bytes.
type ReportWriter interface {
	Write(ctx context.Context, report *models.Report, files ReportFiles) ([]string, int64, error)
}

// ReportIndexStore persists the rolling report index.
type ReportIndexStore interface {
	Load(ctx context.Context) ([]models.ReportIndexEntry, error)
	Save(ctx context.Context, entries []models.ReportIndexEntry) error
}

// CellArchive stores heat-map cells per run for later analysis.
type CellArchive interface {
	Archive(ctx context.Context, runID string, asOf time.Time, h *models.TrendHeatmap) error
}

// EventPublisher announces published reports.
type EventPublisher interface {
	Publish(ctx context.Context, ev models.PublishedEvent) error
	Close() error
}

// Metrics records pipeline telemetry.
type Metrics interface {
	RecordRun(status string, seconds float64)
	RecordError(kind string)
	RecordRows(n int)
	RecordChart(name string)
	RecordAsOf(t time.Time)
	RecordLatency(stage string, seconds float64)
}
