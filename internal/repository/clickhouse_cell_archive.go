package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"FGReport/internal/domain/models"
	"FGReport/internal/domain/repository"
)

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// ClickHouseCellArchive appends every valid heat-map cell of a run to a
// MergeTree table.
type ClickHouseCellArchive struct {
	db    execer
	table string
}

func NewClickHouseCellArchive(db execer, table string) *ClickHouseCellArchive {
	return &ClickHouseCellArchive{db: db, table: table}
}

// Schema returns the DDL for the archive table.
func (a *ClickHouseCellArchive) Schema() []string {
	return []string{fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
	run_id String,
	asof Date,
	horizon UInt16,
	trend_window UInt16,
	bucket LowCardinality(String),
	trend LowCardinality(String),
	mean Float64,
	win_rate Float64,
	count UInt32,
	is_current UInt8,
	archived_at DateTime
) ENGINE = MergeTree
ORDER BY (asof, horizon, bucket, trend)`, a.table)}
}

func (a *ClickHouseCellArchive) Archive(ctx context.Context, runID string, asOf time.Time, h *models.TrendHeatmap) error {
	if h == nil {
		return nil
	}
	recs := h.Records()
	if len(recs) == 0 {
		return nil
	}

	now := time.Now().UTC()
	values := make([]string, 0, len(recs))
	args := make([]any, 0, len(recs)*11)
	for _, r := range recs {
		values = append(values, "(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)")
		current := uint8(0)
		if r.Current {
			current = 1
		}
		args = append(args,
			runID, asOf, uint16(h.Horizon), uint16(h.Window),
			r.Bucket, string(r.Trend), r.Mean, r.WinRate, uint32(r.Count),
			current, now,
		)
	}

	q := fmt.Sprintf("INSERT INTO %s (run_id, asof, horizon, trend_window, bucket, trend, mean, win_rate, count, is_current, archived_at) VALUES %s",
		a.table, strings.Join(values, ","))
	if _, err := a.db.ExecContext(ctx, q, args...); err != nil {
		return fmt.Errorf("archive heatmap cells: %w", err)
	}
	return nil
}

var _ repository.CellArchive = (*ClickHouseCellArchive)(nil)
