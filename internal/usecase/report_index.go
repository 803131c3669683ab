package usecase

import (
	"context"
	"fmt"

	"FGReport/internal/domain/models"
	domrepo "FGReport/internal/domain/repository"
)

// DefaultIndexLimit is the number of reports kept in the index.
const DefaultIndexLimit = 10

// AddToIndex drops any entry with the same file name, prepends e and keeps
// at most limit entries. The input slice is not modified.
func AddToIndex(entries []models.ReportIndexEntry, e models.ReportIndexEntry, limit int) []models.ReportIndexEntry {
	if limit <= 0 {
		limit = DefaultIndexLimit
	}
	out := make([]models.ReportIndexEntry, 0, min(len(entries)+1, limit))
	out = append(out, e)
	for _, old := range entries {
		if len(out) == limit {
			break
		}
		if old.File == e.File {
			continue
		}
		out = append(out, old)
	}
	return out
}

// ReportIndex maintains the rolling list of recent reports.
type ReportIndex struct {
	store domrepo.ReportIndexStore
	limit int
}

func NewReportIndex(store domrepo.ReportIndexStore, limit int) *ReportIndex {
	if limit <= 0 {
		limit = DefaultIndexLimit
	}
	return &ReportIndex{store: store, limit: limit}
}

// List returns the stored entries, most recent first.
func (ri *ReportIndex) List(ctx context.Context) ([]models.ReportIndexEntry, error) {
	entries, err := ri.store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load report index: %w", err)
	}
	if len(entries) > ri.limit {
		entries = entries[:ri.limit]
	}
	return entries, nil
}

// Preview returns the index as it will look once e is recorded.
func (ri *ReportIndex) Preview(ctx context.Context, e models.ReportIndexEntry) ([]models.ReportIndexEntry, error) {
	entries, err := ri.List(ctx)
	if err != nil {
		return nil, err
	}
	return AddToIndex(entries, e, ri.limit), nil
}

// Save persists entries.
func (ri *ReportIndex) Save(ctx context.Context, entries []models.ReportIndexEntry) error {
	if err := ri.store.Save(ctx, entries); err != nil {
		return fmt.Errorf("save report index: %w", err)
	}
	return nil
}

// Record adds e to the stored index.
func (ri *ReportIndex) Record(ctx context.Context, e models.ReportIndexEntry) ([]models.ReportIndexEntry, error) {
	entries, err := ri.Preview(ctx, e)
	if err != nil {
		return nil, err
	}
	return entries, ri.Save(ctx, entries)
}
