package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"FGReport/internal/domain/models"
	"FGReport/internal/domain/repository"
	"FGReport/pkg/logger"
)

// JSONReportIndexStore keeps the report index as a JSON array on disk.
type JSONReportIndexStore struct {
	path string
	l    *logger.Logger
}

func NewJSONReportIndexStore(path string, l *logger.Logger) *JSONReportIndexStore {
	if l == nil {
		l = logger.Nop()
	}
	return &JSONReportIndexStore{path: path, l: l}
}

// Load returns the stored entries. A missing or malformed file is empty.
func (s *JSONReportIndexStore) Load(_ context.Context) ([]models.ReportIndexEntry, error) {
	b, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read report index: %w", err)
	}
	var entries []models.ReportIndexEntry
	if err := json.Unmarshal(b, &entries); err != nil {
		s.l.Warn("report index malformed, starting fresh", logger.String("path", s.path), logger.Error(err))
		return nil, nil
	}
	return entries, nil
}

func (s *JSONReportIndexStore) Save(_ context.Context, entries []models.ReportIndexEntry) error {
	if entries == nil {
		entries = []models.ReportIndexEntry{}
	}
	b, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("encode report index: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("save report index: %w", err)
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, append(b, '\n'), 0o644); err != nil {
		return fmt.Errorf("save report index: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("save report index: %w", err)
	}
	return nil
}

var _ repository.ReportIndexStore = (*JSONReportIndexStore)(nil)
