package repository

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"FGReport/internal/domain/models"
	"FGReport/internal/domain/repository"
	"FGReport/pkg/logger"
)

// JSONSummarySource reads the optional key/value summary blob, keeping the
// file's key order. Missing or malformed files yield no entries.
type JSONSummarySource struct {
	path string
	l    *logger.Logger
}

func NewJSONSummarySource(path string, l *logger.Logger) *JSONSummarySource {
	if l == nil {
		l = logger.Nop()
	}
	return &JSONSummarySource{path: path, l: l}
}

func (s *JSONSummarySource) Load(_ context.Context) ([]models.SummaryEntry, error) {
	b, err := os.ReadFile(s.path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			s.l.Warn("summary json unreadable, panel omitted", logger.String("path", s.path), logger.Error(err))
		}
		return nil, nil
	}
	entries, err := parseOrderedObject(b)
	if err != nil {
		s.l.Warn("summary json malformed, panel omitted", logger.String("path", s.path), logger.Error(err))
		return nil, nil
	}
	return entries, nil
}

// parseOrderedObject decodes a top-level JSON object into entries in file
// order. String values are unquoted; other values keep their JSON text.
func parseOrderedObject(b []byte) ([]models.SummaryEntry, error) {
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, fmt.Errorf("summary json: top level is not an object")
	}

	var out []models.SummaryEntry
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("summary json: unexpected key %v", tok)
		}
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return nil, err
		}
		out = append(out, models.SummaryEntry{Key: key, Value: displayValue(raw)})
	}
	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	return out, nil
}

func displayValue(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return string(bytes.TrimSpace(raw))
}

var _ repository.SummarySource = (*JSONSummarySource)(nil)
