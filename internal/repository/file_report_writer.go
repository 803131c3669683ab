package repository

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/dustin/go-humanize"

	"FGReport/internal/domain/models"
	"FGReport/internal/domain/repository"
	"FGReport/pkg/logger"
)

// FileReportWriter writes reports and their assets under a docs root.
type FileReportWriter struct {
	root string
	l    *logger.Logger
}

func NewFileReportWriter(root string, l *logger.Logger) *FileReportWriter {
	if l == nil {
		l = logger.Nop()
	}
	return &FileReportWriter{root: root, l: l}
}

// Write stores assets first so no HTML ever references a missing image.
// Empty names in files are skipped.
func (w *FileReportWriter) Write(ctx context.Context, report *models.Report, files repository.ReportFiles) ([]string, int64, error) {
	if err := os.MkdirAll(w.root, 0o755); err != nil {
		return nil, 0, fmt.Errorf("create docs dir: %w", err)
	}

	var written []string
	var total int64

	assets := make([]string, 0, len(report.Assets))
	for p := range report.Assets {
		assets = append(assets, p)
	}
	sort.Strings(assets)
	for _, p := range assets {
		if err := ctx.Err(); err != nil {
			return written, total, err
		}
		path, err := w.writeFile(p, report.Assets[p])
		if err != nil {
			return written, total, err
		}
		written = append(written, path)
		total += int64(len(report.Assets[p]))
	}

	for _, name := range []string{files.Dated, files.Latest, files.Index} {
		if name == "" {
			continue
		}
		path, err := w.writeFile(name, report.HTML)
		if err != nil {
			return written, total, err
		}
		written = append(written, path)
		total += int64(len(report.HTML))
	}

	w.l.Info("report written",
		logger.Int("files", len(written)),
		logger.String("html", humanize.Bytes(uint64(len(report.HTML)))),
		logger.String("total", humanize.Bytes(uint64(total))),
	)
	return written, total, nil
}

func (w *FileReportWriter) writeFile(rel string, data []byte) (string, error) {
	path := filepath.Join(w.root, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("create dir for %s: %w", rel, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write %s: %w", rel, err)
	}
	return path, nil
}

var _ repository.ReportWriter = (*FileReportWriter)(nil)
