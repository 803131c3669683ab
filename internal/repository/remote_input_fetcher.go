package repository

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/dustin/go-humanize"

	"FGReport/internal/domain/repository"
	pkghttp "FGReport/pkg/http"
	"FGReport/pkg/logger"
)

// RemoteInputFetcher downloads the observations table to its local path
// before loading. The file is replaced atomically.
type RemoteInputFetcher struct {
	client *pkghttp.Client
	url    string
	dest   string
	l      *logger.Logger
}

func NewRemoteInputFetcher(client *pkghttp.Client, url, dest string, l *logger.Logger) *RemoteInputFetcher {
	if l == nil {
		l = logger.Nop()
	}
	return &RemoteInputFetcher{client: client, url: url, dest: dest, l: l}
}

func (f *RemoteInputFetcher) Fetch(ctx context.Context) error {
	if f.url == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(f.dest), 0o755); err != nil {
		return fmt.Errorf("fetch input: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(f.dest), ".download-*")
	if err != nil {
		return fmt.Errorf("fetch input: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := f.client.Download(ctx, f.url, tmp); err != nil {
		tmp.Close()
		return fmt.Errorf("fetch input %s: %w", f.url, err)
	}
	info, err := tmp.Stat()
	if err != nil {
		tmp.Close()
		return fmt.Errorf("fetch input: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("fetch input: %w", err)
	}
	if err := os.Rename(tmp.Name(), f.dest); err != nil {
		return fmt.Errorf("fetch input: %w", err)
	}

	f.l.Info("input downloaded",
		logger.String("dest", f.dest),
		logger.String("size", humanize.Bytes(uint64(info.Size()))),
	)
	return nil
}

var _ repository.InputFetcher = (*RemoteInputFetcher)(nil)
