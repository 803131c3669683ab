package repository

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"FGReport/internal/domain/repository"
)

// FileNotesSource reads the notes card Markdown. A missing file is empty.
type FileNotesSource struct {
	path string
}

func NewFileNotesSource(path string) *FileNotesSource {
	return &FileNotesSource{path: path}
}

func (s *FileNotesSource) Load(_ context.Context) (string, error) {
	if s.path == "" {
		return "", nil
	}
	b, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", nil
		}
		return "", fmt.Errorf("read notes: %w", err)
	}
	return string(b), nil
}

var _ repository.NotesSource = (*FileNotesSource)(nil)
