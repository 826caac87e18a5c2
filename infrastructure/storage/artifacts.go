// Package storage holds the file-artifact collaborator: a flat directory
// of uploaded files, listed by modification time and evicted by the
// reaper.
package storage

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
)

type FileArtifactStore struct {
	dir string
	log *slog.Logger
}

func NewFileArtifactStore(dir string, log *slog.Logger) (FileArtifactStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return FileArtifactStore{}, fmt.Errorf("upload directory creation failed: %w", err)
	}
	return FileArtifactStore{dir: dir, log: log}, nil
}

func (s FileArtifactStore) Dir() string {
	return s.dir
}

// Save stores the content under "{uuid}_{filename}" and returns the
// stored name. The uuid prefix avoids collisions between same-named
// uploads; filepath.Base strips any client-supplied path components.
func (s FileArtifactStore) Save(filename string, r io.Reader) (string, error) {
	stored := uuid.NewString() + "_" + filepath.Base(filename)
	f, err := os.Create(filepath.Join(s.dir, stored))
	if err != nil {
		return "", err
	}
	defer f.Close()
	if _, err := io.Copy(f, r); err != nil {
		return "", err
	}
	return stored, nil
}

func (s FileArtifactStore) Path(name string) string {
	return filepath.Join(s.dir, filepath.Base(name))
}

// ListOlderThan returns stored names whose modification time is older
// than age. Entries that vanish between the listing and the stat are
// skipped.
func (s FileArtifactStore) ListOlderThan(age time.Duration) ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, err
	}
	cutoff := time.Now().Add(-age)
	var stale []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if info.ModTime().Before(cutoff) {
			stale = append(stale, entry.Name())
		}
	}
	return stale, nil
}

func (s FileArtifactStore) Delete(name string) error {
	return os.Remove(s.Path(name))
}
