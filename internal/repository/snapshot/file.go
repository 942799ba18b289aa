package snapshot

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/wandervn/placesense/internal/domain"
)

// FileStore persists the snapshot as a JSON file. ReplaceAll writes to a
// temporary file in the same directory and renames it over the old snapshot,
// so a concurrent reader never observes a half-written file.
type FileStore struct {
	path string
}

// NewFileStore creates a file-backed snapshot store.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// ReplaceAll atomically overwrites the persisted snapshot.
func (s *FileStore) ReplaceAll(_ context.Context, records []domain.Record) error {
	data, err := json.Marshal(toDTOs(records))
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}

	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, ".snapshot-*")
	if err != nil {
		return fmt.Errorf("create temp snapshot: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("write temp snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("close temp snapshot: %w", err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("chmod temp snapshot: %w", err)
	}

	if err := os.Rename(tmpName, s.path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("rename snapshot: %w", err)
	}
	return nil
}

// LoadAll returns every record in the current snapshot. A missing snapshot
// yields an empty slice, not an error; an unparseable one wraps
// domain.ErrIndexCorrupt.
func (s *FileStore) LoadAll(_ context.Context) ([]domain.Record, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return []domain.Record{}, nil
		}
		return nil, fmt.Errorf("read snapshot %s: %w", s.path, err)
	}

	var dtos []recordDTO
	if err := json.Unmarshal(data, &dtos); err != nil {
		return nil, fmt.Errorf("parse snapshot %s: %w: %w", s.path, domain.ErrIndexCorrupt, err)
	}
	return fromDTOs(dtos), nil
}

// Ping verifies that the snapshot directory is accessible.
func (s *FileStore) Ping(_ context.Context) error {
	if _, err := os.Stat(filepath.Dir(s.path)); err != nil {
		return fmt.Errorf("snapshot dir: %w", err)
	}
	return nil
}
