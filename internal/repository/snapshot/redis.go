package snapshot

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/wandervn/placesense/internal/db"
	"github.com/wandervn/placesense/internal/domain"
)

// RedisStore persists the snapshot as a single JSON blob under one key.
// SET replaces the value atomically, so readers see either the old or the
// new snapshot, never a partial one.
type RedisStore struct {
	store db.KVStore
	key   string
}

// NewRedisStore creates a Redis-backed snapshot store.
func NewRedisStore(store db.KVStore, key string) *RedisStore {
	return &RedisStore{store: store, key: key}
}

// ReplaceAll atomically overwrites the persisted snapshot.
func (s *RedisStore) ReplaceAll(ctx context.Context, records []domain.Record) error {
	data, err := json.Marshal(toDTOs(records))
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}
	if err := s.store.Set(ctx, s.key, data); err != nil {
		return fmt.Errorf("store snapshot: %w", err)
	}
	return nil
}

// LoadAll returns every record in the current snapshot. A missing key yields
// an empty slice; an unparseable value wraps domain.ErrIndexCorrupt.
func (s *RedisStore) LoadAll(ctx context.Context) ([]domain.Record, error) {
	data, err := s.store.Get(ctx, s.key)
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return []domain.Record{}, nil
		}
		return nil, fmt.Errorf("load snapshot: %w", err)
	}

	var dtos []recordDTO
	if err := json.Unmarshal(data, &dtos); err != nil {
		return nil, fmt.Errorf("parse snapshot key %s: %w: %w", s.key, domain.ErrIndexCorrupt, err)
	}
	return fromDTOs(dtos), nil
}
