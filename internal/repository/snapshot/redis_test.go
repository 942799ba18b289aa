package snapshot

import (
	"context"
	"errors"
	"testing"

	"github.com/wandervn/placesense/internal/db"
	"github.com/wandervn/placesense/internal/domain"
)

// fakeKV is an in-memory db.KVStore.
type fakeKV struct {
	data   map[string][]byte
	getErr error
	setErr error
}

func newFakeKV() *fakeKV { return &fakeKV{data: make(map[string][]byte)} }

func (f *fakeKV) Get(_ context.Context, key string) ([]byte, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	v, ok := f.data[key]
	if !ok {
		return nil, db.ErrKeyNotFound
	}
	return v, nil
}

func (f *fakeKV) Set(_ context.Context, key string, value []byte) error {
	if f.setErr != nil {
		return f.setErr
	}
	f.data[key] = value
	return nil
}

func TestRedisStore_RoundTrip(t *testing.T) {
	kv := newFakeKV()
	store := NewRedisStore(kv, "placesense:snapshot")
	ctx := context.Background()

	want := testRecords()
	if err := store.ReplaceAll(ctx, want); err != nil {
		t.Fatalf("ReplaceAll: %v", err)
	}

	got, err := store.LoadAll(ctx)
	if err != nil {
		t.Fatalf("LoadAll: %v", err)
	}
	if len(got) != len(want) {
		t.Fatalf("expected %d records, got %d", len(want), len(got))
	}

	byID := recordsByID(got)
	for _, w := range want {
		if _, ok := byID[w.EntityID()]; !ok {
			t.Errorf("record %q missing after round trip", w.EntityID())
		}
	}
}

func TestRedisStore_LoadMissingKey(t *testing.T) {
	store := NewRedisStore(newFakeKV(), "placesense:snapshot")

	got, err := store.LoadAll(context.Background())
	if err != nil {
		t.Fatalf("expected no error for missing key, got %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected empty slice, got %d records", len(got))
	}
}

func TestRedisStore_LoadCorruptValue(t *testing.T) {
	kv := newFakeKV()
	kv.data["placesense:snapshot"] = []byte("{not json")
	store := NewRedisStore(kv, "placesense:snapshot")

	_, err := store.LoadAll(context.Background())
	if !errors.Is(err, domain.ErrIndexCorrupt) {
		t.Fatalf("expected ErrIndexCorrupt, got %v", err)
	}
}

func TestRedisStore_SetFailureDoesNotClobber(t *testing.T) {
	kv := newFakeKV()
	store := NewRedisStore(kv, "placesense:snapshot")
	ctx := context.Background()

	if err := store.ReplaceAll(ctx, testRecords()); err != nil {
		t.Fatalf("ReplaceAll: %v", err)
	}

	kv.setErr = errors.New("connection reset")
	if err := store.ReplaceAll(ctx, nil); err == nil {
		t.Fatal("expected error from failing Set")
	}
	kv.setErr = nil

	got, err := store.LoadAll(ctx)
	if err != nil {
		t.Fatalf("LoadAll: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("previous snapshot should be intact, got %d records", len(got))
	}
}
