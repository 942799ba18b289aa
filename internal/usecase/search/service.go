package search

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/wandervn/placesense/internal/domain"
	"github.com/wandervn/placesense/internal/logger"
	"github.com/wandervn/placesense/internal/metrics"
)

// DefaultTopK is the number of results returned when the caller passes 0.
const DefaultTopK = 3

// Service answers semantic place queries against the cached embedding index.
// The index is loaded lazily on first search and kept immutable for the
// process lifetime; Reload swaps in a fresh snapshot on demand.
type Service struct {
	store       SnapshotLoader
	embed       Embedder
	ranker      Ranker
	defaultTopK int

	mu      sync.RWMutex
	records []domain.Record
	loaded  bool
	group   singleflight.Group
}

// New creates a search service.
func New(store SnapshotLoader, embed Embedder, ranker Ranker) *Service {
	return &Service{
		store:       store,
		embed:       embed,
		ranker:      ranker,
		defaultTopK: DefaultTopK,
	}
}

// WithDefaultTopK configures the top-K used when the caller passes 0.
func (s *Service) WithDefaultTopK(k int) *Service {
	if k > 0 {
		s.defaultTopK = k
	}
	return s
}

// Search embeds the query, ranks it against the cached index, and returns up
// to topK results ordered by descending similarity. An empty index yields an
// empty result, not an error; an embedding failure fails the whole search.
func (s *Service) Search(ctx context.Context, queryText string, topK int) ([]domain.RankedResult, error) {
	if topK <= 0 {
		topK = s.defaultTopK
	}

	records, err := s.cachedIndex(ctx)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		// "No index yet" is a valid state. Skip the provider call entirely.
		return []domain.RankedResult{}, nil
	}

	embResult, err := s.embed.Embed(ctx, queryText)
	if err != nil {
		return nil, fmt.Errorf("vectorize query: %w", err)
	}

	start := time.Now()
	results := s.ranker.Rank(embResult.Embedding, records, topK)
	metrics.SearchDuration.Observe(time.Since(start).Seconds())

	return results, nil
}

// Reload discards the cached index and loads the current snapshot. On a
// corrupt snapshot the previous cache is kept and the error is returned, so
// an operator-triggered reload never degrades a serving instance.
func (s *Service) Reload(ctx context.Context) (int, error) {
	records, err := s.store.LoadAll(ctx)
	if err != nil {
		metrics.IndexLoadsTotal.WithLabelValues(loadResult(err)).Inc()
		return 0, fmt.Errorf("reload index: %w", err)
	}
	s.observeLoad(ctx, records)

	s.mu.Lock()
	s.records = records
	s.loaded = true
	s.mu.Unlock()

	return len(records), nil
}

// cachedIndex returns the in-memory index, loading it once. Concurrent first
// requests collapse into a single load. A corrupt snapshot degrades to an
// empty cached index so search stays available.
func (s *Service) cachedIndex(ctx context.Context) ([]domain.Record, error) {
	s.mu.RLock()
	if s.loaded {
		records := s.records
		s.mu.RUnlock()
		return records, nil
	}
	s.mu.RUnlock()

	v, err, _ := s.group.Do("load", func() (interface{}, error) {
		// Re-check: another flight may have finished between the RUnlock
		// above and entering this one.
		s.mu.RLock()
		if s.loaded {
			records := s.records
			s.mu.RUnlock()
			return records, nil
		}
		s.mu.RUnlock()

		records, err := s.store.LoadAll(ctx)
		if err != nil {
			if !errors.Is(err, domain.ErrIndexCorrupt) {
				metrics.IndexLoadsTotal.WithLabelValues("error").Inc()
				return nil, fmt.Errorf("load index: %w", err)
			}
			// Degrade to empty rather than failing every search, but make
			// the corruption visible: quality silently drops to no results.
			logger.FromContext(ctx).Error("index snapshot corrupt, serving empty index", zap.Error(err))
			metrics.IndexLoadsTotal.WithLabelValues("corrupt").Inc()
			records = []domain.Record{}
		} else {
			s.observeLoad(ctx, records)
		}

		s.mu.Lock()
		s.records = records
		s.loaded = true
		s.mu.Unlock()

		return records, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]domain.Record), nil
}

func (s *Service) observeLoad(ctx context.Context, records []domain.Record) {
	if len(records) == 0 {
		logger.FromContext(ctx).Warn("no index snapshot found, serving empty index")
		metrics.IndexLoadsTotal.WithLabelValues("missing").Inc()
	} else {
		logger.FromContext(ctx).Info("index snapshot loaded", zap.Int("records", len(records)))
		metrics.IndexLoadsTotal.WithLabelValues("ok").Inc()
	}
	metrics.IndexSize.Set(float64(len(records)))
}

func loadResult(err error) string {
	if errors.Is(err, domain.ErrIndexCorrupt) {
		return "corrupt"
	}
	return "error"
}
