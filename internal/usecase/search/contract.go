package search

import (
	"context"

	"github.com/wandervn/placesense/internal/domain"
)

// SnapshotLoader reads the persisted embedding index.
type SnapshotLoader interface {
	LoadAll(ctx context.Context) ([]domain.Record, error)
}

// Embedder vectorizes query text.
type Embedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
}

// Ranker scores candidates against a query vector and returns the top-K
// matches. The brute-force scan is the default; an approximate index can be
// swapped in behind the same contract if the corpus outgrows a full scan.
type Ranker interface {
	Rank(query []float32, candidates []domain.Record, topK int) []domain.RankedResult
}
