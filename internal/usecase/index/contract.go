package index

import (
	"context"

	"github.com/wandervn/placesense/internal/domain"
)

// CorpusReader supplies the items eligible for indexing. Eligibility
// filtering is the corpus collaborator's job.
type CorpusReader interface {
	Eligible(ctx context.Context) ([]domain.CorpusItem, error)
}

// SnapshotWriter replaces the persisted embedding index wholesale.
type SnapshotWriter interface {
	ReplaceAll(ctx context.Context, records []domain.Record) error
}

// Embedder vectorizes place descriptions.
type Embedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
}
