// Package index builds the embedding index from the place corpus.
package index

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/wandervn/placesense/internal/domain"
	"github.com/wandervn/placesense/internal/logger"
)

// Report summarizes one build run.
type Report struct {
	Written int // records embedded and persisted
	Failed  int // items whose embedding call failed
	Skipped int // items with empty source text
}

// Service rebuilds the index snapshot: one embedding call per eligible item,
// per-item failures skipped, the whole snapshot replaced at the end. Builds
// are expected to run as a standalone batch job, one at a time.
type Service struct {
	corpus CorpusReader
	store  SnapshotWriter
	embed  Embedder
}

// New creates an index builder.
func New(corpus CorpusReader, store SnapshotWriter, embed Embedder) *Service {
	return &Service{corpus: corpus, store: store, embed: embed}
}

// Build embeds every eligible corpus item and replaces the snapshot with the
// successfully embedded records. A per-item embedding failure is counted and
// skipped; a run where every item fails refuses to replace the store
// (domain.ErrEmptyBuild), so a provider outage can never wipe a healthy
// index. Context cancellation aborts the run without touching the store.
func (s *Service) Build(ctx context.Context) (Report, error) {
	log := logger.FromContext(ctx)

	items, err := s.corpus.Eligible(ctx)
	if err != nil {
		return Report{}, fmt.Errorf("read corpus: %w", err)
	}
	log.Info("corpus read", zap.Int("eligible", len(items)))

	var report Report
	records := make([]domain.Record, 0, len(items))

	for _, item := range items {
		if strings.TrimSpace(item.SourceText) == "" {
			report.Skipped++
			continue
		}

		result, err := s.embed.Embed(ctx, item.SourceText)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return report, fmt.Errorf("build aborted: %w", ctxErr)
			}
			report.Failed++
			log.Warn("embedding failed, skipping item",
				zap.String("id", item.EntityID),
				zap.String("slug", item.Slug),
				zap.Error(err),
			)
			continue
		}

		records = append(records, domain.NewRecord(
			item.EntityID, item.Slug, item.DisplayName, item.SourceText, result.Embedding,
		))
		log.Debug("embedded", zap.String("slug", item.Slug), zap.Int("dims", len(result.Embedding)))
	}

	report.Written = len(records)

	if report.Written == 0 && len(items) > 0 {
		return report, fmt.Errorf("%d items, none embedded: %w", len(items), domain.ErrEmptyBuild)
	}

	if err := s.store.ReplaceAll(ctx, records); err != nil {
		report.Written = 0
		return report, fmt.Errorf("replace snapshot: %w", err)
	}

	log.Info("index rebuilt",
		zap.Int("written", report.Written),
		zap.Int("failed", report.Failed),
		zap.Int("skipped", report.Skipped),
	)
	return report, nil
}

// IsEmptyBuild reports whether err is the zero-success refusal.
func IsEmptyBuild(err error) bool {
	return errors.Is(err, domain.ErrEmptyBuild)
}
