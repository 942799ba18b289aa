package search

import (
	"math"
	"sort"

	"github.com/wandervn/placesense/internal/domain"
)

// BruteForceRanker ranks by cosine similarity with a full O(N·D) scan.
// Fine for hundreds to low thousands of records; beyond that, replace with
// an approximate nearest-neighbor index behind the Ranker contract.
type BruteForceRanker struct{}

// NewBruteForceRanker creates a full-scan ranker.
func NewBruteForceRanker() *BruteForceRanker { return &BruteForceRanker{} }

// Rank scores every candidate against the query and returns at most topK
// results sorted by similarity descending. Ties keep the candidates'
// relative input order.
func (*BruteForceRanker) Rank(
	query []float32, candidates []domain.Record, topK int,
) []domain.RankedResult {
	results := make([]domain.RankedResult, len(candidates))
	for i := range candidates {
		c := &candidates[i]
		sim := cosineSimilarity(query, c.Vector())
		results[i] = domain.NewRankedResult(c.EntityID(), c.Slug(), c.DisplayName(), sim)
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Similarity() > results[j].Similarity()
	})

	if topK >= 0 && len(results) > topK {
		results = results[:topK]
	}
	return results
}

// cosineSimilarity returns dot(a,b) / (|a|·|b|). Mismatched lengths and
// zero-magnitude vectors score 0 rather than erroring, so ranking stays
// robust against partially rebuilt indexes. NaN is coerced to 0.
func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		ai := float64(a[i])
		bi := float64(b[i])
		dot += ai * bi
		normA += ai * ai
		normB += bi * bi
	}
	if normA == 0 || normB == 0 {
		return 0
	}

	sim := dot / (math.Sqrt(normA) * math.Sqrt(normB))
	if math.IsNaN(sim) {
		return 0
	}
	return sim
}
