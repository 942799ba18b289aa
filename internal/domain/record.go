package domain

// Record is one indexed place: the text that was embedded plus its vector.
// Records are created in bulk by the index builder, persisted as a snapshot,
// and replaced wholesale on each rebuild. The vector length is fixed by the
// embedding model; a record whose vector length differs from the query is
// not comparable and ranks with similarity 0.
type Record struct {
	entityID    string
	slug        string
	displayName string
	sourceText  string
	vector      []float32
}

// NewRecord creates an index record.
func NewRecord(entityID, slug, displayName, sourceText string, vector []float32) Record {
	return Record{
		entityID:    entityID,
		slug:        slug,
		displayName: displayName,
		sourceText:  sourceText,
		vector:      vector,
	}
}

// EntityID returns the opaque identifier of the source item.
func (r *Record) EntityID() string { return r.entityID }

// Slug returns the stable human-readable identifier.
func (r *Record) Slug() string { return r.slug }

// DisplayName returns the presentation label.
func (r *Record) DisplayName() string { return r.displayName }

// SourceText returns the text that was embedded. Kept for audit, not used at query time.
func (r *Record) SourceText() string { return r.sourceText }

// Vector returns the embedding vector.
func (r *Record) Vector() []float32 { return r.vector }

// RankedResult is a single search hit.
type RankedResult struct {
	entityID    string
	slug        string
	displayName string
	similarity  float64
}

// NewRankedResult creates a search hit.
func NewRankedResult(entityID, slug, displayName string, similarity float64) RankedResult {
	return RankedResult{
		entityID:    entityID,
		slug:        slug,
		displayName: displayName,
		similarity:  similarity,
	}
}

// EntityID returns the matched item identifier.
func (r *RankedResult) EntityID() string { return r.entityID }

// Slug returns the matched item slug.
func (r *RankedResult) Slug() string { return r.slug }

// DisplayName returns the matched item label.
func (r *RankedResult) DisplayName() string { return r.displayName }

// Similarity returns the cosine similarity score in [-1, 1].
func (r *RankedResult) Similarity() float64 { return r.similarity }

// CorpusItem is one source item eligible for indexing, as supplied by the
// corpus collaborator. Eligibility filtering (active, approved) happens there.
type CorpusItem struct {
	EntityID    string
	Slug        string
	DisplayName string
	SourceText  string
}
