package domain

import "errors"

var (
	// ErrEmbeddingUnavailable signals that the embedding provider could not be
	// reached, timed out, or returned malformed or empty data.
	ErrEmbeddingUnavailable = errors.New("embedding unavailable")
	// ErrIndexCorrupt signals that the persisted index snapshot could not be parsed.
	ErrIndexCorrupt = errors.New("index corrupt")
	// ErrEmptyBuild signals a build in which every corpus item failed to embed.
	ErrEmptyBuild = errors.New("empty build: no items embedded")
)
