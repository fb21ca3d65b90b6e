package core

import "context"

// CatalogStore loads the full assessment inventory.
//
// Implementations: store.FileCatalog (JSON file, the deployment default),
// store.KVCatalog (snapshot in a shared Store backend).
type CatalogStore interface {
	// LoadCatalog returns every assessment in source order. A missing or
	// corrupt source is a CatalogUnavailableError.
	LoadCatalog(ctx context.Context) ([]*Assessment, error)
}

// Embedder turns text into vectors in the index's embedding space.
//
// Implementations: embedding.OpenAIEmbedder (remote, OpenAI-compatible),
// embedding.HashingEmbedder (local, deterministic).
type Embedder interface {
	// Embed embeds one text.
	Embed(ctx context.Context, text string) ([]float64, error)

	// EmbedBatch embeds many texts, preserving order.
	EmbedBatch(ctx context.Context, texts []string) ([][]float64, error)

	// Dimensions returns the embedding width.
	Dimensions() int
}

// RelevanceScorer is the external-reranker strategy contract: score a set of
// candidates against the query in one call.
//
// Implementations: scorer.LLM (chat-completion backed), scorer.Rule
// (deterministic lexical scorer, never fails).
//
// Contract:
//   - returns assessment-ID -> score in [0,1]
//   - ids absent from the result simply contribute no external score
//   - exactly one call per request; the caller never retries
type RelevanceScorer interface {
	Name() string
	Score(ctx context.Context, query string, candidates []*Candidate) (map[string]float64, error)
}
