package embedding

import (
	"context"
	"hash/fnv"
	"math"

	"github.com/gowthusaidatta/shl-assessment-recommendation-system/core"
	"github.com/gowthusaidatta/shl-assessment-recommendation-system/query"
)

// DefaultHashingDimensions matches the width of the sentence-embedding
// models the remote path typically serves, so snapshots stay compatible in
// shape.
const DefaultHashingDimensions = 384

// HashingEmbedder is a local, deterministic feature-hashing embedder:
// unigrams and adjacent bigrams hash into a fixed-width signed vector which
// is then L2-normalized. Texts sharing vocabulary land close together in
// cosine/euclidean space, which is all the tests and offline mode need. No
// network, no model files, identical output on every run.
type HashingEmbedder struct {
	dims int
}

// NewHashingEmbedder creates the embedder; dims <= 0 selects the default
// width.
func NewHashingEmbedder(dims int) *HashingEmbedder {
	if dims <= 0 {
		dims = DefaultHashingDimensions
	}
	return &HashingEmbedder{dims: dims}
}

// Embed embeds one text.
func (e *HashingEmbedder) Embed(_ context.Context, text string) ([]float64, error) {
	vec := make([]float64, e.dims)
	tokens := query.Tokenize(text)

	add := func(feature string, weight float64) {
		h := fnv.New64a()
		h.Write([]byte(feature))
		sum := h.Sum64()
		slot := int(sum % uint64(e.dims))
		sign := 1.0
		if sum&(1<<63) != 0 {
			sign = -1.0
		}
		vec[slot] += sign * weight
	}

	for i, tok := range tokens {
		add(tok, 1.0)
		if i+1 < len(tokens) {
			add(tok+" "+tokens[i+1], 0.5)
		}
	}

	var norm float64
	for _, v := range vec {
		norm += v * v
	}
	if norm > 0 {
		norm = math.Sqrt(norm)
		for i := range vec {
			vec[i] /= norm
		}
	}
	return vec, nil
}

// EmbedBatch embeds texts in input order.
func (e *HashingEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float64, error) {
	vectors := make([][]float64, len(texts))
	for i, text := range texts {
		vec, err := e.Embed(ctx, text)
		if err != nil {
			return nil, err
		}
		vectors[i] = vec
	}
	return vectors, nil
}

// Dimensions returns the embedding width.
func (e *HashingEmbedder) Dimensions() int { return e.dims }

var _ core.Embedder = (*HashingEmbedder)(nil)
