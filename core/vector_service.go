package core

import "context"

// VectorService is the domain-facing vector retrieval contract.
//
// Design principles:
//   - defined in the domain layer, implemented by infrastructure (vector)
//   - retrieval-only surface: index building and persistence belong to the
//     concrete implementation
//
// Implementations: vector.FlatIndex (exact search over the full catalog).
type VectorService interface {
	// Search returns the nearest neighbors of the request vector.
	Search(ctx context.Context, req *VectorSearchRequest) (*VectorSearchResult, error)

	// Close releases index resources.
	Close() error
}

// Distance metrics.
const (
	MetricL2           = "l2"
	MetricCosine       = "cosine"
	MetricInnerProduct = "inner_product"
)

// VectorSearchRequest asks for the TopN items nearest to Vector.
type VectorSearchRequest struct {
	Vector []float64

	// TopN bounds the result size; implementations clamp it to the index
	// size.
	TopN int

	// Metric overrides the index default when set.
	Metric string
}

// VectorSearchItem is one neighbor.
type VectorSearchItem struct {
	ID string

	// Distance under the effective metric; lower is nearer.
	Distance float64

	// Score is the similarity mapped into (0,1]: 1/(1+distance) for
	// distance metrics, so ordering by descending Score equals ordering by
	// ascending Distance.
	Score float64
}

// VectorSearchResult is an ordered neighbor list: ascending distance, ties
// in index insertion order.
type VectorSearchResult struct {
	Items []*VectorSearchItem
}
