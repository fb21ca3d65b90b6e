// Package vector provides the exact (non-approximate) vector index backing
// candidate retrieval, plus its snapshot persistence and catalog builder.
// The whole catalog fits in memory many times over, so a flat scan is both
// the simplest and the only exact option.
package vector

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"sort"
	"sync"

	"github.com/gowthusaidatta/shl-assessment-recommendation-system/core"
)

// FlatIndex is an exact-search vector index over the full catalog.
//
// Characteristics:
//   - every Search scans all vectors: exact results, no recall loss
//   - insertion order is preserved and breaks distance ties, which pins
//     down result order for byte-identical reruns
//   - thread safe; Upsert keeps an existing ID at its original position
type FlatIndex struct {
	mu      sync.RWMutex
	dim     int
	metric  string
	ids     []string
	vectors [][]float64
	pos     map[string]int // id -> slot in ids/vectors
}

// NewFlatIndex creates an empty index. metric defaults to l2.
func NewFlatIndex(dim int, metric string) (*FlatIndex, error) {
	if dim <= 0 {
		return nil, core.NewDomainError(core.ModuleIndex, core.ErrorCodeInvalidInput, fmt.Sprintf("dimension must be > 0, got %d", dim))
	}
	switch metric {
	case "":
		metric = core.MetricL2
	case core.MetricL2, core.MetricCosine, core.MetricInnerProduct:
	default:
		return nil, core.NewDomainError(core.ModuleIndex, core.ErrorCodeInvalidInput, fmt.Sprintf("unknown metric %q", metric))
	}
	return &FlatIndex{
		dim:    dim,
		metric: metric,
		pos:    make(map[string]int),
	}, nil
}

func (f *FlatIndex) Name() string { return "flat" }

// Dimensions returns the vector width the index accepts.
func (f *FlatIndex) Dimensions() int { return f.dim }

// Metric returns the default distance metric.
func (f *FlatIndex) Metric() string { return f.metric }

// Len returns the number of indexed vectors.
func (f *FlatIndex) Len() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.ids)
}

// Upsert adds a vector, or replaces it in place when the ID is already
// indexed. Replacement keeps the original insertion slot so tie-break order
// never shifts under rebuilds of single entries.
func (f *FlatIndex) Upsert(id string, vec []float64) error {
	if id == "" {
		return core.NewDomainError(core.ModuleIndex, core.ErrorCodeInvalidInput, "vector id is empty")
	}
	if len(vec) != f.dim {
		return core.NewDomainError(core.ModuleIndex, core.ErrorCodeInvalidInput, fmt.Sprintf("vector for %q has dimension %d, index expects %d", id, len(vec), f.dim))
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if slot, ok := f.pos[id]; ok {
		f.vectors[slot] = vec
		return nil
	}
	f.pos[id] = len(f.ids)
	f.ids = append(f.ids, id)
	f.vectors = append(f.vectors, vec)
	return nil
}

// Search implements core.VectorService: full scan, ascending distance, ties
// by insertion order. Searching an empty index is an IndexUnavailableError.
func (f *FlatIndex) Search(ctx context.Context, req *core.VectorSearchRequest) (*core.VectorSearchResult, error) {
	if req == nil {
		return nil, core.NewDomainError(core.ModuleIndex, core.ErrorCodeInvalidInput, "search request is nil")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f.mu.RLock()
	defer f.mu.RUnlock()

	if len(f.ids) == 0 {
		return nil, core.NewIndexUnavailableError("index holds no vectors", nil)
	}
	if len(req.Vector) != f.dim {
		return nil, core.NewDomainError(core.ModuleIndex, core.ErrorCodeInvalidInput, fmt.Sprintf("query vector has dimension %d, index expects %d", len(req.Vector), f.dim))
	}

	metric := req.Metric
	if metric == "" {
		metric = f.metric
	}

	items := make([]*core.VectorSearchItem, len(f.ids))
	for i, id := range f.ids {
		dist, score := distanceAndScore(metric, req.Vector, f.vectors[i])
		items[i] = &core.VectorSearchItem{ID: id, Distance: dist, Score: score}
	}

	// Stable sort on distance alone: equal distances keep insertion order.
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].Distance < items[j].Distance
	})

	topN := req.TopN
	if topN <= 0 {
		topN = 10
	}
	if topN < len(items) {
		items = items[:topN]
	}
	return &core.VectorSearchResult{Items: items}, nil
}

// Close implements core.VectorService.
func (f *FlatIndex) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ids = nil
	f.vectors = nil
	f.pos = make(map[string]int)
	return nil
}

// distanceAndScore maps a vector pair to (distance, similarity) under the
// metric. For the distance metrics (l2, cosine) the similarity is
// 1/(1+distance), bounded to (0,1] and monotone decreasing in distance.
// inner_product has no natural bound; its raw dot product is the score and
// its negation the distance.
func distanceAndScore(metric string, a, b []float64) (float64, float64) {
	switch metric {
	case core.MetricCosine:
		d := 1 - cosineSimilarity(a, b)
		return d, 1.0 / (1.0 + d)
	case core.MetricInnerProduct:
		dot := innerProduct(a, b)
		return -dot, dot
	default: // l2
		d := euclideanDistance(a, b)
		return d, 1.0 / (1.0 + d)
	}
}

func cosineSimilarity(a, b []float64) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

func euclideanDistance(a, b []float64) float64 {
	if len(a) != len(b) {
		return math.MaxFloat64
	}
	var sum float64
	for i := range a {
		diff := a[i] - b[i]
		sum += diff * diff
	}
	return math.Sqrt(sum)
}

func innerProduct(a, b []float64) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var sum float64
	for i := range a {
		sum += a[i] * b[i]
	}
	return sum
}

// snapshot is the on-disk form of a FlatIndex.
type snapshot struct {
	Dim     int         `json:"dim"`
	Metric  string      `json:"metric"`
	IDs     []string    `json:"ids"`
	Vectors [][]float64 `json:"vectors"`
}

// Save writes the index to a JSON snapshot. The write goes through a temp
// file and rename so a crash never leaves a truncated snapshot behind.
func (f *FlatIndex) Save(path string) error {
	f.mu.RLock()
	snap := snapshot{
		Dim:     f.dim,
		Metric:  f.metric,
		IDs:     f.ids,
		Vectors: f.vectors,
	}
	data, err := json.Marshal(snap)
	f.mu.RUnlock()
	if err != nil {
		return fmt.Errorf("encode index snapshot: %w", err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write index snapshot: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("install index snapshot: %w", err)
	}
	return nil
}

// LoadFlatIndex restores an index from a Save snapshot, validating
// dimension consistency of every row.
func LoadFlatIndex(path string) (*FlatIndex, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, core.NewIndexUnavailableError("read index snapshot", err)
	}
	var snap snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, core.NewIndexUnavailableError("decode index snapshot", err)
	}
	if len(snap.IDs) != len(snap.Vectors) {
		return nil, core.NewIndexUnavailableError(fmt.Sprintf("snapshot is inconsistent: %d ids, %d vectors", len(snap.IDs), len(snap.Vectors)), nil)
	}

	idx, err := NewFlatIndex(snap.Dim, snap.Metric)
	if err != nil {
		return nil, core.NewIndexUnavailableError("snapshot carries an invalid header", err)
	}
	for i, id := range snap.IDs {
		if err := idx.Upsert(id, snap.Vectors[i]); err != nil {
			return nil, core.NewIndexUnavailableError(fmt.Sprintf("snapshot row %d rejected", i), err)
		}
	}
	return idx, nil
}

var _ core.VectorService = (*FlatIndex)(nil)
