package vector

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/gowthusaidatta/shl-assessment-recommendation-system/core"
)

// BuildOptions tune index construction.
type BuildOptions struct {
	// Metric is the index's default distance metric; empty means l2.
	Metric string

	// BatchSize is how many documents go into one embedding call.
	BatchSize int

	// Concurrency caps parallel embedding calls.
	Concurrency int

	// Limiter, when set, paces embedding calls (one token per batch).
	// Remote embedding endpoints rate-limit; local embedders leave it nil.
	Limiter *rate.Limiter
}

func (o BuildOptions) withDefaults() BuildOptions {
	if o.BatchSize <= 0 {
		o.BatchSize = 32
	}
	if o.Concurrency <= 0 {
		o.Concurrency = 4
	}
	return o
}

// BuildFlatIndex embeds every catalog document and assembles the index.
// Embedding runs in concurrent batches; vectors land in catalog order
// regardless of completion order, so two builds over the same catalog and
// embedder are identical.
func BuildFlatIndex(ctx context.Context, catalog *core.Catalog, embedder core.Embedder, opts BuildOptions) (*FlatIndex, error) {
	if catalog == nil || catalog.Len() == 0 {
		return nil, core.NewDomainError(core.ModuleIndex, core.ErrorCodeInvalidInput, "catalog is empty")
	}
	if embedder == nil {
		return nil, core.NewDomainError(core.ModuleIndex, core.ErrorCodeInvalidInput, "embedder is nil")
	}
	opts = opts.withDefaults()

	items := catalog.Items()
	docs := make([]string, len(items))
	for i, a := range items {
		docs[i] = a.Document()
	}

	vectors := make([][]float64, len(items))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.Concurrency)

	for start := 0; start < len(docs); start += opts.BatchSize {
		start := start
		end := min(start+opts.BatchSize, len(docs))
		g.Go(func() error {
			if opts.Limiter != nil {
				if err := opts.Limiter.Wait(gctx); err != nil {
					return err
				}
			}
			batch, err := embedder.EmbedBatch(gctx, docs[start:end])
			if err != nil {
				return fmt.Errorf("embed batch [%d,%d): %w", start, end, err)
			}
			if len(batch) != end-start {
				return fmt.Errorf("embed batch [%d,%d): got %d vectors", start, end, len(batch))
			}
			copy(vectors[start:end], batch)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	idx, err := NewFlatIndex(embedder.Dimensions(), opts.Metric)
	if err != nil {
		return nil, err
	}
	for i, a := range items {
		if err := idx.Upsert(a.ID, vectors[i]); err != nil {
			return nil, fmt.Errorf("index %q: %w", a.ID, err)
		}
	}
	return idx, nil
}
