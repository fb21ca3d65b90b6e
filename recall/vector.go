package recall

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/gowthusaidatta/shl-assessment-recommendation-system/core"
	"github.com/gowthusaidatta/shl-assessment-recommendation-system/pipeline"
	"github.com/gowthusaidatta/shl-assessment-recommendation-system/pkg/utils"
)

// VectorSource retrieves the TopN nearest catalog entries to the query
// embedding. It is both a pipeline.Node (the default recall stage) and a
// Source (for Fanout compositions).
//
// This is the mandatory retrieval path: an unusable index or catalog fails
// the request, it never degrades silently.
type VectorSource struct {
	Index   core.VectorService
	Catalog *core.Catalog

	// TopN overrides the per-request option when > 0.
	TopN int

	// Metric overrides the index default when set.
	Metric string

	Logger zerolog.Logger
}

func (r *VectorSource) Name() string        { return "recall.vector" }
func (r *VectorSource) Kind() pipeline.Kind { return pipeline.KindRecall }

// Process implements pipeline.Node. Incoming candidates are ignored: recall
// is the generating stage.
func (r *VectorSource) Process(
	ctx context.Context,
	qctx *core.QueryContext,
	_ []*core.Candidate,
) ([]*core.Candidate, error) {
	return r.Recall(ctx, qctx)
}

// Recall implements Source. Exactly one index search per call.
func (r *VectorSource) Recall(ctx context.Context, qctx *core.QueryContext) ([]*core.Candidate, error) {
	if r.Index == nil {
		return nil, core.NewIndexUnavailableError("vector index is not configured", nil)
	}
	if r.Catalog == nil || r.Catalog.Len() == 0 {
		return nil, core.NewCatalogUnavailableError("catalog is not loaded", nil)
	}
	if qctx == nil || len(qctx.Vector) == 0 {
		return nil, core.NewIndexUnavailableError("query embedding is missing", nil)
	}

	topN := r.TopN
	if topN <= 0 {
		topN = qctx.Options.TopN
	}
	if topN <= 0 {
		topN = core.DefaultOptions().TopN
	}

	res, err := r.Index.Search(ctx, &core.VectorSearchRequest{
		Vector: qctx.Vector,
		TopN:   topN,
		Metric: r.Metric,
	})
	if err != nil {
		if core.IsIndexUnavailable(err) {
			return nil, err
		}
		return nil, core.NewIndexUnavailableError("vector search failed", err)
	}

	out := make([]*core.Candidate, 0, len(res.Items))
	for _, hit := range res.Items {
		a, ok := r.Catalog.Get(hit.ID)
		if !ok {
			// Index and catalog snapshots disagree; drop the orphan rather
			// than fail the request.
			r.Logger.Warn().Str("id", hit.ID).Msg("index returned an id the catalog does not know")
			continue
		}
		c := core.NewCandidate(a)
		c.Similarity = hit.Score
		c.Score = hit.Score
		c.PutLabel("recall_source", utils.Label{Value: r.Name(), Source: "recall"})
		out = append(out, c)
	}
	return out, nil
}

var (
	_ pipeline.Node = (*VectorSource)(nil)
	_ Source        = (*VectorSource)(nil)
)
