package rank

import (
	"context"
	"strings"

	"github.com/gowthusaidatta/shl-assessment-recommendation-system/core"
	"github.com/gowthusaidatta/shl-assessment-recommendation-system/pipeline"
	"github.com/gowthusaidatta/shl-assessment-recommendation-system/pkg/utils"
)

// Fusion combines the per-candidate signals into one final score and sorts.
//
// Signals: vector similarity (always present after recall), keyword overlap
// (present when the query produced keywords), and the external relevance
// score (present only when the reranker contributed). The weighted sum
// renormalizes over the weights of the signals actually present, so a
// candidate without an LLM score is not penalized for the reranker being
// skipped.
//
// Ordering is total: score descending, ties by ascending assessment ID.
type Fusion struct {
	// Weights override the per-request options when any is set non-zero.
	SimilarityWeight float64
	KeywordWeight    float64
	LLMWeight        float64
}

func (n *Fusion) Name() string        { return "rank.fusion" }
func (n *Fusion) Kind() pipeline.Kind { return pipeline.KindRank }

func (n *Fusion) Process(
	_ context.Context,
	qctx *core.QueryContext,
	items []*core.Candidate,
) ([]*core.Candidate, error) {
	if len(items) == 0 {
		return items, nil
	}

	ws, wk, wl := n.weights(qctx)

	queryKeywords := qctx.Keywords()
	querySet := make(map[string]struct{}, len(queryKeywords))
	for _, kw := range queryKeywords {
		querySet[strings.ToLower(kw)] = struct{}{}
	}

	for _, c := range items {
		if c == nil {
			continue
		}

		hasKeywordSignal := len(querySet) > 0
		if hasKeywordSignal {
			c.KeywordScore = keywordOverlap(querySet, c.Assessment)
		}

		num := ws * c.Similarity
		den := ws
		signals := "similarity"
		if hasKeywordSignal {
			num += wk * c.KeywordScore
			den += wk
			signals += "+keyword"
		}
		if c.LLMScore != nil {
			num += wl * (*c.LLMScore)
			den += wl
			signals += "+llm"
		}

		if den > 0 {
			c.Score = num / den
		} else {
			// All present signals carry zero weight; similarity is the
			// only defensible order left.
			c.Score = c.Similarity
		}
		c.PutLabel("rank_fusion", utils.Label{Value: signals, Source: "rank"})
	}

	core.SortCandidates(items)
	return items, nil
}

func (n *Fusion) weights(qctx *core.QueryContext) (ws, wk, wl float64) {
	if n.SimilarityWeight != 0 || n.KeywordWeight != 0 || n.LLMWeight != 0 {
		return n.SimilarityWeight, n.KeywordWeight, n.LLMWeight
	}
	opts := core.DefaultOptions()
	if qctx != nil {
		opts = qctx.Options
	}
	ws, wk, wl = opts.SimilarityWeight, opts.KeywordWeight, opts.LLMWeight
	if ws == 0 && wk == 0 && wl == 0 {
		d := core.DefaultOptions()
		return d.SimilarityWeight, d.KeywordWeight, d.LLMWeight
	}
	return ws, wk, wl
}

// keywordOverlap is the share of query keywords the assessment carries:
// |query ∩ item| / max(1, |query|), always in [0, 1].
func keywordOverlap(querySet map[string]struct{}, a *core.Assessment) float64 {
	if a == nil || len(querySet) == 0 {
		return 0
	}
	matched := 0
	seen := make(map[string]struct{}, len(a.Keywords))
	for _, kw := range a.Keywords {
		kw = strings.ToLower(kw)
		if _, dup := seen[kw]; dup {
			continue
		}
		seen[kw] = struct{}{}
		if _, ok := querySet[kw]; ok {
			matched++
		}
	}
	denom := len(querySet)
	if denom < 1 {
		denom = 1
	}
	return float64(matched) / float64(denom)
}

var _ pipeline.Node = (*Fusion)(nil)
