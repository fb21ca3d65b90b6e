package rank

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/gowthusaidatta/shl-assessment-recommendation-system/core"
	"github.com/gowthusaidatta/shl-assessment-recommendation-system/pipeline"
	"github.com/gowthusaidatta/shl-assessment-recommendation-system/pkg/utils"
)

// minRerankBudget is the least remaining latency budget worth spending on an
// external call. Below this the stage is skipped outright.
const minRerankBudget = 50 * time.Millisecond

// Rerank asks an external RelevanceScorer to grade the head of the ranked
// list. Exactly one call per request, no retries. The stage is strictly
// optional: any failure, timeout or exhausted latency budget degrades to the
// scorer contributing nothing, and the request proceeds on the remaining
// signals.
//
// Scores land in Candidate.LLMScore; ordering is left to the following
// fusion pass, which knows how to renormalize around candidates the scorer
// never saw.
type Rerank struct {
	Scorer core.RelevanceScorer

	// TopK overrides the per-request option when > 0.
	TopK int

	// Timeout caps the external call. The effective limit is the smaller
	// of Timeout and the remaining request budget.
	Timeout time.Duration

	Logger zerolog.Logger
}

func (n *Rerank) Name() string        { return "rank.rerank" }
func (n *Rerank) Kind() pipeline.Kind { return pipeline.KindReRank }

func (n *Rerank) Process(
	ctx context.Context,
	qctx *core.QueryContext,
	items []*core.Candidate,
) ([]*core.Candidate, error) {
	if n.Scorer == nil || len(items) == 0 {
		return items, nil
	}
	if qctx != nil && !qctx.Options.Rerank {
		return items, nil
	}

	callCtx := ctx
	timeout := n.Timeout
	if remaining, ok := qctx.RemainingBudget(time.Now()); ok {
		if remaining < minRerankBudget {
			n.skip(qctx, fmt.Sprintf("latency budget exhausted (%s left)", remaining))
			return items, nil
		}
		if timeout <= 0 || remaining < timeout {
			timeout = remaining
		}
	}
	if timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	topK := n.TopK
	if topK <= 0 && qctx != nil {
		topK = qctx.Options.RerankTopK
	}
	if topK <= 0 {
		topK = core.DefaultOptions().RerankTopK
	}
	head := items
	if len(head) > topK {
		head = head[:topK]
	}

	query := ""
	if qctx != nil {
		query = qctx.Query
	}
	scores, err := n.Scorer.Score(callCtx, query, head)
	if err != nil {
		n.Logger.Warn().Err(err).Str("scorer", n.Scorer.Name()).
			Msg("external scorer failed, continuing without it")
		n.skip(qctx, err.Error())
		return items, nil
	}

	applied := 0
	for _, c := range head {
		if c == nil {
			continue
		}
		s, ok := scores[c.ID()]
		if !ok {
			continue
		}
		c.SetLLMScore(clamp01(s))
		c.PutLabel("rerank_scorer", utils.Label{Value: n.Scorer.Name(), Source: "rerank"})
		applied++
	}
	if applied > 0 && qctx != nil {
		qctx.Reranked = true
	}
	n.Logger.Debug().Int("scored", applied).Int("sent", len(head)).Msg("external rerank")
	return items, nil
}

func (n *Rerank) skip(qctx *core.QueryContext, reason string) {
	if qctx == nil {
		return
	}
	qctx.Warn(core.WarnRerankerUnavailable)
	qctx.PutLabel("rerank_skipped", utils.Label{Value: reason, Source: "rerank"})
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

var _ pipeline.Node = (*Rerank)(nil)
