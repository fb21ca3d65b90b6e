package rerank

import (
	"context"
	"fmt"
	"math"

	"github.com/rs/zerolog"

	"github.com/gowthusaidatta/shl-assessment-recommendation-system/core"
	"github.com/gowthusaidatta/shl-assessment-recommendation-system/pipeline"
	"github.com/gowthusaidatta/shl-assessment-recommendation-system/pkg/utils"
)

// Balance composes the final slate: at most Total results, at least Min when
// the pool allows, with the two assessment families represented according to
// the query's category weight.
//
// Quotas round the majority category first, so a .5 split cannot starve the
// side the query leaned towards. A category with non-zero weight and at
// least one available candidate always gets a slot. Pass one admits by quota
// in fused order; pass two backfills past quota, only up to Min, when the
// quota walk came up short. Relevance order is preserved throughout.
type Balance struct {
	// Total and Min override the per-request options when > 0.
	Total int
	Min   int

	Logger zerolog.Logger
}

func (n *Balance) Name() string        { return "rerank.balance" }
func (n *Balance) Kind() pipeline.Kind { return pipeline.KindReRank }

func (n *Balance) Process(
	_ context.Context,
	qctx *core.QueryContext,
	items []*core.Candidate,
) ([]*core.Candidate, error) {
	total, min := n.bounds(qctx)

	pool := make([]*core.Candidate, 0, len(items))
	seen := make(map[string]struct{}, len(items))
	avail := make(map[core.TestType]int, 2)
	for _, c := range items {
		if c == nil || !c.Category().Valid() {
			continue
		}
		if _, dup := seen[c.ID()]; dup {
			continue
		}
		seen[c.ID()] = struct{}{}
		pool = append(pool, c)
		avail[c.Category()]++
	}
	if len(pool) == 0 {
		if qctx != nil {
			qctx.Warn(core.WarnInsufficientCandidates)
		}
		return nil, nil
	}

	weight := qctx.CategoryWeight()
	quota := n.quotas(weight, total, avail)

	// Pass 1: admit by quota in relevance order.
	chosen := make(map[string]struct{}, total)
	counts := make(map[core.TestType]int, 2)
	skipped := make([]*core.Candidate, 0, len(pool))
	for _, c := range pool {
		if len(chosen) >= total {
			break
		}
		t := c.Category()
		if counts[t] < quota[t] {
			chosen[c.ID()] = struct{}{}
			counts[t]++
			c.PutLabel("balance", utils.Label{Value: "quota", Source: "rerank"})
			continue
		}
		skipped = append(skipped, c)
	}

	// Pass 2: quota came up short of the floor, backfill by relevance.
	for _, c := range skipped {
		if len(chosen) >= min || len(chosen) >= total {
			break
		}
		chosen[c.ID()] = struct{}{}
		counts[c.Category()]++
		c.PutLabel("balance", utils.Label{Value: "backfill", Source: "rerank"})
	}

	out := make([]*core.Candidate, 0, len(chosen))
	for _, c := range pool {
		if len(out) >= total {
			break
		}
		if _, ok := chosen[c.ID()]; ok {
			out = append(out, c)
		}
	}

	if qctx != nil {
		if len(out) < min {
			qctx.Warn(core.WarnInsufficientCandidates)
		}
		qctx.PutLabel("balance_quota", utils.Label{
			Value:  fmt.Sprintf("K=%d/%d,P=%d/%d", counts[core.TestTypeKnowledge], quota[core.TestTypeKnowledge], counts[core.TestTypePersonality], quota[core.TestTypePersonality]),
			Source: "rerank",
		})
	}
	n.Logger.Debug().Int("pool", len(pool)).Int("out", len(out)).
		Int("k", counts[core.TestTypeKnowledge]).Int("p", counts[core.TestTypePersonality]).
		Msg("balance pass")
	return out, nil
}

// quotas splits total between the categories: round the majority first, hand
// the remainder to the minority, then guarantee a slot to any weighted
// category that actually has candidates. If the guarantee overflows, the
// larger target gives the slot back.
func (n *Balance) quotas(w core.Weight, total int, avail map[core.TestType]int) map[core.TestType]int {
	maj := w.Majority()
	min := maj.Other()

	targetMaj := int(math.Round(float64(total) * w.Of(maj)))
	if targetMaj > total {
		targetMaj = total
	}
	targetMin := total - targetMaj

	if targetMaj < 1 && w.Of(maj) > 0 && avail[maj] > 0 {
		targetMaj = 1
	}
	if targetMin < 1 && w.Of(min) > 0 && avail[min] > 0 {
		targetMin = 1
	}
	for targetMaj+targetMin > total {
		if targetMaj > targetMin {
			targetMaj--
		} else {
			targetMin--
		}
	}

	return map[core.TestType]int{maj: targetMaj, min: targetMin}
}

func (n *Balance) bounds(qctx *core.QueryContext) (total, min int) {
	total, min = n.Total, n.Min
	if qctx != nil {
		if total <= 0 {
			total = qctx.Options.Total
		}
		if min <= 0 {
			min = qctx.Options.Min
		}
	}
	d := core.DefaultOptions()
	if total <= 0 {
		total = d.Total
	}
	if min <= 0 {
		min = d.Min
	}
	if min > total {
		min = total
	}
	return total, min
}

var _ pipeline.Node = (*Balance)(nil)
