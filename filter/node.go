package filter

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/gowthusaidatta/shl-assessment-recommendation-system/core"
	"github.com/gowthusaidatta/shl-assessment-recommendation-system/pipeline"
	"github.com/gowthusaidatta/shl-assessment-recommendation-system/pkg/utils"
)

// Node applies a chain of filters; the first one that matches removes the
// candidate. Filter errors never fail the request: the filter is skipped for
// that candidate and the error is logged.
type Node struct {
	Filters []Filter
	Logger  zerolog.Logger
}

func (n *Node) Name() string        { return "filter.node" }
func (n *Node) Kind() pipeline.Kind { return pipeline.KindFilter }

func (n *Node) Process(
	ctx context.Context,
	qctx *core.QueryContext,
	items []*core.Candidate,
) ([]*core.Candidate, error) {
	if len(n.Filters) == 0 || len(items) == 0 {
		return items, nil
	}

	out := make([]*core.Candidate, 0, len(items))
	removed := 0

	for _, c := range items {
		if c == nil {
			continue
		}

		drop := false
		reason := ""
		for _, f := range n.Filters {
			ok, err := f.ShouldFilter(ctx, qctx, c)
			if err != nil {
				// Fail open: a broken filter must not eat candidates.
				n.Logger.Warn().Err(err).Str("filter", f.Name()).Str("id", c.ID()).
					Msg("filter errored, keeping candidate")
				continue
			}
			if ok {
				drop = true
				reason = f.Name()
				break
			}
		}

		if drop {
			removed++
			c.PutLabel("filtered", utils.Label{Value: "true", Source: reason})
			continue
		}
		out = append(out, c)
	}

	if removed > 0 {
		n.Logger.Debug().Int("removed", removed).Int("kept", len(out)).Msg("filter pass")
	}
	return out, nil
}

var _ pipeline.Node = (*Node)(nil)
