package filter

import (
	"context"

	"github.com/gowthusaidatta/shl-assessment-recommendation-system/core"
	"github.com/gowthusaidatta/shl-assessment-recommendation-system/pipeline"
)

// Dedupe removes duplicate candidate IDs, keeping the first occurrence and
// folding the duplicate's labels into it. It runs as its own Node rather
// than a Filter: dedup needs per-request state, and Nodes see the whole
// stream at once.
type Dedupe struct{}

func (n *Dedupe) Name() string        { return "filter.dedupe" }
func (n *Dedupe) Kind() pipeline.Kind { return pipeline.KindFilter }

func (n *Dedupe) Process(
	_ context.Context,
	_ *core.QueryContext,
	items []*core.Candidate,
) ([]*core.Candidate, error) {
	if len(items) < 2 {
		return items, nil
	}
	seen := make(map[string]*core.Candidate, len(items))
	out := make([]*core.Candidate, 0, len(items))
	for _, c := range items {
		if c == nil {
			continue
		}
		if old, ok := seen[c.ID()]; ok {
			for k, v := range c.Labels {
				old.PutLabel(k, v)
			}
			continue
		}
		seen[c.ID()] = c
		out = append(out, c)
	}
	return out, nil
}

var _ pipeline.Node = (*Dedupe)(nil)
