package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/gowthusaidatta/shl-assessment-recommendation-system/core"
)

// Pipeline chains Nodes into one recommendation flow. A node error aborts
// the run; fail-soft behavior is each node's own responsibility.
type Pipeline struct {
	Nodes  []Node
	Logger zerolog.Logger
}

// New assembles a pipeline with a disabled logger; callers that want stage
// logs set Logger afterwards.
func New(nodes ...Node) *Pipeline {
	return &Pipeline{Nodes: nodes, Logger: zerolog.Nop()}
}

// Run pushes the candidate set through every node in order.
func (p *Pipeline) Run(
	ctx context.Context,
	qctx *core.QueryContext,
	items []*core.Candidate,
) ([]*core.Candidate, error) {
	cur := items
	for _, node := range p.Nodes {
		if err := ctx.Err(); err != nil {
			return nil, core.WrapDomainError(core.ModulePipeline, core.ErrorCodeInternalError, "request canceled", err)
		}
		start := time.Now()
		next, err := node.Process(ctx, qctx, cur)
		if err != nil {
			return nil, fmt.Errorf("node %s: %w", node.Name(), err)
		}
		p.Logger.Debug().
			Str("node", node.Name()).
			Str("kind", string(node.Kind())).
			Int("in", len(cur)).
			Int("out", len(next)).
			Dur("took", time.Since(start)).
			Msg("stage done")
		cur = next
	}
	return cur, nil
}
