package pipeline

import (
	"context"

	"github.com/gowthusaidatta/shl-assessment-recommendation-system/core"
)

// Kind tags a Node's stage, for observability and orchestration (e.g.
// per-stage timing).
type Kind string

const (
	KindRecall      Kind = "recall"      // generate the candidate pool
	KindFilter      Kind = "filter"      // drop candidates that violate constraints
	KindRank        Kind = "rank"        // score and order candidates
	KindReRank      Kind = "rerank"      // adjust the ordered head (external scores, balance)
	KindPostProcess Kind = "postprocess" // final result shaping
)

// Node is the smallest composable unit of the pipeline. Every stage takes
// candidates in and hands candidates out, which keeps recall (generate),
// filter (shrink), rank (reorder), and rerank (reshape) under one contract.
type Node interface {
	Name() string
	Kind() Kind

	Process(
		ctx context.Context,
		qctx *core.QueryContext,
		items []*core.Candidate,
	) ([]*core.Candidate, error)
}
