// Package recall generates the candidate pool. The vector source is the
// mandatory retrieval path; Fanout composes additional sources when a
// deployment configures them.
package recall

import (
	"context"

	"github.com/gowthusaidatta/shl-assessment-recommendation-system/core"
)

// Source is a reusable recall strategy: a unit Fanout can run concurrently
// and merge.
type Source interface {
	Name() string
	Recall(ctx context.Context, qctx *core.QueryContext) ([]*core.Candidate, error)
}
