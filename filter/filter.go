package filter

import (
	"context"

	"github.com/gowthusaidatta/shl-assessment-recommendation-system/core"
)

// Filter decides whether one candidate should be removed from the stream.
// True means remove.
type Filter interface {
	Name() string

	ShouldFilter(ctx context.Context, qctx *core.QueryContext, c *core.Candidate) (bool, error)
}
