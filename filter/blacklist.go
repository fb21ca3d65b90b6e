package filter

import (
	"context"

	"github.com/gowthusaidatta/shl-assessment-recommendation-system/core"
)

// BlacklistStore serves an excluded-ID list from external storage.
type BlacklistStore interface {
	GetBlacklist(ctx context.Context, key string) ([]string, error)
}

// Blacklist removes explicitly excluded assessments: a static ID set, an
// optional store-backed list, or both.
type Blacklist struct {
	ids   map[string]struct{}
	store BlacklistStore
	key   string
}

// NewBlacklist builds the filter. Either part may be empty; store lookups
// only happen when both store and key are set.
func NewBlacklist(ids []string, store BlacklistStore, key string) *Blacklist {
	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if id != "" {
			set[id] = struct{}{}
		}
	}
	return &Blacklist{ids: set, store: store, key: key}
}

func (f *Blacklist) Name() string { return "filter.blacklist" }

func (f *Blacklist) ShouldFilter(
	ctx context.Context,
	_ *core.QueryContext,
	c *core.Candidate,
) (bool, error) {
	if c == nil {
		return true, nil
	}
	if _, ok := f.ids[c.ID()]; ok {
		return true, nil
	}
	if f.store != nil && f.key != "" {
		ids, err := f.store.GetBlacklist(ctx, f.key)
		if err != nil {
			if core.IsStoreNotFound(err) {
				return false, nil
			}
			return false, err
		}
		for _, id := range ids {
			if c.ID() == id {
				return true, nil
			}
		}
	}
	return false, nil
}

var _ Filter = (*Blacklist)(nil)
