package filter

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/gowthusaidatta/shl-assessment-recommendation-system/core"
)

// StoreAdapter reads filter data out of a core.Store. The exclusion list
// lives under a single key, as a native set when the backend is a
// core.KeyValueStore or as a JSON string array otherwise, so ops can swap
// the list without a redeploy.
type StoreAdapter struct {
	store core.Store
}

func NewStoreAdapter(s core.Store) *StoreAdapter {
	return &StoreAdapter{store: s}
}

// GetBlacklist prefers the backend's native set; an empty or absent set
// falls back to a JSON array under the same key.
func (a *StoreAdapter) GetBlacklist(ctx context.Context, key string) ([]string, error) {
	if kv, ok := a.store.(core.KeyValueStore); ok {
		if ids, err := kv.SMembers(ctx, key); err == nil && len(ids) > 0 {
			return ids, nil
		}
	}
	data, err := a.store.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	var ids []string
	if err := json.Unmarshal(data, &ids); err != nil {
		return nil, fmt.Errorf("blacklist %s: %w", key, err)
	}
	return ids, nil
}

var _ BlacklistStore = (*StoreAdapter)(nil)
