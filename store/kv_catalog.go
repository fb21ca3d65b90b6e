package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/gowthusaidatta/shl-assessment-recommendation-system/core"
)

const defaultCatalogPrefix = "shlrec:catalog"

// KVCatalog persists the normalized catalog in a core.Store, one entry per
// assessment plus an ordered id manifest. A Redis-backed store lets instances
// serve the catalog without shipping the source file.
type KVCatalog struct {
	store  core.Store
	prefix string
}

func NewKVCatalog(store core.Store, prefix string) *KVCatalog {
	if prefix == "" {
		prefix = defaultCatalogPrefix
	}
	return &KVCatalog{store: store, prefix: prefix}
}

func (k *KVCatalog) manifestKey() string      { return k.prefix + ":ids" }
func (k *KVCatalog) itemKey(id string) string { return k.prefix + ":item:" + id }

// SaveCatalog writes every assessment and the ordered manifest in one batch.
// A zero ttl keeps the snapshot until overwritten.
func (k *KVCatalog) SaveCatalog(ctx context.Context, items []*core.Assessment, ttl time.Duration) error {
	ids := make([]string, 0, len(items))
	kvs := make(map[string][]byte, len(items)+1)
	for _, a := range items {
		if a == nil || a.ID == "" {
			continue
		}
		blob, err := json.Marshal(a)
		if err != nil {
			return core.WrapDomainError(core.ModuleCatalog, core.ErrorCodeInternalError, fmt.Sprintf("encode assessment %s", a.ID), err)
		}
		ids = append(ids, a.ID)
		kvs[k.itemKey(a.ID)] = blob
	}
	manifest, err := json.Marshal(ids)
	if err != nil {
		return core.WrapDomainError(core.ModuleCatalog, core.ErrorCodeInternalError, "encode manifest", err)
	}
	kvs[k.manifestKey()] = manifest
	if err := k.store.BatchSet(ctx, kvs, ttl); err != nil {
		return core.WrapDomainError(core.ModuleCatalog, core.ErrorCodeInternalError, "write catalog snapshot", err)
	}
	return nil
}

func (k *KVCatalog) LoadCatalog(ctx context.Context) ([]*core.Assessment, error) {
	manifest, err := k.store.Get(ctx, k.manifestKey())
	if err != nil {
		if core.IsStoreNotFound(err) {
			return nil, core.NewCatalogUnavailableError("no catalog snapshot in store", err)
		}
		return nil, core.NewCatalogUnavailableError("read catalog manifest", err)
	}
	var ids []string
	if err := json.Unmarshal(manifest, &ids); err != nil {
		return nil, core.NewCatalogUnavailableError("decode catalog manifest", err)
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = k.itemKey(id)
	}
	blobs, err := k.store.BatchGet(ctx, keys)
	if err != nil {
		return nil, core.NewCatalogUnavailableError("read catalog entries", err)
	}

	items := make([]*core.Assessment, 0, len(ids))
	for _, id := range ids {
		blob, ok := blobs[k.itemKey(id)]
		if !ok {
			return nil, core.NewCatalogUnavailableError(fmt.Sprintf("catalog entry %s missing from store", id), nil)
		}
		var a core.Assessment
		if err := json.Unmarshal(blob, &a); err != nil {
			return nil, core.NewCatalogUnavailableError(fmt.Sprintf("decode catalog entry %s", id), err)
		}
		items = append(items, &a)
	}
	return items, nil
}

var _ core.CatalogStore = (*KVCatalog)(nil)
