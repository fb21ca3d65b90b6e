package store

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"

	"github.com/rs/zerolog"

	"github.com/gowthusaidatta/shl-assessment-recommendation-system/core"
)

const defaultResultTTL = 5 * time.Minute

// ResultCache memoizes recommendation responses keyed by query text and the
// effective options. It is advisory: store failures and decode failures count
// as misses, so a flaky cache never fails a request.
type ResultCache struct {
	store  core.Store
	ttl    time.Duration
	logger zerolog.Logger
}

func NewResultCache(store core.Store, ttl time.Duration, logger zerolog.Logger) *ResultCache {
	if ttl <= 0 {
		ttl = defaultResultTTL
	}
	return &ResultCache{store: store, ttl: ttl, logger: logger}
}

// Key derives the cache key. Identical query+options pairs map to the same
// key, so determinism of the pipeline makes cached and fresh bodies equal.
func (c *ResultCache) Key(query string, opts core.Options) string {
	h := sha256.New()
	h.Write([]byte(query))
	h.Write([]byte{0})
	if blob, err := json.Marshal(opts); err == nil {
		h.Write(blob)
	}
	return "shlrec:result:" + hex.EncodeToString(h.Sum(nil))
}

func (c *ResultCache) Get(ctx context.Context, query string, opts core.Options) (*core.Result, bool) {
	if c == nil || c.store == nil {
		return nil, false
	}
	key := c.Key(query, opts)
	blob, err := c.store.Get(ctx, key)
	if err != nil {
		if !core.IsStoreNotFound(err) {
			c.logger.Debug().Err(err).Str("key", key).Msg("result cache read failed")
		}
		return nil, false
	}
	var res core.Result
	if err := json.Unmarshal(blob, &res); err != nil {
		c.logger.Debug().Err(err).Str("key", key).Msg("result cache entry corrupt")
		_ = c.store.Delete(ctx, key)
		return nil, false
	}
	return &res, true
}

func (c *ResultCache) Set(ctx context.Context, query string, opts core.Options, res *core.Result) {
	if c == nil || c.store == nil || res == nil {
		return
	}
	blob, err := json.Marshal(res)
	if err != nil {
		return
	}
	key := c.Key(query, opts)
	if err := c.store.Set(ctx, key, blob, c.ttl); err != nil {
		c.logger.Debug().Err(err).Str("key", key).Msg("result cache write failed")
	}
}
