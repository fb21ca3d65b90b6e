package core

import (
	"context"
	"time"
)

// Store is the domain-facing KV contract.
//
// Design principles:
//   - defined in the domain layer, implemented by infrastructure (store)
//   - dependency inversion keeps core free of backend imports
//
// Used for:
//   - the recommendation response cache
//   - operational exclusion lists (retired assessments)
//   - catalog snapshots served out of a shared backend
//
// Implementations: store.MemoryStore, store.RedisStore.
type Store interface {
	// Name identifies the backend for logs and metrics.
	Name() string

	// Get reads one key. A missing key is ErrStoreNotFound.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set writes one key, with an optional TTL (zero = no expiry).
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Delete removes one key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// BatchGet reads many keys in one round trip; missing keys are simply
	// absent from the result.
	BatchGet(ctx context.Context, keys []string) (map[string][]byte, error)

	// BatchSet writes many keys in one round trip.
	BatchSet(ctx context.Context, kvs map[string][]byte, ttl time.Duration) error

	// Close releases the backend connection.
	Close() error
}

// KeyValueStore extends Store with native set operations.
//
// The extension serves the operational exclusion lists: backends with real
// sets (Redis) let ops edit a list member by member instead of rewriting a
// JSON array. Consumers type-assert from Store and fall back to Get when
// the backend is plain.
type KeyValueStore interface {
	Store

	// SAdd adds members to the set at key.
	SAdd(ctx context.Context, key string, members ...string) error

	// SRem removes members from the set at key. Removing an absent member
	// is not an error.
	SRem(ctx context.Context, key string, members ...string) error

	// SMembers reads every member of the set at key, in no particular
	// order. A missing key is an empty set, not an error.
	SMembers(ctx context.Context, key string) ([]string, error)
}
