// Package store provides the storage backends: an in-process KV store, a
// Redis-backed one, catalog loaders, and a response cache built on top of
// the KV abstraction.
package store

import (
	"context"
	"sync"
	"time"

	"github.com/gowthusaidatta/shl-assessment-recommendation-system/core"
)

const janitorInterval = 10 * time.Second

// Memory is an in-process Store with TTL support. Data does not survive a
// restart; it serves tests, development and single-node deployments.
type Memory struct {
	mu      sync.RWMutex
	data    map[string]memoryEntry
	sets    map[string]map[string]struct{}
	janitor *time.Ticker
	done    chan struct{}
	closed  sync.Once
}

type memoryEntry struct {
	value     []byte
	expiresAt time.Time // zero = never
}

func (e memoryEntry) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && now.After(e.expiresAt)
}

func NewMemory() *Memory {
	m := &Memory{
		data:    make(map[string]memoryEntry),
		sets:    make(map[string]map[string]struct{}),
		janitor: time.NewTicker(janitorInterval),
		done:    make(chan struct{}),
	}
	go m.sweep()
	return m
}

func (m *Memory) Name() string { return "memory" }

func (m *Memory) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	e, ok := m.data[key]
	if !ok || e.expired(time.Now()) {
		return nil, core.ErrStoreNotFound
	}
	return e.value, nil
}

func (m *Memory) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	e := memoryEntry{value: value}
	if ttl > 0 {
		e.expiresAt = time.Now().Add(ttl)
	}
	m.data[key] = e
	return nil
}

func (m *Memory) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.data, key)
	return nil
}

func (m *Memory) BatchGet(_ context.Context, keys []string) (map[string][]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	now := time.Now()
	result := make(map[string][]byte, len(keys))
	for _, k := range keys {
		if e, ok := m.data[k]; ok && !e.expired(now) {
			result[k] = e.value
		}
	}
	return result, nil
}

func (m *Memory) BatchSet(_ context.Context, kvs map[string][]byte, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	var expiresAt time.Time
	if ttl > 0 {
		expiresAt = time.Now().Add(ttl)
	}
	for k, v := range kvs {
		m.data[k] = memoryEntry{value: v, expiresAt: expiresAt}
	}
	return nil
}

// Close stops the janitor. Safe to call more than once.
func (m *Memory) Close() error {
	m.closed.Do(func() {
		m.janitor.Stop()
		close(m.done)
	})
	return nil
}

func (m *Memory) sweep() {
	for {
		select {
		case <-m.done:
			return
		case <-m.janitor.C:
			now := time.Now()
			m.mu.Lock()
			for k, e := range m.data {
				if e.expired(now) {
					delete(m.data, k)
				}
			}
			m.mu.Unlock()
		}
	}
}

// KeyValueStore extension. Sets live beside the KV data and never expire.

func (m *Memory) SAdd(_ context.Context, key string, members ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	set := m.sets[key]
	if set == nil {
		set = make(map[string]struct{}, len(members))
		m.sets[key] = set
	}
	for _, member := range members {
		set[member] = struct{}{}
	}
	return nil
}

func (m *Memory) SRem(_ context.Context, key string, members ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	set, ok := m.sets[key]
	if !ok {
		return nil
	}
	for _, member := range members {
		delete(set, member)
	}
	if len(set) == 0 {
		delete(m.sets, key)
	}
	return nil
}

func (m *Memory) SMembers(_ context.Context, key string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	set, ok := m.sets[key]
	if !ok {
		return nil, nil
	}
	members := make([]string, 0, len(set))
	for member := range set {
		members = append(members, member)
	}
	return members, nil
}

var _ core.Store = (*Memory)(nil)
var _ core.KeyValueStore = (*Memory)(nil)
