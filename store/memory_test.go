package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gowthusaidatta/shl-assessment-recommendation-system/core"
)

func TestMemoryRoundtrip(t *testing.T) {
	m := NewMemory()
	defer m.Close()
	ctx := context.Background()

	require.NoError(t, m.Set(ctx, "a", []byte("1"), 0))
	got, err := m.Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, []byte("1"), got)

	_, err = m.Get(ctx, "missing")
	assert.True(t, core.IsStoreNotFound(err))

	require.NoError(t, m.Delete(ctx, "a"))
	_, err = m.Get(ctx, "a")
	assert.True(t, core.IsStoreNotFound(err))
}

func TestMemoryExpiry(t *testing.T) {
	m := NewMemory()
	defer m.Close()
	ctx := context.Background()

	require.NoError(t, m.Set(ctx, "short", []byte("v"), 10*time.Millisecond))
	require.NoError(t, m.Set(ctx, "keep", []byte("v"), 0))

	_, err := m.Get(ctx, "short")
	require.NoError(t, err)

	time.Sleep(25 * time.Millisecond)

	_, err = m.Get(ctx, "short")
	assert.True(t, core.IsStoreNotFound(err), "expired entry must read as a miss")
	_, err = m.Get(ctx, "keep")
	assert.NoError(t, err, "zero ttl means no expiry")
}

func TestMemoryBatch(t *testing.T) {
	m := NewMemory()
	defer m.Close()
	ctx := context.Background()

	require.NoError(t, m.BatchSet(ctx, map[string][]byte{
		"a": []byte("1"),
		"b": []byte("2"),
	}, 0))

	got, err := m.BatchGet(ctx, []string{"a", "b", "missing"})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, []byte("1"), got["a"])
	assert.Equal(t, []byte("2"), got["b"])
	assert.NotContains(t, got, "missing")
}

func TestMemoryOverwrite(t *testing.T) {
	m := NewMemory()
	defer m.Close()
	ctx := context.Background()

	require.NoError(t, m.Set(ctx, "k", []byte("old"), 0))
	require.NoError(t, m.Set(ctx, "k", []byte("new"), 0))
	got, err := m.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("new"), got)
}

func TestMemorySetOps(t *testing.T) {
	m := NewMemory()
	defer m.Close()
	ctx := context.Background()

	got, err := m.SMembers(ctx, "excluded")
	require.NoError(t, err)
	assert.Empty(t, got, "missing set reads as empty")

	require.NoError(t, m.SAdd(ctx, "excluded", "a", "b"))
	require.NoError(t, m.SAdd(ctx, "excluded", "b", "c"))
	got, err = m.SMembers(ctx, "excluded")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"a", "b", "c"}, got, "re-adding a member keeps the set a set")

	require.NoError(t, m.SRem(ctx, "excluded", "b", "never-there"))
	got, err = m.SMembers(ctx, "excluded")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"a", "c"}, got)
}

func TestMemoryCloseIdempotent(t *testing.T) {
	m := NewMemory()
	require.NoError(t, m.Close())
	require.NoError(t, m.Close(), "closing twice must be a no-op")
}
