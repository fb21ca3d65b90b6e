package filter

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/gowthusaidatta/shl-assessment-recommendation-system/core"
	"github.com/gowthusaidatta/shl-assessment-recommendation-system/pkg/utils"
)

func mk(id string, duration int) *core.Candidate {
	return core.NewCandidate(&core.Assessment{
		ID:       id,
		Category: core.TestTypeKnowledge,
		Duration: duration,
	})
}

func idsOf(items []*core.Candidate) []string {
	out := make([]string, 0, len(items))
	for _, c := range items {
		out = append(out, c.ID())
	}
	return out
}

func assertIDs(t *testing.T, got []*core.Candidate, want ...string) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", idsOf(got), want)
	}
	for i, id := range want {
		if got[i].ID() != id {
			t.Fatalf("got %v, want %v", idsOf(got), want)
		}
	}
}

type filterFunc struct {
	name string
	fn   func(c *core.Candidate) (bool, error)
}

func (f *filterFunc) Name() string { return f.name }
func (f *filterFunc) ShouldFilter(_ context.Context, _ *core.QueryContext, c *core.Candidate) (bool, error) {
	return f.fn(c)
}

func TestNodeChain(t *testing.T) {
	dropB := &filterFunc{name: "drop.b", fn: func(c *core.Candidate) (bool, error) {
		return c.ID() == "b", nil
	}}
	dropLong := &filterFunc{name: "drop.long", fn: func(c *core.Candidate) (bool, error) {
		return c.Assessment.Duration > 60, nil
	}}

	n := &Node{Filters: []Filter{dropB, dropLong}}
	got, err := n.Process(context.Background(), &core.QueryContext{}, []*core.Candidate{
		mk("a", 30), mk("b", 30), mk("c", 90), nil,
	})
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	assertIDs(t, got, "a")

	for _, c := range got {
		if _, ok := c.GetLabel("filtered"); ok {
			t.Errorf("%s kept but carries filtered label", c.ID())
		}
	}
}

func TestNodeFailsOpen(t *testing.T) {
	broken := &filterFunc{name: "broken", fn: func(*core.Candidate) (bool, error) {
		return false, errors.New("backend down")
	}}
	n := &Node{Filters: []Filter{broken}}

	got, err := n.Process(context.Background(), &core.QueryContext{}, []*core.Candidate{mk("a", 10)})
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	assertIDs(t, got, "a")
}

func TestNodeNoFilters(t *testing.T) {
	n := &Node{}
	in := []*core.Candidate{mk("a", 10)}
	got, err := n.Process(context.Background(), &core.QueryContext{}, in)
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	assertIDs(t, got, "a")
}

func TestDedupe(t *testing.T) {
	first := mk("a", 10)
	dup := mk("a", 10)
	dup.PutLabel("recall_source", utils.Label{Value: "second", Source: "recall"})

	n := &Dedupe{}
	got, err := n.Process(context.Background(), nil, []*core.Candidate{first, mk("b", 20), dup})
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	assertIDs(t, got, "a", "b")

	if lbl, ok := got[0].GetLabel("recall_source"); !ok || lbl.Value != "second" {
		t.Errorf("duplicate labels not folded into kept candidate: %+v", lbl)
	}
}

func TestBlacklistStatic(t *testing.T) {
	f := NewBlacklist([]string{"banned", ""}, nil, "")

	tests := []struct {
		id   string
		want bool
	}{
		{"banned", true},
		{"fine", false},
	}
	for _, tt := range tests {
		got, err := f.ShouldFilter(context.Background(), nil, mk(tt.id, 10))
		if err != nil {
			t.Fatalf("ShouldFilter(%s): %v", tt.id, err)
		}
		if got != tt.want {
			t.Errorf("ShouldFilter(%s) = %v, want %v", tt.id, got, tt.want)
		}
	}

	if got, _ := f.ShouldFilter(context.Background(), nil, nil); !got {
		t.Error("nil candidate should be filtered")
	}
}

type fakeBlacklistStore struct {
	ids []string
	err error
}

func (s *fakeBlacklistStore) GetBlacklist(context.Context, string) ([]string, error) {
	return s.ids, s.err
}

func TestBlacklistStore(t *testing.T) {
	t.Run("listed id filtered", func(t *testing.T) {
		f := NewBlacklist(nil, &fakeBlacklistStore{ids: []string{"x"}}, "blacklist")
		got, err := f.ShouldFilter(context.Background(), nil, mk("x", 10))
		if err != nil || !got {
			t.Errorf("got (%v, %v), want (true, nil)", got, err)
		}
	})

	t.Run("missing key keeps", func(t *testing.T) {
		f := NewBlacklist(nil, &fakeBlacklistStore{err: core.ErrStoreNotFound}, "blacklist")
		got, err := f.ShouldFilter(context.Background(), nil, mk("x", 10))
		if err != nil || got {
			t.Errorf("got (%v, %v), want (false, nil)", got, err)
		}
	})

	t.Run("store error surfaces", func(t *testing.T) {
		f := NewBlacklist(nil, &fakeBlacklistStore{err: errors.New("redis gone")}, "blacklist")
		if _, err := f.ShouldFilter(context.Background(), nil, mk("x", 10)); err == nil {
			t.Error("store failure should surface so the node can log it")
		}
	})
}

type fakeStore struct {
	data map[string][]byte
}

func (s *fakeStore) Name() string { return "fake" }
func (s *fakeStore) Get(_ context.Context, key string) ([]byte, error) {
	v, ok := s.data[key]
	if !ok {
		return nil, core.ErrStoreNotFound
	}
	return v, nil
}
func (s *fakeStore) Set(_ context.Context, key string, value []byte, _ time.Duration) error {
	s.data[key] = value
	return nil
}
func (s *fakeStore) Delete(_ context.Context, key string) error { delete(s.data, key); return nil }
func (s *fakeStore) BatchGet(_ context.Context, keys []string) (map[string][]byte, error) {
	out := make(map[string][]byte)
	for _, k := range keys {
		if v, ok := s.data[k]; ok {
			out[k] = v
		}
	}
	return out, nil
}
func (s *fakeStore) BatchSet(_ context.Context, kvs map[string][]byte, _ time.Duration) error {
	for k, v := range kvs {
		s.data[k] = v
	}
	return nil
}
func (s *fakeStore) Close() error { return nil }

func TestStoreAdapter(t *testing.T) {
	raw, _ := json.Marshal([]string{"a", "b"})
	adapter := NewStoreAdapter(&fakeStore{data: map[string][]byte{
		"blacklist": raw,
		"garbage":   []byte("{not json"),
	}})

	ids, err := adapter.GetBlacklist(context.Background(), "blacklist")
	if err != nil {
		t.Fatalf("GetBlacklist: %v", err)
	}
	if len(ids) != 2 || ids[0] != "a" || ids[1] != "b" {
		t.Errorf("got %v, want [a b]", ids)
	}

	if _, err := adapter.GetBlacklist(context.Background(), "garbage"); err == nil {
		t.Error("malformed payload should error")
	}
	if _, err := adapter.GetBlacklist(context.Background(), "missing"); !core.IsStoreNotFound(err) {
		t.Errorf("missing key: got %v, want store-not-found", err)
	}
}

type fakeKVStore struct {
	fakeStore
	sets map[string][]string
}

func (s *fakeKVStore) SAdd(_ context.Context, key string, members ...string) error {
	s.sets[key] = append(s.sets[key], members...)
	return nil
}

func (s *fakeKVStore) SRem(_ context.Context, key string, members ...string) error {
	drop := make(map[string]struct{}, len(members))
	for _, m := range members {
		drop[m] = struct{}{}
	}
	var kept []string
	for _, m := range s.sets[key] {
		if _, ok := drop[m]; !ok {
			kept = append(kept, m)
		}
	}
	s.sets[key] = kept
	return nil
}

func (s *fakeKVStore) SMembers(_ context.Context, key string) ([]string, error) {
	return s.sets[key], nil
}

func TestStoreAdapterPrefersSet(t *testing.T) {
	raw, _ := json.Marshal([]string{"from-json"})
	kv := &fakeKVStore{
		fakeStore: fakeStore{data: map[string][]byte{"blacklist": raw}},
		sets:      map[string][]string{"blacklist": {"x", "y"}},
	}
	adapter := NewStoreAdapter(kv)

	ids, err := adapter.GetBlacklist(context.Background(), "blacklist")
	if err != nil {
		t.Fatalf("GetBlacklist: %v", err)
	}
	if len(ids) != 2 {
		t.Fatalf("got %v, want the native set", ids)
	}

	want := map[string]bool{"x": false, "y": false}
	for _, id := range ids {
		want[id] = true
	}
	for id, seen := range want {
		if !seen {
			t.Errorf("set member %s missing from %v", id, ids)
		}
	}

	kv.sets["blacklist"] = nil
	ids, err = adapter.GetBlacklist(context.Background(), "blacklist")
	if err != nil {
		t.Fatalf("GetBlacklist after set drained: %v", err)
	}
	if len(ids) != 1 || ids[0] != "from-json" {
		t.Errorf("got %v, want fallback to the JSON key", ids)
	}
}

func TestRuleModes(t *testing.T) {
	qctx := &core.QueryContext{}

	t.Run("drop removes matches", func(t *testing.T) {
		f, err := NewRule(`item.duration > 45`, ModeDrop)
		if err != nil {
			t.Fatalf("NewRule: %v", err)
		}
		if got, _ := f.ShouldFilter(context.Background(), qctx, mk("long", 60)); !got {
			t.Error("60 min should be dropped by duration > 45")
		}
		if got, _ := f.ShouldFilter(context.Background(), qctx, mk("short", 30)); got {
			t.Error("30 min should survive duration > 45")
		}
	})

	t.Run("keep removes non-matches", func(t *testing.T) {
		f, err := NewRule(`item.duration > 0 && item.duration <= 40`, ModeKeep)
		if err != nil {
			t.Fatalf("NewRule: %v", err)
		}
		if got, _ := f.ShouldFilter(context.Background(), qctx, mk("long", 60)); !got {
			t.Error("keep-mode should drop what the constraint rejects")
		}
		if got, _ := f.ShouldFilter(context.Background(), qctx, mk("short", 30)); got {
			t.Error("keep-mode should keep what the constraint accepts")
		}
	})

	t.Run("bad expression fails construction", func(t *testing.T) {
		if _, err := NewRule(`item.duration >`, ModeDrop); err == nil {
			t.Error("invalid expression should fail at construction")
		}
	})
}
