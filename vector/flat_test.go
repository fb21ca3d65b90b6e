package vector

import (
	"context"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/gowthusaidatta/shl-assessment-recommendation-system/core"
)

func mustIndex(t *testing.T, metric string, vecs map[string][]float64, order []string) *FlatIndex {
	t.Helper()
	idx, err := NewFlatIndex(2, metric)
	if err != nil {
		t.Fatalf("NewFlatIndex: %v", err)
	}
	for _, id := range order {
		if err := idx.Upsert(id, vecs[id]); err != nil {
			t.Fatalf("Upsert(%s): %v", id, err)
		}
	}
	return idx
}

func TestFlatIndexSearchOrdersByDistance(t *testing.T) {
	idx := mustIndex(t, core.MetricL2, map[string][]float64{
		"far":  {10, 0},
		"near": {1, 0},
		"mid":  {3, 0},
	}, []string{"far", "near", "mid"})

	res, err := idx.Search(context.Background(), &core.VectorSearchRequest{Vector: []float64{0, 0}, TopN: 3})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	want := []string{"near", "mid", "far"}
	for i, w := range want {
		if res.Items[i].ID != w {
			t.Fatalf("position %d = %q, want %q (full: %v)", i, res.Items[i].ID, w, res.Items)
		}
	}
	// Similarity transform: 1/(1+d), monotone and bounded.
	for _, item := range res.Items {
		wantScore := 1.0 / (1.0 + item.Distance)
		if math.Abs(item.Score-wantScore) > 1e-12 {
			t.Fatalf("score %g does not match 1/(1+%g)", item.Score, item.Distance)
		}
		if item.Score <= 0 || item.Score > 1 {
			t.Fatalf("score %g outside (0,1]", item.Score)
		}
	}
}

func TestFlatIndexTieBreaksByInsertionOrder(t *testing.T) {
	// Three vectors at identical distance from the origin query.
	idx := mustIndex(t, core.MetricL2, map[string][]float64{
		"c": {1, 0},
		"a": {0, 1},
		"b": {-1, 0},
	}, []string{"c", "a", "b"})

	res, err := idx.Search(context.Background(), &core.VectorSearchRequest{Vector: []float64{0, 0}, TopN: 3})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	want := []string{"c", "a", "b"} // insertion order, not id order
	for i, w := range want {
		if res.Items[i].ID != w {
			t.Fatalf("tie order broken at %d: got %q, want %q", i, res.Items[i].ID, w)
		}
	}
}

func TestFlatIndexTopNClamps(t *testing.T) {
	idx := mustIndex(t, core.MetricL2, map[string][]float64{
		"a": {1, 0}, "b": {2, 0},
	}, []string{"a", "b"})

	res, err := idx.Search(context.Background(), &core.VectorSearchRequest{Vector: []float64{0, 0}, TopN: 50})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(res.Items) != 2 {
		t.Fatalf("got %d items, want the whole index", len(res.Items))
	}
}

func TestFlatIndexSearchErrors(t *testing.T) {
	empty, _ := NewFlatIndex(2, "")
	if _, err := empty.Search(context.Background(), &core.VectorSearchRequest{Vector: []float64{0, 0}}); !core.IsIndexUnavailable(err) {
		t.Fatalf("empty index: want IndexUnavailableError, got %v", err)
	}

	idx := mustIndex(t, core.MetricL2, map[string][]float64{"a": {1, 0}}, []string{"a"})
	if _, err := idx.Search(context.Background(), &core.VectorSearchRequest{Vector: []float64{1, 2, 3}}); err == nil {
		t.Fatal("dimension mismatch accepted")
	}
	if _, err := idx.Search(context.Background(), nil); err == nil {
		t.Fatal("nil request accepted")
	}
}

func TestFlatIndexUpsertKeepsSlot(t *testing.T) {
	idx := mustIndex(t, core.MetricL2, map[string][]float64{
		"a": {0, 1}, "b": {0, 1},
	}, []string{"a", "b"})
	// Replace "a" with an equally-distant vector; it must still win the tie
	// by holding its original slot.
	if err := idx.Upsert("a", []float64{1, 0}); err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	if idx.Len() != 2 {
		t.Fatalf("Len() = %d after in-place upsert", idx.Len())
	}
	res, err := idx.Search(context.Background(), &core.VectorSearchRequest{Vector: []float64{0, 0}, TopN: 2})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if res.Items[0].ID != "a" {
		t.Fatalf("slot lost on upsert: %v", res.Items)
	}
}

func TestFlatIndexCosineMetric(t *testing.T) {
	idx := mustIndex(t, core.MetricCosine, map[string][]float64{
		"aligned":  {2, 0},
		"diagonal": {1, 1},
		"opposite": {-1, 0},
	}, []string{"opposite", "diagonal", "aligned"})

	res, err := idx.Search(context.Background(), &core.VectorSearchRequest{Vector: []float64{1, 0}, TopN: 3})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	want := []string{"aligned", "diagonal", "opposite"}
	for i, w := range want {
		if res.Items[i].ID != w {
			t.Fatalf("cosine order wrong at %d: got %q want %q", i, res.Items[i].ID, w)
		}
	}
}

func TestFlatIndexSaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "index.json")
	idx := mustIndex(t, core.MetricL2, map[string][]float64{
		"a": {1, 0}, "b": {0, 1}, "c": {1, 1},
	}, []string{"a", "b", "c"})

	if err := idx.Save(path); err != nil {
		t.Fatalf("Save: %v", err)
	}
	loaded, err := LoadFlatIndex(path)
	if err != nil {
		t.Fatalf("LoadFlatIndex: %v", err)
	}
	if loaded.Len() != 3 || loaded.Dimensions() != 2 || loaded.Metric() != core.MetricL2 {
		t.Fatalf("snapshot lost shape: len=%d dim=%d metric=%s", loaded.Len(), loaded.Dimensions(), loaded.Metric())
	}

	query := &core.VectorSearchRequest{Vector: []float64{1, 0}, TopN: 3}
	orig, _ := idx.Search(context.Background(), query)
	restored, err := loaded.Search(context.Background(), query)
	if err != nil {
		t.Fatalf("Search after load: %v", err)
	}
	for i := range orig.Items {
		if orig.Items[i].ID != restored.Items[i].ID || orig.Items[i].Distance != restored.Items[i].Distance {
			t.Fatalf("position %d differs after reload: %+v vs %+v", i, orig.Items[i], restored.Items[i])
		}
	}
}

func TestLoadFlatIndexRejectsGarbage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.json")
	if err := os.WriteFile(path, []byte("not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadFlatIndex(path); !core.IsIndexUnavailable(err) {
		t.Fatalf("want IndexUnavailableError, got %v", err)
	}
	if _, err := LoadFlatIndex(filepath.Join(t.TempDir(), "missing.json")); !core.IsIndexUnavailable(err) {
		t.Fatalf("missing file: want IndexUnavailableError, got %v", err)
	}
}
