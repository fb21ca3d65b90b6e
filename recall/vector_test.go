package recall

import (
	"context"
	"errors"
	"testing"

	"github.com/gowthusaidatta/shl-assessment-recommendation-system/core"
	"github.com/gowthusaidatta/shl-assessment-recommendation-system/vector"
)

func testCatalog(t *testing.T) *core.Catalog {
	t.Helper()
	items := []*core.Assessment{
		{ID: "java-core", Name: "Java Core Skills", Category: core.TestTypeKnowledge},
		{ID: "sql-server", Name: "SQL Server", Category: core.TestTypeKnowledge},
		{ID: "teamwork", Name: "Teamwork Styles", Category: core.TestTypePersonality},
	}
	cat, err := core.NewCatalog(items)
	if err != nil {
		t.Fatalf("NewCatalog: %v", err)
	}
	return cat
}

func testIndex(t *testing.T) *vector.FlatIndex {
	t.Helper()
	idx, err := vector.NewFlatIndex(2, "")
	if err != nil {
		t.Fatalf("NewFlatIndex: %v", err)
	}
	vecs := map[string][]float64{
		"java-core":  {1, 0},
		"sql-server": {0.8, 0.2},
		"teamwork":   {0, 1},
	}
	for id, v := range vecs {
		if err := idx.Upsert(id, v); err != nil {
			t.Fatalf("Upsert(%s): %v", id, err)
		}
	}
	return idx
}

func TestVectorSourceRecall(t *testing.T) {
	src := &VectorSource{Index: testIndex(t), Catalog: testCatalog(t)}
	qctx := &core.QueryContext{
		Vector:  []float64{1, 0},
		Options: core.DefaultOptions(),
	}

	got, err := src.Recall(context.Background(), qctx)
	if err != nil {
		t.Fatalf("Recall: %v", err)
	}
	wantOrder := []string{"java-core", "sql-server", "teamwork"}
	if len(got) != len(wantOrder) {
		t.Fatalf("got %d candidates, want %d", len(got), len(wantOrder))
	}
	for i, id := range wantOrder {
		if got[i].ID() != id {
			t.Errorf("position %d: got %s, want %s", i, got[i].ID(), id)
		}
	}
	for _, c := range got {
		if c.Similarity <= 0 || c.Similarity > 1 {
			t.Errorf("%s: similarity %v out of (0,1]", c.ID(), c.Similarity)
		}
		if lbl, ok := c.GetLabel("recall_source"); !ok || lbl.Value != "recall.vector" {
			t.Errorf("%s: recall_source label = %+v", c.ID(), lbl)
		}
	}
	if got[0].Similarity != 1 {
		t.Errorf("exact match similarity = %v, want 1", got[0].Similarity)
	}
	for i := 1; i < len(got); i++ {
		if got[i].Similarity > got[i-1].Similarity {
			t.Errorf("similarity not descending at %d", i)
		}
	}
}

func TestVectorSourceMissingDependencies(t *testing.T) {
	idx := testIndex(t)
	cat := testCatalog(t)
	qctx := &core.QueryContext{Vector: []float64{1, 0}}

	tests := []struct {
		name  string
		src   *VectorSource
		qctx  *core.QueryContext
		check func(error) bool
		code  string
	}{
		{"nil index", &VectorSource{Catalog: cat}, qctx, core.IsIndexUnavailable, "index"},
		{"nil catalog", &VectorSource{Index: idx}, qctx, core.IsCatalogUnavailable, "catalog"},
		{"no query vector", &VectorSource{Index: idx, Catalog: cat}, &core.QueryContext{}, core.IsIndexUnavailable, "index"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.src.Recall(context.Background(), tt.qctx)
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if !tt.check(err) {
				t.Errorf("error %v does not satisfy %s taxonomy", err, tt.code)
			}
		})
	}
}

func TestVectorSourceTopN(t *testing.T) {
	idx := testIndex(t)
	cat := testCatalog(t)

	tests := []struct {
		name    string
		nodeTop int
		optTop  int
		want    int
	}{
		{"node override wins", 1, 3, 1},
		{"options used when node unset", 0, 2, 2},
		{"default caps at index size", 0, 0, 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := &VectorSource{Index: idx, Catalog: cat, TopN: tt.nodeTop}
			qctx := &core.QueryContext{Vector: []float64{1, 0}}
			qctx.Options.TopN = tt.optTop

			got, err := src.Recall(context.Background(), qctx)
			if err != nil {
				t.Fatalf("Recall: %v", err)
			}
			if len(got) != tt.want {
				t.Errorf("got %d candidates, want %d", len(got), tt.want)
			}
		})
	}
}

func TestVectorSourceDropsOrphanHits(t *testing.T) {
	idx := testIndex(t)
	if err := idx.Upsert("ghost", []float64{0.9, 0.1}); err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	src := &VectorSource{Index: idx, Catalog: testCatalog(t)}
	qctx := &core.QueryContext{Vector: []float64{1, 0}, Options: core.DefaultOptions()}

	got, err := src.Recall(context.Background(), qctx)
	if err != nil {
		t.Fatalf("Recall: %v", err)
	}
	for _, c := range got {
		if c.ID() == "ghost" {
			t.Error("orphan index hit survived into candidates")
		}
	}
	if len(got) != 3 {
		t.Errorf("got %d candidates, want 3", len(got))
	}
}

type faultyIndex struct{ err error }

func (f *faultyIndex) Search(context.Context, *core.VectorSearchRequest) (*core.VectorSearchResult, error) {
	return nil, f.err
}
func (f *faultyIndex) Close() error { return nil }

func TestVectorSourceWrapsSearchErrors(t *testing.T) {
	src := &VectorSource{
		Index:   &faultyIndex{err: errors.New("socket closed")},
		Catalog: testCatalog(t),
	}
	qctx := &core.QueryContext{Vector: []float64{1, 0}}

	_, err := src.Recall(context.Background(), qctx)
	if !core.IsIndexUnavailable(err) {
		t.Errorf("generic search error not mapped to index taxonomy: %v", err)
	}

	domain := core.NewIndexUnavailableError("snapshot corrupt", nil)
	src.Index = &faultyIndex{err: domain}
	_, err = src.Recall(context.Background(), qctx)
	if !errors.Is(err, domain) {
		t.Errorf("domain error was rewrapped: %v", err)
	}
}
