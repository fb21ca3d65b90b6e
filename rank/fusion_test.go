package rank

import (
	"context"
	"math"
	"testing"

	"github.com/gowthusaidatta/shl-assessment-recommendation-system/core"
)

func qctxWithKeywords(kws ...string) *core.QueryContext {
	return &core.QueryContext{
		Signals: &core.QuerySignals{Keywords: kws},
		Options: core.DefaultOptions(),
	}
}

func cand(id string, sim float64, kws ...string) *core.Candidate {
	c := core.NewCandidate(&core.Assessment{
		ID:       id,
		Category: core.TestTypeKnowledge,
		Keywords: kws,
	})
	c.Similarity = sim
	return c
}

func approx(t *testing.T, got, want float64, msg string) {
	t.Helper()
	if math.Abs(got-want) > 1e-9 {
		t.Errorf("%s: got %v, want %v", msg, got, want)
	}
}

func TestFusionWeightedSum(t *testing.T) {
	qctx := qctxWithKeywords("java", "developer")
	c := cand("a", 0.8, "java")

	n := &Fusion{}
	if _, err := n.Process(context.Background(), qctx, []*core.Candidate{c}); err != nil {
		t.Fatalf("Process: %v", err)
	}

	approx(t, c.KeywordScore, 0.5, "keyword overlap")
	// similarity and keyword present, llm absent: (0.6*0.8 + 0.25*0.5) / 0.85
	approx(t, c.Score, (0.6*0.8+0.25*0.5)/0.85, "fused score")

	if lbl, ok := c.GetLabel("rank_fusion"); !ok || lbl.Value != "similarity+keyword" {
		t.Errorf("rank_fusion label = %+v", lbl)
	}
}

func TestFusionWithLLMScore(t *testing.T) {
	qctx := qctxWithKeywords("java", "developer")
	scored := cand("scored", 0.8, "java")
	scored.SetLLMScore(1.0)
	unscored := cand("unscored", 0.8, "java")

	n := &Fusion{}
	if _, err := n.Process(context.Background(), qctx, []*core.Candidate{scored, unscored}); err != nil {
		t.Fatalf("Process: %v", err)
	}

	// Full denominator for the scored one, renormalized for the other.
	approx(t, scored.Score, 0.6*0.8+0.25*0.5+0.15*1.0, "scored candidate")
	approx(t, unscored.Score, (0.6*0.8+0.25*0.5)/0.85, "unscored candidate")

	if lbl, _ := scored.GetLabel("rank_fusion"); lbl.Value != "similarity+keyword+llm" {
		t.Errorf("scored label = %q", lbl.Value)
	}
}

func TestFusionNoQueryKeywords(t *testing.T) {
	qctx := &core.QueryContext{Options: core.DefaultOptions()}
	c := cand("a", 0.7, "java")

	n := &Fusion{}
	if _, err := n.Process(context.Background(), qctx, []*core.Candidate{c}); err != nil {
		t.Fatalf("Process: %v", err)
	}

	// Keyword signal absent entirely: score renormalizes to similarity.
	approx(t, c.Score, 0.7, "score without keyword signal")
	if c.KeywordScore != 0 {
		t.Errorf("KeywordScore = %v, want 0", c.KeywordScore)
	}
	if lbl, _ := c.GetLabel("rank_fusion"); lbl.Value != "similarity" {
		t.Errorf("label = %q, want similarity only", lbl.Value)
	}
}

func TestFusionZeroWeightFallback(t *testing.T) {
	qctx := &core.QueryContext{Options: core.DefaultOptions()}
	// Keyword-only weighting with a keywordless query leaves no weighted
	// signal at all.
	qctx.Options.SimilarityWeight = 0
	qctx.Options.KeywordWeight = 1
	qctx.Options.LLMWeight = 0

	c := cand("a", 0.42)
	n := &Fusion{}
	if _, err := n.Process(context.Background(), qctx, []*core.Candidate{c}); err != nil {
		t.Fatalf("Process: %v", err)
	}
	approx(t, c.Score, 0.42, "fallback to similarity")
}

func TestFusionNodeWeightOverride(t *testing.T) {
	qctx := qctxWithKeywords("java")
	c := cand("a", 0.5, "java")

	n := &Fusion{SimilarityWeight: 1, KeywordWeight: 1}
	if _, err := n.Process(context.Background(), qctx, []*core.Candidate{c}); err != nil {
		t.Fatalf("Process: %v", err)
	}
	// overlap 1.0, equal weights: (0.5 + 1.0) / 2
	approx(t, c.Score, 0.75, "node-level weights")
}

func TestFusionOrderingDeterministic(t *testing.T) {
	qctx := &core.QueryContext{Options: core.DefaultOptions()}
	items := []*core.Candidate{
		cand("zebra", 0.5),
		cand("apple", 0.5),
		cand("mango", 0.9),
	}

	n := &Fusion{}
	got, err := n.Process(context.Background(), qctx, items)
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	want := []string{"mango", "apple", "zebra"}
	for i, id := range want {
		if got[i].ID() != id {
			t.Fatalf("position %d: got %s, want %s (ties must break by ascending id)", i, got[i].ID(), id)
		}
	}
}

func TestKeywordOverlapIgnoresDuplicates(t *testing.T) {
	qctx := qctxWithKeywords("java", "spring")
	c := cand("a", 0.5, "java", "java", "JAVA")

	n := &Fusion{}
	if _, err := n.Process(context.Background(), qctx, []*core.Candidate{c}); err != nil {
		t.Fatalf("Process: %v", err)
	}
	approx(t, c.KeywordScore, 0.5, "duplicate item keywords count once")
}

func TestFusionEmptyInput(t *testing.T) {
	n := &Fusion{}
	got, err := n.Process(context.Background(), qctxWithKeywords("x"), nil)
	if err != nil || len(got) != 0 {
		t.Errorf("got (%v, %v), want empty", got, err)
	}
}

// Raising the similarity weight must never push the most-similar candidate
// down the ranking.
func TestFusionSimilarityWeightMonotone(t *testing.T) {
	build := func() []*core.Candidate {
		return []*core.Candidate{
			cand("star", 0.95, "java"),
			cand("kw-a", 0.3, "java", "spring", "hibernate", "collaboration"),
			cand("kw-b", 0.4, "java", "spring", "hibernate", "collaboration"),
			cand("kw-c", 0.5, "java", "spring", "hibernate", "collaboration"),
			cand("mid", 0.6, "java", "spring"),
		}
	}
	rankOf := func(items []*core.Candidate, id string) int {
		for i, c := range items {
			if c.ID() == id {
				return i
			}
		}
		t.Fatalf("candidate %s missing from output", id)
		return -1
	}

	prev := len(build())
	for _, simW := range []float64{0.1, 0.3, 0.5, 0.7, 0.9} {
		qctx := qctxWithKeywords("java", "spring", "hibernate", "collaboration")
		n := &Fusion{SimilarityWeight: simW, KeywordWeight: 1 - simW}
		got, err := n.Process(context.Background(), qctx, build())
		if err != nil {
			t.Fatalf("Process(simW=%v): %v", simW, err)
		}
		r := rankOf(got, "star")
		if r > prev {
			t.Fatalf("simW=%v demoted the most-similar candidate: rank %d after %d", simW, r, prev)
		}
		prev = r
	}
}
