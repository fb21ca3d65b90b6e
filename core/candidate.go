package core

import (
	"sort"

	"github.com/gowthusaidatta/shl-assessment-recommendation-system/pkg/utils"
)

// Candidate is the unit flowing through the pipeline: one assessment plus
// the scores each stage attached to it. Labels keep the explainability
// trail; Score drives ordering decisions.
type Candidate struct {
	Assessment *Assessment

	// Similarity comes from vector retrieval, in (0,1].
	Similarity float64
	// KeywordScore is the query/item keyword overlap, in [0,1].
	KeywordScore float64
	// LLMScore is set only when the external reranker contributed, in [0,1].
	LLMScore *float64

	// Score is the current fused score; fusion recomputes it whenever a new
	// signal lands.
	Score float64

	Labels map[string]utils.Label
}

// NewCandidate wraps an assessment with zeroed scores.
func NewCandidate(a *Assessment) *Candidate {
	return &Candidate{
		Assessment: a,
		Labels:     make(map[string]utils.Label),
	}
}

// ID returns the underlying assessment ID, or "" for a malformed candidate.
func (c *Candidate) ID() string {
	if c == nil || c.Assessment == nil {
		return ""
	}
	return c.Assessment.ID
}

// Category returns the underlying assessment category.
func (c *Candidate) Category() TestType {
	if c == nil || c.Assessment == nil {
		return ""
	}
	return c.Assessment.Category
}

// SetLLMScore attaches an external relevance score.
func (c *Candidate) SetLLMScore(s float64) {
	c.LLMScore = &s
}

// PutLabel records a label; same-key labels accumulate under the standard
// merge rule.
func (c *Candidate) PutLabel(key string, lbl utils.Label) {
	if c.Labels == nil {
		c.Labels = make(map[string]utils.Label)
	}
	if old, ok := c.Labels[key]; ok {
		c.Labels[key] = utils.MergeLabel(old, lbl)
		return
	}
	c.Labels[key] = lbl
}

// GetLabel reads a label.
func (c *Candidate) GetLabel(key string) (utils.Label, bool) {
	if c.Labels == nil {
		return utils.Label{}, false
	}
	lbl, ok := c.Labels[key]
	return lbl, ok
}

// SortCandidates orders by Score descending; equal scores break by
// ascending assessment ID so the ordering is total and reproducible. Nil
// candidates sink to the end.
func SortCandidates(items []*Candidate) {
	sort.SliceStable(items, func(i, j int) bool {
		a, b := items[i], items[j]
		if a == nil {
			return false
		}
		if b == nil {
			return true
		}
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		return a.ID() < b.ID()
	})
}
