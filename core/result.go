package core

import (
	"sort"
	"time"
)

// Recommendation is one returned assessment with its scores flattened for
// output.
type Recommendation struct {
	ID              string   `json:"id"`
	Name            string   `json:"name"`
	URL             string   `json:"url"`
	Category        TestType `json:"test_type"`
	CategoryLabel   string   `json:"test_type_label"`
	Duration        int      `json:"duration,omitempty"`
	RemoteSupport   bool     `json:"remote_support"`
	AdaptiveSupport bool     `json:"adaptive_support"`

	Score        float64  `json:"score"`
	Similarity   float64  `json:"similarity"`
	KeywordScore float64  `json:"keyword_score"`
	LLMScore     *float64 `json:"llm_score,omitempty"`

	// Reasons renders the candidate's label trail, one "key=value (source)"
	// line per label, sorted by key.
	Reasons []string `json:"reasons,omitempty"`
}

// Result is the service's answer to one query.
type Result struct {
	RequestID string           `json:"request_id"`
	Query     string           `json:"query"`
	Items     []Recommendation `json:"recommendations"`
	Signals   *QuerySignals    `json:"signals,omitempty"`
	Warnings  []string         `json:"warnings,omitempty"`
	Reranked  bool             `json:"reranked"`
	Elapsed   time.Duration    `json:"-"`
}

// NewRecommendation flattens a candidate for output.
func NewRecommendation(c *Candidate) Recommendation {
	rec := Recommendation{
		Score:        c.Score,
		Similarity:   c.Similarity,
		KeywordScore: c.KeywordScore,
		LLMScore:     c.LLMScore,
	}
	if a := c.Assessment; a != nil {
		rec.ID = a.ID
		rec.Name = a.Name
		rec.URL = a.URL
		rec.Category = a.Category
		rec.CategoryLabel = a.Category.Label()
		rec.Duration = a.Duration
		rec.RemoteSupport = a.RemoteSupport
		rec.AdaptiveSupport = a.AdaptiveSupport
	}
	if len(c.Labels) > 0 {
		keys := make([]string, 0, len(c.Labels))
		for k := range c.Labels {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		rec.Reasons = make([]string, 0, len(keys))
		for _, k := range keys {
			lbl := c.Labels[k]
			rec.Reasons = append(rec.Reasons, k+"="+lbl.Value+" ("+lbl.Source+")")
		}
	}
	return rec
}
