package core

import (
	"time"

	"github.com/gowthusaidatta/shl-assessment-recommendation-system/pkg/utils"
)

// Seniority is the experience level hinted at by the query, when any.
type Seniority string

const (
	SeniorityUnknown Seniority = ""
	SeniorityEntry   Seniority = "entry"
	SeniorityMid     Seniority = "mid"
	SenioritySenior  Seniority = "senior"
)

// QuerySignals is the analyzer's reading of a query: everything downstream
// stages know about intent. Produced once per request, never mutated after.
type QuerySignals struct {
	// Keywords are the informative query tokens, deduplicated, in their
	// original order.
	Keywords []string `json:"keywords"`

	// CategoryWeight is the inferred K/P intent split, normalized to sum 1.
	CategoryWeight Weight `json:"category_weight"`

	// Seniority is the optional experience-level hint.
	Seniority Seniority `json:"seniority,omitempty"`

	// MatchedK / MatchedP record which dictionary terms fired, as evidence
	// for the weight split.
	MatchedK []string `json:"matched_k,omitempty"`
	MatchedP []string `json:"matched_p,omitempty"`
}

// QueryContext carries one request through the whole pipeline.
type QueryContext struct {
	// Query is the raw query text as received.
	Query string

	// Signals is the analyzer output.
	Signals *QuerySignals

	// Vector is the query embedding consumed by vector recall.
	Vector []float64

	// Options are the effective options for this request.
	Options Options

	// Deadline is the latency-budget cutoff. Zero means unbounded. Optional
	// stages check it before going out; mandatory stages ignore it.
	Deadline time.Time

	// Labels are request-level labels that can steer pipeline behavior.
	Labels map[string]utils.Label

	// Params carries request-scoped extras for custom nodes.
	Params map[string]any

	// Warnings accumulates non-fatal degradations surfaced to the caller.
	Warnings []string

	// Reranked is set when the external reranker actually contributed.
	Reranked bool
}

// CategoryWeight returns the inferred weight split, EvenWeight when the
// analyzer has not run.
func (qctx *QueryContext) CategoryWeight() Weight {
	if qctx == nil || qctx.Signals == nil {
		return EvenWeight()
	}
	return qctx.Signals.CategoryWeight
}

// Keywords returns the analyzer keywords, nil when the analyzer has not run.
func (qctx *QueryContext) Keywords() []string {
	if qctx == nil || qctx.Signals == nil {
		return nil
	}
	return qctx.Signals.Keywords
}

// RemainingBudget returns the time left before the deadline, and whether a
// deadline is set at all.
func (qctx *QueryContext) RemainingBudget(now time.Time) (time.Duration, bool) {
	if qctx == nil || qctx.Deadline.IsZero() {
		return 0, false
	}
	return qctx.Deadline.Sub(now), true
}

// Warn appends a non-fatal degradation note. Duplicates are collapsed.
func (qctx *QueryContext) Warn(msg string) {
	for _, w := range qctx.Warnings {
		if w == msg {
			return
		}
	}
	qctx.Warnings = append(qctx.Warnings, msg)
}

// PutLabel records a request-level label.
func (qctx *QueryContext) PutLabel(key string, lbl utils.Label) {
	if qctx.Labels == nil {
		qctx.Labels = make(map[string]utils.Label)
	}
	if old, ok := qctx.Labels[key]; ok {
		qctx.Labels[key] = utils.MergeLabel(old, lbl)
		return
	}
	qctx.Labels[key] = lbl
}

// GetLabel reads a request-level label.
func (qctx *QueryContext) GetLabel(key string) (utils.Label, bool) {
	if qctx.Labels == nil {
		return utils.Label{}, false
	}
	lbl, ok := qctx.Labels[key]
	return lbl, ok
}
