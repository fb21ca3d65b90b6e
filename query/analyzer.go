// Package query turns free-text hiring queries into structured retrieval
// signals: keywords, a K/P category weight split, and a seniority hint.
// Everything here is pure and deterministic; the analyzer does no I/O.
package query

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/gowthusaidatta/shl-assessment-recommendation-system/core"
)

// MaxQueryLen is the default query length cap, in runes.
const MaxQueryLen = 2000

// Analyzer extracts QuerySignals from raw query text.
type Analyzer struct {
	maxLen        int
	defaultWeight core.Weight
	minShare      float64
}

// Option configures an Analyzer.
type Option func(*Analyzer)

// WithMaxQueryLen overrides the query length cap.
func WithMaxQueryLen(n int) Option {
	return func(a *Analyzer) {
		if n > 0 {
			a.maxLen = n
		}
	}
}

// WithDefaultWeight sets the weight split used when no dictionary matches.
// This is where the catalog-prior policy plugs in.
func WithDefaultWeight(w core.Weight) Option {
	return func(a *Analyzer) { a.defaultWeight = w.Normalize() }
}

// WithMinCategoryShare floors the minority weight when both dictionaries
// matched. Zero disables the floor.
func WithMinCategoryShare(share float64) Option {
	return func(a *Analyzer) {
		if share >= 0 && share <= 0.5 {
			a.minShare = share
		}
	}
}

// NewAnalyzer builds an analyzer with even ambiguous default, a 0.30
// minority floor, and the standard length cap.
func NewAnalyzer(opts ...Option) *Analyzer {
	a := &Analyzer{
		maxLen:        MaxQueryLen,
		defaultWeight: core.EvenWeight(),
		minShare:      0.30,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Analyze validates and reads the query. Empty, whitespace-only, or
// over-length input is an InvalidQueryError; the caller must reject the
// request before touching the index.
func (a *Analyzer) Analyze(q string) (*core.QuerySignals, error) {
	trimmed := strings.TrimSpace(q)
	if trimmed == "" {
		return nil, core.NewInvalidQueryError("query is empty")
	}
	if n := utf8.RuneCountInString(q); n > a.maxLen {
		return nil, core.NewInvalidQueryError(fmt.Sprintf("query is %d characters, limit is %d", n, a.maxLen))
	}

	lower := strings.ToLower(trimmed)
	matchedK, matchedP := MatchCategories(lower)

	return &core.QuerySignals{
		Keywords:       ExtractKeywords(lower, 0),
		CategoryWeight: a.weigh(len(matchedK), len(matchedP)),
		Seniority:      DetectSeniority(lower),
		MatchedK:       matchedK,
		MatchedP:       matchedP,
	}, nil
}

// weigh converts dictionary hit counts into the category split. The floor
// keeps the minority category represented when both families matched at
// all.
func (a *Analyzer) weigh(k, p int) core.Weight {
	total := k + p
	if total == 0 {
		return a.defaultWeight
	}
	w := core.Weight{
		K: float64(k) / float64(total),
		P: float64(p) / float64(total),
	}
	if a.minShare > 0 {
		switch {
		case w.K > 0 && w.K < a.minShare:
			w = core.Weight{K: a.minShare, P: 1 - a.minShare}
		case w.P > 0 && w.P < a.minShare:
			w = core.Weight{K: 1 - a.minShare, P: a.minShare}
		}
	}
	return w
}
