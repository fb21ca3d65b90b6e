// Package scorer provides the external-relevance strategies behind the
// rerank stage: an LLM-backed scorer and a deterministic lexical one.
package scorer

import (
	"context"

	"github.com/gowthusaidatta/shl-assessment-recommendation-system/core"
	"github.com/gowthusaidatta/shl-assessment-recommendation-system/query"
)

// Rule grades candidates by lexical evidence alone: shared keywords count
// full, name-token matches count half. Deterministic, dependency-free, and
// it never fails, which makes it the fallback when no LLM is configured.
type Rule struct{}

func NewRule() *Rule { return &Rule{} }

func (s *Rule) Name() string { return "scorer.rule" }

func (s *Rule) Score(_ context.Context, q string, candidates []*core.Candidate) (map[string]float64, error) {
	queryKeywords := query.ExtractKeywords(q, 0)
	if len(queryKeywords) == 0 {
		// Nothing to grade against; contribute no signal.
		return map[string]float64{}, nil
	}

	out := make(map[string]float64, len(candidates))
	for _, c := range candidates {
		if c == nil || c.Assessment == nil {
			continue
		}
		out[c.ID()] = lexicalScore(queryKeywords, c.Assessment)
	}
	return out, nil
}

func lexicalScore(queryKeywords []string, a *core.Assessment) float64 {
	kwSet := make(map[string]struct{}, len(a.Keywords))
	for _, kw := range a.Keywords {
		kwSet[kw] = struct{}{}
	}
	nameSet := make(map[string]struct{})
	for _, tok := range query.Tokenize(a.Name) {
		nameSet[tok] = struct{}{}
	}

	var hit float64
	for _, kw := range queryKeywords {
		if _, ok := kwSet[kw]; ok {
			hit += 1.0
			continue
		}
		if _, ok := nameSet[kw]; ok {
			hit += 0.5
		}
	}

	score := hit / float64(len(queryKeywords))
	if score > 1 {
		score = 1
	}
	return score
}

var _ core.RelevanceScorer = (*Rule)(nil)
