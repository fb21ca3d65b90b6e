package dsl

import (
	"fmt"
	"sync"

	"github.com/google/cel-go/cel"

	"github.com/gowthusaidatta/shl-assessment-recommendation-system/core"
)

var (
	celEnv     *cel.Env
	celEnvOnce sync.Once
	celEnvErr  error
)

func env() (*cel.Env, error) {
	celEnvOnce.Do(func() {
		celEnv, celEnvErr = cel.NewEnv(
			cel.Variable("item", cel.DynType),
			cel.Variable("label", cel.DynType),
			cel.Variable("query", cel.DynType),
		)
	})
	return celEnv, celEnvErr
}

// Program is a compiled boolean expression over one candidate and its query
// context, built on CEL (Common Expression Language). Compile once, evaluate
// per candidate; Eval is safe for concurrent use.
//
// Available variables:
//
//	item.id, item.name, item.category ("K"/"P"), item.duration (minutes),
//	item.remote_support, item.adaptive_support, item.keywords,
//	item.score, item.similarity, item.keyword_score
//	label.<key>        flattened label values, e.g. label.recall_source
//	query.raw, query.keywords, query.weight_k, query.weight_p,
//	query.seniority
//
// Examples:
//
//	item.duration > 0 && item.duration <= 40
//	item.category == "P" && query.weight_p > 0.5
//	label.recall_source != null && label.recall_source.contains("vector")
//
// CEL errors on access to a missing map key; use `label.key != null` or
// `"key" in label` for existence checks.
type Program struct {
	src string
	prg cel.Program
}

// Compile parses and type-checks the expression. The empty expression is
// rejected: a rule that matches everything is a config bug, not a rule.
func Compile(expr string) (*Program, error) {
	if expr == "" {
		return nil, fmt.Errorf("dsl: empty expression")
	}
	e, err := env()
	if err != nil {
		return nil, fmt.Errorf("dsl: env: %w", err)
	}
	ast, issues := e.Compile(expr)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("dsl: compile %q: %w", expr, issues.Err())
	}
	prg, err := e.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("dsl: program %q: %w", expr, err)
	}
	return &Program{src: expr, prg: prg}, nil
}

// Source returns the original expression text.
func (p *Program) Source() string { return p.src }

// Eval runs the program against one candidate. The result must be boolean.
func (p *Program) Eval(qctx *core.QueryContext, c *core.Candidate) (bool, error) {
	out, _, err := p.prg.Eval(buildInput(qctx, c))
	if err != nil {
		return false, fmt.Errorf("dsl: eval %q: %w", p.src, err)
	}
	b, ok := out.Value().(bool)
	if !ok {
		return false, fmt.Errorf("dsl: %q returned %T, want bool", p.src, out.Value())
	}
	return b, nil
}

func buildInput(qctx *core.QueryContext, c *core.Candidate) map[string]any {
	labels := make(map[string]any)
	labelValues := make(map[string]any)
	item := map[string]any{
		"id":            "",
		"score":         0.0,
		"similarity":    0.0,
		"keyword_score": 0.0,
	}
	if c != nil {
		for k, v := range c.Labels {
			labels[k] = map[string]any{"value": v.Value, "source": v.Source}
			labelValues[k] = v.Value
		}
		item["id"] = c.ID()
		item["score"] = c.Score
		item["similarity"] = c.Similarity
		item["keyword_score"] = c.KeywordScore
		item["labels"] = labels
		if a := c.Assessment; a != nil {
			item["name"] = a.Name
			item["category"] = string(a.Category)
			item["duration"] = a.Duration
			item["remote_support"] = a.RemoteSupport
			item["adaptive_support"] = a.AdaptiveSupport
			item["keywords"] = a.Keywords
		}
	}

	query := map[string]any{"raw": "", "keywords": []string{}}
	if qctx != nil {
		query["raw"] = qctx.Query
		query["keywords"] = qctx.Keywords()
		w := qctx.CategoryWeight()
		query["weight_k"] = w.K
		query["weight_p"] = w.P
		if qctx.Signals != nil {
			query["seniority"] = string(qctx.Signals.Seniority)
		}
		if qctx.Params != nil {
			query["params"] = qctx.Params
		}
	}

	return map[string]any{"item": item, "label": labelValues, "query": query}
}
