package filter

import (
	"context"

	"github.com/gowthusaidatta/shl-assessment-recommendation-system/core"
	"github.com/gowthusaidatta/shl-assessment-recommendation-system/pkg/dsl"
)

// RuleMode says what a matching expression means.
type RuleMode string

const (
	// ModeDrop removes candidates the expression matches.
	ModeDrop RuleMode = "drop"
	// ModeKeep removes candidates the expression does NOT match, turning
	// the rule into a constraint ("only assessments under 40 minutes").
	ModeKeep RuleMode = "keep"
)

// Rule is a CEL-backed filter. The expression is compiled once at
// construction; see pkg/dsl for the variable surface.
type Rule struct {
	prg  *dsl.Program
	mode RuleMode
}

// NewRule compiles the expression. Unknown modes default to ModeDrop.
func NewRule(expr string, mode RuleMode) (*Rule, error) {
	prg, err := dsl.Compile(expr)
	if err != nil {
		return nil, err
	}
	if mode != ModeKeep {
		mode = ModeDrop
	}
	return &Rule{prg: prg, mode: mode}, nil
}

func (f *Rule) Name() string { return "filter.rule" }

func (f *Rule) ShouldFilter(
	_ context.Context,
	qctx *core.QueryContext,
	c *core.Candidate,
) (bool, error) {
	matched, err := f.prg.Eval(qctx, c)
	if err != nil {
		return false, err
	}
	if f.mode == ModeKeep {
		return !matched, nil
	}
	return matched, nil
}

var _ Filter = (*Rule)(nil)
