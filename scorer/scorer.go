package scorer

import (
	"fmt"

	"github.com/gowthusaidatta/shl-assessment-recommendation-system/core"
)

// Provider names accepted by New.
const (
	ProviderAuto = "auto"
	ProviderLLM  = "llm"
	ProviderRule = "rule"
)

// Config selects and configures a scoring strategy.
type Config struct {
	// Provider picks the strategy. "auto" (the default) uses the LLM when
	// credentials are configured and the lexical scorer otherwise.
	Provider string

	LLM LLMConfig
}

// New builds the configured RelevanceScorer.
func New(cfg Config) (core.RelevanceScorer, error) {
	switch cfg.Provider {
	case ProviderRule:
		return NewRule(), nil
	case ProviderLLM:
		return NewLLM(cfg.LLM)
	case ProviderAuto, "":
		if cfg.LLM.APIKey != "" || cfg.LLM.BaseURL != "" {
			return NewLLM(cfg.LLM)
		}
		return NewRule(), nil
	default:
		return nil, core.NewDomainError(core.ModuleReranker, core.ErrorCodeInvalidInput,
			fmt.Sprintf("unknown scorer provider %q", cfg.Provider))
	}
}
