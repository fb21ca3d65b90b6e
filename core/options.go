package core

import (
	"fmt"
	"time"
)

// PriorPolicy selects the category-weight default used when a query gives no
// category evidence.
type PriorPolicy string

const (
	// PriorEven assumes nothing: 50/50.
	PriorEven PriorPolicy = "even"
	// PriorCatalog mirrors the catalog's own category distribution.
	PriorCatalog PriorPolicy = "catalog"
)

// Options are the effective per-request knobs. Service-level defaults are
// resolved first, then per-request RequestOptions override on top.
type Options struct {
	// TopN is how many nearest neighbors vector recall asks for.
	TopN int `json:"top_n" yaml:"top_n"`

	// Rerank toggles the external reranker stage.
	Rerank bool `json:"rerank" yaml:"rerank"`

	// RerankTopK caps how many head candidates the external scorer sees.
	RerankTopK int `json:"rerank_top_k" yaml:"rerank_top_k"`

	// MaxLatency is the whole-request budget. The optional reranker is
	// skipped when the budget is already spent; mandatory stages always run.
	MaxLatency time.Duration `json:"max_latency" yaml:"max_latency"`

	// Fusion weights. They need not sum to 1: fusion renormalizes over the
	// signals actually present per candidate.
	SimilarityWeight float64 `json:"similarity_weight" yaml:"similarity_weight"`
	KeywordWeight    float64 `json:"keyword_weight" yaml:"keyword_weight"`
	LLMWeight        float64 `json:"llm_weight" yaml:"llm_weight"`

	// Total and Min bound the final result size.
	Total int `json:"total" yaml:"total"`
	Min   int `json:"min" yaml:"min"`

	// AmbiguousPrior picks the weight default for hint-less queries.
	AmbiguousPrior PriorPolicy `json:"ambiguous_prior" yaml:"ambiguous_prior"`

	// MinCategoryShare floors the minority weight when both dictionaries
	// matched, so lopsided queries still represent both families.
	MinCategoryShare float64 `json:"min_category_share" yaml:"min_category_share"`
}

// DefaultOptions returns the stock configuration.
func DefaultOptions() Options {
	return Options{
		TopN:             50,
		Rerank:           true,
		RerankTopK:       30,
		MaxLatency:       30 * time.Second,
		SimilarityWeight: 0.6,
		KeywordWeight:    0.25,
		LLMWeight:        0.15,
		Total:            10,
		Min:              5,
		AmbiguousPrior:   PriorEven,
		MinCategoryShare: 0.30,
	}
}

// Validate rejects configurations the pipeline cannot honor.
func (o Options) Validate() error {
	if o.TopN < 1 {
		return NewDomainError(ModulePipeline, ErrorCodeInvalidInput, fmt.Sprintf("top_n must be >= 1, got %d", o.TopN))
	}
	if o.Min < 1 || o.Total < o.Min {
		return NewDomainError(ModulePipeline, ErrorCodeInvalidInput, fmt.Sprintf("result bounds must satisfy 1 <= min <= total, got min=%d total=%d", o.Min, o.Total))
	}
	if o.TopN < o.Total {
		return NewDomainError(ModulePipeline, ErrorCodeInvalidInput, fmt.Sprintf("top_n (%d) must cover total (%d)", o.TopN, o.Total))
	}
	if o.Rerank && o.RerankTopK < 1 {
		return NewDomainError(ModulePipeline, ErrorCodeInvalidInput, fmt.Sprintf("rerank_top_k must be >= 1, got %d", o.RerankTopK))
	}
	for _, w := range []struct {
		name  string
		value float64
	}{
		{"similarity_weight", o.SimilarityWeight},
		{"keyword_weight", o.KeywordWeight},
		{"llm_weight", o.LLMWeight},
	} {
		if w.value < 0 || w.value > 1 {
			return NewDomainError(ModulePipeline, ErrorCodeInvalidInput, fmt.Sprintf("%s must be in [0,1], got %g", w.name, w.value))
		}
	}
	if o.SimilarityWeight+o.KeywordWeight+o.LLMWeight <= 0 {
		return NewDomainError(ModulePipeline, ErrorCodeInvalidInput, "at least one fusion weight must be > 0")
	}
	if o.MinCategoryShare < 0 || o.MinCategoryShare > 0.5 {
		return NewDomainError(ModulePipeline, ErrorCodeInvalidInput, fmt.Sprintf("min_category_share must be in [0,0.5], got %g", o.MinCategoryShare))
	}
	switch o.AmbiguousPrior {
	case PriorEven, PriorCatalog:
	default:
		return NewDomainError(ModulePipeline, ErrorCodeInvalidInput, fmt.Sprintf("unknown ambiguous_prior %q", o.AmbiguousPrior))
	}
	return nil
}

// RequestOption overrides one knob for a single request.
type RequestOption func(*Options)

// Apply copies o and applies the per-request overrides.
func (o Options) Apply(opts ...RequestOption) Options {
	for _, fn := range opts {
		if fn != nil {
			fn(&o)
		}
	}
	return o
}

// WithTopN overrides the recall depth.
func WithTopN(n int) RequestOption {
	return func(o *Options) { o.TopN = n }
}

// WithRerank toggles the external reranker.
func WithRerank(enabled bool) RequestOption {
	return func(o *Options) { o.Rerank = enabled }
}

// WithRerankTopK overrides how many candidates the external scorer sees.
func WithRerankTopK(k int) RequestOption {
	return func(o *Options) { o.RerankTopK = k }
}

// WithMaxLatency overrides the request budget.
func WithMaxLatency(d time.Duration) RequestOption {
	return func(o *Options) { o.MaxLatency = d }
}

// WithWeights overrides the three fusion weights at once.
func WithWeights(similarity, keyword, llm float64) RequestOption {
	return func(o *Options) {
		o.SimilarityWeight = similarity
		o.KeywordWeight = keyword
		o.LLMWeight = llm
	}
}

// WithAmbiguousPrior overrides the hint-less weight default.
func WithAmbiguousPrior(p PriorPolicy) RequestOption {
	return func(o *Options) { o.AmbiguousPrior = p }
}
