package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/gowthusaidatta/shl-assessment-recommendation-system/core"
)

// EnvPrefix is the prefix for environment overrides; a key like
// embedding.api_key becomes SHLREC_EMBEDDING_API_KEY.
const EnvPrefix = "SHLREC"

// App is the process-level configuration, resolved from defaults, an
// optional config file, and SHLREC_* environment variables in that order.
type App struct {
	Addr string

	CatalogPath  string
	IndexPath    string
	PipelinePath string

	LogLevel  string
	LogFormat string

	Embedding EmbeddingConfig
	Scorer    ScorerConfig
	Redis     RedisConfig
	Cache     CacheConfig

	Options core.Options
}

// EmbeddingConfig selects the embedding backend. Provider "openai" talks to
// an OpenAI-compatible endpoint; "hashing" runs the local feature-hashing
// embedder; "auto" picks openai when an API key or base URL is set.
type EmbeddingConfig struct {
	Provider          string
	BaseURL           string
	APIKey            string
	Model             string
	Dimensions        int
	RequestsPerSecond float64
}

// ScorerConfig selects the relevance scorer, mirroring scorer.Config.
type ScorerConfig struct {
	Provider          string
	BaseURL           string
	APIKey            string
	Model             string
	Timeout           time.Duration
	RequestsPerSecond float64
	FailureThreshold  int
	Cooldown          time.Duration
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// CacheConfig controls the shared result cache. It only takes effect when a
// Redis address is configured; the in-memory deployment recomputes instead.
type CacheConfig struct {
	Enabled bool
	TTL     time.Duration
}

// NewViper returns a viper instance with defaults and SHLREC_* environment
// binding in place. Callers may point it at a config file before Load.
func NewViper() *viper.Viper {
	v := viper.New()
	SetDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	return v
}

// SetDefaults installs every default on v so AutomaticEnv and config files
// only ever override.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("addr", ":8080")
	v.SetDefault("catalog.path", "data/catalog.json")
	v.SetDefault("index.path", "data/index.json")
	v.SetDefault("pipeline.path", "")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")

	v.SetDefault("embedding.provider", "auto")
	v.SetDefault("embedding.base_url", "")
	v.SetDefault("embedding.api_key", "")
	v.SetDefault("embedding.model", "text-embedding-3-small")
	v.SetDefault("embedding.dimensions", 256)
	v.SetDefault("embedding.rps", 0.0)

	v.SetDefault("scorer.provider", "auto")
	v.SetDefault("scorer.base_url", "")
	v.SetDefault("scorer.api_key", "")
	v.SetDefault("scorer.model", "")
	v.SetDefault("scorer.timeout", 8*time.Second)
	v.SetDefault("scorer.rps", 0.0)
	v.SetDefault("scorer.failure_threshold", 3)
	v.SetDefault("scorer.cooldown", 30*time.Second)

	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	v.SetDefault("cache.enabled", true)
	v.SetDefault("cache.ttl", 5*time.Minute)

	o := core.DefaultOptions()
	v.SetDefault("options.top_n", o.TopN)
	v.SetDefault("options.rerank", o.Rerank)
	v.SetDefault("options.rerank_top_k", o.RerankTopK)
	v.SetDefault("options.max_latency", o.MaxLatency)
	v.SetDefault("options.similarity_weight", o.SimilarityWeight)
	v.SetDefault("options.keyword_weight", o.KeywordWeight)
	v.SetDefault("options.llm_weight", o.LLMWeight)
	v.SetDefault("options.total", o.Total)
	v.SetDefault("options.min", o.Min)
	v.SetDefault("options.ambiguous_prior", string(o.AmbiguousPrior))
	v.SetDefault("options.min_category_share", o.MinCategoryShare)
}

// Load materializes the App from v and validates it.
func Load(v *viper.Viper) (*App, error) {
	app := &App{
		Addr:         v.GetString("addr"),
		CatalogPath:  v.GetString("catalog.path"),
		IndexPath:    v.GetString("index.path"),
		PipelinePath: v.GetString("pipeline.path"),
		LogLevel:     v.GetString("log.level"),
		LogFormat:    v.GetString("log.format"),
		Embedding: EmbeddingConfig{
			Provider:          v.GetString("embedding.provider"),
			BaseURL:           v.GetString("embedding.base_url"),
			APIKey:            v.GetString("embedding.api_key"),
			Model:             v.GetString("embedding.model"),
			Dimensions:        v.GetInt("embedding.dimensions"),
			RequestsPerSecond: v.GetFloat64("embedding.rps"),
		},
		Scorer: ScorerConfig{
			Provider:          v.GetString("scorer.provider"),
			BaseURL:           v.GetString("scorer.base_url"),
			APIKey:            v.GetString("scorer.api_key"),
			Model:             v.GetString("scorer.model"),
			Timeout:           v.GetDuration("scorer.timeout"),
			RequestsPerSecond: v.GetFloat64("scorer.rps"),
			FailureThreshold:  v.GetInt("scorer.failure_threshold"),
			Cooldown:          v.GetDuration("scorer.cooldown"),
		},
		Redis: RedisConfig{
			Addr:     v.GetString("redis.addr"),
			Password: v.GetString("redis.password"),
			DB:       v.GetInt("redis.db"),
		},
		Cache: CacheConfig{
			Enabled: v.GetBool("cache.enabled"),
			TTL:     v.GetDuration("cache.ttl"),
		},
		Options: core.Options{
			TopN:             v.GetInt("options.top_n"),
			Rerank:           v.GetBool("options.rerank"),
			RerankTopK:       v.GetInt("options.rerank_top_k"),
			MaxLatency:       v.GetDuration("options.max_latency"),
			SimilarityWeight: v.GetFloat64("options.similarity_weight"),
			KeywordWeight:    v.GetFloat64("options.keyword_weight"),
			LLMWeight:        v.GetFloat64("options.llm_weight"),
			Total:            v.GetInt("options.total"),
			Min:              v.GetInt("options.min"),
			AmbiguousPrior:   core.PriorPolicy(v.GetString("options.ambiguous_prior")),
			MinCategoryShare: v.GetFloat64("options.min_category_share"),
		},
	}
	if err := app.Validate(); err != nil {
		return nil, err
	}
	return app, nil
}

func (a *App) Validate() error {
	if a.Addr == "" {
		return fmt.Errorf("addr must not be empty")
	}
	if a.CatalogPath == "" {
		return fmt.Errorf("catalog.path must not be empty")
	}
	switch a.LogFormat {
	case "console", "json":
	default:
		return fmt.Errorf("log.format must be console or json, got %q", a.LogFormat)
	}
	switch a.Embedding.Provider {
	case "auto", "openai", "hashing":
	default:
		return fmt.Errorf("embedding.provider must be auto, openai or hashing, got %q", a.Embedding.Provider)
	}
	if a.Embedding.Dimensions < 1 {
		return fmt.Errorf("embedding.dimensions must be >= 1, got %d", a.Embedding.Dimensions)
	}
	if a.UseOpenAIEmbedding() && a.Embedding.Model == "" {
		return fmt.Errorf("embedding.model must be set for the openai provider")
	}
	if err := a.Options.Validate(); err != nil {
		return fmt.Errorf("options: %w", err)
	}
	return nil
}

// UseOpenAIEmbedding reports whether the resolved embedding backend is the
// OpenAI-compatible one.
func (a *App) UseOpenAIEmbedding() bool {
	switch a.Embedding.Provider {
	case "openai":
		return true
	case "auto":
		return a.Embedding.APIKey != "" || a.Embedding.BaseURL != ""
	default:
		return false
	}
}

// CacheTTL returns the effective result-cache TTL, zero when caching is off
// or no shared store is configured.
func (a *App) CacheTTL() time.Duration {
	if !a.Cache.Enabled || a.Redis.Addr == "" {
		return 0
	}
	return a.Cache.TTL
}
