package config

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/gowthusaidatta/shl-assessment-recommendation-system/core"
	"github.com/gowthusaidatta/shl-assessment-recommendation-system/filter"
	"github.com/gowthusaidatta/shl-assessment-recommendation-system/pipeline"
	"github.com/gowthusaidatta/shl-assessment-recommendation-system/pkg/conv"
	"github.com/gowthusaidatta/shl-assessment-recommendation-system/rank"
	"github.com/gowthusaidatta/shl-assessment-recommendation-system/recall"
)

// Services carries the runtime dependencies a pipeline file cannot declare:
// the loaded catalog, the vector index, the external scorer, and the shared
// KV store. Apply overrides the placeholder registrations with builders that
// close over them.
type Services struct {
	Catalog *core.Catalog
	Index   core.VectorService
	Scorer  core.RelevanceScorer
	Store   core.Store
	Logger  zerolog.Logger
}

// Apply installs service-backed builders on f.
func (s Services) Apply(f *pipeline.NodeFactory) {
	f.Register("recall.vector", s.buildVectorSource)
	f.Register("recall.fanout", s.buildFanout)
	f.Register("rank.rerank", s.buildRerank)
	if s.Store != nil {
		f.Register("filter", func(cfg map[string]any) (pipeline.Node, error) {
			return BuildFilterNode(cfg, s.Store, s.Logger)
		})
	}
}

func (s Services) vectorSource(cfg map[string]any) (*recall.VectorSource, error) {
	if s.Index == nil || s.Catalog == nil {
		return nil, fmt.Errorf("recall.vector needs an index and a catalog; apply config.Services after init")
	}
	return &recall.VectorSource{
		Index:   s.Index,
		Catalog: s.Catalog,
		TopN:    conv.ConfigGetInt(cfg, "top_n", 0),
		Metric:  conv.ConfigGetString(cfg, "metric", ""),
		Logger:  s.Logger,
	}, nil
}

func (s Services) buildVectorSource(cfg map[string]any) (pipeline.Node, error) {
	return s.vectorSource(cfg)
}

func (s Services) buildFanout(cfg map[string]any) (pipeline.Node, error) {
	rawSources, _ := cfg["sources"].([]any)
	if len(rawSources) == 0 {
		return nil, fmt.Errorf("recall.fanout needs a sources list")
	}

	sources := make([]recall.Source, 0, len(rawSources))
	for i, raw := range rawSources {
		sc, ok := raw.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("source %d: expected a mapping", i)
		}
		switch typ := conv.ConfigGetString(sc, "type", ""); typ {
		case "vector":
			src, err := s.vectorSource(sc)
			if err != nil {
				return nil, fmt.Errorf("source %d: %w", i, err)
			}
			sources = append(sources, src)
		default:
			return nil, fmt.Errorf("source %d: unknown source type %q", i, typ)
		}
	}

	fanout := &recall.Fanout{
		Sources:       sources,
		Dedup:         conv.ConfigGetBool(cfg, "dedup", true),
		MaxConcurrent: conv.ConfigGetInt(cfg, "max_concurrent", 0),
		MergeStrategy: conv.ConfigGetString(cfg, "merge_strategy", ""),
	}
	if ms := conv.ConfigGetInt(cfg, "timeout_ms", 0); ms > 0 {
		fanout.Timeout = time.Duration(ms) * time.Millisecond
	}
	return fanout, nil
}

func (s Services) buildRerank(cfg map[string]any) (pipeline.Node, error) {
	if s.Scorer == nil {
		return nil, fmt.Errorf("rank.rerank needs a scorer; apply config.Services with one configured")
	}
	node := &rank.Rerank{
		Scorer: s.Scorer,
		TopK:   conv.ConfigGetInt(cfg, "top_k", 0),
		Logger: s.Logger,
	}
	if ms := conv.ConfigGetInt(cfg, "timeout_ms", 0); ms > 0 {
		node.Timeout = time.Duration(ms) * time.Millisecond
	}
	return node, nil
}

// BuildFilterNode assembles a filter.Node from a filters list. A nil store
// limits blacklists to their static id sets.
func BuildFilterNode(cfg map[string]any, kv core.Store, logger zerolog.Logger) (pipeline.Node, error) {
	rawFilters, _ := cfg["filters"].([]any)
	filters := make([]filter.Filter, 0, len(rawFilters))
	for i, raw := range rawFilters {
		fc, ok := raw.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("filter %d: expected a mapping", i)
		}
		switch typ := conv.ConfigGetString(fc, "type", ""); typ {
		case "blacklist":
			ids := conv.ConfigGetStringSlice(fc, "ids", nil)
			key := conv.ConfigGetString(fc, "key", "")
			var bs filter.BlacklistStore
			if kv != nil && key != "" {
				bs = filter.NewStoreAdapter(kv)
			}
			filters = append(filters, filter.NewBlacklist(ids, bs, key))
		case "rule":
			expr := conv.ConfigGetString(fc, "expr", "")
			mode := conv.ConfigGetString(fc, "mode", "drop")
			rule, err := filter.NewRule(expr, filter.RuleMode(mode))
			if err != nil {
				return nil, fmt.Errorf("filter %d: %w", i, err)
			}
			filters = append(filters, rule)
		default:
			return nil, fmt.Errorf("filter %d: unknown filter type %q", i, typ)
		}
	}
	return &filter.Node{Filters: filters, Logger: logger}, nil
}
