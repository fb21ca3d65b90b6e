// Package builders registers the node builders for every pipeline node type
// that can be constructed from configuration alone. Import it for side
// effects:
//
//	import _ "github.com/gowthusaidatta/shl-assessment-recommendation-system/config/builders"
//
// Node types backed by runtime services (recall.vector, recall.fanout,
// rank.rerank) get placeholder builders here; config.Services.Apply replaces
// them with the real ones once the catalog, index and scorer exist.
package builders

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/gowthusaidatta/shl-assessment-recommendation-system/config"
	"github.com/gowthusaidatta/shl-assessment-recommendation-system/filter"
	"github.com/gowthusaidatta/shl-assessment-recommendation-system/pipeline"
	"github.com/gowthusaidatta/shl-assessment-recommendation-system/pkg/conv"
	"github.com/gowthusaidatta/shl-assessment-recommendation-system/rank"
	"github.com/gowthusaidatta/shl-assessment-recommendation-system/rerank"
)

func init() {
	config.Register("filter", BuildFilterNode)
	config.Register("filter.dedupe", BuildDedupeNode)
	config.Register("rank.fusion", BuildFusionNode)
	config.Register("rerank.balance", BuildBalanceNode)
	config.Register("rerank.topn", BuildTopNNode)
	config.Register("recall.vector", needsServices("recall.vector"))
	config.Register("recall.fanout", needsServices("recall.fanout"))
	config.Register("rank.rerank", needsServices("rank.rerank"))
}

func needsServices(typ string) config.NodeBuilder {
	return func(map[string]any) (pipeline.Node, error) {
		return nil, fmt.Errorf("%s needs runtime services; apply config.Services to the factory first", typ)
	}
}

func BuildDedupeNode(map[string]any) (pipeline.Node, error) {
	return &filter.Dedupe{}, nil
}

// BuildFilterNode builds the static variant: blacklists come only from the
// ids list, rule filters work as usual. Store-backed blacklists need
// config.Services.
func BuildFilterNode(cfg map[string]any) (pipeline.Node, error) {
	return config.BuildFilterNode(cfg, nil, zerolog.Nop())
}

func BuildFusionNode(cfg map[string]any) (pipeline.Node, error) {
	return &rank.Fusion{
		SimilarityWeight: conv.ConfigGetFloat64(cfg, "similarity_weight", 0),
		KeywordWeight:    conv.ConfigGetFloat64(cfg, "keyword_weight", 0),
		LLMWeight:        conv.ConfigGetFloat64(cfg, "llm_weight", 0),
	}, nil
}

func BuildBalanceNode(cfg map[string]any) (pipeline.Node, error) {
	return &rerank.Balance{
		Total: conv.ConfigGetInt(cfg, "total", 0),
		Min:   conv.ConfigGetInt(cfg, "min", 0),
	}, nil
}

func BuildTopNNode(cfg map[string]any) (pipeline.Node, error) {
	return &rerank.TopN{N: conv.ConfigGetInt(cfg, "n", 0)}, nil
}
