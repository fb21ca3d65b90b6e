package config_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gowthusaidatta/shl-assessment-recommendation-system/config"
	_ "github.com/gowthusaidatta/shl-assessment-recommendation-system/config/builders"
	"github.com/gowthusaidatta/shl-assessment-recommendation-system/core"
	"github.com/gowthusaidatta/shl-assessment-recommendation-system/embedding"
	"github.com/gowthusaidatta/shl-assessment-recommendation-system/filter"
	"github.com/gowthusaidatta/shl-assessment-recommendation-system/pipeline"
	"github.com/gowthusaidatta/shl-assessment-recommendation-system/query"
	"github.com/gowthusaidatta/shl-assessment-recommendation-system/rank"
	"github.com/gowthusaidatta/shl-assessment-recommendation-system/rerank"
	"github.com/gowthusaidatta/shl-assessment-recommendation-system/vector"
)

func TestSupportedTypes(t *testing.T) {
	types := config.SupportedTypes()
	for _, want := range []string{
		"filter", "filter.dedupe",
		"rank.fusion", "rank.rerank",
		"recall.fanout", "recall.vector",
		"rerank.balance", "rerank.topn",
	} {
		assert.Contains(t, types, want)
	}
	assert.IsIncreasing(t, types)
}

func TestValidatePipelineConfig(t *testing.T) {
	cfg := &pipeline.Config{}
	cfg.Pipeline.Nodes = []pipeline.NodeConfig{
		{Type: "recall.vector"},
		{Type: "rank.fusion"},
	}
	require.NoError(t, config.ValidatePipelineConfig(cfg))

	cfg.Pipeline.Nodes = append(cfg.Pipeline.Nodes, pipeline.NodeConfig{Type: "rank.bogus"})
	err := config.ValidatePipelineConfig(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unsupported node type "rank.bogus"`)
}

func TestDefaultFactoryStaticNodes(t *testing.T) {
	f := config.DefaultFactory()

	node, err := f.Build("filter.dedupe", nil)
	require.NoError(t, err)
	assert.IsType(t, &filter.Dedupe{}, node)

	node, err = f.Build("rank.fusion", map[string]any{
		"similarity_weight": 0.5,
		"keyword_weight":    0.3,
		"llm_weight":        0.2,
	})
	require.NoError(t, err)
	fusion := node.(*rank.Fusion)
	assert.Equal(t, 0.5, fusion.SimilarityWeight)
	assert.Equal(t, 0.3, fusion.KeywordWeight)
	assert.Equal(t, 0.2, fusion.LLMWeight)

	node, err = f.Build("rerank.balance", map[string]any{"total": 8, "min": 3})
	require.NoError(t, err)
	balance := node.(*rerank.Balance)
	assert.Equal(t, 8, balance.Total)
	assert.Equal(t, 3, balance.Min)

	node, err = f.Build("rerank.topn", map[string]any{"n": 5})
	require.NoError(t, err)
	assert.Equal(t, 5, node.(*rerank.TopN).N)

	node, err = f.Build("filter", map[string]any{
		"filters": []any{
			map[string]any{"type": "blacklist", "ids": []any{"a", "b"}},
			map[string]any{"type": "rule", "expr": `item.duration > 0`, "mode": "keep"},
		},
	})
	require.NoError(t, err)
	assert.Len(t, node.(*filter.Node).Filters, 2)
}

func TestDefaultFactoryPlaceholders(t *testing.T) {
	f := config.DefaultFactory()
	for _, typ := range []string{"recall.vector", "recall.fanout", "rank.rerank"} {
		_, err := f.Build(typ, nil)
		require.Error(t, err, typ)
		assert.Contains(t, err.Error(), "config.Services")
	}
}

func TestFilterBuilderRejectsUnknownType(t *testing.T) {
	f := config.DefaultFactory()
	_, err := f.Build("filter", map[string]any{
		"filters": []any{map[string]any{"type": "geo_fence"}},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown filter type "geo_fence"`)
}

type stubScorer struct{}

func (stubScorer) Name() string { return "stub" }

func (stubScorer) Score(_ context.Context, _ string, cands []*core.Candidate) (map[string]float64, error) {
	out := make(map[string]float64, len(cands))
	for i, c := range cands {
		out[c.ID()] = 1 - float64(i)*0.05
	}
	return out, nil
}

func configCatalog(t *testing.T) *core.Catalog {
	t.Helper()
	items := []*core.Assessment{
		{ID: "java-core", Name: "Java Programming", Description: "Core Java coding test", Category: core.TestTypeKnowledge, Duration: 30, Keywords: []string{"java"}},
		{ID: "sql-server", Name: "SQL Server", Description: "Database query skills", Category: core.TestTypeKnowledge, Duration: 30, Keywords: []string{"sql"}},
		{ID: "banned-item", Name: "Deprecated Java Quiz", Description: "Old java quiz", Category: core.TestTypeKnowledge, Duration: 10, Keywords: []string{"java"}},
		{ID: "teamwork", Name: "Teamwork Styles", Description: "Collaboration questionnaire", Category: core.TestTypePersonality, Duration: 25, Keywords: []string{"teamwork"}},
		{ID: "leadership", Name: "Leadership Judgement", Description: "Leadership scenarios", Category: core.TestTypePersonality, Duration: 25, Keywords: []string{"leadership"}},
	}
	cat, err := core.NewCatalog(items)
	require.NoError(t, err)
	return cat
}

func TestServicesApplyBuildsRunnablePipeline(t *testing.T) {
	ctx := context.Background()
	cat := configCatalog(t)
	emb := embedding.NewHashingEmbedder(32)
	idx, err := vector.BuildFlatIndex(ctx, cat, emb, vector.BuildOptions{})
	require.NoError(t, err)
	t.Cleanup(func() { _ = idx.Close() })

	yamlSpec := `
pipeline:
  name: assessment-recommend
  nodes:
    - type: recall.fanout
      config:
        merge_strategy: priority
        timeout_ms: 500
        sources:
          - type: vector
            top_n: 5
    - type: filter.dedupe
    - type: filter
      config:
        filters:
          - type: blacklist
            ids: [banned-item]
    - type: rank.fusion
    - type: rank.rerank
      config:
        top_k: 4
        timeout_ms: 200
    - type: rank.fusion
    - type: rerank.balance
      config:
        total: 4
        min: 1
`
	path := filepath.Join(t.TempDir(), "pipeline.yaml")
	require.NoError(t, os.WriteFile(path, []byte(yamlSpec), 0o644))

	cfg, err := pipeline.LoadFromYAML(path)
	require.NoError(t, err)
	require.NoError(t, config.ValidatePipelineConfig(cfg))

	f := config.DefaultFactory()
	config.Services{
		Catalog: cat,
		Index:   idx,
		Scorer:  stubScorer{},
		Logger:  zerolog.Nop(),
	}.Apply(f)

	pipe, err := cfg.BuildPipeline(f)
	require.NoError(t, err)

	q := "java developer with teamwork skills"
	sig, err := query.NewAnalyzer().Analyze(q)
	require.NoError(t, err)
	vec, err := emb.Embed(ctx, q)
	require.NoError(t, err)

	qctx := &core.QueryContext{Query: q, Signals: sig, Vector: vec, Options: core.DefaultOptions()}
	items, err := pipe.Run(ctx, qctx, nil)
	require.NoError(t, err)

	require.NotEmpty(t, items)
	assert.LessOrEqual(t, len(items), 4)
	for _, c := range items {
		assert.NotEqual(t, "banned-item", c.ID())
	}
	assert.True(t, qctx.Reranked)
}

func TestServicesApplyWithoutScorer(t *testing.T) {
	f := config.DefaultFactory()
	config.Services{Catalog: configCatalog(t)}.Apply(f)

	_, err := f.Build("rank.rerank", nil)
	require.Error(t, err)

	_, err = f.Build("recall.vector", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "index")
}

func TestServicesFanoutRejectsUnknownSource(t *testing.T) {
	cat := configCatalog(t)
	emb := embedding.NewHashingEmbedder(16)
	idx, err := vector.BuildFlatIndex(context.Background(), cat, emb, vector.BuildOptions{})
	require.NoError(t, err)
	t.Cleanup(func() { _ = idx.Close() })

	f := config.DefaultFactory()
	config.Services{Catalog: cat, Index: idx}.Apply(f)

	_, err = f.Build("recall.fanout", map[string]any{
		"sources": []any{map[string]any{"type": "trending"}},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown source type "trending"`)

	_, err = f.Build("recall.fanout", map[string]any{})
	require.Error(t, err)
}
