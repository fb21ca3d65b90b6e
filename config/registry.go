// Package config holds the application configuration (viper-backed App) and
// the node registry that turns pipeline YAML into runnable pipelines.
//
// Config-driven assembly needs the built-in node builders registered; import
// the builders package for its side effect:
//
//	import _ "github.com/gowthusaidatta/shl-assessment-recommendation-system/config/builders"
package config

import (
	"fmt"
	"maps"
	"slices"
	"sync"

	"github.com/gowthusaidatta/shl-assessment-recommendation-system/pipeline"
)

// NodeBuilder matches pipeline.NodeBuilder; components register theirs with
// Register, usually from an init function.
type NodeBuilder = pipeline.NodeBuilder

var (
	defaultBuilders   = make(map[string]NodeBuilder)
	defaultBuildersMu sync.RWMutex
)

// Register installs a builder for a node type in the package registry.
func Register(typeName string, builder NodeBuilder) {
	if typeName == "" || builder == nil {
		return
	}
	defaultBuildersMu.Lock()
	defer defaultBuildersMu.Unlock()
	defaultBuilders[typeName] = builder
}

// SupportedTypes lists registered node types, sorted, for validation errors.
func SupportedTypes() []string {
	defaultBuildersMu.RLock()
	defer defaultBuildersMu.RUnlock()
	keys := make([]string, 0, len(defaultBuilders))
	for typeName := range defaultBuilders {
		keys = append(keys, typeName)
	}
	slices.Sort(keys)
	return keys
}

// DefaultFactory snapshots the registry into a NodeFactory. Service-backed
// node types (recall.vector, rank.rerank, ...) still need Services.Apply on
// top before they can actually be built.
func DefaultFactory() *pipeline.NodeFactory {
	defaultBuildersMu.RLock()
	defer defaultBuildersMu.RUnlock()
	f := pipeline.NewNodeFactory()
	for typeName, builder := range defaultBuilders {
		f.Register(typeName, builder)
	}
	return f
}

// ValidatePipelineConfig checks that every declared node type is registered.
func ValidatePipelineConfig(cfg *pipeline.Config) error {
	if cfg == nil {
		return nil
	}
	defaultBuildersMu.RLock()
	known := maps.Clone(defaultBuilders)
	defaultBuildersMu.RUnlock()

	for _, nc := range cfg.Pipeline.Nodes {
		if nc.Type == "" {
			continue
		}
		if _, ok := known[nc.Type]; !ok {
			return fmt.Errorf("unsupported node type %q (supported: %v)", nc.Type, SupportedTypes())
		}
	}
	return nil
}
