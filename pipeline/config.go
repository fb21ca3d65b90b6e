package pipeline

import (
	"encoding/json"
	"fmt"
	"os"
	"slices"

	"gopkg.in/yaml.v3"
)

// Config declares a pipeline as an ordered node list (YAML or JSON).
type Config struct {
	Pipeline struct {
		Name  string       `yaml:"name" json:"name"`
		Nodes []NodeConfig `yaml:"nodes" json:"nodes"`
	} `yaml:"pipeline" json:"pipeline"`
}

// NodeConfig declares a single node.
type NodeConfig struct {
	Name   string         `yaml:"name,omitempty" json:"name,omitempty"` // optional override for logs
	Type   string         `yaml:"type" json:"type"`                     // e.g. recall.vector / rank.fusion / rerank.balance
	Config map[string]any `yaml:"config" json:"config"`                 // node-specific params
}

// LoadFromYAML reads a pipeline config from a YAML file.
func LoadFromYAML(path string) (*Config, error) {
	return load(path, "yaml", yaml.Unmarshal)
}

// LoadFromJSON reads a pipeline config from a JSON file.
func LoadFromJSON(path string) (*Config, error) {
	return load(path, "json", json.Unmarshal)
}

func load(path, format string, unmarshal func([]byte, any) error) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}
	var cfg Config
	if err := unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", format, err)
	}
	return &cfg, nil
}

// BuildPipeline materializes the config through a NodeFactory. The factory
// lives apart (config package) so node packages never import their own
// assembly.
func (c *Config) BuildPipeline(factory *NodeFactory) (*Pipeline, error) {
	nodes := make([]Node, 0, len(c.Pipeline.Nodes))

	for _, nc := range c.Pipeline.Nodes {
		node, err := factory.Build(nc.Type, nc.Config)
		if err != nil {
			return nil, fmt.Errorf("build node %s: %w", nc.Type, err)
		}
		nodes = append(nodes, node)
	}

	return New(nodes...), nil
}

// NodeBuilder constructs a Node from its declared params.
type NodeBuilder func(map[string]any) (Node, error)

// NodeFactory builds Node instances from their declared type.
type NodeFactory struct {
	builders map[string]NodeBuilder
}

func NewNodeFactory() *NodeFactory {
	return &NodeFactory{
		builders: make(map[string]NodeBuilder),
	}
}

// Register installs a builder for a node type. Later registrations replace
// earlier ones.
func (f *NodeFactory) Register(nodeType string, builder NodeBuilder) {
	f.builders[nodeType] = builder
}

// Build constructs a node from its type and params.
func (f *NodeFactory) Build(nodeType string, config map[string]any) (Node, error) {
	builder, ok := f.builders[nodeType]
	if !ok {
		return nil, fmt.Errorf("unknown node type %q (supported: %v)", nodeType, f.SupportedTypes())
	}
	return builder(config)
}

// SupportedTypes lists registered node types, sorted.
func (f *NodeFactory) SupportedTypes() []string {
	types := make([]string, 0, len(f.builders))
	for nodeType := range f.builders {
		types = append(types, nodeType)
	}
	slices.Sort(types)
	return types
}
