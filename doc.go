// Package shlrec recommends SHL assessments for natural-language hiring
// queries.
//
// Design points:
//   - Pipeline-first: recommendation logic is a chain of Nodes
//     (Recall -> Filter -> Rank -> ReRank)
//   - Labels-first: labels ride along the whole chain with standardized
//     merging, feeding explainability and observability
//   - Nodes are pluggable: a custom Node slots into the chain next to the
//     built-in ones
//
// The high-level entry point is recommender.Service; this facade re-exports
// the pipeline abstractions for callers assembling their own chains.
package shlrec

import "github.com/gowthusaidatta/shl-assessment-recommendation-system/pipeline"

type Pipeline = pipeline.Pipeline
type Node = pipeline.Node
type Kind = pipeline.Kind

const (
	KindRecall      = pipeline.KindRecall
	KindFilter      = pipeline.KindFilter
	KindRank        = pipeline.KindRank
	KindReRank      = pipeline.KindReRank
	KindPostProcess = pipeline.KindPostProcess
)
