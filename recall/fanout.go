package recall

import (
	"context"
	"strconv"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/gowthusaidatta/shl-assessment-recommendation-system/core"
	"github.com/gowthusaidatta/shl-assessment-recommendation-system/pipeline"
	"github.com/gowthusaidatta/shl-assessment-recommendation-system/pkg/utils"
)

// Merge strategies for Fanout. Source order defines priority: index 0 is the
// highest.
const (
	// MergePriority merges every source and dedups by ID, keeping the
	// candidate from the earliest-listed source. Default.
	MergePriority = "priority"
	// MergeFirst returns the first non-empty result set in Sources order,
	// for primary/fallback recall chains.
	MergeFirst = "first"
	// MergeUnion concatenates everything without dedup.
	MergeUnion = "union"
)

// Fanout is a recall Node running several sources concurrently and merging
// their results. Results are collected per source and flattened in Sources
// order, so output is deterministic regardless of completion order.
//
// Failure policy: a source error that the taxonomy marks fatal
// (IndexUnavailable, CatalogUnavailable) aborts the request; anything else
// degrades to that source contributing nothing.
type Fanout struct {
	Sources       []Source
	Dedup         bool          // dedup by ID under MergePriority
	Timeout       time.Duration // per-source budget, 0 = none
	MaxConcurrent int           // 0 = unbounded
	MergeStrategy string
}

func (n *Fanout) Name() string        { return "recall.fanout" }
func (n *Fanout) Kind() pipeline.Kind { return pipeline.KindRecall }

func (n *Fanout) Process(
	ctx context.Context,
	qctx *core.QueryContext,
	_ []*core.Candidate,
) ([]*core.Candidate, error) {
	if len(n.Sources) == 0 {
		return nil, nil
	}

	var (
		mu      sync.Mutex
		buckets = make([][]*core.Candidate, len(n.Sources))
	)
	eg, egctx := errgroup.WithContext(ctx)
	if n.MaxConcurrent > 0 {
		eg.SetLimit(n.MaxConcurrent)
	}

	for i, src := range n.Sources {
		i, s := i, src
		eg.Go(func() error {
			recallCtx := egctx
			if n.Timeout > 0 {
				var cancel context.CancelFunc
				recallCtx, cancel = context.WithTimeout(egctx, n.Timeout)
				defer cancel()
			}

			items, err := s.Recall(recallCtx, qctx)
			if err != nil {
				if core.IsIndexUnavailable(err) || core.IsCatalogUnavailable(err) {
					return err
				}
				// Optional source: degrade to absence.
				return nil
			}

			for _, c := range items {
				c.PutLabel("recall_source", utils.Label{Value: s.Name(), Source: "recall"})
				c.PutLabel("recall_priority", utils.Label{Value: strconv.Itoa(i), Source: "recall"})
			}

			mu.Lock()
			buckets[i] = items
			mu.Unlock()
			return nil
		})
	}

	if err := eg.Wait(); err != nil {
		return nil, err
	}

	switch n.MergeStrategy {
	case MergeFirst:
		for _, bucket := range buckets {
			if len(bucket) > 0 {
				return bucket, nil
			}
		}
		return nil, nil
	case MergeUnion:
		return flatten(buckets), nil
	default:
		return n.mergeByPriority(flatten(buckets)), nil
	}
}

func flatten(buckets [][]*core.Candidate) []*core.Candidate {
	var all []*core.Candidate
	for _, bucket := range buckets {
		all = append(all, bucket...)
	}
	return all
}

// mergeByPriority dedups by ID. The stream arrives in Sources order, so the
// first occurrence is the highest-priority one; later duplicates fold their
// labels into it.
func (n *Fanout) mergeByPriority(all []*core.Candidate) []*core.Candidate {
	if !n.Dedup {
		return all
	}
	seen := make(map[string]*core.Candidate, len(all))
	out := make([]*core.Candidate, 0, len(all))
	for _, c := range all {
		if c == nil {
			continue
		}
		if old, ok := seen[c.ID()]; ok {
			for k, v := range c.Labels {
				old.PutLabel(k, v)
			}
			continue
		}
		seen[c.ID()] = c
		out = append(out, c)
	}
	return out
}

var _ pipeline.Node = (*Fanout)(nil)
