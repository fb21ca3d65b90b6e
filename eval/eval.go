package eval

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/gowthusaidatta/shl-assessment-recommendation-system/core"
	"github.com/gowthusaidatta/shl-assessment-recommendation-system/store"
)

// LabeledQuery pairs a query with the assessments a human judged relevant.
// Relevant entries are assessment IDs; catalog URLs are accepted and resolve
// to the same IDs the ingester assigns.
type LabeledQuery struct {
	Query    string   `json:"query"`
	Relevant []string `json:"relevant"`
}

// QueryMetrics is the per-query evaluation outcome.
type QueryMetrics struct {
	Query     string  `json:"query"`
	Recall    float64 `json:"recall"`
	Precision float64 `json:"precision"`
	RR        float64 `json:"reciprocal_rank"`
	Returned  int     `json:"returned"`
	Error     string  `json:"error,omitempty"`
}

// Report aggregates a whole labeled set. Failed queries score zero and stay
// in the means, matching how a production regression run should read.
type Report struct {
	K             int            `json:"k"`
	Queries       []QueryMetrics `json:"queries"`
	MeanRecall    float64        `json:"mean_recall"`
	MeanPrecision float64        `json:"mean_precision"`
	MRR           float64        `json:"mrr"`
	Failed        int            `json:"failed"`
}

// Recommender is the slice of the service Evaluate needs.
type Recommender interface {
	Recommend(ctx context.Context, query string, opts ...core.RequestOption) (*core.Result, error)
}

// Evaluate runs every labeled query through rec and scores the returned
// lists at cutoff k. A failing query contributes zeros rather than aborting
// the run; ctx cancellation does abort.
func Evaluate(ctx context.Context, rec Recommender, queries []LabeledQuery, k int) (*Report, error) {
	if rec == nil {
		return nil, fmt.Errorf("eval: nil recommender")
	}
	if k <= 0 {
		return nil, fmt.Errorf("eval: k must be >= 1, got %d", k)
	}
	if len(queries) == 0 {
		return nil, fmt.Errorf("eval: no labeled queries")
	}

	report := &Report{K: k, Queries: make([]QueryMetrics, 0, len(queries))}
	for _, lq := range queries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		qm := QueryMetrics{Query: lq.Query}
		res, err := rec.Recommend(ctx, lq.Query)
		if err != nil {
			qm.Error = err.Error()
			report.Failed++
			report.Queries = append(report.Queries, qm)
			continue
		}

		predicted := make([]string, 0, len(res.Items))
		for _, item := range res.Items {
			predicted = append(predicted, item.ID)
		}
		relevant := canonicalIDs(lq.Relevant)

		qm.Returned = len(predicted)
		qm.Recall = RecallAtK(predicted, relevant, k)
		qm.Precision = PrecisionAtK(predicted, relevant, k)
		qm.RR = ReciprocalRank(predicted, relevant, k)
		report.Queries = append(report.Queries, qm)
	}

	n := float64(len(report.Queries))
	for _, qm := range report.Queries {
		report.MeanRecall += qm.Recall / n
		report.MeanPrecision += qm.Precision / n
		report.MRR += qm.RR / n
	}
	return report, nil
}

// canonicalIDs maps URL-form labels onto ingester IDs and passes plain IDs
// through.
func canonicalIDs(entries []string) []string {
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		e = strings.TrimSpace(e)
		if e == "" {
			continue
		}
		if strings.Contains(e, "://") {
			e = store.IDFromURL(e)
		}
		out = append(out, e)
	}
	return out
}

// LoadQueries reads a labeled-query JSON file: an array of
// {"query": "...", "relevant": ["id-or-url", ...]}.
func LoadQueries(path string) ([]LabeledQuery, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read labeled queries: %w", err)
	}
	var queries []LabeledQuery
	if err := json.Unmarshal(data, &queries); err != nil {
		return nil, fmt.Errorf("parse labeled queries: %w", err)
	}
	for i, q := range queries {
		if strings.TrimSpace(q.Query) == "" {
			return nil, fmt.Errorf("labeled query %d: empty query", i)
		}
		if len(q.Relevant) == 0 {
			return nil, fmt.Errorf("labeled query %d (%q): no relevant items", i, q.Query)
		}
	}
	return queries, nil
}

// WriteTable renders the report for terminals.
func (r *Report) WriteTable(w io.Writer) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "QUERY\tRECALL@%d\tPRECISION@%d\tRR\tRETURNED\n", r.K, r.K)
	for _, qm := range r.Queries {
		label := qm.Query
		if runes := []rune(label); len(runes) > 48 {
			label = string(runes[:45]) + "..."
		}
		if qm.Error != "" {
			fmt.Fprintf(tw, "%s\tfailed: %s\t\t\t\n", label, qm.Error)
			continue
		}
		fmt.Fprintf(tw, "%s\t%.3f\t%.3f\t%.3f\t%d\n", label, qm.Recall, qm.Precision, qm.RR, qm.Returned)
	}
	fmt.Fprintf(tw, "MEAN (%d queries, %d failed)\t%.3f\t%.3f\t%.3f\t\n",
		len(r.Queries), r.Failed, r.MeanRecall, r.MeanPrecision, r.MRR)
	return tw.Flush()
}
