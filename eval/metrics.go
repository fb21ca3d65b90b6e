// Package eval measures recommendation quality offline against labeled
// queries: Recall@K, Precision@K and mean reciprocal rank.
package eval

// RecallAtK is the share of relevant items that made the top k:
// |top-k ∩ relevant| / |relevant|. No relevant items means zero.
func RecallAtK(predicted, relevant []string, k int) float64 {
	truth := toSet(relevant)
	if len(truth) == 0 {
		return 0
	}
	return float64(hitsAtK(predicted, truth, k)) / float64(len(truth))
}

// PrecisionAtK is the share of the top k that is relevant:
// |top-k ∩ relevant| / k.
func PrecisionAtK(predicted, relevant []string, k int) float64 {
	if k <= 0 {
		return 0
	}
	return float64(hitsAtK(predicted, toSet(relevant), k)) / float64(k)
}

// ReciprocalRank is 1/rank of the first relevant item within the top k,
// zero when none ranks. Averaged over queries this is MRR.
func ReciprocalRank(predicted, relevant []string, k int) float64 {
	truth := toSet(relevant)
	for i, id := range topK(predicted, k) {
		if _, ok := truth[id]; ok {
			return 1 / float64(i+1)
		}
	}
	return 0
}

func hitsAtK(predicted []string, truth map[string]struct{}, k int) int {
	hits := 0
	seen := make(map[string]struct{}, k)
	for _, id := range topK(predicted, k) {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		if _, ok := truth[id]; ok {
			hits++
		}
	}
	return hits
}

func topK(predicted []string, k int) []string {
	if k <= 0 {
		return nil
	}
	if len(predicted) > k {
		return predicted[:k]
	}
	return predicted
}

func toSet(ids []string) map[string]struct{} {
	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if id != "" {
			set[id] = struct{}{}
		}
	}
	return set
}
