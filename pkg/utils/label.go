package utils

// Label is a first-class citizen of the recommendation flow: explainable,
// traceable, carried end to end. Value and Source semantics belong to the
// caller; only the merge rule is standardized here.
type Label struct {
	Value  string `json:"value"`
	Source string `json:"source"` // recall / filter / fusion / rerank / balance ...
}

// MergeLabel combines two labels under the same key, keeping history:
// values accumulate with '|', sources with ','. Callers that need priority
// or overwrite semantics can wrap their own merge policy on top.
func MergeLabel(existing Label, incoming Label) Label {
	if existing.Value == "" {
		return incoming
	}
	if incoming.Value == "" {
		return existing
	}
	return Label{
		Value:  join(existing.Value, incoming.Value, "|"),
		Source: join(existing.Source, incoming.Source, ","),
	}
}

func join(a, b, sep string) string {
	if a == "" {
		return b
	}
	if b == "" {
		return a
	}
	return a + sep + b
}
