package core

import (
	"fmt"
	"strings"
)

// TestType partitions the catalog into its two assessment families. Every
// assessment belongs to exactly one.
type TestType string

const (
	// TestTypeKnowledge covers technical knowledge & skills assessments.
	TestTypeKnowledge TestType = "K"
	// TestTypePersonality covers personality & behaviour assessments.
	TestTypePersonality TestType = "P"
)

// ParseTestType parses the letter code, case-insensitively. Long-form labels
// from raw catalog exports are accepted too.
func ParseTestType(s string) (TestType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "k", "knowledge", "knowledge & skills":
		return TestTypeKnowledge, nil
	case "p", "personality", "personality & behaviour", "personality & behavior":
		return TestTypePersonality, nil
	default:
		return "", NewDomainError(ModuleCatalog, ErrorCodeInvalidInput, fmt.Sprintf("unknown test type %q", s))
	}
}

// Valid reports whether t is one of the two known types.
func (t TestType) Valid() bool {
	return t == TestTypeKnowledge || t == TestTypePersonality
}

// Other returns the opposite type.
func (t TestType) Other() TestType {
	if t == TestTypeKnowledge {
		return TestTypePersonality
	}
	return TestTypeKnowledge
}

// Label returns the human-readable category name.
func (t TestType) Label() string {
	switch t {
	case TestTypeKnowledge:
		return "Knowledge & Skills"
	case TestTypePersonality:
		return "Personality & Behaviour"
	default:
		return string(t)
	}
}

// Weight is a category weight pair. Invariant after Normalize: K+P = 1,
// both in [0,1].
type Weight struct {
	K float64 `json:"k"`
	P float64 `json:"p"`
}

// EvenWeight is the ambiguous-query default: no evidence, no preference.
func EvenWeight() Weight { return Weight{K: 0.5, P: 0.5} }

// Of returns the weight of one category.
func (w Weight) Of(t TestType) float64 {
	if t == TestTypeKnowledge {
		return w.K
	}
	return w.P
}

// Majority returns the heavier category; ties go to K, matching the
// catalog's larger family.
func (w Weight) Majority() TestType {
	if w.P > w.K {
		return TestTypePersonality
	}
	return TestTypeKnowledge
}

// Normalize returns a copy scaled so K+P = 1. A degenerate pair (zero or
// negative mass) normalizes to EvenWeight.
func (w Weight) Normalize() Weight {
	if w.K < 0 {
		w.K = 0
	}
	if w.P < 0 {
		w.P = 0
	}
	sum := w.K + w.P
	if sum <= 0 {
		return EvenWeight()
	}
	return Weight{K: w.K / sum, P: w.P / sum}
}

// Assessment is one catalog entry. The catalog is fixed and versioned with
// the deployment; IDs are stable slugs derived from the catalog URL.
type Assessment struct {
	ID              string   `json:"id"`
	Name            string   `json:"name"`
	URL             string   `json:"url"`
	Description     string   `json:"description"`
	Category        TestType `json:"test_type"`
	Duration        int      `json:"duration,omitempty"` // minutes, 0 = unknown
	RemoteSupport   bool     `json:"remote_support"`
	AdaptiveSupport bool     `json:"adaptive_support"`
	Keywords        []string `json:"keywords,omitempty"` // lowercase, extracted at ingestion when absent
}

// Document returns the text that represents this assessment in embedding
// space.
func (a *Assessment) Document() string {
	if a.Description == "" {
		return a.Name
	}
	return a.Name + ". " + a.Description
}

// Catalog is the fixed assessment inventory: insertion-ordered (file order)
// with ID lookup. Retrieval tie-breaks and determinism guarantees lean on
// the insertion order, so it is preserved exactly.
type Catalog struct {
	items  []*Assessment
	byID   map[string]*Assessment
	counts map[TestType]int
}

// NewCatalog builds a catalog from items in their source order. Duplicate or
// empty IDs and invalid categories are rejected.
func NewCatalog(items []*Assessment) (*Catalog, error) {
	c := &Catalog{
		items:  make([]*Assessment, 0, len(items)),
		byID:   make(map[string]*Assessment, len(items)),
		counts: make(map[TestType]int, 2),
	}
	for i, a := range items {
		if a == nil {
			return nil, NewDomainError(ModuleCatalog, ErrorCodeInvalidInput, fmt.Sprintf("nil assessment at position %d", i))
		}
		if a.ID == "" {
			return nil, NewDomainError(ModuleCatalog, ErrorCodeInvalidInput, fmt.Sprintf("assessment %q has no id", a.Name))
		}
		if !a.Category.Valid() {
			return nil, NewDomainError(ModuleCatalog, ErrorCodeInvalidInput, fmt.Sprintf("assessment %q has invalid category %q", a.ID, a.Category))
		}
		if _, dup := c.byID[a.ID]; dup {
			return nil, NewDomainError(ModuleCatalog, ErrorCodeInvalidInput, fmt.Sprintf("duplicate assessment id %q", a.ID))
		}
		c.items = append(c.items, a)
		c.byID[a.ID] = a
		c.counts[a.Category]++
	}
	return c, nil
}

// Len returns the number of assessments.
func (c *Catalog) Len() int { return len(c.items) }

// Items returns the assessments in insertion order. Callers must not mutate
// the returned slice.
func (c *Catalog) Items() []*Assessment { return c.items }

// Get looks up an assessment by ID.
func (c *Catalog) Get(id string) (*Assessment, bool) {
	a, ok := c.byID[id]
	return a, ok
}

// Count returns how many assessments carry the given category.
func (c *Catalog) Count(t TestType) int { return c.counts[t] }

// Prior returns the catalog's category distribution, usable as the
// ambiguous-query default instead of EvenWeight. An empty catalog yields
// EvenWeight.
func (c *Catalog) Prior() Weight {
	total := len(c.items)
	if total == 0 {
		return EvenWeight()
	}
	return Weight{
		K: float64(c.counts[TestTypeKnowledge]) / float64(total),
		P: float64(c.counts[TestTypePersonality]) / float64(total),
	}
}
