package query

import (
	"strings"

	"github.com/gowthusaidatta/shl-assessment-recommendation-system/core"
)

// Category dictionaries. Matching is substring-based over the lowered query,
// so multi-word phrases ("machine learning") and short tech terms ("sql",
// "ai") fire without tokenization. Slice order is the match order, which
// keeps MatchedK/MatchedP evidence lists deterministic.

var knowledgeTerms = []string{
	"java", "python", "javascript", "sql", "c++", "c#", "php", "ruby",
	"programming", "coding", "software", "developer", "engineer",
	"database", "web", "mobile", "cloud", "api", "devops",
	"machine learning", "ai", "data", "algorithm", "testing",
	"numerical", "verbal", "reasoning", "cognitive",
}

var personalityTerms = []string{
	"leadership", "communication", "collaboration", "teamwork",
	"interpersonal", "personality", "behavioral", "behavioural", "people",
	"management", "organizational", "problem solving", "critical thinking",
	"creativity", "emotional intelligence", "negotiation", "conflict",
	"customer service", "sales", "time management", "decision making",
}

// Seniority dictionaries, checked in entry -> mid -> senior order; the
// first level with any hit wins.
var seniorityTerms = []struct {
	level core.Seniority
	terms []string
}{
	{core.SeniorityEntry, []string{"entry", "junior", "graduate", "new grad", "fresh"}},
	{core.SeniorityMid, []string{"mid-level", "intermediate", "professional"}},
	{core.SenioritySenior, []string{"senior", "lead", "principal", "expert", "advanced"}},
}

// Item-side dictionaries for inferring a category from assessment text when
// the source row carries none. Narrower than the query dictionaries: catalog
// descriptions mention "test"/"skill" style vocabulary rather than hiring
// language.
var itemKnowledgeTerms = []string{
	"programming", "language", "skill", "knowledge", "test",
	"reasoning", "logical", "numerical", "verbal", "literacy",
	"java", "python", "sql", "javascript", "c++", "coding",
}

var itemPersonalityTerms = []string{
	"personality", "behavior", "behaviour", "behavioral", "behavioural",
	"people", "leadership", "culture", "trait", "emotional",
	"teamwork", "collaboration", "communication", "motivation",
}

func matchTerms(lower string, terms []string) []string {
	var matched []string
	for _, term := range terms {
		if strings.Contains(lower, term) {
			matched = append(matched, term)
		}
	}
	return matched
}

// MatchCategories returns which dictionary terms appear in the lowered
// query, per category.
func MatchCategories(lower string) (matchedK, matchedP []string) {
	return matchTerms(lower, knowledgeTerms), matchTerms(lower, personalityTerms)
}

// DetectSeniority returns the first seniority level whose dictionary hits
// the lowered query, or SeniorityUnknown.
func DetectSeniority(lower string) core.Seniority {
	for _, level := range seniorityTerms {
		for _, term := range level.terms {
			if strings.Contains(lower, term) {
				return level.level
			}
		}
	}
	return core.SeniorityUnknown
}

// InferItemCategory classifies assessment text by dictionary hit counts.
// Ties (including zero hits) go to Knowledge, the catalog's larger family.
func InferItemCategory(text string) core.TestType {
	lower := strings.ToLower(text)
	k := len(matchTerms(lower, itemKnowledgeTerms))
	p := len(matchTerms(lower, itemPersonalityTerms))
	if p > k {
		return core.TestTypePersonality
	}
	return core.TestTypeKnowledge
}
