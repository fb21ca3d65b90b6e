package query

import (
	"strings"
	"unicode"
)

// stopwords are tokens too common to carry intent. Keyword extraction drops
// them even when they clear the length bar.
var stopwords = map[string]struct{}{
	"the": {}, "and": {}, "for": {}, "that": {}, "this": {}, "from": {},
	"with": {}, "you": {}, "are": {}, "can": {}, "has": {}, "your": {},
	"not": {}, "who": {}, "what": {}, "need": {}, "needs": {}, "want": {},
	"looking": {}, "able": {}, "assess": {}, "assessment": {},
	"candidate": {}, "candidates": {}, "hire": {}, "hiring": {},
	"role": {}, "position": {}, "strong": {}, "good": {}, "years": {},
	"experience": {}, "level": {}, "must": {}, "should": {}, "have": {},
	"will": {}, "about": {}, "both": {}, "they": {}, "them": {},
}

// Tokenize lowercases text and splits it into tokens. '+' and '#' stay
// inside tokens so "c++" and "c#" survive; hyphens split, matching the
// source data's "problem-solving" style compounds.
func Tokenize(text string) []string {
	lower := strings.ToLower(text)
	return strings.FieldsFunc(lower, func(r rune) bool {
		if r == '+' || r == '#' {
			return false
		}
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// ExtractKeywords returns the informative tokens of text: longer than 3
// runes, not a stopword, deduplicated, original order preserved. max caps
// the result; max <= 0 means no cap.
func ExtractKeywords(text string, max int) []string {
	tokens := Tokenize(text)
	seen := make(map[string]struct{}, len(tokens))
	var keywords []string
	for _, tok := range tokens {
		if len([]rune(tok)) <= 3 {
			continue
		}
		if _, stop := stopwords[tok]; stop {
			continue
		}
		if _, dup := seen[tok]; dup {
			continue
		}
		seen[tok] = struct{}{}
		keywords = append(keywords, tok)
		if max > 0 && len(keywords) >= max {
			break
		}
	}
	return keywords
}
