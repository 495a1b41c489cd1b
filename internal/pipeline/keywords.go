package pipeline

import (
	"strings"
	"unicode"
)

// stopWords are common English words excluded from keyword extraction.
var stopWords = map[string]struct{}{
	"i": {}, "me": {}, "my": {}, "we": {}, "our": {}, "you": {}, "your": {},
	"he": {}, "she": {}, "it": {}, "they": {}, "the": {}, "a": {}, "an": {},
	"is": {}, "are": {}, "was": {}, "were": {}, "be": {}, "been": {}, "being": {},
	"have": {}, "has": {}, "had": {}, "do": {}, "does": {}, "did": {},
	"will": {}, "would": {}, "could": {}, "should": {}, "can": {}, "may": {},
	"might": {}, "shall": {}, "to": {}, "of": {}, "in": {}, "for": {}, "on": {},
	"with": {}, "at": {}, "by": {}, "from": {}, "as": {}, "into": {},
	"about": {}, "between": {}, "through": {}, "during": {}, "before": {},
	"after": {}, "and": {}, "but": {}, "or": {}, "not": {}, "no": {}, "if": {},
	"then": {}, "than": {}, "so": {}, "what": {}, "when": {}, "where": {},
	"how": {}, "which": {}, "who": {}, "whom": {}, "this": {}, "that": {},
	"these": {}, "those": {}, "there": {}, "here": {}, "all": {}, "each": {},
	"any": {}, "some": {}, "much": {}, "many": {}, "very": {},
}

// ExtractKeywords tokenizes a question into lowercase keywords for the
// fact lookup. Punctuation is stripped, stop words and tokens of two
// characters or fewer are dropped, and duplicates are removed while
// preserving first-seen order.
func ExtractKeywords(text string) []string {
	var (
		keywords []string
		seen     = make(map[string]struct{})
	)

	for _, token := range strings.Fields(strings.ToLower(text)) {
		word := strings.Map(func(r rune) rune {
			if unicode.IsLetter(r) || unicode.IsDigit(r) {
				return r
			}
			return -1
		}, token)

		if len(word) <= 2 {
			continue
		}
		if _, stop := stopWords[word]; stop {
			continue
		}
		if _, dup := seen[word]; dup {
			continue
		}
		seen[word] = struct{}{}
		keywords = append(keywords, word)
	}

	return keywords
}
