package answer

import "strings"

// fillerPhrases are conversational lead-ins stripped before stopword removal.
// Longest first so subphrases never shadow a longer match.
var fillerPhrases = [][]string{
	{"can", "you", "show", "me"},
	{"could", "you", "show", "me"},
	{"i", "am", "looking", "for"},
	{"i'm", "looking", "for"},
	{"i", "want", "to", "buy"},
	{"can", "you", "find"},
	{"could", "you", "find"},
	{"do", "you", "have"},
	{"looking", "for"},
	{"show", "me"},
	{"find", "me"},
	{"can", "you"},
	{"could", "you"},
	{"i", "want"},
	{"i", "need"},
	{"please"},
}

var stopwords = map[string]struct{}{
	"a": {}, "an": {}, "the": {}, "and": {}, "or": {}, "but": {},
	"is": {}, "are": {}, "was": {}, "were": {}, "be": {}, "been": {},
	"do": {}, "does": {}, "did": {}, "have": {}, "has": {}, "had": {},
	"i": {}, "me": {}, "my": {}, "we": {}, "our": {}, "you": {}, "your": {},
	"he": {}, "she": {}, "it": {}, "its": {}, "they": {}, "them": {}, "their": {},
	"this": {}, "that": {}, "these": {}, "those": {},
	"what": {}, "which": {}, "who": {}, "whom": {},
	"for": {}, "of": {}, "in": {}, "on": {}, "at": {}, "to": {}, "with": {},
	"from": {}, "by": {}, "about": {}, "some": {}, "any": {},
}

// reformulate rewrites a query that retrieved nothing by dropping filler
// phrases and stopwords. Matching is case-insensitive and ignores leading
// and trailing punctuation; kept words keep their original form. When
// stripping would empty the query, or changes nothing, the original query
// is returned unchanged and a retry is pointless.
func reformulate(query string) string {
	words := strings.Fields(query)
	if len(words) == 0 {
		return query
	}

	lower := make([]string, len(words))
	for i, w := range words {
		lower[i] = strings.ToLower(strings.Trim(w, ".,!?;:\"'"))
	}

	keep := make([]bool, len(words))
	for i := range keep {
		keep[i] = true
	}

	for _, phrase := range fillerPhrases {
		for i := 0; i+len(phrase) <= len(words); i++ {
			if phraseAt(lower, keep, phrase, i) {
				for j := i; j < i+len(phrase); j++ {
					keep[j] = false
				}
			}
		}
	}

	kept := make([]string, 0, len(words))
	for i, w := range words {
		if !keep[i] {
			continue
		}
		if _, stop := stopwords[lower[i]]; stop {
			continue
		}
		kept = append(kept, w)
	}

	if len(kept) == 0 || len(kept) == len(words) {
		return query
	}
	return strings.Join(kept, " ")
}

// phraseAt reports whether the phrase matches at offset i over words that
// are still kept.
func phraseAt(lower []string, keep []bool, phrase []string, i int) bool {
	for j, p := range phrase {
		if !keep[i+j] || lower[i+j] != p {
			return false
		}
	}
	return true
}
