package search

import "strings"

// Stop words to filter out when scoring lexical overlap
var stopWords = map[string]bool{
	"the": true, "a": true, "an": true, "be": true, "is": true, "are": true,
	"was": true, "to": true, "of": true, "and": true, "in": true, "that": true,
	"have": true, "it": true, "for": true, "not": true, "on": true, "with": true,
	"as": true, "you": true, "do": true, "at": true, "this": true, "but": true,
	"by": true, "from": true,
}

// tokenizeAndFilter splits text into words, lowercases, trims punctuation, and removes stop words
func tokenizeAndFilter(text string) []string {
	words := strings.Fields(text)
	filtered := make([]string, 0, len(words))

	for _, word := range words {
		// Lowercase and trim punctuation
		cleaned := strings.ToLower(strings.Trim(word, ".,!?;:'\"-()[]{}"))

		// Skip stop words and empty strings
		if cleaned != "" && !stopWords[cleaned] {
			filtered = append(filtered, cleaned)
		}
	}

	return filtered
}

// lexicalScore scores term overlap between a document fragment and a query.
//
// The score is coverage (fraction of distinct query terms present in the
// fragment) damped by a saturating term-frequency factor tf/(tf+1), where
// tf counts occurrences of matched query terms. It is monotonic in both
// coverage and term frequency, bounded to [0, 1), and exactly 0 when the
// fragment shares no terms with the query.
func lexicalScore(content, query string) float32 {
	queryWords := tokenizeAndFilter(query)
	if len(queryWords) == 0 {
		return 0
	}

	// Distinct query terms; repeated terms in the query don't count twice.
	querySet := make(map[string]bool, len(queryWords))
	for _, word := range queryWords {
		querySet[word] = true
	}

	docWords := tokenizeAndFilter(content)
	termFreq := make(map[string]int, len(querySet))
	for _, word := range docWords {
		if querySet[word] {
			termFreq[word]++
		}
	}

	if len(termFreq) == 0 {
		return 0
	}

	totalFreq := 0
	for _, freq := range termFreq {
		totalFreq += freq
	}

	coverage := float32(len(termFreq)) / float32(len(querySet))
	saturation := float32(totalFreq) / float32(totalFreq+1)
	return coverage * saturation
}
