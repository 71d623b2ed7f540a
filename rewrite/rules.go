package rewrite

import (
	"fmt"
	"strings"

	"github.com/poiesic/docquery/core"
)

// Rule-based expansion used when no generator is configured or the LLM
// call fails. Both rules are deterministic for a fixed query.

// orderedSynonyms is iterated in slice order so expansion output is stable.
var orderedSynonyms = []struct {
	word     string
	synonyms []string
}{
	{"how", []string{"what way", "method"}},
	{"why", []string{"reason", "cause"}},
	{"what", []string{"which", "describe"}},
	{"best", []string{"top", "optimal"}},
	{"difference", []string{"comparison", "contrast"}},
	{"example", []string{"instance", "sample"}},
	{"explain", []string{"describe", "clarify"}},
	{"implement", []string{"create", "build"}},
	{"use", []string{"utilize", "apply"}},
	{"problem", []string{"issue", "challenge"}},
}

// Stop words dropped when building the keyword variant.
var stopWords = map[string]bool{
	"the": true, "a": true, "an": true, "be": true, "is": true, "are": true,
	"was": true, "to": true, "of": true, "and": true, "in": true, "that": true,
	"have": true, "it": true, "for": true, "not": true, "on": true, "with": true,
	"as": true, "you": true, "do": true, "at": true, "this": true, "but": true,
	"by": true, "from": true,
}

const expansionPromptTemplate = `Generate %d alternative search queries for the following query.
Each alternative should capture different aspects or phrasings of the same information need.
Return only the queries, one per line.

Original query: %s

Alternative queries:`

func buildExpansionPrompt(query string, count int) string {
	return fmt.Sprintf(expansionPromptTemplate, count, query)
}

// appendRuleExpansions adds synonym and keyword variants of the normalized
// query until n sub-queries exist or the rules run dry.
func appendRuleExpansions(subs []core.SubQuery, normalized string, n int) []core.SubQuery {
	seen := make(map[string]bool, n)
	for _, s := range subs {
		seen[s.Text] = true
	}

	add := func(text, strategy string) bool {
		if text == "" || seen[text] {
			return len(subs) < n
		}
		seen[text] = true
		subs = append(subs, core.SubQuery{Id: len(subs), Text: text, Strategy: strategy})
		return len(subs) < n
	}

	lower := strings.ToLower(normalized)
	words := strings.Fields(lower)

	for _, entry := range orderedSynonyms {
		for _, w := range words {
			if w != entry.word {
				continue
			}
			for _, syn := range entry.synonyms {
				if !add(strings.Replace(lower, entry.word, syn, 1), StrategySynonym) {
					return subs
				}
			}
		}
	}

	if !add(keywordVariant(words), StrategyKeywords) {
		return subs
	}
	return subs
}

// keywordVariant strips stop words and punctuation, leaving the bare
// content terms. Returns "" when nothing survives or nothing changes.
func keywordVariant(words []string) string {
	kept := make([]string, 0, len(words))
	for _, w := range words {
		cleaned := strings.Trim(w, ".,!?;:'\"-()[]{}")
		if cleaned != "" && !stopWords[cleaned] {
			kept = append(kept, cleaned)
		}
	}
	joined := strings.Join(kept, " ")
	if len(kept) == 0 || joined == strings.Join(words, " ") {
		return ""
	}
	return joined
}
