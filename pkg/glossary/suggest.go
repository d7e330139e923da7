package glossary

import (
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/antzucaro/matchr"
)

// DefaultSuggestThreshold is the minimum Jaro-Winkler score for a suggestion
const DefaultSuggestThreshold = 0.85

const minSuggestRunes = 3

// Suggestion proposes a glossary entry for a word that looks like a
// known canonical spelling
type Suggestion struct {
	Word       string  `json:"word"`
	Canonical  string  `json:"suggestion"`
	Confidence float64 `json:"confidence"`
}

// Suggest scans text for words that resemble a canonical value without
// matching it, and that the glossary does not already cover. Words shorter
// than three runes are skipped. Each distinct word is reported once, with
// the best-scoring canonical value, sorted by confidence descending.
func Suggest(text string, g *Glossary, threshold float64) []Suggestion {
	if g.Len() == 0 {
		return nil
	}
	if threshold <= 0 {
		threshold = DefaultSuggestThreshold
	}

	canonicals := uniqueValues(g)
	best := make(map[string]Suggestion)
	var order []string

	words := strings.FieldsFunc(text, func(r rune) bool { return !isWordRune(r) })
	for _, word := range words {
		if utf8.RuneCountInString(word) < minSuggestRunes {
			continue
		}
		if _, known := g.Get(word); known {
			continue
		}

		lower := strings.ToLower(word)
		for _, canonical := range canonicals {
			canonicalLower := strings.ToLower(canonical)
			if lower == canonicalLower {
				continue
			}
			score := matchr.JaroWinkler(lower, canonicalLower, false)
			if score < threshold {
				continue
			}

			current, seen := best[lower]
			if !seen {
				order = append(order, lower)
			}
			if !seen || score > current.Confidence {
				best[lower] = Suggestion{Word: word, Canonical: canonical, Confidence: score}
			}
		}
	}

	suggestions := make([]Suggestion, 0, len(order))
	for _, key := range order {
		suggestions = append(suggestions, best[key])
	}
	sort.SliceStable(suggestions, func(i, j int) bool {
		return suggestions[i].Confidence > suggestions[j].Confidence
	})
	return suggestions
}

// uniqueValues returns each canonical value once, ignoring case, in
// insertion order. Multi-word values are skipped since suggestions work
// on single words.
func uniqueValues(g *Glossary) []string {
	seen := make(map[string]bool)
	var values []string
	for _, e := range g.Entries() {
		if strings.IndexFunc(e.Value, unicode.IsSpace) >= 0 {
			continue
		}
		lower := strings.ToLower(e.Value)
		if seen[lower] {
			continue
		}
		seen[lower] = true
		values = append(values, e.Value)
	}
	return values
}
