package glossary

import (
	"regexp"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Replacement records one applied substitution
type Replacement struct {
	Original    string `json:"original"`
	Replacement string `json:"replacement"`
	Position    int    `json:"position"` // byte offset in the corrected text
	Key         string `json:"incorrect_term"`
	Canonical   string `json:"correct_term"`
}

// Corrector applies a glossary to text. Matchers are compiled once, so a
// Corrector is the cheaper choice when many texts share one glossary.
// It is safe for concurrent use.
type Corrector struct {
	rules []rule
}

type rule struct {
	entry     Entry
	matcher   *regexp.Regexp
	leftWord  bool // key starts with a word character
	rightWord bool // key ends with a word character
}

// NewCorrector prepares g for matching. Entries are ordered by key length
// in runes, longest first, keeping insertion order between equal lengths.
func NewCorrector(g *Glossary) *Corrector {
	entries := g.Entries()
	sort.SliceStable(entries, func(i, j int) bool {
		return utf8.RuneCountInString(entries[i].Key) > utf8.RuneCountInString(entries[j].Key)
	})

	rules := make([]rule, 0, len(entries))
	for _, e := range entries {
		first, _ := utf8.DecodeRuneInString(e.Key)
		last, _ := utf8.DecodeLastRuneInString(e.Key)
		rules = append(rules, rule{
			entry:     e,
			matcher:   regexp.MustCompile(`(?i)` + regexp.QuoteMeta(e.Key)),
			leftWord:  isWordRune(first),
			rightWord: isWordRune(last),
		})
	}
	return &Corrector{rules: rules}
}

// Correct rewrites text using g. See Corrector.Correct.
func Correct(text string, g *Glossary) (string, []Replacement) {
	return NewCorrector(g).Correct(text)
}

// Correct replaces every whole-word, case-insensitive occurrence of each
// key with its canonical value, longest keys first. Each key sweeps the
// text as corrected by the keys before it. Records are sorted by position.
func (c *Corrector) Correct(text string) (string, []Replacement) {
	if len(c.rules) == 0 || text == "" {
		return text, nil
	}

	var records []Replacement
	for _, r := range c.rules {
		text, records = r.apply(text, records)
	}

	sort.SliceStable(records, func(i, j int) bool { return records[i].Position < records[j].Position })
	return text, records
}

// edit is one substitution of text[start:end] by newLen bytes
type edit struct {
	start, end, newLen int
}

// apply sweeps r over text left to right and moves the earlier records
// onto the rewritten text
func (r rule) apply(text string, records []Replacement) (string, []Replacement) {
	var (
		b     strings.Builder
		edits []edit
		added []Replacement
	)

	last, pos := 0, 0
	for pos <= len(text) {
		loc := r.matcher.FindStringIndex(text[pos:])
		if loc == nil {
			break
		}
		ms, me := pos+loc[0], pos+loc[1]
		if me == ms {
			break
		}

		if !r.bounded(text, ms, me) {
			_, size := utf8.DecodeRuneInString(text[ms:])
			pos = ms + size
			continue
		}

		original := text[ms:me]
		replacement := applyCase(original, r.entry.Value)

		b.WriteString(text[last:ms])
		added = append(added, Replacement{
			Original:    original,
			Replacement: replacement,
			Position:    b.Len(),
			Key:         r.entry.Key,
			Canonical:   r.entry.Value,
		})
		b.WriteString(replacement)
		edits = append(edits, edit{start: ms, end: me, newLen: len(replacement)})

		last, pos = me, me
	}

	if len(edits) == 0 {
		return text, records
	}
	b.WriteString(text[last:])
	out := b.String()

	// a record whose span was rewritten keeps covering it
	for i := range records {
		start := records[i].Position
		end := start + len(records[i].Replacement)
		ns, ne := mapOffset(start, edits, false), mapOffset(end, edits, true)
		records[i].Position = ns
		records[i].Replacement = out[ns:ne]
	}
	return out, append(records, added...)
}

// mapOffset translates an offset in the text before edits into the text
// after them. An offset inside an edit snaps to the edit's start, or to
// its end when atEnd is set.
func mapOffset(p int, edits []edit, atEnd bool) int {
	delta := 0
	for _, e := range edits {
		if e.start >= p {
			break
		}
		if e.end <= p {
			delta += e.newLen - (e.end - e.start)
			continue
		}
		if atEnd {
			return e.start + delta + e.newLen
		}
		return e.start + delta
	}
	return p + delta
}

// bounded reports whether full[start:end] is not part of a larger word.
// A side is only checked when the key itself has a word character there.
func (r rule) bounded(full string, start, end int) bool {
	if r.leftWord && start > 0 {
		before, _ := utf8.DecodeLastRuneInString(full[:start])
		if isWordRune(before) {
			return false
		}
	}
	if r.rightWord && end < len(full) {
		after, _ := utf8.DecodeRuneInString(full[end:])
		if isWordRune(after) {
			return false
		}
	}
	return true
}

func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsMark(r)
}

// applyCase shapes canonical after the casing of the matched span:
// all caps stays all caps, a capitalised word gets a capitalised value,
// anything else uses the canonical spelling as stored.
func applyCase(matched, canonical string) string {
	switch {
	case isAllUpper(matched):
		return strings.ToUpper(canonical)
	case isCapitalized(matched):
		r, size := utf8.DecodeRuneInString(canonical)
		return string(unicode.ToUpper(r)) + canonical[size:]
	default:
		return canonical
	}
}

// isAllUpper reports whether s has cased letters and all of them are upper case
func isAllUpper(s string) bool {
	cased := false
	for _, r := range s {
		if unicode.IsLower(r) {
			return false
		}
		if unicode.IsUpper(r) {
			cased = true
		}
	}
	return cased
}

// isCapitalized reports whether the first letter is upper case and no other letter is
func isCapitalized(s string) bool {
	first := true
	for _, r := range s {
		if !unicode.IsLetter(r) {
			continue
		}
		if first {
			if !unicode.IsUpper(r) {
				return false
			}
			first = false
			continue
		}
		if unicode.IsUpper(r) {
			return false
		}
	}
	return !first
}
