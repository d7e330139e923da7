package tool

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// toolIDRegex validates tool id format (ASCII letters, digits and underscores)
var toolIDRegex = regexp.MustCompile(`^[A-Za-z0-9_]+$`)

// ValidID reports whether id is an acceptable tool identifier.
// Ids containing path separators, dots or whitespace are rejected.
func ValidID(id string) bool {
	return toolIDRegex.MatchString(id)
}

// DefaultName derives a display name from an id: underscores become
// spaces and every word is title-cased.
func DefaultName(id string) string {
	words := strings.Split(id, "_")
	for i, w := range words {
		words[i] = titleWord(w)
	}
	return strings.Join(words, " ")
}

func titleWord(w string) string {
	if w == "" {
		return w
	}
	r, size := utf8.DecodeRuneInString(w)
	return string(unicode.ToUpper(r)) + strings.ToLower(w[size:])
}

// Defaults returns the descriptor every tool gets before metadata is applied
func Defaults(id string) Descriptor {
	return Descriptor{
		ID:          id,
		Name:        DefaultName(id),
		Description: id + " Tool",
		Icon:        DefaultIcon,
		Version:     DefaultVersion,
		Author:      DefaultAuthor,
	}
}
