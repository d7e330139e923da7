package transcript

import (
	"fmt"
	"math"
	"regexp"
	"strings"
	"time"

	"github.com/mitchellh/go-wordwrap"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

const (
	// DefaultParagraphWords is the approximate paragraph size used for markdown output
	DefaultParagraphWords = 100

	markdownWidth = 80
)

var (
	whitespaceRegex       = regexp.MustCompile(`\s+`)
	spaceBeforePunctRegex = regexp.MustCompile(`\s+([.,!?;:])`)
	spaceAfterPunctRegex  = regexp.MustCompile(`([.,!?;:])\s*`)
	numberPrinter         = message.NewPrinter(language.English)
)

// CleanText collapses whitespace, tightens spacing around punctuation and
// makes sure the text ends with terminal punctuation
func CleanText(text string) string {
	text = whitespaceRegex.ReplaceAllString(text, " ")
	text = spaceBeforePunctRegex.ReplaceAllString(text, "$1")
	text = spaceAfterPunctRegex.ReplaceAllString(text, "$1 ")
	text = strings.TrimSpace(text)

	if text != "" && !strings.ContainsAny(text[len(text)-1:], ".!?") {
		text += "."
	}
	return text
}

// SplitSentences splits after '.', '!' or '?' when followed by whitespace
func SplitSentences(text string) []string {
	var sentences []string
	start := 0
	for i := 0; i < len(text); i++ {
		c := text[i]
		if c != '.' && c != '!' && c != '?' {
			continue
		}
		j := i + 1
		for j < len(text) && isSpace(text[j]) {
			j++
		}
		if j == i+1 || j == len(text) {
			continue
		}
		sentences = append(sentences, text[start:i+1])
		start = j
		i = j - 1
	}
	sentences = append(sentences, text[start:])
	return sentences
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '\f' || c == '\v'
}

// SplitParagraphs groups sentences into paragraphs of roughly wordsPerParagraph words.
// A sentence is never split; a paragraph closes before the sentence that would overflow it.
func SplitParagraphs(text string, wordsPerParagraph int) []string {
	if wordsPerParagraph <= 0 {
		wordsPerParagraph = DefaultParagraphWords
	}

	var (
		paragraphs []string
		current    []string
		count      int
	)
	for _, sentence := range SplitSentences(text) {
		words := len(strings.Fields(sentence))
		if count+words > wordsPerParagraph && len(current) > 0 {
			paragraphs = append(paragraphs, strings.Join(current, " "))
			current = []string{sentence}
			count = words
			continue
		}
		current = append(current, sentence)
		count += words
	}
	if len(current) > 0 {
		paragraphs = append(paragraphs, strings.Join(current, " "))
	}
	return paragraphs
}

// FormatTimestamp renders whole seconds as MM:SS, or HH:MM:SS from one hour on
func FormatTimestamp(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	hours := seconds / 3600
	minutes := (seconds % 3600) / 60
	secs := seconds % 60

	if hours > 0 {
		return fmt.Sprintf("%02d:%02d:%02d", hours, minutes, secs)
	}
	return fmt.Sprintf("%02d:%02d", minutes, secs)
}

// FormatSRTTimestamp renders seconds as HH:MM:SS,mmm
func FormatSRTTimestamp(seconds float64) string {
	if seconds < 0 || math.IsNaN(seconds) {
		seconds = 0
	}
	total := int64(math.Round(seconds * 1000))
	millis := total % 1000
	total /= 1000

	return fmt.Sprintf("%02d:%02d:%02d,%03d", total/3600, (total%3600)/60, total%60, millis)
}

// Segment is a timed piece of transcript
type Segment struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
}

// RenderSRT renders segments as a SubRip subtitle document
func RenderSRT(segments []Segment) string {
	var b strings.Builder
	for i, seg := range segments {
		fmt.Fprintf(&b, "%d\n", i+1)
		fmt.Fprintf(&b, "%s --> %s\n", FormatSRTTimestamp(seg.Start), FormatSRTTimestamp(seg.End))
		b.WriteString(strings.TrimSpace(seg.Text))
		b.WriteString("\n\n")
	}
	return b.String()
}

// Document is the input to RenderMarkdown
type Document struct {
	Title          string
	Source         string
	Text           string // already cleaned
	Replacements   int
	CreatedAt      time.Time
	ParagraphWords int
}

// RenderMarkdown renders a cleaned transcript with a metadata header,
// numbered parts and a statistics footer
func RenderMarkdown(doc Document) string {
	title := doc.Title
	if title == "" {
		title = "Transcript"
	}

	lines := []string{
		"# " + title,
		"",
		"---",
		"**Created on:** " + doc.CreatedAt.Format("01/02/2006 15:04"),
	}
	if doc.Source != "" {
		lines = append(lines, "**Source:** "+doc.Source)
	}
	lines = append(lines,
		"**Glossary corrections:** "+numberPrinter.Sprintf("%d", doc.Replacements),
		"---",
		"",
		"## Content",
		"",
	)

	paragraphs := SplitParagraphs(doc.Text, doc.ParagraphWords)
	for i, paragraph := range paragraphs {
		if len(paragraphs) > 1 {
			lines = append(lines, fmt.Sprintf("### Part %d", i+1), "")
		}
		lines = append(lines, wordwrap.WrapString(paragraph, markdownWidth), "")
	}

	lines = append(lines,
		"---",
		"## Statistics",
		"",
		"- **Words:** "+numberPrinter.Sprintf("%d", len(strings.Fields(doc.Text))),
		"- **Characters:** "+numberPrinter.Sprintf("%d", len([]rune(doc.Text))),
		"- **Paragraphs:** "+numberPrinter.Sprintf("%d", len(paragraphs)),
	)
	return strings.Join(lines, "\n") + "\n"
}
