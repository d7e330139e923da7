package transcript

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCleanText(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"collapses whitespace", "hello   \n world", "hello world."},
		{"tightens punctuation", "hello , world ! ok", "hello, world! ok."},
		{"adds space after punctuation", "one.two", "one. two."},
		{"keeps terminal punctuation", "done?", "done?"},
		{"empty", "   ", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CleanText(tt.in))
		})
	}
}

func TestSplitSentences(t *testing.T) {
	assert.Equal(t, []string{"One.", "Two!", "Three?", "Four"}, SplitSentences("One. Two! Three? Four"))
	assert.Equal(t, []string{"Version 1.5 is out."}, SplitSentences("Version 1.5 is out."))
	assert.Equal(t, []string{""}, SplitSentences(""))
}

func TestSplitParagraphs(t *testing.T) {
	text := "a b c. d e f. g h i. j k l."

	assert.Equal(t, []string{"a b c. d e f.", "g h i. j k l."}, SplitParagraphs(text, 6))
	assert.Equal(t, []string{text}, SplitParagraphs(text, 100))

	// a single long sentence still forms one paragraph
	assert.Equal(t, []string{"a b c d e."}, SplitParagraphs("a b c d e.", 2))
}

func TestFormatTimestamp(t *testing.T) {
	assert.Equal(t, "00:00", FormatTimestamp(0))
	assert.Equal(t, "01:05", FormatTimestamp(65))
	assert.Equal(t, "59:59", FormatTimestamp(3599))
	assert.Equal(t, "01:00:00", FormatTimestamp(3600))
	assert.Equal(t, "02:03:04", FormatTimestamp(7384))
	assert.Equal(t, "00:00", FormatTimestamp(-5))
}

func TestFormatSRTTimestamp(t *testing.T) {
	assert.Equal(t, "00:00:00,000", FormatSRTTimestamp(0))
	assert.Equal(t, "00:00:01,500", FormatSRTTimestamp(1.5))
	assert.Equal(t, "00:01:01,001", FormatSRTTimestamp(61.0009))
	assert.Equal(t, "01:00:00,250", FormatSRTTimestamp(3600.25))
	assert.Equal(t, "00:00:00,000", FormatSRTTimestamp(-1))
}

func TestRenderSRT(t *testing.T) {
	out := RenderSRT([]Segment{
		{Start: 0, End: 1.5, Text: " Hello there "},
		{Start: 1.5, End: 3, Text: "General Kenobi"},
	})

	want := "1\n00:00:00,000 --> 00:00:01,500\nHello there\n\n" +
		"2\n00:00:01,500 --> 00:00:03,000\nGeneral Kenobi\n\n"
	assert.Equal(t, want, out)
	assert.Empty(t, RenderSRT(nil))
}

func TestRenderMarkdown(t *testing.T) {
	created := time.Date(2026, 3, 14, 9, 26, 0, 0, time.UTC)

	t.Run("single paragraph", func(t *testing.T) {
		out := RenderMarkdown(Document{
			Source:       "talk.txt",
			Text:         "We pushed to GitHub.",
			Replacements: 1234,
			CreatedAt:    created,
		})

		assert.True(t, strings.HasPrefix(out, "# Transcript\n"))
		assert.Contains(t, out, "**Created on:** 03/14/2026 09:26")
		assert.Contains(t, out, "**Source:** talk.txt")
		assert.Contains(t, out, "**Glossary corrections:** 1,234")
		assert.Contains(t, out, "## Content\n\nWe pushed to GitHub.\n")
		assert.NotContains(t, out, "### Part")
		assert.Contains(t, out, "- **Words:** 4")
		assert.Contains(t, out, "- **Paragraphs:** 1")
		assert.True(t, strings.HasSuffix(out, "\n"))
	})

	t.Run("multiple parts", func(t *testing.T) {
		out := RenderMarkdown(Document{
			Title:          "Standup",
			Text:           "a b c. d e f.",
			CreatedAt:      created,
			ParagraphWords: 3,
		})

		assert.True(t, strings.HasPrefix(out, "# Standup\n"))
		assert.NotContains(t, out, "**Source:**")
		assert.Contains(t, out, "### Part 1\n\na b c.\n")
		assert.Contains(t, out, "### Part 2\n\nd e f.\n")
		assert.Contains(t, out, "- **Paragraphs:** 2")
	})

	t.Run("wraps long lines", func(t *testing.T) {
		out := RenderMarkdown(Document{
			Text:      strings.Repeat("word ", 40) + "end.",
			CreatedAt: created,
		})
		for _, line := range strings.Split(out, "\n") {
			assert.LessOrEqual(t, len(line), markdownWidth)
		}
	})
}
