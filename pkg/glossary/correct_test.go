package glossary

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCorrect(t *testing.T) {
	tests := []struct {
		name     string
		entries  []Entry
		input    string
		expected string
	}{
		{
			name:     "longest key wins",
			entries:  []Entry{{"ai", "AI"}, {"open ai", "OpenAI"}},
			input:    "I use open ai daily",
			expected: "I use OpenAI daily",
		},
		{
			name:     "lowercase match uses canonical spelling",
			entries:  []Entry{{"github", "GitHub"}},
			input:    "I use github",
			expected: "I use GitHub",
		},
		{
			name:     "all caps stays all caps",
			entries:  []Entry{{"github", "GitHub"}},
			input:    "GITHUB",
			expected: "GITHUB",
		},
		{
			name:     "capitalised match capitalises canonical",
			entries:  []Entry{{"github", "GitHub"}},
			input:    "Github rocks",
			expected: "GitHub rocks",
		},
		{
			name:     "capitalised match with lowercase canonical",
			entries:  []Entry{{"kubernetes", "kubernetes"}},
			input:    "Kubernetes is here",
			expected: "Kubernetes is here",
		},
		{
			name:     "no match inside a larger word",
			entries:  []Entry{{"ki", "KI"}},
			input:    "Taxifahrer Kiosk skiing",
			expected: "Taxifahrer Kiosk skiing",
		},
		{
			name:     "unicode letters count as word characters",
			entries:  []Entry{{"ki", "KI"}},
			input:    "Müki ki",
			expected: "Müki KI",
		},
		{
			name:     "non-ASCII keys",
			entries:  []Entry{{"münchen", "München"}},
			input:    "ich fahre nach münchen.",
			expected: "ich fahre nach München.",
		},
		{
			name:     "every occurrence is replaced",
			entries:  []Entry{{"chat gpt", "ChatGPT"}},
			input:    "chat gpt and Chat gpt and CHAT GPT",
			expected: "ChatGPT and ChatGPT and CHATGPT",
		},
		{
			name:     "punctuation edges skip the boundary check",
			entries:  []Entry{{"c++", "C++"}},
			input:    "I write c++, not c",
			expected: "I write C++, not c",
		},
		{
			name:     "shorter keys see corrected text",
			entries:  []Entry{{"open ai", "Open AI"}, {"ai", "A.I."}},
			input:    "open ai and ai",
			expected: "Open A.I. and A.I.",
		},
		{
			name:     "canonical value containing a shorter key",
			entries:  []Entry{{"open ai", "OpenAI Labs"}, {"labs", "Laboratories"}},
			input:    "I use open ai daily",
			expected: "I use OpenAI Laboratories daily",
		},
		{
			name:     "regex metacharacters are literal",
			entries:  []Entry{{"a.b", "AB"}},
			input:    "axb a.b",
			expected: "axb AB",
		},
		{
			name:     "empty glossary",
			entries:  nil,
			input:    "unchanged text",
			expected: "unchanged text",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g, err := New(tt.entries...)
			require.NoError(t, err)

			got, _ := Correct(tt.input, g)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestCorrect_Records(t *testing.T) {
	g := MustNew(Entry{"ai", "AI"}, Entry{"open ai", "OpenAI"}, Entry{"github", "GitHub"})

	out, records := Correct("Github and open ai plus ai", g)
	assert.Equal(t, "GitHub and OpenAI plus AI", out)
	require.Len(t, records, 3)

	assert.Equal(t, Replacement{Original: "Github", Replacement: "GitHub", Position: 0, Key: "github", Canonical: "GitHub"}, records[0])
	assert.Equal(t, Replacement{Original: "open ai", Replacement: "OpenAI", Position: 11, Key: "open ai", Canonical: "OpenAI"}, records[1])
	assert.Equal(t, Replacement{Original: "ai", Replacement: "AI", Position: 23, Key: "ai", Canonical: "AI"}, records[2])

	for _, rec := range records {
		assert.Equal(t, rec.Replacement, out[rec.Position:rec.Position+len(rec.Replacement)])
	}
}

func TestCorrect_EmptyGlossaryHasNoRecords(t *testing.T) {
	out, records := Correct("anything", &Glossary{})
	assert.Equal(t, "anything", out)
	assert.Empty(t, records)

	out, records = Correct("anything", nil)
	assert.Equal(t, "anything", out)
	assert.Empty(t, records)
}

func TestCorrect_Idempotent(t *testing.T) {
	g := MustNew(
		Entry{"open ai", "OpenAI"},
		Entry{"github", "GitHub"},
		Entry{"kubernetis", "Kubernetes"},
		Entry{"ki", "KI"},
	)
	inputs := []string{
		"open ai pushed to github",
		"GITHUB hosts kubernetis",
		"Ki and Taxi",
		"",
	}

	for _, input := range inputs {
		once, _ := Correct(input, g)
		twice, _ := Correct(once, g)
		assert.Equal(t, once, twice, input)
	}
}

func TestCorrect_IdempotentWhenValuesContainKeys(t *testing.T) {
	g := MustNew(Entry{"open ai", "OpenAI Labs"}, Entry{"labs", "Laboratories"})

	for _, input := range []string{"I use open ai daily", "OPEN AI and labs", "Open ai, open ai"} {
		once, _ := Correct(input, g)
		twice, records := Correct(once, g)
		assert.Equal(t, once, twice, input)
		assert.Empty(t, records, input)
	}
}

func TestCorrect_RecordsFollowLaterRewrites(t *testing.T) {
	g := MustNew(Entry{"open ai", "OpenAI Labs"}, Entry{"labs", "Laboratories"}, Entry{"github", "GitHub"})

	out, records := Correct("open ai on github", g)
	assert.Equal(t, "OpenAI Laboratories on GitHub", out)
	require.Len(t, records, 3)

	assert.Equal(t, Replacement{Original: "open ai", Replacement: "OpenAI Laboratories", Position: 0, Key: "open ai", Canonical: "OpenAI Labs"}, records[0])
	assert.Equal(t, Replacement{Original: "Labs", Replacement: "Laboratories", Position: 7, Key: "labs", Canonical: "Laboratories"}, records[1])
	assert.Equal(t, Replacement{Original: "github", Replacement: "GitHub", Position: 23, Key: "github", Canonical: "GitHub"}, records[2])

	for _, rec := range records {
		assert.Equal(t, rec.Replacement, out[rec.Position:rec.Position+len(rec.Replacement)])
	}
}

func TestMapOffset(t *testing.T) {
	// "aa bb cc" with "bb" (3..5) replaced by "xxxx"
	edits := []edit{{start: 3, end: 5, newLen: 4}}

	assert.Equal(t, 0, mapOffset(0, edits, false))
	assert.Equal(t, 3, mapOffset(3, edits, false))
	assert.Equal(t, 3, mapOffset(4, edits, false))
	assert.Equal(t, 7, mapOffset(4, edits, true))
	assert.Equal(t, 7, mapOffset(5, edits, true))
	assert.Equal(t, 10, mapOffset(8, edits, false))
}

func TestCorrect_EqualLengthKeysKeepInsertionOrder(t *testing.T) {
	g := MustNew(Entry{"ab-", "FIRST"}, Entry{"-cd", "SECOND"})
	out, records := Correct("ab-cd", g)
	assert.Equal(t, "FIRSTcd", out)
	require.Len(t, records, 1)
	assert.Equal(t, "ab-", records[0].Key)

	g = MustNew(Entry{"-cd", "SECOND"}, Entry{"ab-", "FIRST"})
	out, records = Correct("ab-cd", g)
	assert.Equal(t, "abSECOND", out)
	require.Len(t, records, 1)
	assert.Equal(t, "-cd", records[0].Key)
}

func TestCorrector_Reusable(t *testing.T) {
	c := NewCorrector(MustNew(Entry{"github", "GitHub"}))

	out, _ := c.Correct("github")
	assert.Equal(t, "GitHub", out)
	out, _ = c.Correct("no match")
	assert.Equal(t, "no match", out)
}

func TestApplyCase(t *testing.T) {
	assert.Equal(t, "OPENAI", applyCase("OPEN AI", "OpenAI"))
	assert.Equal(t, "OpenAI", applyCase("Open ai", "openAI"))
	assert.Equal(t, "openAI", applyCase("open Ai", "openAI"))
	assert.Equal(t, "Ärger", applyCase("Aerger", "ärger"))
	assert.Equal(t, "x-1", applyCase("1-2", "x-1"))
}
