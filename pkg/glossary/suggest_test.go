package glossary

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSuggest(t *testing.T) {
	g := MustNew(
		Entry{"git hub", "GitHub"},
		Entry{"kubernetis", "Kubernetes"},
		Entry{"open ai", "OpenAI"},
	)

	t.Run("finds near misses", func(t *testing.T) {
		suggestions := Suggest("we deploy to Kubernets from Githubb", g, 0.85)
		require.Len(t, suggestions, 2)

		byWord := map[string]Suggestion{}
		for _, s := range suggestions {
			byWord[s.Word] = s
		}
		assert.Equal(t, "Kubernetes", byWord["Kubernets"].Canonical)
		assert.Equal(t, "GitHub", byWord["Githubb"].Canonical)
		assert.GreaterOrEqual(t, suggestions[0].Confidence, suggestions[1].Confidence)
	})

	t.Run("skips exact canonical spellings and known keys", func(t *testing.T) {
		assert.Empty(t, Suggest("GitHub kubernetis Kubernetes", g, 0.85))
	})

	t.Run("skips short words", func(t *testing.T) {
		assert.Empty(t, Suggest("ai AI", MustNew(Entry{"a i", "AI"}), 0.5))
	})

	t.Run("reports each word once", func(t *testing.T) {
		suggestions := Suggest("Githubb githubb GITHUBB", g, 0.85)
		assert.Len(t, suggestions, 1)
	})

	t.Run("empty glossary", func(t *testing.T) {
		assert.Empty(t, Suggest("anything", &Glossary{}, 0.85))
	})
}
