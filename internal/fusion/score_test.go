package fusion

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRelevanceExactTitleMatch(t *testing.T) {
	require.Equal(t, 1.0, Relevance("release notes", "irrelevant body", "Release Notes v2"))
}

func TestRelevanceExactBodyMatch(t *testing.T) {
	require.Equal(t, 0.95, Relevance("storage engine", "the storage engine compacts segments", "Unrelated"))
}

func TestRelevancePartialBlend(t *testing.T) {
	score := Relevance("quokka wallaby numbat", "the quokka lives on rottnest island", "Fauna")
	require.Greater(t, score, 0.0)
	require.Less(t, score, 0.95)
}

func TestRelevanceCoverageIgnoresSubstringWords(t *testing.T) {
	// "art" inside "particular" must not count toward coverage.
	score := Relevance("art science", "nothing particular here", "unrelated")
	require.Less(t, score, 0.3)

	// A whole-word hit does.
	score = Relevance("art theory", "modern art history", "notes")
	require.GreaterOrEqual(t, score, 0.25)
}

func TestRelevanceBounds(t *testing.T) {
	cases := []struct {
		query, body, title string
	}{
		{"", "", ""},
		{"x", "", ""},
		{"", "body text", "title"},
		{strings.Repeat("term ", 50), strings.Repeat("term ", 500), "t"},
		{"unicode 日本語", "日本語のテキスト", "ドキュメント"},
	}
	for _, c := range cases {
		score := Relevance(c.query, c.body, c.title)
		require.GreaterOrEqual(t, score, 0.0)
		require.LessOrEqual(t, score, 1.0)
	}
}

func TestRelevanceEmptyQueryMatchesEverything(t *testing.T) {
	// An empty phrase is contained in any title.
	require.Equal(t, 1.0, Relevance("", "body", "title"))
}

func TestSequenceSimilarity(t *testing.T) {
	require.Equal(t, 1.0, sequenceSimilarity("abcd", "abcd"))
	require.Equal(t, 0.0, sequenceSimilarity("", "abcd"))
	mid := sequenceSimilarity("kitten", "sitting")
	require.Greater(t, mid, 0.0)
	require.Less(t, mid, 1.0)
}
