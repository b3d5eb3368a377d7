package fusion

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"localagent/internal/model"
)

func localHits() []*model.QueryHit {
	return []*model.QueryHit{
		{ID: "h1:0", Text: "Saket is a person who builds storage systems.", Score: 0.2, Path: "/docs/saket.txt"},
		{ID: "h2:0", Text: "Unrelated body of text about gardening.", Score: 0.9, Path: "/docs/garden.txt"},
	}
}

func webResults() []*model.WebResult {
	return []*model.WebResult{
		{Title: "Saket profile", URL: "https://example.com/saket", Snippet: "Saket is a person.", Source: "exa"},
		{Title: "Gardening tips", URL: "https://example.com/garden", Snippet: "how to prune roses", Source: "exa"},
	}
}

func TestNormalizeLocal(t *testing.T) {
	out := NormalizeLocal("who is saket", localHits())
	require.Len(t, out, 2)
	require.Equal(t, model.SourceLocal, out[0].Source)
	require.Equal(t, "saket.txt", out[0].Title)
	require.Equal(t, "file:///docs/saket.txt", out[0].URL)
	require.Equal(t, 0.2, out[0].Metadata["distance"])
	// Close vector distance boosts the recomputed score.
	require.Greater(t, out[0].Score, out[1].Score)
}

func TestNormalizeLocalMissingPath(t *testing.T) {
	out := NormalizeLocal("q", []*model.QueryHit{{ID: "x", Text: "body", Score: 0.8}})
	require.Equal(t, "Local Document", out[0].Title)
	require.Empty(t, out[0].URL)
}

func TestNormalizeLocalTruncatesPreview(t *testing.T) {
	long := strings.Repeat("a", 2000)
	out := NormalizeLocal("q", []*model.QueryHit{{Text: long, Score: 0.9}})
	require.Len(t, out[0].Content, 500)
	require.Equal(t, long, out[0].Metadata["full_text"])
}

func TestNormalizeWebRankDecay(t *testing.T) {
	results := make([]*model.WebResult, 10)
	for i := range results {
		results[i] = &model.WebResult{Title: "t", Snippet: "no query terms here", URL: "https://e.com"}
	}
	out := NormalizeWeb("zzz unmatched", results)
	require.Greater(t, out[0].Score, out[9].Score)
	// Decay floors at 0.5 so the positional part never drops below 0.2.
	require.GreaterOrEqual(t, out[9].Score, 0.4*0.5)
}

func TestMergeBalancedDedupsByURL(t *testing.T) {
	a := &model.UnifiedResult{Source: model.SourceWeb, URL: "https://example.com/x", Content: "first copy", Score: 0.9}
	b := &model.UnifiedResult{Source: model.SourceWeb, URL: "https://example.com/x", Content: "second copy", Score: 0.8}
	out := Merge(nil, []*model.UnifiedResult{a, b}, StrategyBalanced, 10)
	require.Len(t, out, 1)
	require.Equal(t, 0.9, out[0].Score)
}

func TestMergeBalancedDedupsByContentFingerprint(t *testing.T) {
	a := &model.UnifiedResult{URL: "https://a.com", Content: "Shared Body Text", Score: 0.9}
	b := &model.UnifiedResult{URL: "https://b.com", Content: "shared body text", Score: 0.7}
	out := Merge([]*model.UnifiedResult{a}, []*model.UnifiedResult{b}, StrategyBalanced, 10)
	require.Len(t, out, 1)
}

func TestMergeBalancedKeepsResultsWithEmptyContent(t *testing.T) {
	a := &model.UnifiedResult{URL: "https://a.com", Content: "", Score: 0.9}
	b := &model.UnifiedResult{URL: "https://b.com", Content: "   ", Score: 0.8}
	out := Merge(nil, []*model.UnifiedResult{a, b}, StrategyBalanced, 10)
	require.Len(t, out, 2)
}

func TestMergeRespectsMaxResultsAndOrder(t *testing.T) {
	var local []*model.UnifiedResult
	for i := 0; i < 8; i++ {
		local = append(local, &model.UnifiedResult{
			URL:     "https://example.com/" + strings.Repeat("a", i+1),
			Content: strings.Repeat("b", i+1),
			Score:   float64(i) / 10,
		})
	}
	out := Merge(local, nil, StrategyBalanced, 3)
	require.Len(t, out, 3)
	for i := 1; i < len(out); i++ {
		require.GreaterOrEqual(t, out[i-1].Score, out[i].Score)
	}
}

func TestMergeLocalFirstBoosts(t *testing.T) {
	local := []*model.UnifiedResult{{Source: model.SourceLocal, URL: "file:///a", Content: "aa", Score: 0.6}}
	web := []*model.UnifiedResult{{Source: model.SourceWeb, URL: "https://b", Content: "bb", Score: 0.7}}

	out := Merge(local, web, StrategyLocalFirst, 10)
	require.Equal(t, model.SourceLocal, out[0].Source)
	require.InDelta(t, 0.78, out[0].Score, 1e-9)
	// Caller's slice is not mutated by the re-weighting.
	require.Equal(t, 0.6, local[0].Score)
}

func TestMergeWebFirstBoostCapsAtOne(t *testing.T) {
	web := []*model.UnifiedResult{{Source: model.SourceWeb, URL: "https://b", Content: "bb", Score: 0.9}}
	out := Merge(nil, web, StrategyWebFirst, 10)
	require.Equal(t, 1.0, out[0].Score)
}

func TestMergeInterleavedSkipsDedup(t *testing.T) {
	local := []*model.UnifiedResult{
		{Source: model.SourceLocal, URL: "u", Content: "same", Score: 0.1},
		{Source: model.SourceLocal, URL: "u2", Content: "same2", Score: 0.1},
	}
	web := []*model.UnifiedResult{
		{Source: model.SourceWeb, URL: "u", Content: "same", Score: 0.9},
	}
	out := Merge(local, web, StrategyInterleaved, 10)
	require.Len(t, out, 3)
	require.Equal(t, model.SourceLocal, out[0].Source)
	require.Equal(t, model.SourceWeb, out[1].Source)
	require.Equal(t, model.SourceLocal, out[2].Source)
}
