package fusion

import (
	"path/filepath"
	"sort"
	"strings"

	"localagent/internal/model"
)

const (
	StrategyBalanced    = "balanced"
	StrategyLocalFirst  = "local_first"
	StrategyWebFirst    = "web_first"
	StrategyInterleaved = "interleaved"

	previewChars     = 500
	fingerprintChars = 200
	goodDistance     = 0.5
	sourceBoost      = 1.3
	distanceBoost    = 1.2
	defaultMax       = 10
)

// NormalizeLocal turns raw similarity hits into unified results. The
// score is recomputed from content and filename; a vector distance
// under 0.5 earns a confidence boost.
func NormalizeLocal(query string, hits []*model.QueryHit) []*model.UnifiedResult {
	out := make([]*model.UnifiedResult, 0, len(hits))
	for _, hit := range hits {
		title := "Local Document"
		url := ""
		if hit.Path != "" {
			title = filepath.Base(hit.Path)
			url = "file://" + hit.Path
		}
		content := truncateRunes(hit.Text, previewChars)
		score := Relevance(query, content, title)
		if hit.Score < goodDistance {
			score = capScore(score * distanceBoost)
		}
		out = append(out, &model.UnifiedResult{
			Source:  model.SourceLocal,
			Title:   title,
			Content: content,
			URL:     url,
			Score:   score,
			Metadata: map[string]interface{}{
				"distance":  hit.Score,
				"path":      hit.Path,
				"chunk_id":  hit.ID,
				"full_text": hit.Text,
			},
		})
	}
	return out
}

// NormalizeWeb scores web results as a blend of search engine rank
// decay and query relevance against title plus snippet.
func NormalizeWeb(query string, results []*model.WebResult) []*model.UnifiedResult {
	out := make([]*model.UnifiedResult, 0, len(results))
	for rank, r := range results {
		decay := 1.0 - 0.08*float64(rank)
		if decay < 0.5 {
			decay = 0.5
		}
		score := 0.4*decay + 0.6*Relevance(query, r.Snippet, r.Title)
		out = append(out, &model.UnifiedResult{
			Source:  model.SourceWeb,
			Title:   r.Title,
			Content: r.Snippet,
			URL:     r.URL,
			Score:   capScore(score),
			Metadata: map[string]interface{}{
				"rank":           rank,
				"source":         r.Source,
				"published_date": r.PublishedDate,
				"full_text":      r.Text,
			},
		})
	}
	return out
}

// Merge combines both normalized lists under the named strategy.
// local_first and web_first re-weight one side by 1.3 and fall through
// to the balanced merge; interleaved alternates without dedup.
func Merge(local, web []*model.UnifiedResult, strategy string, maxResults int) []*model.UnifiedResult {
	if maxResults <= 0 {
		maxResults = defaultMax
	}
	switch strategy {
	case StrategyInterleaved:
		return interleave(local, web, maxResults)
	case StrategyLocalFirst:
		local = boost(local)
	case StrategyWebFirst:
		web = boost(web)
	}
	return rankAndDedup(append(append([]*model.UnifiedResult{}, local...), web...), maxResults)
}

func boost(results []*model.UnifiedResult) []*model.UnifiedResult {
	out := make([]*model.UnifiedResult, len(results))
	for i, r := range results {
		boosted := *r
		boosted.Score = capScore(r.Score * sourceBoost)
		out[i] = &boosted
	}
	return out
}

func interleave(local, web []*model.UnifiedResult, maxResults int) []*model.UnifiedResult {
	out := make([]*model.UnifiedResult, 0, len(local)+len(web))
	for i := 0; i < len(local) || i < len(web); i++ {
		if i < len(local) {
			out = append(out, local[i])
		}
		if i < len(web) {
			out = append(out, web[i])
		}
	}
	if len(out) > maxResults {
		out = out[:maxResults]
	}
	return out
}

func rankAndDedup(results []*model.UnifiedResult, maxResults int) []*model.UnifiedResult {
	sort.SliceStable(results, func(i, j int) bool { return results[i].Score > results[j].Score })

	seenURL := make(map[string]struct{})
	seenContent := make(map[string]struct{})
	out := make([]*model.UnifiedResult, 0, maxResults)
	for _, r := range results {
		if len(out) >= maxResults {
			break
		}
		if r.URL != "" {
			if _, ok := seenURL[r.URL]; ok {
				continue
			}
		}
		fp := strings.TrimSpace(strings.ToLower(truncateRunes(r.Content, fingerprintChars)))
		if fp != "" {
			if _, ok := seenContent[fp]; ok {
				continue
			}
		}
		if r.URL != "" {
			seenURL[r.URL] = struct{}{}
		}
		if fp != "" {
			seenContent[fp] = struct{}{}
		}
		out = append(out, r)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	return out
}

func capScore(s float64) float64 {
	if s > 1 {
		return 1
	}
	return s
}
