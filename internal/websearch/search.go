// Package websearch runs web queries against a prioritized list of
// search engines, with optional page scraping for engines that only
// return snippets.
package websearch

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"localagent/internal/model"
)

const (
	maxEngines   = 3
	snippetChars = 300
)

// Engine is one search backend.
type Engine interface {
	Name() string
	Search(ctx context.Context, query string, topN int) ([]*model.WebResult, error)
}

// Response carries the winning engine's results plus the failures that
// happened on the way there.
type Response struct {
	EngineUsed    string
	Results       []*model.WebResult
	AttemptErrors []string
	Fetches       []*model.FetchLog
}

type Searcher struct {
	engines map[string]Engine
	client  *http.Client
}

type SearcherOption func(*Searcher)

// WithBaseURLs overrides the engine endpoints, used by tests.
func WithBaseURLs(exaURL, serperURL string) SearcherOption {
	return func(s *Searcher) {
		for name, engine := range s.engines {
			switch e := engine.(type) {
			case *exaEngine:
				if exaURL != "" {
					e.baseURL = exaURL
				}
			case *serperEngine:
				if serperURL != "" {
					e.baseURL = serperURL
				}
			}
			s.engines[name] = engine
		}
	}
}

func NewSearcher(exaAPIKey, serperAPIKey string, opts ...SearcherOption) *Searcher {
	client := &http.Client{Timeout: 30 * time.Second}
	s := &Searcher{
		client: client,
		engines: map[string]Engine{
			"exa":    newExaEngine(exaAPIKey, "", client),
			"serper": newSerperEngine(serperAPIKey, "", client),
		},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ParseEngines validates a prioritized engine list such as
// "exa|serper" or "serper,exa". Unknown names are rejected, duplicates
// collapse, and at most three engines are kept.
func ParseEngines(spec string) ([]string, error) {
	spec = strings.TrimSpace(spec)
	if spec == "" {
		return []string{"exa", "serper"}, nil
	}
	fields := strings.FieldsFunc(spec, func(r rune) bool { return r == '|' || r == ',' })
	seen := make(map[string]struct{})
	var engines []string
	for _, field := range fields {
		name := strings.ToLower(strings.TrimSpace(field))
		if name == "" {
			continue
		}
		if name != "exa" && name != "serper" {
			return nil, fmt.Errorf("unknown web search engine: %s", name)
		}
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		engines = append(engines, name)
		if len(engines) == maxEngines {
			break
		}
	}
	if len(engines) == 0 {
		return nil, fmt.Errorf("no web search engine specified")
	}
	return engines, nil
}

// Search tries each engine in order and returns on the first success.
// Per-engine failures are recorded, not fatal, unless every engine
// fails. scrapeText fetches page bodies for results that arrived
// without text.
func (s *Searcher) Search(ctx context.Context, query string, engines []string, topN int, scrapeText bool) (*Response, error) {
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("query must not be empty")
	}
	if topN <= 0 {
		topN = 5
	}
	if len(engines) == 0 {
		engines = []string{"exa", "serper"}
	}

	logger := logutil.GetLogger(ctx)
	resp := &Response{}
	for _, name := range engines {
		engine, ok := s.engines[name]
		if !ok {
			resp.AttemptErrors = append(resp.AttemptErrors, fmt.Sprintf("%s: unknown engine", name))
			continue
		}
		results, err := engine.Search(ctx, query, topN)
		if err != nil {
			logger.Warn("web search engine failed", zap.String("engine", name), zap.Error(err))
			resp.AttemptErrors = append(resp.AttemptErrors, fmt.Sprintf("%s: %v", name, err))
			continue
		}
		resp.EngineUsed = name
		resp.Results = results
		break
	}
	if resp.EngineUsed == "" {
		return nil, fmt.Errorf("all web search engines failed: %s", strings.Join(resp.AttemptErrors, "; "))
	}

	if scrapeText {
		s.scrapeMissingText(ctx, resp)
	}
	return resp, nil
}

func (s *Searcher) scrapeMissingText(ctx context.Context, resp *Response) {
	logger := logutil.GetLogger(ctx)
	for _, r := range resp.Results {
		if r.Text != "" || r.URL == "" {
			continue
		}
		text, status, err := FetchPageText(ctx, s.client, r.URL)
		fetch := &model.FetchLog{URL: r.URL, Status: status, Length: len(text)}
		if err != nil {
			fetch.Error = err.Error()
			r.ScrapeStatus = "failed"
			r.ScrapeError = err.Error()
			logger.Warn("page scrape failed", zap.String("url", r.URL), zap.Error(err))
		} else {
			fetch.OK = true
			r.Text = text
			r.TextLength = len(text)
			r.ScrapeStatus = "ok"
		}
		resp.Fetches = append(resp.Fetches, fetch)
	}
}

func firstRunes(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}
