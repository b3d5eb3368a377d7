package websearch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"localagent/internal/model"
)

const defaultSerperBaseURL = "https://google.serper.dev"

// serperEngine queries the Serper Google search API. Serper only
// returns snippets, so full page text comes from a follow-up scrape.
type serperEngine struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

func newSerperEngine(apiKey, baseURL string, client *http.Client) *serperEngine {
	if baseURL == "" {
		baseURL = defaultSerperBaseURL
	}
	return &serperEngine{apiKey: apiKey, baseURL: baseURL, client: client}
}

func (e *serperEngine) Name() string { return "serper" }

type serperRequest struct {
	Query string `json:"q"`
	Num   int    `json:"num"`
}

type serperResponse struct {
	Organic []struct {
		Title   string `json:"title"`
		Link    string `json:"link"`
		Snippet string `json:"snippet"`
		Date    string `json:"date"`
	} `json:"organic"`
}

func (e *serperEngine) Search(ctx context.Context, query string, topN int) ([]*model.WebResult, error) {
	if e.apiKey == "" {
		return nil, fmt.Errorf("serper api key is not configured")
	}
	payload, err := json.Marshal(&serperRequest{Query: query, Num: topN})
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.baseURL+"/search", bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-API-KEY", e.apiKey)

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("serper returned status %d: %s", resp.StatusCode, string(body))
	}

	decoded := &serperResponse{}
	if err := json.NewDecoder(resp.Body).Decode(decoded); err != nil {
		return nil, fmt.Errorf("decode serper response: %w", err)
	}
	results := make([]*model.WebResult, 0, len(decoded.Organic))
	for _, r := range decoded.Organic {
		results = append(results, &model.WebResult{
			Title:         r.Title,
			URL:           r.Link,
			Snippet:       r.Snippet,
			PublishedDate: r.Date,
			Source:        e.Name(),
		})
	}
	return results, nil
}
