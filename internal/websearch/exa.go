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

const defaultExaBaseURL = "https://api.exa.ai"

// exaEngine queries the Exa neural search API. Exa returns page text
// inline, so its results never need a follow-up scrape.
type exaEngine struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

func newExaEngine(apiKey, baseURL string, client *http.Client) *exaEngine {
	if baseURL == "" {
		baseURL = defaultExaBaseURL
	}
	return &exaEngine{apiKey: apiKey, baseURL: baseURL, client: client}
}

func (e *exaEngine) Name() string { return "exa" }

type exaRequest struct {
	Query      string      `json:"query"`
	NumResults int         `json:"numResults"`
	Contents   exaContents `json:"contents"`
}

type exaContents struct {
	Text bool `json:"text"`
}

type exaResponse struct {
	Results []struct {
		Title         string `json:"title"`
		URL           string `json:"url"`
		PublishedDate string `json:"publishedDate"`
		Text          string `json:"text"`
	} `json:"results"`
}

func (e *exaEngine) Search(ctx context.Context, query string, topN int) ([]*model.WebResult, error) {
	if e.apiKey == "" {
		return nil, fmt.Errorf("exa api key is not configured")
	}
	payload, err := json.Marshal(&exaRequest{Query: query, NumResults: topN, Contents: exaContents{Text: true}})
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.baseURL+"/search", bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", e.apiKey)

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("exa returned status %d: %s", resp.StatusCode, string(body))
	}

	decoded := &exaResponse{}
	if err := json.NewDecoder(resp.Body).Decode(decoded); err != nil {
		return nil, fmt.Errorf("decode exa response: %w", err)
	}
	results := make([]*model.WebResult, 0, len(decoded.Results))
	for _, r := range decoded.Results {
		snippet := firstRunes(r.Text, snippetChars)
		results = append(results, &model.WebResult{
			Title:         r.Title,
			URL:           r.URL,
			Snippet:       snippet,
			PublishedDate: r.PublishedDate,
			Source:        e.Name(),
			Text:          r.Text,
			TextLength:    len(r.Text),
		})
	}
	return results, nil
}
