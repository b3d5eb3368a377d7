package vectorstore

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"
)

type qdrantConfig struct {
	URL        string `json:"url"`
	APIKey     string `json:"api_key"`
	Collection string `json:"collection"`
	TimeoutSec int    `json:"timeout_sec"`
}

// qdrantStore is a minimal REST client to Qdrant. The collection is
// created lazily on the first upsert, sized from the first batch, with
// cosine distance. Qdrant reports similarity scores, so distances are
// reported as 1 - score.
type qdrantStore struct {
	url        string
	apiKey     string
	collection string
	client     *http.Client

	initOnce sync.Once
	initErr  error
}

func newQdrantStore(args interface{}) (*qdrantStore, error) {
	cfg := &qdrantConfig{}
	if err := decodeConfig(args, cfg); err != nil {
		return nil, err
	}
	if cfg.URL == "" {
		return nil, fmt.Errorf("qdrant url is required")
	}
	if cfg.Collection == "" {
		cfg.Collection = "chunks"
	}
	timeout := time.Duration(cfg.TimeoutSec) * time.Second
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &qdrantStore{
		url:        strings.TrimRight(cfg.URL, "/"),
		apiKey:     cfg.APIKey,
		collection: cfg.Collection,
		client:     &http.Client{Timeout: timeout},
	}, nil
}

func (s *qdrantStore) ensureCollection(ctx context.Context, dimension int) error {
	s.initOnce.Do(func() {
		body := map[string]interface{}{
			"vectors": map[string]interface{}{
				"size":     dimension,
				"distance": "Cosine",
			},
		}
		// Qdrant returns 200 when the collection already exists with
		// the same schema.
		s.initErr = s.putJSON(ctx, fmt.Sprintf("%s/collections/%s", s.url, s.collection), body, nil)
	})
	return s.initErr
}

func (s *qdrantStore) Upsert(ctx context.Context, batch *UpsertBatch) error {
	if err := batch.validate(); err != nil {
		return err
	}
	if len(batch.IDs) == 0 {
		return nil
	}
	if err := s.ensureCollection(ctx, len(batch.Embeddings[0])); err != nil {
		return err
	}
	points := make([]map[string]interface{}, len(batch.IDs))
	for i, id := range batch.IDs {
		payload := map[string]interface{}{
			"document": batch.Documents[i],
		}
		for k, v := range batch.Metadatas[i] {
			payload[k] = v
		}
		points[i] = map[string]interface{}{
			"id":      id,
			"vector":  batch.Embeddings[i],
			"payload": payload,
		}
	}
	body := map[string]interface{}{"points": points}
	return s.putJSON(ctx, fmt.Sprintf("%s/collections/%s/points?wait=true", s.url, s.collection), body, nil)
}

func (s *qdrantStore) Query(ctx context.Context, embedding []float32, topK int, filter map[string]interface{}) (*QueryResult, error) {
	filter = normalizeFilter(filter)
	if topK <= 0 {
		topK = 10
	}
	req := map[string]interface{}{
		"vector":       embedding,
		"limit":        topK,
		"with_payload": true,
	}
	if filter != nil {
		var must []map[string]interface{}
		for k, v := range filter {
			must = append(must, map[string]interface{}{
				"key":   k,
				"match": map[string]interface{}{"value": v},
			})
		}
		req["filter"] = map[string]interface{}{"must": must}
	}

	var resp struct {
		Result []struct {
			ID      interface{}            `json:"id"`
			Score   float64                `json:"score"`
			Payload map[string]interface{} `json:"payload"`
		} `json:"result"`
	}
	if err := s.postJSON(ctx, fmt.Sprintf("%s/collections/%s/points/search", s.url, s.collection), req, &resp); err != nil {
		return nil, err
	}

	res := &QueryResult{}
	for _, r := range resp.Result {
		document, _ := r.Payload["document"].(string)
		meta := make(map[string]interface{}, len(r.Payload))
		for k, v := range r.Payload {
			if k == "document" {
				continue
			}
			meta[k] = v
		}
		res.IDs = append(res.IDs, fmt.Sprintf("%v", r.ID))
		res.Documents = append(res.Documents, document)
		res.Metadatas = append(res.Metadatas, meta)
		res.Distances = append(res.Distances, 1-r.Score)
	}
	return res, nil
}

func (s *qdrantStore) Count(ctx context.Context) (int64, error) {
	var resp struct {
		Result struct {
			Count int64 `json:"count"`
		} `json:"result"`
	}
	err := s.postJSON(ctx, fmt.Sprintf("%s/collections/%s/points/count", s.url, s.collection),
		map[string]interface{}{"exact": true}, &resp)
	if err != nil {
		return 0, err
	}
	return resp.Result.Count, nil
}

func (s *qdrantStore) putJSON(ctx context.Context, url string, body interface{}, out interface{}) error {
	return s.doJSON(ctx, http.MethodPut, url, body, out)
}

func (s *qdrantStore) postJSON(ctx context.Context, url string, body interface{}, out interface{}) error {
	return s.doJSON(ctx, http.MethodPost, url, body, out)
}

func (s *qdrantStore) doJSON(ctx context.Context, method, url string, body interface{}, out interface{}) error {
	data, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, method, url, bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if s.apiKey != "" {
		req.Header.Set("api-key", s.apiKey)
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("qdrant %s %s failed: %s", method, url, resp.Status)
	}
	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}
