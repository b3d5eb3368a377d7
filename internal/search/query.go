// Package search implements the similarity query pipeline over the
// vector store.
package search

import (
	"context"
	"fmt"
	"strings"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"localagent/internal/ai"
	"localagent/internal/model"
	"localagent/internal/vectorstore"
)

const defaultTopK = 10

type Retriever struct {
	embedder ai.IEmbedder
	store    vectorstore.Store
}

func NewRetriever(embedder ai.IEmbedder, store vectorstore.Store) *Retriever {
	return &Retriever{embedder: embedder, store: store}
}

// Retrieve embeds the query once and zips the store response into hits
// by position. A blank query short-circuits to an empty list without
// touching the provider. Distances are surfaced raw; normalization
// happens only during fusion.
func (r *Retriever) Retrieve(ctx context.Context, query string, topK int, filter map[string]interface{}) ([]*model.QueryHit, error) {
	if strings.TrimSpace(query) == "" {
		return []*model.QueryHit{}, nil
	}
	if topK <= 0 {
		topK = defaultTopK
	}
	if len(filter) == 0 {
		filter = nil
	}

	vectors, err := r.embedder.EmbedBatch(ctx, []string{query})
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	if len(vectors) != 1 {
		return nil, fmt.Errorf("provider returned %d embeddings for one query", len(vectors))
	}

	res, err := r.store.Query(ctx, vectors[0], topK, filter)
	if err != nil {
		return nil, fmt.Errorf("vector query: %w", err)
	}

	hits := make([]*model.QueryHit, 0, len(res.IDs))
	for i, id := range res.IDs {
		hit := &model.QueryHit{
			ID:    id,
			Text:  res.Documents[i],
			Score: res.Distances[i],
			Meta:  res.Metadatas[i],
		}
		if meta := res.Metadatas[i]; meta != nil {
			if v, ok := meta["path"].(string); ok {
				hit.Path = v
			}
			if v, ok := meta["chunk_idx"]; ok {
				hit.ChunkIdx = toInt(v)
			}
			if v, ok := meta["file_type"].(string); ok {
				hit.FileType = v
			}
		}
		hits = append(hits, hit)
	}
	logutil.GetLogger(ctx).Debug("similarity query done", zap.Int("top_k", topK), zap.Int("hits", len(hits)))
	return hits, nil
}

// toInt tolerates the json round-trip turning ints into float64.
func toInt(v interface{}) int {
	switch n := v.(type) {
	case int:
		return n
	case int64:
		return int(n)
	case float64:
		return int(n)
	default:
		return 0
	}
}
