// Package embedcache memoizes embedding calls so that repeated index
// runs and repeated queries over the same text do not hit the provider
// again within the TTL.
package embedcache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"localagent/internal/ai"
)

// WrapLRUCacheToEmbedder decorates an embedder with a per-text
// expirable LRU. Batch calls look up each text individually, embed only
// the misses, and reassemble the output in input order.
func WrapLRUCacheToEmbedder(e ai.IEmbedder, size int, ttl time.Duration) ai.IEmbedder {
	if e == nil || size <= 0 || ttl <= 0 {
		return e
	}
	return &lruEmbedder{
		next:  e,
		cache: expirable.NewLRU[string, []float32](size, nil, ttl),
	}
}

type lruEmbedder struct {
	next  ai.IEmbedder
	cache *expirable.LRU[string, []float32]
}

func (l *lruEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	vectors := make([][]float32, len(texts))
	var missTexts []string
	var missIdx []int
	hits := 0
	for i, text := range texts {
		key := buildCacheKey(l.next.ModelName(), text)
		if cached, ok := l.cache.Get(key); ok {
			vectors[i] = cloneEmbedding(cached)
			hits++
			continue
		}
		missTexts = append(missTexts, text)
		missIdx = append(missIdx, i)
	}
	if hits > 0 {
		logutil.GetLogger(ctx).Debug("embedding cache hit (lru)", zap.Int("hits", hits), zap.Int("misses", len(missTexts)))
	}
	if len(missTexts) == 0 {
		return vectors, nil
	}
	fresh, err := l.next.EmbedBatch(ctx, missTexts)
	if err != nil {
		return nil, err
	}
	for j, idx := range missIdx {
		vectors[idx] = fresh[j]
		l.cache.Add(buildCacheKey(l.next.ModelName(), texts[idx]), cloneEmbedding(fresh[j]))
	}
	return vectors, nil
}

func (l *lruEmbedder) ModelName() string {
	return l.next.ModelName()
}

func buildCacheKey(model, text string) string {
	hash := sha256.Sum256([]byte(text))
	return model + ":" + hex.EncodeToString(hash[:])
}

func cloneEmbedding(values []float32) []float32 {
	if len(values) == 0 {
		return nil
	}
	clone := make([]float32, len(values))
	copy(clone, values)
	return clone
}
