package embedcache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type countingEmbedder struct {
	calls int
	texts int
}

func (c *countingEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	c.calls++
	c.texts += len(texts)
	out := make([][]float32, len(texts))
	for i, text := range texts {
		out[i] = []float32{float32(len(text))}
	}
	return out, nil
}

func (c *countingEmbedder) ModelName() string { return "test-model" }

func TestLRUEmbedderCachesRepeatedTexts(t *testing.T) {
	inner := &countingEmbedder{}
	cached := WrapLRUCacheToEmbedder(inner, 100, time.Minute)

	first, err := cached.EmbedBatch(context.Background(), []string{"alpha", "beta"})
	require.NoError(t, err)
	require.Len(t, first, 2)
	require.Equal(t, 1, inner.calls)

	second, err := cached.EmbedBatch(context.Background(), []string{"alpha", "beta"})
	require.NoError(t, err)
	require.Equal(t, first, second)
	require.Equal(t, 1, inner.calls, "second batch should be fully served from cache")
}

func TestLRUEmbedderPartialMissKeepsOrder(t *testing.T) {
	inner := &countingEmbedder{}
	cached := WrapLRUCacheToEmbedder(inner, 100, time.Minute)

	_, err := cached.EmbedBatch(context.Background(), []string{"aa"})
	require.NoError(t, err)

	out, err := cached.EmbedBatch(context.Background(), []string{"bbbb", "aa", "cc"})
	require.NoError(t, err)
	require.Equal(t, float32(4), out[0][0])
	require.Equal(t, float32(2), out[1][0])
	require.Equal(t, float32(2), out[2][0])
	require.Equal(t, 2, inner.calls)
	require.Equal(t, 3, inner.texts, "cached text must not be re-sent")
}

func TestWrapDisabledReturnsOriginal(t *testing.T) {
	inner := &countingEmbedder{}
	require.Equal(t, inner, WrapLRUCacheToEmbedder(inner, 0, time.Minute))
}
