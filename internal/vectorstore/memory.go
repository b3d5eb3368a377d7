package vectorstore

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"
)

// MemoryStore keeps vectors in process memory. It backs the "memory"
// config option for single-node setups without external dependencies,
// and doubles as the store used by pipeline tests.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]*memoryRecord
}

type memoryRecord struct {
	id        string
	document  string
	metadata  map[string]interface{}
	embedding []float32
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[string]*memoryRecord)}
}

func (s *MemoryStore) Upsert(ctx context.Context, batch *UpsertBatch) error {
	if err := batch.validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, id := range batch.IDs {
		s.records[id] = &memoryRecord{
			id:        id,
			document:  batch.Documents[i],
			metadata:  batch.Metadatas[i],
			embedding: batch.Embeddings[i],
		}
	}
	return nil
}

func (s *MemoryStore) Query(ctx context.Context, embedding []float32, topK int, filter map[string]interface{}) (*QueryResult, error) {
	filter = normalizeFilter(filter)
	s.mu.RLock()
	defer s.mu.RUnlock()

	type scored struct {
		rec      *memoryRecord
		distance float64
	}
	var matches []scored
	for _, rec := range s.records {
		if !matchesFilter(rec.metadata, filter) {
			continue
		}
		matches = append(matches, scored{rec: rec, distance: cosineDistance(embedding, rec.embedding)})
	}
	sort.Slice(matches, func(i, j int) bool { return matches[i].distance < matches[j].distance })
	if topK > 0 && len(matches) > topK {
		matches = matches[:topK]
	}

	res := &QueryResult{}
	for _, m := range matches {
		res.IDs = append(res.IDs, m.rec.id)
		res.Documents = append(res.Documents, m.rec.document)
		res.Metadatas = append(res.Metadatas, m.rec.metadata)
		res.Distances = append(res.Distances, m.distance)
	}
	return res, nil
}

func (s *MemoryStore) Count(ctx context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return int64(len(s.records)), nil
}

func matchesFilter(metadata, filter map[string]interface{}) bool {
	for k, want := range filter {
		got, ok := metadata[k]
		if !ok || !sameValue(got, want) {
			return false
		}
	}
	return true
}

// sameValue matches across JSON round-trips, where every number decodes
// as float64 regardless of the stored Go type.
func sameValue(got, want interface{}) bool {
	gf, gok := toFloat(got)
	wf, wok := toFloat(want)
	if gok || wok {
		return gok && wok && gf == wf
	}
	return fmt.Sprint(got) == fmt.Sprint(want)
}

func toFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	default:
		return 0, false
	}
}

func cosineDistance(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 1
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 1
	}
	return 1 - dot/(math.Sqrt(normA)*math.Sqrt(normB))
}
