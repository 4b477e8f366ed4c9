package index

import (
	"context"
	"math"
	"sort"
	"sync"
)

// MemoryStore is an in-process Store using brute-force cosine similarity.
// It is the default backend when no database is configured.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string][]Record
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: make(map[string][]Record)}
}

func (s *MemoryStore) Replace(ctx context.Context, sessionID string, records []Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := make([]Record, len(records))
	copy(copied, records)
	s.sessions[sessionID] = copied
	return nil
}

func (s *MemoryStore) Search(ctx context.Context, sessionID string, vector []float32, topK int) ([]SearchResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	records := s.sessions[sessionID]
	if topK <= 0 || len(records) == 0 {
		return nil, nil
	}

	results := make([]SearchResult, 0, len(records))
	for _, rec := range records {
		results = append(results, SearchResult{
			Record: rec,
			Score:  cosineSimilarity(rec.Embedding, vector),
		})
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})

	if topK < len(results) {
		results = results[:topK]
	}
	return results, nil
}

func (s *MemoryStore) Drop(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, sessionID)
	return nil
}

func cosineSimilarity(a, b []float32) float32 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}

	var dot, normA, normB float64
	for i := 0; i < n; i++ {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return float32(dot / (math.Sqrt(normA) * math.Sqrt(normB)))
}
