// Package index builds and queries per-session vector indexes over text chunks.
package index

import "context"

// Record is a chunk paired with its embedding, owned by a Store.
type Record struct {
	ID         string
	ChunkIndex int
	Content    string
	Embedding  []float32
}

// SearchResult is a record matched by a similarity search.
type SearchResult struct {
	Record Record
	Score  float32
}

// Store holds vector records per session and answers k-nearest-neighbor
// queries by cosine similarity. Implementations must isolate sessions from
// each other.
type Store interface {
	// Replace atomically swaps the session's records for the given set.
	// Callers never observe a half-built index.
	Replace(ctx context.Context, sessionID string, records []Record) error

	// Search returns up to topK records most similar to the query vector,
	// ordered by descending score.
	Search(ctx context.Context, sessionID string, vector []float32, topK int) ([]SearchResult, error)

	// Drop removes all records for the session.
	Drop(ctx context.Context, sessionID string) error
}
