package index

import (
	"context"

	"github.com/google/uuid"

	"github.com/docchat-io/docchat/internal/domain"
)

// Embedder generates a fixed-dimension vector for a piece of text.
type Embedder interface {
	GenerateEmbedding(ctx context.Context, text string) ([]float32, error)
}

// Builder embeds chunks and installs them into a Store.
type Builder struct {
	embedder Embedder
	store    Store
}

func NewBuilder(embedder Embedder, store Store) *Builder {
	return &Builder{embedder: embedder, store: store}
}

// Build embeds every chunk and replaces the session's index with the result.
// All embeddings are generated before the store is touched, so a failure part
// way through leaves the previous index intact. An empty chunk list yields a
// valid empty index.
func (b *Builder) Build(ctx context.Context, sessionID string, chunks []string) (int, error) {
	records := make([]Record, 0, len(chunks))
	for i, chunk := range chunks {
		embedding, err := b.embedder.GenerateEmbedding(ctx, chunk)
		if err != nil {
			return 0, domain.NewEmbeddingError(err)
		}
		records = append(records, Record{
			ID:         uuid.NewString(),
			ChunkIndex: i,
			Content:    chunk,
			Embedding:  embedding,
		})
	}

	if err := b.store.Replace(ctx, sessionID, records); err != nil {
		return 0, domain.NewDomainErrorWithCause(domain.ErrCodeInternalError, "failed to store index", err)
	}

	return len(records), nil
}
