package index

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"
)

// PostgresStore persists vector records in a pgvector-backed table.
// Records for a session are replaced wholesale on rebuild, matching the
// replace-not-merge index lifecycle.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

func (s *PostgresStore) Replace(ctx context.Context, sessionID string, records []Record) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM session_chunks WHERE session_id = $1`, sessionID); err != nil {
		return err
	}

	for _, rec := range records {
		_, err := tx.Exec(ctx,
			`INSERT INTO session_chunks (id, session_id, chunk_index, content, embedding)
			 VALUES ($1, $2, $3, $4, $5)`,
			rec.ID,
			sessionID,
			rec.ChunkIndex,
			rec.Content,
			pgvector.NewVector(rec.Embedding),
		)
		if err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

func (s *PostgresStore) Search(ctx context.Context, sessionID string, vector []float32, topK int) ([]SearchResult, error) {
	if topK <= 0 {
		return nil, nil
	}

	rows, err := s.pool.Query(ctx,
		`SELECT id, chunk_index, content, embedding, 1 - (embedding <=> $2) AS score
		 FROM session_chunks
		 WHERE session_id = $1
		 ORDER BY embedding <=> $2
		 LIMIT $3`,
		sessionID,
		pgvector.NewVector(vector),
		topK,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []SearchResult
	for rows.Next() {
		var rec Record
		var embedding pgvector.Vector
		var score float64
		if err := rows.Scan(&rec.ID, &rec.ChunkIndex, &rec.Content, &embedding, &score); err != nil {
			return nil, err
		}
		rec.Embedding = embedding.Slice()
		results = append(results, SearchResult{Record: rec, Score: float32(score)})
	}

	return results, rows.Err()
}

func (s *PostgresStore) Drop(ctx context.Context, sessionID string) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM session_chunks WHERE session_id = $1`, sessionID)
	return err
}
