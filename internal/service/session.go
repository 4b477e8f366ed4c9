package service

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/docchat-io/docchat/internal/domain"
	"github.com/docchat-io/docchat/internal/index"
)

// TextExtractor extracts raw text from a batch of documents.
type TextExtractor interface {
	ExtractText(docs []domain.Document) (string, error)
}

// EmbeddingClient defines the interface for generating embeddings
type EmbeddingClient interface {
	GenerateEmbedding(ctx context.Context, text string) ([]float32, error)
}

// ChatClient defines the interface for the language-model service
type ChatClient interface {
	Complete(ctx context.Context, messages []domain.ChatMessage) (string, error)
}

// DocumentArchiver stores uploaded originals in external storage.
type DocumentArchiver interface {
	Archive(ctx context.Context, sessionID string, doc domain.Document) error
}

// Session holds one user's documents, vector index state, and conversation
// history. All fields behind mu; a session is never shared across users.
type Session struct {
	ID string

	mu          sync.Mutex
	docs        []domain.Document
	indexed     bool
	indexedDocs int
	history     []domain.ConversationTurn
	createdAt   time.Time
	lastActive  time.Time
}

// CreatedAt returns the session creation time.
func (s *Session) CreatedAt() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.createdAt
}

func (s *Session) touch() {
	s.lastActive = time.Now().UTC()
}

// idleSince reports the last activity time.
func (s *Session) idleSince() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastActive
}

// historyCopy returns a snapshot of the transcript.
func (s *Session) historyCopy() []domain.ConversationTurn {
	turns := make([]domain.ConversationTurn, len(s.history))
	copy(turns, s.history)
	return turns
}

// ChatService runs the ingestion pipeline and answers questions for sessions.
type ChatService struct {
	registry  *Registry
	extractor TextExtractor
	embedder  EmbeddingClient
	chat      ChatClient
	store     index.Store
	builder   *index.Builder
	splitCfg  SplitConfig
	topK      int
	archiver  DocumentArchiver
}

// ChatServiceConfig wires the collaborators of a ChatService.
type ChatServiceConfig struct {
	Registry  *Registry
	Extractor TextExtractor
	Embedder  EmbeddingClient
	Chat      ChatClient
	Store     index.Store
	SplitCfg  SplitConfig
	TopK      int
	Archiver  DocumentArchiver
}

const DefaultTopK = 4

func NewChatService(cfg ChatServiceConfig) *ChatService {
	if cfg.SplitCfg.ChunkSize <= 0 {
		cfg.SplitCfg = DefaultSplitConfig()
	}
	if cfg.TopK <= 0 {
		cfg.TopK = DefaultTopK
	}
	return &ChatService{
		registry:  cfg.Registry,
		extractor: cfg.Extractor,
		embedder:  cfg.Embedder,
		chat:      cfg.Chat,
		store:     cfg.Store,
		builder:   index.NewBuilder(cfg.Embedder, cfg.Store),
		splitCfg:  cfg.SplitCfg,
		topK:      cfg.TopK,
		archiver:  cfg.Archiver,
	}
}

// CreateSession registers a fresh, unindexed session.
func (s *ChatService) CreateSession() *Session {
	return s.registry.Create()
}

// DeleteSession removes the session and drops its index records.
func (s *ChatService) DeleteSession(ctx context.Context, sessionID string) error {
	if _, err := s.registry.Remove(sessionID); err != nil {
		return err
	}
	if err := s.store.Drop(ctx, sessionID); err != nil {
		log.Printf("session %s: failed to drop index records: %v", sessionID, err)
	}
	return nil
}

// UploadResult describes the outcome of adding documents to a session.
type UploadResult struct {
	Documents     int
	ChunksIndexed int
	Rebuilt       bool
}

// AddDocuments appends documents to the session and rebuilds the index when
// the document count has grown past the last indexed count. Archive failures
// are logged, never fatal.
func (s *ChatService) AddDocuments(ctx context.Context, sessionID string, docs []domain.Document) (*UploadResult, error) {
	if len(docs) == 0 {
		return nil, domain.ErrNoFilesUploaded
	}

	sess, err := s.registry.Get(sessionID)
	if err != nil {
		return nil, err
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()
	sess.touch()

	if s.archiver != nil {
		for _, doc := range docs {
			if err := s.archiver.Archive(ctx, sessionID, doc); err != nil {
				log.Printf("session %s: failed to archive %q: %v", sessionID, doc.Filename, err)
			}
		}
	}

	sess.docs = append(sess.docs, docs...)

	result := &UploadResult{Documents: len(sess.docs)}
	if len(sess.docs) > sess.indexedDocs {
		n, err := s.rebuildLocked(ctx, sess)
		if err != nil {
			return nil, err
		}
		result.ChunksIndexed = n
		result.Rebuilt = true
	}

	return result, nil
}

// Rebuild runs the full pipeline over the session's retained documents,
// replacing any previous index and resetting the conversation history.
func (s *ChatService) Rebuild(ctx context.Context, sessionID string) (int, error) {
	sess, err := s.registry.Get(sessionID)
	if err != nil {
		return 0, err
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()
	sess.touch()

	return s.rebuildLocked(ctx, sess)
}

// rebuildLocked runs extract, chunk, embed, and index under the session lock.
// Any failure, including cancellation mid-build, leaves the previous index
// and history untouched.
func (s *ChatService) rebuildLocked(ctx context.Context, sess *Session) (int, error) {
	text, err := s.extractor.ExtractText(sess.docs)
	if err != nil {
		return 0, err
	}

	chunks := SplitText(text, s.splitCfg)

	n, err := s.builder.Build(ctx, sess.ID, chunks)
	if err != nil {
		return 0, err
	}

	sess.indexed = true
	sess.indexedDocs = len(sess.docs)
	// History referenced context from the replaced index; start over.
	sess.history = nil

	return n, nil
}

// Ask answers a question against the session's index. It fails with a user
// error before any index exists, and leaves the history unchanged whenever
// the embedding or chat call fails.
func (s *ChatService) Ask(ctx context.Context, sessionID, question string) (string, []domain.ConversationTurn, error) {
	if question == "" {
		return "", nil, domain.ErrEmptyQuestion
	}

	sess, err := s.registry.Get(sessionID)
	if err != nil {
		return "", nil, err
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()
	sess.touch()

	if !sess.indexed {
		return "", nil, domain.ErrNoIndex
	}

	vector, err := s.embedder.GenerateEmbedding(ctx, question)
	if err != nil {
		return "", nil, domain.NewEmbeddingError(err)
	}

	results, err := s.store.Search(ctx, sess.ID, vector, s.topK)
	if err != nil {
		return "", nil, domain.NewDomainErrorWithCause(domain.ErrCodeInternalError, "index search failed", err)
	}

	contexts := make([]string, len(results))
	for i, r := range results {
		contexts[i] = r.Record.Content
	}

	messages := buildMessages(sess.history, contexts, question)

	answer, err := s.chat.Complete(ctx, messages)
	if err != nil {
		return "", nil, domain.NewInferenceError(err)
	}

	sess.history = append(sess.history, domain.ConversationTurn{
		Question: question,
		Answer:   answer,
		AskedAt:  time.Now().UTC(),
	})

	return answer, sess.historyCopy(), nil
}

// History returns the session transcript in ask order.
func (s *ChatService) History(sessionID string) ([]domain.ConversationTurn, error) {
	sess, err := s.registry.Get(sessionID)
	if err != nil {
		return nil, err
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()
	return sess.historyCopy(), nil
}
