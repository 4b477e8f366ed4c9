package handlers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/docchat-io/docchat/internal/api"
	"github.com/docchat-io/docchat/internal/domain"
	"github.com/docchat-io/docchat/internal/service"
)

// SessionService is the part of the chat service used by the HTTP layer.
type SessionService interface {
	CreateSession() *service.Session
	DeleteSession(ctx context.Context, sessionID string) error
	AddDocuments(ctx context.Context, sessionID string, docs []domain.Document) (*service.UploadResult, error)
	Rebuild(ctx context.Context, sessionID string) (int, error)
	Ask(ctx context.Context, sessionID, question string) (string, []domain.ConversationTurn, error)
	History(sessionID string) ([]domain.ConversationTurn, error)
}

type SessionHandler struct {
	svc SessionService
}

func NewSessionHandler(svc SessionService) *SessionHandler {
	return &SessionHandler{svc: svc}
}

type SessionResponse struct {
	ID        string `json:"id"`
	CreatedAt string `json:"created_at"`
}

type UploadResponse struct {
	Documents     int  `json:"documents"`
	ChunksIndexed int  `json:"chunks_indexed"`
	Rebuilt       bool `json:"rebuilt"`
}

type RebuildResponse struct {
	ChunksIndexed int `json:"chunks_indexed"`
}

type AskRequest struct {
	Question string `json:"question"`
}

type TurnResponse struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
	AskedAt  string `json:"asked_at"`
}

type AskResponse struct {
	Answer  string         `json:"answer"`
	History []TurnResponse `json:"history"`
}

type HistoryResponse struct {
	Turns []TurnResponse `json:"turns"`
}

func turnsToResponse(turns []domain.ConversationTurn) []TurnResponse {
	out := make([]TurnResponse, len(turns))
	for i, t := range turns {
		out[i] = TurnResponse{
			Question: t.Question,
			Answer:   t.Answer,
			AskedAt:  t.AskedAt.Format("2006-01-02T15:04:05Z"),
		}
	}
	return out
}

func (h *SessionHandler) Create(w http.ResponseWriter, r *http.Request) {
	sess := h.svc.CreateSession()
	api.Success(w, http.StatusCreated, SessionResponse{
		ID:        sess.ID,
		CreatedAt: sess.CreatedAt().Format("2006-01-02T15:04:05Z"),
	})
}

func (h *SessionHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		api.Error(w, http.StatusBadRequest, "id is required")
		return
	}

	if err := h.svc.DeleteSession(r.Context(), id); err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, map[string]string{"id": id, "status": "deleted"})
}

// Upload accepts a multipart form with one or more files under the "files"
// field and feeds them into the session's ingestion pipeline.
func (h *SessionHandler) Upload(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		api.Error(w, http.StatusBadRequest, "id is required")
		return
	}

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid multipart form")
		return
	}

	headers := r.MultipartForm.File["files"]
	docs := make([]domain.Document, 0, len(headers))
	for _, header := range headers {
		file, err := header.Open()
		if err != nil {
			api.Error(w, http.StatusBadRequest, "failed to read uploaded file")
			return
		}
		content, err := io.ReadAll(file)
		file.Close()
		if err != nil {
			api.Error(w, http.StatusBadRequest, "failed to read uploaded file")
			return
		}
		docs = append(docs, domain.NewDocument(header.Filename, content))
	}

	result, err := h.svc.AddDocuments(r.Context(), id, docs)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, UploadResponse{
		Documents:     result.Documents,
		ChunksIndexed: result.ChunksIndexed,
		Rebuilt:       result.Rebuilt,
	})
}

func (h *SessionHandler) Rebuild(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		api.Error(w, http.StatusBadRequest, "id is required")
		return
	}

	n, err := h.svc.Rebuild(r.Context(), id)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, RebuildResponse{ChunksIndexed: n})
}

func (h *SessionHandler) Ask(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		api.Error(w, http.StatusBadRequest, "id is required")
		return
	}

	var req AskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Question == "" {
		api.Error(w, http.StatusBadRequest, "question is required")
		return
	}

	answer, history, err := h.svc.Ask(r.Context(), id, req.Question)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, AskResponse{
		Answer:  answer,
		History: turnsToResponse(history),
	})
}

func (h *SessionHandler) History(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		api.Error(w, http.StatusBadRequest, "id is required")
		return
	}

	turns, err := h.svc.History(id)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, HistoryResponse{Turns: turnsToResponse(turns)})
}
