package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/docchat-io/docchat/internal/domain"
	"github.com/docchat-io/docchat/internal/service"
)

// MockSessionService is a mock implementation of SessionService
type MockSessionService struct {
	mock.Mock
}

func (m *MockSessionService) CreateSession() *service.Session {
	args := m.Called()
	return args.Get(0).(*service.Session)
}

func (m *MockSessionService) DeleteSession(ctx context.Context, sessionID string) error {
	args := m.Called(ctx, sessionID)
	return args.Error(0)
}

func (m *MockSessionService) AddDocuments(ctx context.Context, sessionID string, docs []domain.Document) (*service.UploadResult, error) {
	args := m.Called(ctx, sessionID, docs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.UploadResult), args.Error(1)
}

func (m *MockSessionService) Rebuild(ctx context.Context, sessionID string) (int, error) {
	args := m.Called(ctx, sessionID)
	return args.Int(0), args.Error(1)
}

func (m *MockSessionService) Ask(ctx context.Context, sessionID, question string) (string, []domain.ConversationTurn, error) {
	args := m.Called(ctx, sessionID, question)
	if args.Get(1) == nil {
		return args.String(0), nil, args.Error(2)
	}
	return args.String(0), args.Get(1).([]domain.ConversationTurn), args.Error(2)
}

func (m *MockSessionService) History(sessionID string) ([]domain.ConversationTurn, error) {
	args := m.Called(sessionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.ConversationTurn), args.Error(1)
}

func requestWithID(method, url string, body *bytes.Buffer, id string) *http.Request {
	if body == nil {
		body = &bytes.Buffer{}
	}
	req := httptest.NewRequest(method, url, body)
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("id", id)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

func multipartBody(t *testing.T, filename, content string) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("files", filename)
	require.NoError(t, err)
	_, err = part.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, writer.Close())
	return body, writer.FormDataContentType()
}

func TestSessionHandler_Create(t *testing.T) {
	mockSvc := new(MockSessionService)
	handler := NewSessionHandler(mockSvc)

	mockSvc.On("CreateSession").Return(&service.Session{ID: "sess-123"})

	req := httptest.NewRequest(http.MethodPost, "/sessions", nil)
	w := httptest.NewRecorder()

	handler.Create(w, req)

	assert.Equal(t, http.StatusCreated, w.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	data := resp["data"].(map[string]interface{})
	assert.Equal(t, "sess-123", data["id"])
	mockSvc.AssertExpectations(t)
}

func TestSessionHandler_Delete(t *testing.T) {
	mockSvc := new(MockSessionService)
	handler := NewSessionHandler(mockSvc)

	mockSvc.On("DeleteSession", mock.Anything, "sess-123").Return(nil)

	req := requestWithID(http.MethodDelete, "/sessions/sess-123", nil, "sess-123")
	w := httptest.NewRecorder()

	handler.Delete(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "deleted")
	mockSvc.AssertExpectations(t)
}

func TestSessionHandler_Delete_NotFound(t *testing.T) {
	mockSvc := new(MockSessionService)
	handler := NewSessionHandler(mockSvc)

	mockSvc.On("DeleteSession", mock.Anything, "missing").Return(domain.ErrSessionNotFound)

	req := requestWithID(http.MethodDelete, "/sessions/missing", nil, "missing")
	w := httptest.NewRecorder()

	handler.Delete(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "session not found")
}

func TestSessionHandler_Upload(t *testing.T) {
	mockSvc := new(MockSessionService)
	handler := NewSessionHandler(mockSvc)

	mockSvc.On("AddDocuments", mock.Anything, "sess-123", mock.MatchedBy(func(docs []domain.Document) bool {
		return len(docs) == 1 &&
			docs[0].Filename == "report.pdf" &&
			docs[0].Type == domain.DocumentTypePDF &&
			string(docs[0].Content) == "fake pdf bytes"
	})).Return(&service.UploadResult{Documents: 1, ChunksIndexed: 3, Rebuilt: true}, nil)

	body, contentType := multipartBody(t, "report.pdf", "fake pdf bytes")
	req := requestWithID(http.MethodPost, "/sessions/sess-123/documents", body, "sess-123")
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()

	handler.Upload(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	data := resp["data"].(map[string]interface{})
	assert.Equal(t, float64(1), data["documents"])
	assert.Equal(t, float64(3), data["chunks_indexed"])
	assert.Equal(t, true, data["rebuilt"])
	mockSvc.AssertExpectations(t)
}

func TestSessionHandler_Upload_NoFiles(t *testing.T) {
	mockSvc := new(MockSessionService)
	handler := NewSessionHandler(mockSvc)

	mockSvc.On("AddDocuments", mock.Anything, "sess-123", mock.Anything).Return(nil, domain.ErrNoFilesUploaded)

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	require.NoError(t, writer.Close())

	req := requestWithID(http.MethodPost, "/sessions/sess-123/documents", body, "sess-123")
	req.Header.Set("Content-Type", writer.FormDataContentType())
	w := httptest.NewRecorder()

	handler.Upload(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "no files in upload")
}

func TestSessionHandler_Upload_ExtractionError(t *testing.T) {
	mockSvc := new(MockSessionService)
	handler := NewSessionHandler(mockSvc)

	extractErr := domain.NewExtractionError("broken.pdf", assert.AnError)
	mockSvc.On("AddDocuments", mock.Anything, "sess-123", mock.Anything).Return(nil, extractErr)

	body, contentType := multipartBody(t, "broken.pdf", "garbage")
	req := requestWithID(http.MethodPost, "/sessions/sess-123/documents", body, "sess-123")
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()

	handler.Upload(w, req)

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Contains(t, w.Body.String(), "broken.pdf")
}

func TestSessionHandler_Upload_InvalidForm(t *testing.T) {
	mockSvc := new(MockSessionService)
	handler := NewSessionHandler(mockSvc)

	req := requestWithID(http.MethodPost, "/sessions/sess-123/documents", bytes.NewBufferString("not multipart"), "sess-123")
	req.Header.Set("Content-Type", "text/plain")
	w := httptest.NewRecorder()

	handler.Upload(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "invalid multipart form")
}

func TestSessionHandler_Rebuild(t *testing.T) {
	mockSvc := new(MockSessionService)
	handler := NewSessionHandler(mockSvc)

	mockSvc.On("Rebuild", mock.Anything, "sess-123").Return(7, nil)

	req := requestWithID(http.MethodPost, "/sessions/sess-123/rebuild", nil, "sess-123")
	w := httptest.NewRecorder()

	handler.Rebuild(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	data := resp["data"].(map[string]interface{})
	assert.Equal(t, float64(7), data["chunks_indexed"])
}

func TestSessionHandler_Ask(t *testing.T) {
	mockSvc := new(MockSessionService)
	handler := NewSessionHandler(mockSvc)

	askedAt := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	turns := []domain.ConversationTurn{
		{Question: "what is it about?", Answer: "It is about chunking.", AskedAt: askedAt},
	}
	mockSvc.On("Ask", mock.Anything, "sess-123", "what is it about?").Return("It is about chunking.", turns, nil)

	body := bytes.NewBufferString(`{"question":"what is it about?"}`)
	req := requestWithID(http.MethodPost, "/sessions/sess-123/ask", body, "sess-123")
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()

	handler.Ask(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	data := resp["data"].(map[string]interface{})
	assert.Equal(t, "It is about chunking.", data["answer"])
	history := data["history"].([]interface{})
	require.Len(t, history, 1)
	turn := history[0].(map[string]interface{})
	assert.Equal(t, "what is it about?", turn["question"])
	assert.Equal(t, "2025-06-01T12:00:00Z", turn["asked_at"])
	mockSvc.AssertExpectations(t)
}

func TestSessionHandler_Ask_InvalidJSON(t *testing.T) {
	mockSvc := new(MockSessionService)
	handler := NewSessionHandler(mockSvc)

	req := requestWithID(http.MethodPost, "/sessions/sess-123/ask", bytes.NewBufferString(`{invalid`), "sess-123")
	w := httptest.NewRecorder()

	handler.Ask(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "invalid request body")
	mockSvc.AssertNotCalled(t, "Ask", mock.Anything, mock.Anything, mock.Anything)
}

func TestSessionHandler_Ask_EmptyQuestion(t *testing.T) {
	mockSvc := new(MockSessionService)
	handler := NewSessionHandler(mockSvc)

	req := requestWithID(http.MethodPost, "/sessions/sess-123/ask", bytes.NewBufferString(`{"question":""}`), "sess-123")
	w := httptest.NewRecorder()

	handler.Ask(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "question is required")
}

func TestSessionHandler_Ask_BeforeIndex(t *testing.T) {
	mockSvc := new(MockSessionService)
	handler := NewSessionHandler(mockSvc)

	mockSvc.On("Ask", mock.Anything, "sess-123", "anything?").Return("", nil, domain.ErrNoIndex)

	req := requestWithID(http.MethodPost, "/sessions/sess-123/ask", bytes.NewBufferString(`{"question":"anything?"}`), "sess-123")
	w := httptest.NewRecorder()

	handler.Ask(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "no documents indexed yet")
}

func TestSessionHandler_Ask_InferenceError(t *testing.T) {
	mockSvc := new(MockSessionService)
	handler := NewSessionHandler(mockSvc)

	mockSvc.On("Ask", mock.Anything, "sess-123", "anything?").Return("", nil, domain.NewInferenceError(assert.AnError))

	req := requestWithID(http.MethodPost, "/sessions/sess-123/ask", bytes.NewBufferString(`{"question":"anything?"}`), "sess-123")
	w := httptest.NewRecorder()

	handler.Ask(w, req)

	assert.Equal(t, http.StatusBadGateway, w.Code)
}

func TestSessionHandler_History(t *testing.T) {
	mockSvc := new(MockSessionService)
	handler := NewSessionHandler(mockSvc)

	askedAt := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	mockSvc.On("History", "sess-123").Return([]domain.ConversationTurn{
		{Question: "q1", Answer: "a1", AskedAt: askedAt},
		{Question: "q2", Answer: "a2", AskedAt: askedAt.Add(time.Minute)},
	}, nil)

	req := requestWithID(http.MethodGet, "/sessions/sess-123/history", nil, "sess-123")
	w := httptest.NewRecorder()

	handler.History(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	data := resp["data"].(map[string]interface{})
	turns := data["turns"].([]interface{})
	require.Len(t, turns, 2)
	first := turns[0].(map[string]interface{})
	assert.Equal(t, "q1", first["question"])
	assert.Equal(t, "a1", first["answer"])
}

func TestSessionHandler_History_Empty(t *testing.T) {
	mockSvc := new(MockSessionService)
	handler := NewSessionHandler(mockSvc)

	mockSvc.On("History", "sess-123").Return([]domain.ConversationTurn{}, nil)

	req := requestWithID(http.MethodGet, "/sessions/sess-123/history", nil, "sess-123")
	w := httptest.NewRecorder()

	handler.History(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, strings.Contains(w.Body.String(), `"turns":[]`))
}
