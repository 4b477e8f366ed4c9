package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/docchat-io/docchat/internal/api"
	"github.com/docchat-io/docchat/internal/api/handlers"
	"github.com/docchat-io/docchat/internal/api/middleware"
)

type RouterConfig struct {
	SessionHandler *handlers.SessionHandler
	MaxBodyBytes   int64
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	maxBodyBytes := cfg.MaxBodyBytes
	if maxBodyBytes <= 0 {
		maxBodyBytes = 32 * 1024 * 1024
	}

	r.Use(middleware.RequestID)
	r.Use(middleware.SentryMiddleware)
	r.Use(middleware.AccessLog)
	r.Use(middleware.MaxBodyBytes(maxBodyBytes))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		api.Success(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/sessions", func(r chi.Router) {
		r.Post("/", cfg.SessionHandler.Create)
		r.Delete("/{id}", cfg.SessionHandler.Delete)
		r.Post("/{id}/documents", cfg.SessionHandler.Upload)
		r.Post("/{id}/rebuild", cfg.SessionHandler.Rebuild)
		r.Post("/{id}/ask", cfg.SessionHandler.Ask)
		r.Get("/{id}/history", cfg.SessionHandler.History)
	})

	return r
}
