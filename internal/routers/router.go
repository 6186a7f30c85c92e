package routers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"collabtext/internal/api"
	"collabtext/internal/config"
)

// Request deadline for the REST routes. The socket route stays outside
// it; collaboration connections are long-lived.
var apiTimeout = 60 * time.Second

// New wires the REST surface and the collaboration socket.
func New(cfg *config.Config, h *api.Handlers) http.Handler {
	r := chi.NewRouter()

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{cfg.CORSOrigin},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
	}))

	r.Get("/health", h.Health)

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.Timeout(apiTimeout))
		r.Get("/documents", h.ListDocuments)
		r.Post("/documents", h.CreateDocument)
		r.Get("/documents/search", h.SearchDocuments)
		r.Post("/documents/cleanup", h.CleanupDocuments)
		r.Get("/documents/{id}", h.GetDocument)
		r.Get("/documents/{id}/export", h.ExportDocument)
		r.Get("/documents/{id}/participants", h.DocumentParticipants)
		r.Get("/stats", h.Stats)
	})

	r.Get("/ws", h.CollabWS)

	return r
}
