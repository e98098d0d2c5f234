package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"cryptoanalyst/pkg/cryptoanalyst"
)

// NewRouter builds the HTTP API router.
func NewRouter(core *cryptoanalyst.Core) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(requestLoggingMiddleware(core.Logger()))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	h := &handler{core: core}

	r.Get("/api/health", h.health)

	// Analysis
	r.Post("/api/analyze", h.analyze)

	// Chat sessions
	r.Get("/api/sessions", h.listSessions)
	r.Post("/api/sessions", h.saveSession)
	r.Get("/api/sessions/{id}", h.loadSession)
	r.Put("/api/sessions/{id}", h.updateSession)
	r.Delete("/api/sessions/{id}", h.deleteSession)

	return r
}

type handler struct {
	core *cryptoanalyst.Core
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
