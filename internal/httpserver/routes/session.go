package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/marksync/internal/httpserver/deps"
	"github.com/MrSnakeDoc/marksync/internal/httpserver/handlers"
)

func init() { Register(registerSession, guarded...) }

func registerSession(r chi.Router, d deps.Deps) {
	r.Put("/api/credential", handlers.SetCredential(d))
	r.Delete("/api/credential", handlers.ClearCredential(d))
}
