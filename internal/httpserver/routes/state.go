package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/marksync/internal/httpserver/deps"
	"github.com/MrSnakeDoc/marksync/internal/httpserver/handlers"
)

func init() { Register(registerState, guarded...) }

func registerState(r chi.Router, d deps.Deps) {
	r.Get("/api/state", handlers.State(d))
	r.Post("/api/refetch", handlers.Refetch(d))
	r.Post("/api/visibility", handlers.Visibility(d))
}
