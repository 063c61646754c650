package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/marksync/internal/httpserver/deps"
	"github.com/MrSnakeDoc/marksync/internal/httpserver/handlers"
)

func init() { Register(registerQuery, guarded...) }

func registerQuery(r chi.Router, d deps.Deps) {
	r.Route("/api/query", func(r chi.Router) {
		r.Put("/", handlers.SetQuery(d))
		r.Delete("/", handlers.ClearQuery(d))
		r.Put("/show-all", handlers.SetShowAll(d))
		r.Put("/workspace", handlers.SetWorkspace(d))
		r.Get("/pin", handlers.Pin(d))
	})
}
