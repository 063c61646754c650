package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/marksync/internal/httpserver/deps"
	"github.com/MrSnakeDoc/marksync/internal/httpserver/handlers"
	"github.com/MrSnakeDoc/marksync/internal/httpserver/mw"
)

func init() { Register(registerBookmarks, guarded...) }

func registerBookmarks(r chi.Router, d deps.Deps) {
	limit := mw.RateLimit(mw.RateLimitConfig{
		Burst:             d.MutationBurst,
		RefillPerIPPerMin: d.MutationPerMinute,
		MaxEntries:        1024,
		TrustProxy:        d.TrustProxy,
		Now:               d.TimeNow,
	}, d.Logger)

	r.With(limit).Route("/api/bookmarks", func(r chi.Router) {
		r.Post("/", handlers.CreateBookmark(d))
		r.Post("/bulk/update", handlers.BulkUpdate(d))
		r.Post("/bulk/delete", handlers.BulkDelete(d))
		r.Put("/{id}", handlers.UpdateBookmark(d))
		r.Delete("/{id}", handlers.DeleteBookmark(d))
		r.Post("/{id}/refresh", handlers.RefreshBookmark(d))
	})
}
