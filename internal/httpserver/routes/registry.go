package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/marksync/internal/httpserver/deps"
	"github.com/MrSnakeDoc/marksync/internal/httpserver/mw"
)

type (
	Registrar  func(r chi.Router, d deps.Deps)
	Middleware = func(http.Handler) http.Handler
	// MiddlewareFactory builds a middleware once the deps are known.
	MiddlewareFactory func(d deps.Deps) Middleware
)

type entry struct {
	reg Registrar
	mws []MiddlewareFactory
}

var registry []entry

// guarded restricts a group to the allowed networks and hosts.
var guarded = []MiddlewareFactory{
	func(d deps.Deps) Middleware { return mw.AllowOnlyCIDRS(d.AllowedCIDRS, d.TrustProxy, d.Logger) },
	func(d deps.Deps) Middleware { return mw.EnforceHost(d.AllowedHosts, d.Logger) },
}

// Register a registrar with optional per-group middlewares.
func Register(reg Registrar, mws ...MiddlewareFactory) {
	registry = append(registry, entry{reg: reg, mws: mws})
}

// Called once from server.New()
func RegisterAll(r chi.Router, d deps.Deps) {
	for _, e := range registry {
		if len(e.mws) == 0 {
			e.reg(r, d)
			continue
		}
		built := make([]Middleware, 0, len(e.mws))
		for _, f := range e.mws {
			built = append(built, f(d))
		}
		e.reg(r.With(built...), d)
	}
}
