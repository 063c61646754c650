package handlers

import (
	"net/http"

	"github.com/MrSnakeDoc/marksync/internal/engine"
	"github.com/MrSnakeDoc/marksync/internal/httpserver/deps"
	"github.com/MrSnakeDoc/marksync/internal/scheduler"
)

type stateResponse struct {
	engine.Snapshot
	Scheduler *scheduler.State `json:"scheduler,omitempty"`
}

// State returns the published engine snapshot and the poller state.
func State(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp := stateResponse{Snapshot: d.Engine.Snapshot()}
		if d.Poller != nil {
			st := d.Poller.State()
			resp.Scheduler = &st
		}
		writeJSON(w, d.Logger, http.StatusOK, resp)
	}
}

// Refetch asks the poller for a bookmark fetch. Requests already covered by a
// pending trigger are coalesced, so the endpoint always accepts.
func Refetch(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		d.Engine.RequestRefetch()
		w.WriteHeader(http.StatusAccepted)
	}
}

type visibilityRequest struct {
	Visible *bool `json:"visible"`
}

// Visibility forwards the client's visibility to the poller.
func Visibility(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req visibilityRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, d.Logger, err)
			return
		}
		if req.Visible == nil {
			writeJSON(w, d.Logger, http.StatusBadRequest, errorResponse{Error: "visible is required"})
			return
		}
		if d.Poller == nil {
			writeJSON(w, d.Logger, http.StatusServiceUnavailable, errorResponse{Error: "poller not running"})
			return
		}
		d.Poller.SetVisible(*req.Visible)
		w.WriteHeader(http.StatusAccepted)
	}
}
