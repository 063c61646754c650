package handlers

import (
	"net/http"
	"strings"

	"github.com/MrSnakeDoc/marksync/internal/domain"
	"github.com/MrSnakeDoc/marksync/internal/httpserver/deps"
	"github.com/MrSnakeDoc/marksync/internal/logger"
)

// SetQuery replaces the search predicates. Malformed queries are accepted
// here and reported through the snapshot's last_search_error, like any other
// search failure.
func SetQuery(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var q domain.SearchQuery
		if err := decodeJSON(r, &q); err != nil {
			writeError(w, d.Logger, err)
			return
		}
		model := d.Engine.Query()
		model.SetSearch(q)
		d.Logger.Debug("query set", logger.String("signature", q.Signature()))
		writeJSON(w, d.Logger, http.StatusAccepted, model.Current())
	}
}

func ClearQuery(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		model := d.Engine.Query()
		model.Clear()
		writeJSON(w, d.Logger, http.StatusAccepted, model.Current())
	}
}

type showAllRequest struct {
	ShowAll bool `json:"show_all"`
}

func SetShowAll(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req showAllRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, d.Logger, err)
			return
		}
		model := d.Engine.Query()
		model.SetShowAll(req.ShowAll)
		writeJSON(w, d.Logger, http.StatusAccepted, model.Current())
	}
}

type workspaceRequest struct {
	WorkspaceID string `json:"workspace_id"`
}

// SetWorkspace switches the active workspace. An empty id deactivates it.
func SetWorkspace(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req workspaceRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, d.Logger, err)
			return
		}
		model := d.Engine.Query()
		model.SetWorkspace(strings.TrimSpace(req.WorkspaceID))
		writeJSON(w, d.Logger, http.StatusAccepted, model.Current())
	}
}

type pinResponse struct {
	URL string `json:"url"`
}

// Pin renders the current query into the configured base URL so it can be
// bookmarked or shared.
func Pin(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		u := d.Engine.Query().Pin(d.PinBase)
		writeJSON(w, d.Logger, http.StatusOK, pinResponse{URL: u.String()})
	}
}
