package handlers

import (
	"net/http"

	"github.com/MrSnakeDoc/marksync/internal/domain"
	"github.com/MrSnakeDoc/marksync/internal/httpserver/deps"
	"github.com/MrSnakeDoc/marksync/internal/logger"
)

type bulkUpdateRequest struct {
	Query domain.BulkQuery     `json:"query"`
	Patch domain.BookmarkPatch `json:"patch"`
}

type bulkDeleteRequest struct {
	Query domain.BulkQuery `json:"query"`
}

type bulkResponse struct {
	Affected int `json:"affected"`
}

func CreateBookmark(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var b domain.Bookmark
		if err := decodeJSON(r, &b); err != nil {
			writeError(w, d.Logger, err)
			return
		}
		created, err := d.Engine.CreateBookmark(r.Context(), b)
		if err != nil {
			writeError(w, d.Logger, err)
			return
		}
		d.Logger.Info("bookmark created", logger.Int64("id", created.ID))
		writeJSON(w, d.Logger, http.StatusCreated, created)
	}
}

// UpdateBookmark takes the id from the path; an id in the body is ignored.
func UpdateBookmark(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := idParam(r)
		if err != nil {
			writeError(w, d.Logger, err)
			return
		}
		var b domain.Bookmark
		if err := decodeJSON(r, &b); err != nil {
			writeError(w, d.Logger, err)
			return
		}
		b.ID = id
		updated, err := d.Engine.UpdateBookmark(r.Context(), b)
		if err != nil {
			writeError(w, d.Logger, err)
			return
		}
		writeJSON(w, d.Logger, http.StatusOK, updated)
	}
}

func DeleteBookmark(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := idParam(r)
		if err != nil {
			writeError(w, d.Logger, err)
			return
		}
		if err := d.Engine.DeleteBookmark(r.Context(), id); err != nil {
			writeError(w, d.Logger, err)
			return
		}
		d.Logger.Info("bookmark deleted", logger.Int64("id", id))
		w.WriteHeader(http.StatusNoContent)
	}
}

func RefreshBookmark(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := idParam(r)
		if err != nil {
			writeError(w, d.Logger, err)
			return
		}
		b, err := d.Engine.RefreshMetadata(r.Context(), id)
		if err != nil {
			writeError(w, d.Logger, err)
			return
		}
		writeJSON(w, d.Logger, http.StatusOK, b)
	}
}

func BulkUpdate(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req bulkUpdateRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, d.Logger, err)
			return
		}
		n, err := d.Engine.BulkUpdate(r.Context(), req.Query, req.Patch)
		if err != nil {
			writeError(w, d.Logger, err)
			return
		}
		writeJSON(w, d.Logger, http.StatusOK, bulkResponse{Affected: n})
	}
}

func BulkDelete(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req bulkDeleteRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, d.Logger, err)
			return
		}
		n, err := d.Engine.BulkDelete(r.Context(), req.Query)
		if err != nil {
			writeError(w, d.Logger, err)
			return
		}
		writeJSON(w, d.Logger, http.StatusOK, bulkResponse{Affected: n})
	}
}
