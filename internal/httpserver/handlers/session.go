package handlers

import (
	"net/http"
	"strings"

	"github.com/MrSnakeDoc/marksync/internal/httpserver/deps"
	"github.com/MrSnakeDoc/marksync/internal/logger"
)

type credentialRequest struct {
	Token string `json:"token"`
}

// SetCredential installs a bearer token and triggers a refetch.
func SetCredential(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req credentialRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, d.Logger, err)
			return
		}
		if strings.TrimSpace(req.Token) == "" {
			writeJSON(w, d.Logger, http.StatusBadRequest, errorResponse{Error: "token is required"})
			return
		}
		d.Engine.SetCredential(req.Token)
		d.Logger.Info("credential updated", logger.String("remote_ip", r.RemoteAddr))
		w.WriteHeader(http.StatusNoContent)
	}
}

// ClearCredential forgets the stored token.
func ClearCredential(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		d.Engine.SetCredential("")
		d.Logger.Info("credential cleared", logger.String("remote_ip", r.RemoteAddr))
		w.WriteHeader(http.StatusNoContent)
	}
}
