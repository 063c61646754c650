package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/marksync/internal/domain"
	"github.com/MrSnakeDoc/marksync/internal/logger"
	"github.com/MrSnakeDoc/marksync/internal/remote"
)

const maxBodyBytes = 1 << 20

type errorResponse struct {
	Error  string              `json:"error"`
	Fields []domain.FieldError `json:"fields,omitempty"`
}

func writeJSON(w http.ResponseWriter, log logger.Logger, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Debug("failed to write response", logger.Error(err))
	}
}

// writeError maps engine and remote errors to status codes.
func writeError(w http.ResponseWriter, log logger.Logger, err error) {
	var verr *domain.ValidationError
	switch {
	case errors.As(err, &verr):
		writeJSON(w, log, http.StatusBadRequest, errorResponse{Error: verr.Error(), Fields: verr.Fields})
	case errors.Is(err, remote.ErrUnauthorized):
		writeJSON(w, log, http.StatusUnauthorized, errorResponse{Error: err.Error()})
	case errors.Is(err, remote.ErrFeatureAbsent):
		writeJSON(w, log, http.StatusNotImplemented, errorResponse{Error: err.Error()})
	case errors.Is(err, remote.ErrCancelled):
		writeJSON(w, log, http.StatusRequestTimeout, errorResponse{Error: err.Error()})
	default:
		log.Warn("request failed", logger.Error(err))
		writeJSON(w, log, http.StatusBadGateway, errorResponse{Error: err.Error()})
	}
}

func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return &domain.ValidationError{Fields: []domain.FieldError{{Msg: fmt.Sprintf("invalid body: %v", err)}}}
	}
	return nil
}

func idParam(r *http.Request) (int64, error) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, &domain.ValidationError{Fields: []domain.FieldError{{Field: "id", Msg: fmt.Sprintf("invalid bookmark id %q", raw)}}}
	}
	return id, nil
}
