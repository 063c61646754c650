package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/MrSnakeDoc/marksync/internal/httpserver/deps"
)

type componentStatus struct {
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
}

type readyzResponse struct {
	Ready      bool                       `json:"ready"`
	Components map[string]componentStatus `json:"components"`
}

// Readyz reports ready once the poller is mounted, the server accepts the
// credential and the state store answers.
func Readyz(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		components := map[string]componentStatus{
			"poller":  pollerStatus(d),
			"session": sessionStatus(d),
		}
		if d.RedisClient != nil {
			components["redis"] = redisStatus(r.Context(), d)
		}

		ready := true
		for _, c := range components {
			ready = ready && c.OK
		}
		status := http.StatusOK
		if !ready {
			status = http.StatusServiceUnavailable
		}
		writeJSON(w, d.Logger, status, readyzResponse{Ready: ready, Components: components})
	}
}

func pollerStatus(d deps.Deps) componentStatus {
	if d.Poller == nil || !d.Poller.State().Mounted {
		return componentStatus{Error: "not started"}
	}
	return componentStatus{OK: true}
}

func sessionStatus(d deps.Deps) componentStatus {
	if d.Engine.Snapshot().Unauthorized {
		return componentStatus{Error: "unauthorized"}
	}
	return componentStatus{OK: true}
}

func redisStatus(ctx context.Context, d deps.Deps) componentStatus {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := d.RedisClient.Ping(ctx).Err(); err != nil {
		return componentStatus{Error: err.Error()}
	}
	return componentStatus{OK: true}
}
