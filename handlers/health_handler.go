package handlers

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/Ariffin97/portal-mpa-sub001/utils"
)

type HealthCheckResponse struct {
	Status     string            `json:"status"`
	Timestamp  time.Time         `json:"timestamp"`
	Components map[string]string `json:"components,omitempty"`
	Version    string            `json:"version"`
	Uptime     string            `json:"uptime"`
}

func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	response := HealthCheckResponse{
		Status:     "healthy",
		Timestamp:  time.Now().UTC(),
		Components: make(map[string]string, len(h.checks)),
		Version:    h.version,
		Uptime:     time.Since(h.started).Round(time.Second).String(),
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	for name, ping := range h.checks {
		if err := ping(ctx); err != nil {
			h.log.Warn("health check failed", zap.String("component", name), zap.Error(err))
			response.Status = "unhealthy"
			response.Components[name] = "disconnected"
			continue
		}
		response.Components[name] = "connected"
	}

	status := http.StatusOK
	if response.Status != "healthy" {
		status = http.StatusServiceUnavailable
	}
	utils.RespondWithJSON(w, status, response)
}
