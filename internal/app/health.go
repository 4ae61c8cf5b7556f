package app

import (
	"context"
	"encoding/json"
	"net/http"

	log "github.com/sirupsen/logrus"
)

type HealthHandler struct {
	ping func(ctx context.Context) error
}

func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	status, code := "ok", http.StatusOK
	if err := h.ping(r.Context()); err != nil {
		log.Errorf("health check failed: %v", err)
		status, code = "unavailable", http.StatusServiceUnavailable
	}
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(map[string]string{"status": status}); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
