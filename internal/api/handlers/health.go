package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/clubledger/reconcile/internal/api/dto"
)

// HealthHandler handles health check requests.
type HealthHandler struct {
	aiEnabled bool
}

// NewHealthHandler creates a new health handler.
func NewHealthHandler(aiEnabled bool) *HealthHandler {
	return &HealthHandler{aiEnabled: aiEnabled}
}

// ServeHTTP handles the health check request.
func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)

	response := dto.NewHealthResponse(h.aiEnabled)
	_ = json.NewEncoder(w).Encode(response)
}
