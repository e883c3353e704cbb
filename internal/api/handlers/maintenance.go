package handlers

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/clubledger/reconcile/internal/application/reconcile"
	"github.com/clubledger/reconcile/internal/domain/model"
)

// MaintenanceHandler handles integrity cleanup and repair.
type MaintenanceHandler struct {
	*Base
}

// NewMaintenanceHandler creates a new maintenance handler.
func NewMaintenanceHandler(svc *reconcile.Service, logger *slog.Logger) *MaintenanceHandler {
	return &MaintenanceHandler{Base: NewBase(svc, logger)}
}

// CleanupLinks handles DELETE /api/entities/{entityType}/{entityID}/links.
// Callers invoke it after deleting the entity itself.
func (h *MaintenanceHandler) CleanupLinks(w http.ResponseWriter, r *http.Request) {
	entityType := model.EntityType(chi.URLParam(r, "entityType"))

	report, err := h.svc.CleanAfterDelete(r.Context(), entityType, chi.URLParam(r, "entityID"))
	if err != nil {
		h.WriteServiceError(w, r, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, report)
}

// Repair handles POST /api/repair - the full integrity sweep.
// ?dry_run=true reports without writing.
func (h *MaintenanceHandler) Repair(w http.ResponseWriter, r *http.Request) {
	report, err := h.svc.RepairAll(r.Context(), ParseBoolParam(r, "dry_run", false))
	if err != nil {
		h.WriteServiceError(w, r, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, report)
}

// RepairReconciled handles POST /api/repair/reconciled.
func (h *MaintenanceHandler) RepairReconciled(w http.ResponseWriter, r *http.Request) {
	report, err := h.svc.RepairReconciliationStatus(r.Context(), ParseBoolParam(r, "dry_run", false))
	if err != nil {
		h.WriteServiceError(w, r, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, report)
}
