package handlers

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/clubledger/reconcile/internal/api/dto"
	"github.com/clubledger/reconcile/internal/application/reconcile"
	"github.com/clubledger/reconcile/internal/domain/model"
)

// LinksHandler handles link and payment state changes.
type LinksHandler struct {
	*Base
}

// NewLinksHandler creates a new links handler.
func NewLinksHandler(svc *reconcile.Service, logger *slog.Logger) *LinksHandler {
	return &LinksHandler{Base: NewBase(svc, logger)}
}

// Link handles POST /api/links - links a payable to a transaction.
func (h *LinksHandler) Link(w http.ResponseWriter, r *http.Request) {
	var req dto.LinkRequest
	if !h.DecodeJSON(w, r, &req) {
		return
	}
	if req.PayableID == "" || req.TransactionID == "" {
		h.WriteError(w, http.StatusBadRequest, dto.BadRequestError("payable_id and transaction_id are required"))
		return
	}

	payableType := model.EntityType(req.PayableType)
	if err := h.svc.Link(r.Context(), payableType, req.PayableID, req.TransactionID); err != nil {
		h.WriteServiceError(w, r, err)
		return
	}
	h.writePayable(w, r, payableType, req.PayableID)
}

// Unlink handles DELETE /api/links/{payableType}/{payableID}.
// ?mark_unpaid=true resets the payable to unpaid instead of cash.
func (h *LinksHandler) Unlink(w http.ResponseWriter, r *http.Request) {
	payableType, ok := h.PayableType(w, r)
	if !ok {
		return
	}
	id := chi.URLParam(r, "payableID")

	if err := h.svc.Unlink(r.Context(), payableType, id, ParseBoolParam(r, "mark_unpaid", false)); err != nil {
		h.WriteServiceError(w, r, err)
		return
	}
	h.writePayable(w, r, payableType, id)
}

// MarkCash handles POST /api/payables/{payableType}/{payableID}/cash.
func (h *LinksHandler) MarkCash(w http.ResponseWriter, r *http.Request) {
	payableType, ok := h.PayableType(w, r)
	if !ok {
		return
	}
	var req dto.CashRequest
	if !h.DecodeJSON(w, r, &req) {
		return
	}
	id := chi.URLParam(r, "payableID")

	if err := h.svc.MarkPaidCash(r.Context(), payableType, id, req.Comment); err != nil {
		h.WriteServiceError(w, r, err)
		return
	}
	h.writePayable(w, r, payableType, id)
}

// MarkUnpaid handles POST /api/payables/{payableType}/{payableID}/unpaid.
func (h *LinksHandler) MarkUnpaid(w http.ResponseWriter, r *http.Request) {
	payableType, ok := h.PayableType(w, r)
	if !ok {
		return
	}
	id := chi.URLParam(r, "payableID")

	if err := h.svc.MarkUnpaid(r.Context(), payableType, id); err != nil {
		h.WriteServiceError(w, r, err)
		return
	}
	h.writePayable(w, r, payableType, id)
}

// Quality handles GET /api/payables/{payableType}/{payableID}/quality/{transactionID}.
func (h *LinksHandler) Quality(w http.ResponseWriter, r *http.Request) {
	payableType, ok := h.PayableType(w, r)
	if !ok {
		return
	}

	q, err := h.svc.Evaluate(r.Context(), payableType, chi.URLParam(r, "payableID"), chi.URLParam(r, "transactionID"))
	if err != nil {
		h.WriteServiceError(w, r, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, q)
}

func (h *LinksHandler) writePayable(w http.ResponseWriter, r *http.Request, payableType model.EntityType, id string) {
	p, err := h.svc.GetPayable(r.Context(), payableType, id)
	if err != nil {
		h.WriteServiceError(w, r, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, dto.ToPayableResponse(p))
}
