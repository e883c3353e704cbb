package handlers

import (
	"log/slog"
	"net/http"
	"sort"

	"github.com/go-chi/chi/v5"

	"github.com/clubledger/reconcile/internal/api/dto"
	"github.com/clubledger/reconcile/internal/application/reconcile"
)

// TransactionsHandler handles per-transaction operations.
type TransactionsHandler struct {
	*Base
}

// NewTransactionsHandler creates a new transactions handler.
func NewTransactionsHandler(svc *reconcile.Service, logger *slog.Logger) *TransactionsHandler {
	return &TransactionsHandler{Base: NewBase(svc, logger)}
}

// Get handles GET /api/transactions/{id}.
func (h *TransactionsHandler) Get(w http.ResponseWriter, r *http.Request) {
	tx, err := h.svc.GetTransaction(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.WriteServiceError(w, r, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, dto.ToTransactionResponse(tx))
}

// Categorization handles GET /api/transactions/{id}/categorization.
func (h *TransactionsHandler) Categorization(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	result, err := h.svc.Categorize(r.Context(), id)
	if err != nil {
		h.WriteServiceError(w, r, err)
		return
	}
	patterns, err := h.svc.Suggestions(r.Context(), id)
	if err != nil {
		h.WriteServiceError(w, r, err)
		return
	}

	resp := dto.CategorizationResponse{
		TransactionID: id,
		Result:        result,
		Suggestions:   make([]dto.PatternResponse, 0, len(patterns)),
	}
	for _, p := range patterns {
		resp.Suggestions = append(resp.Suggestions, dto.ToPatternResponse(p))
	}
	h.WriteJSON(w, http.StatusOK, resp)
}

// ConfirmCategorization handles POST /api/transactions/{id}/categorization.
func (h *TransactionsHandler) ConfirmCategorization(w http.ResponseWriter, r *http.Request) {
	var req dto.CategorizationRequest
	if !h.DecodeJSON(w, r, &req) {
		return
	}

	pattern, err := h.svc.LearnFromUserInput(r.Context(), chi.URLParam(r, "id"), req.Category, req.AccountCode)
	if err != nil {
		h.WriteServiceError(w, r, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, dto.ToPatternResponse(pattern))
}

// Split handles POST /api/transactions/{id}/split.
func (h *TransactionsHandler) Split(w http.ResponseWriter, r *http.Request) {
	var req dto.SplitRequest
	if !h.DecodeJSON(w, r, &req) {
		return
	}
	id := chi.URLParam(r, "id")

	children, err := h.svc.Split(r.Context(), id, reconcile.SplitRequest{
		Count:   req.Count,
		Amounts: req.Amounts,
		Weights: req.Weights,
	})
	if err != nil {
		h.WriteServiceError(w, r, err)
		return
	}

	resp := dto.SplitResponse{ParentID: id, Children: make([]dto.TransactionResponse, 0, len(children))}
	for _, c := range children {
		resp.Children = append(resp.Children, dto.ToTransactionResponse(c))
	}
	h.WriteJSON(w, http.StatusCreated, resp)
}

// AISuggestion handles POST /api/transactions/{id}/ai-suggestion.
func (h *TransactionsHandler) AISuggestion(w http.ResponseWriter, r *http.Request) {
	var req dto.AISuggestionRequest
	if !h.DecodeJSON(w, r, &req) {
		return
	}
	id := chi.URLParam(r, "id")

	res, err := h.svc.SuggestWithAI(r.Context(), id, req.EventID)
	if err != nil {
		h.WriteServiceError(w, r, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, dto.AISuggestionResponse{TransactionID: id, Found: res.Found(), Result: res})
}

func sortSuggestions(s []dto.AISuggestionResponse) {
	sort.Slice(s, func(i, j int) bool { return s[i].TransactionID < s[j].TransactionID })
}
