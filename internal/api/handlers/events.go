package handlers

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/clubledger/reconcile/internal/api/dto"
	"github.com/clubledger/reconcile/internal/application/reconcile"
	"github.com/clubledger/reconcile/internal/domain/model"
)

// EventsHandler handles per-event batch operations.
type EventsHandler struct {
	*Base
}

// NewEventsHandler creates a new events handler.
func NewEventsHandler(svc *reconcile.Service, logger *slog.Logger) *EventsHandler {
	return &EventsHandler{Base: NewBase(svc, logger)}
}

// AutoMatch handles POST /api/events/{eventID}/automatch.
func (h *EventsHandler) AutoMatch(w http.ResponseWriter, r *http.Request) {
	var req dto.AutoMatchRequest
	if !h.DecodeJSON(w, r, &req) {
		return
	}

	opts := h.svc.DefaultAutoMatchOptions()
	if req.AmountTolerance != nil {
		opts.AmountTolerance = *req.AmountTolerance
	}
	if req.DateToleranceDays != nil {
		opts.DateToleranceDays = *req.DateToleranceDays
	}
	if req.AutoMarkCash != nil {
		opts.AutoMarkCash = *req.AutoMarkCash
	}
	opts.DryRun = req.DryRun

	report, err := h.svc.AutoMatchAll(r.Context(), chi.URLParam(r, "eventID"), opts)
	if err != nil {
		h.WriteServiceError(w, r, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, toAutoMatchResponse(report))
}

// AISuggestions handles POST /api/events/{eventID}/ai-suggestions.
func (h *EventsHandler) AISuggestions(w http.ResponseWriter, r *http.Request) {
	if !h.svc.AIEnabled() {
		h.WriteError(w, http.StatusServiceUnavailable, dto.NewAPIError(dto.ErrCodeUnavailable, "AI matching is not configured"))
		return
	}

	results, err := h.svc.SuggestAllWithAI(r.Context(), chi.URLParam(r, "eventID"))
	if err != nil {
		h.WriteServiceError(w, r, err)
		return
	}

	response := make([]dto.AISuggestionResponse, 0, len(results))
	for txID, res := range results {
		response = append(response, dto.AISuggestionResponse{TransactionID: txID, Found: res.Found(), Result: res})
	}
	sortSuggestions(response)
	h.WriteJSON(w, http.StatusOK, response)
}

func toAutoMatchResponse(report *reconcile.AutoMatchReport) dto.AutoMatchResponse {
	plan := report.Plan
	resp := dto.AutoMatchResponse{
		EventID:       report.EventID,
		DryRun:        report.DryRun,
		Matches:       make([]dto.MatchResponse, 0, len(plan.Matches)),
		NeedsSplit:    make([]dto.SplitCandidateResponse, 0, len(plan.NeedsSplit)),
		CashSuggested: payableList(plan.CashSuggested),
		Unmatched:     payableList(plan.Unmatched),
		Candidates:    make([]dto.TransactionResponse, 0, len(plan.Candidates)),
		TotalAmount:   plan.TotalAmount.StringFixed(2),
		MatchedAmount: plan.MatchedAmount.StringFixed(2),
		Linked:        report.Linked,
		MarkedCash:    report.MarkedCash,
		Failed:        report.Failed,
		Errors:        report.Errors,
	}
	for _, m := range plan.Matches {
		resp.Matches = append(resp.Matches, dto.MatchResponse{
			Payable:     dto.ToPayableResponse(m.Payable),
			Transaction: dto.ToTransactionResponse(m.Transaction),
			Tier:        string(m.Tier),
			Confidence:  m.Confidence,
			Quality:     m.Quality,
		})
	}
	for _, c := range plan.NeedsSplit {
		resp.NeedsSplit = append(resp.NeedsSplit, dto.SplitCandidateResponse{
			Transaction:    dto.ToTransactionResponse(c.Transaction),
			UnitPrice:      c.UnitPrice.StringFixed(2),
			SuggestedCount: c.SuggestedCount,
			PayableIDs:     c.PayableIDs,
		})
	}
	for _, tx := range plan.Candidates {
		resp.Candidates = append(resp.Candidates, dto.ToTransactionResponse(tx))
	}
	return resp
}

func payableList(payables []model.Payable) []dto.PayableResponse {
	out := make([]dto.PayableResponse, 0, len(payables))
	for _, p := range payables {
		out = append(out, dto.ToPayableResponse(p))
	}
	return out
}
