package dto

import (
	"time"

	"github.com/clubledger/reconcile/internal/domain/aimatch"
	"github.com/clubledger/reconcile/internal/domain/categorizer"
	"github.com/clubledger/reconcile/internal/domain/matcher"
	"github.com/clubledger/reconcile/internal/domain/model"
)

// HealthResponse is returned by the health check endpoint.
type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	AI        bool   `json:"ai_enabled"`
}

// NewHealthResponse creates a healthy response.
func NewHealthResponse(aiEnabled bool) HealthResponse {
	return HealthResponse{
		Status:    "ok",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		AI:        aiEnabled,
	}
}

// StatusResponse acknowledges a state change.
type StatusResponse struct {
	Status string `json:"status"`
}

// PayableResponse is a payable in API responses.
type PayableResponse struct {
	Type          string `json:"type"`
	ID            string `json:"id"`
	Name          string `json:"name"`
	Amount        string `json:"amount"`
	Date          string `json:"date"`
	Status        string `json:"status"`
	TransactionID string `json:"transaction_id,omitempty"`
}

// ToPayableResponse converts a payable.
func ToPayableResponse(p model.Payable) PayableResponse {
	pay := p.Payment()
	return PayableResponse{
		Type:          string(p.EntityType()),
		ID:            p.PayableID(),
		Name:          p.DisplayName(),
		Amount:        p.AmountDue().StringFixed(2),
		Date:          p.DueDate().Format("2006-01-02"),
		Status:        string(pay.Status()),
		TransactionID: pay.TransactionID,
	}
}

// TransactionResponse is a bank transaction in API responses.
type TransactionResponse struct {
	ID                  string `json:"id"`
	Date                string `json:"date"`
	Amount              string `json:"amount"`
	Counterparty        string `json:"counterparty"`
	Communication       string `json:"communication,omitempty"`
	Details             string `json:"details,omitempty"`
	IsParent            bool   `json:"is_parent"`
	ParentTransactionID string `json:"parent_transaction_id,omitempty"`
	Reconciled          bool   `json:"reconciled"`
	Links               int    `json:"links"`
}

// ToTransactionResponse converts a transaction.
func ToTransactionResponse(tx *model.Transaction) TransactionResponse {
	return TransactionResponse{
		ID:                  tx.ID,
		Date:                tx.Date.Format("2006-01-02"),
		Amount:              tx.Amount.StringFixed(2),
		Counterparty:        tx.Counterparty,
		Communication:       tx.Communication,
		Details:             tx.Details,
		IsParent:            tx.IsParent,
		ParentTransactionID: tx.ParentTransactionID,
		Reconciled:          tx.Reconciled,
		Links:               len(tx.MatchedEntities),
	}
}

// MatchResponse is one proposed or committed auto-match.
type MatchResponse struct {
	Payable     PayableResponse     `json:"payable"`
	Transaction TransactionResponse `json:"transaction"`
	Tier        string              `json:"tier"`
	Confidence  int                 `json:"confidence"`
	Quality     matcher.Quality     `json:"quality"`
}

// SplitCandidateResponse flags a transaction that covers several payables.
type SplitCandidateResponse struct {
	Transaction    TransactionResponse `json:"transaction"`
	UnitPrice      string              `json:"unit_price"`
	SuggestedCount int                 `json:"suggested_count"`
	PayableIDs     []string            `json:"payable_ids"`
}

// AutoMatchResponse is the outcome of an auto-match run.
type AutoMatchResponse struct {
	EventID       string                   `json:"event_id"`
	DryRun        bool                     `json:"dry_run"`
	Matches       []MatchResponse          `json:"matches"`
	NeedsSplit    []SplitCandidateResponse `json:"needs_split"`
	CashSuggested []PayableResponse        `json:"cash_suggested"`
	Unmatched     []PayableResponse        `json:"unmatched"`
	Candidates    []TransactionResponse    `json:"candidates"`
	TotalAmount   string                   `json:"total_amount"`
	MatchedAmount string                   `json:"matched_amount"`
	Linked        int                      `json:"linked"`
	MarkedCash    int                      `json:"marked_cash"`
	Failed        int                      `json:"failed"`
	Errors        []string                 `json:"errors,omitempty"`
}

// CategorizationResponse carries the heuristic result and learned patterns.
type CategorizationResponse struct {
	TransactionID string             `json:"transaction_id"`
	Result        categorizer.Result `json:"result"`
	Suggestions   []PatternResponse  `json:"suggestions"`
}

// PatternResponse is a learned categorization pattern.
type PatternResponse struct {
	ID             string `json:"id"`
	PrimaryKeyword string `json:"primary_keyword"`
	RoundedAmount  int64  `json:"rounded_amount"`
	Category       string `json:"category"`
	AccountCode    string `json:"account_code"`
	UseCount       int    `json:"use_count"`
}

// ToPatternResponse converts a pattern.
func ToPatternResponse(p *model.CategorizationPattern) PatternResponse {
	return PatternResponse{
		ID:             p.ID,
		PrimaryKeyword: p.PrimaryKeyword,
		RoundedAmount:  p.RoundedAmount,
		Category:       p.Category,
		AccountCode:    p.AccountCode,
		UseCount:       p.UseCount,
	}
}

// SplitResponse lists the children created by a split.
type SplitResponse struct {
	ParentID string                `json:"parent_id"`
	Children []TransactionResponse `json:"children"`
}

// AISuggestionResponse wraps an AI matching result.
type AISuggestionResponse struct {
	TransactionID string         `json:"transaction_id"`
	Found         bool           `json:"found"`
	Result        aimatch.Result `json:"result"`
}
