package dto

import "github.com/shopspring/decimal"

// LinkRequest is the body of POST /api/links.
type LinkRequest struct {
	PayableType   string `json:"payable_type"`
	PayableID     string `json:"payable_id"`
	TransactionID string `json:"transaction_id"`
}

// CashRequest is the body of POST /api/payables/{type}/{id}/cash.
type CashRequest struct {
	Comment string `json:"comment"`
}

// AutoMatchRequest overrides the configured matching settings. Omitted
// fields keep the configured value.
type AutoMatchRequest struct {
	AmountTolerance   *decimal.Decimal `json:"amount_tolerance"`
	DateToleranceDays *int             `json:"date_tolerance_days"`
	AutoMarkCash      *bool            `json:"auto_mark_cash"`
	DryRun            bool             `json:"dry_run"`
}

// CategorizationRequest confirms a category for a transaction.
type CategorizationRequest struct {
	Category    string `json:"category"`
	AccountCode string `json:"account_code"`
}

// SplitRequest is the body of POST /api/transactions/{id}/split. Send one
// of count, amounts or weights.
type SplitRequest struct {
	Count   int               `json:"count,omitempty"`
	Amounts []decimal.Decimal `json:"amounts,omitempty"`
	Weights []decimal.Decimal `json:"weights,omitempty"`
}

// AISuggestionRequest names the event whose payables are candidates.
type AISuggestionRequest struct {
	EventID string `json:"event_id"`
}
