package matcher

import (
	"github.com/shopspring/decimal"

	"github.com/clubledger/reconcile/internal/domain/model"
)

// Config holds matcher configuration
type Config struct {
	AmountTolerance    decimal.Decimal // Default: 0.50, inclusive
	DateToleranceDays  int             // 0 disables the date filter (default: 60)
	WarningAmountDiff  decimal.Decimal // Default: 0.50
	WarningDateGapDays int             // Default: 45
	AutoMarkCash       bool
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		AmountTolerance:    decimal.NewFromFloat(0.50),
		DateToleranceDays:  60,
		WarningAmountDiff:  decimal.NewFromFloat(0.50),
		WarningDateGapDays: 45,
	}
}

// Tier says which rule produced a match.
type Tier string

const (
	TierExact     Tier = "exact"
	TierTolerance Tier = "tolerance"
)

// Confidence per tier.
const (
	ExactConfidence     = 100
	ToleranceConfidence = 90
)

// Match pairs one payable with the transaction chosen for it.
type Match struct {
	Payable     model.Payable
	Transaction *model.Transaction
	Tier        Tier
	Confidence  int
	Quality     Quality
}

// SplitCandidate is a transaction whose amount looks like several payments
// of the same price. It is a signal only; nothing gets linked.
type SplitCandidate struct {
	Transaction    *model.Transaction
	UnitPrice      decimal.Decimal
	SuggestedCount int
	PayableIDs     []string
}

// Plan is the outcome of one auto-match pass.
type Plan struct {
	Matches       []Match
	NeedsSplit    []SplitCandidate
	CashSuggested []model.Payable
	Unmatched     []model.Payable

	// Candidates is the eligible pool before any match consumed it.
	Candidates []*model.Transaction

	TotalAmount   decimal.Decimal
	MatchedAmount decimal.Decimal
}
