package reconcile

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/clubledger/reconcile/internal/domain/model"
	"github.com/clubledger/reconcile/internal/domain/splitter"
)

// SplitRequest describes how to divide a transaction. Exactly one of Count,
// Amounts or Weights is used, in that order of precedence.
type SplitRequest struct {
	Count   int
	Amounts []decimal.Decimal
	Weights []decimal.Decimal
}

// Split divides a transaction into linkable children. The children are
// saved before the parent is flagged, so a failure never leaves a parent
// without its parts.
func (s *Service) Split(ctx context.Context, transactionID string, req SplitRequest) ([]*model.Transaction, error) {
	parent, err := s.GetTransaction(ctx, transactionID)
	if err != nil {
		return nil, err
	}

	var children []*model.Transaction
	switch {
	case req.Count > 0:
		children, err = splitter.SplitEqual(parent, req.Count)
	case len(req.Amounts) > 0:
		children, err = splitter.Split(parent, req.Amounts)
	case len(req.Weights) > 0:
		children, err = splitter.SplitProRata(parent, req.Weights)
	default:
		return nil, invalid("a part count, amounts or weights are required")
	}
	if err != nil {
		return nil, err
	}

	for _, child := range children {
		if err := s.store.SaveTransaction(child); err != nil {
			return nil, fmt.Errorf("save split part %s: %w", child.ID, err)
		}
	}
	if err := s.store.SaveTransaction(parent); err != nil {
		return nil, fmt.Errorf("save transaction %s: %w", parent.ID, err)
	}

	s.logger.Info("Split transaction",
		"transaction_id", parent.ID,
		"amount", parent.Amount.StringFixed(2),
		"parts", len(children))
	return children, nil
}
