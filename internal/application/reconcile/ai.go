package reconcile

import (
	"context"
	"fmt"

	"github.com/clubledger/reconcile/internal/domain/aimatch"
	"github.com/clubledger/reconcile/internal/domain/matcher"
	"github.com/clubledger/reconcile/internal/domain/model"
)

// AIEnabled reports whether an AI provider is configured.
func (s *Service) AIEnabled() bool {
	return s.ai.Enabled()
}

// unsettledFor keeps the payables that could still be settled by tx.
func unsettledFor(tx *model.Transaction, payables []model.Payable) []model.Payable {
	var out []model.Payable
	for _, p := range payables {
		if !p.Payment().Settled() && matcher.Eligible(p, tx) {
			out = append(out, p)
		}
	}
	return out
}

// SuggestWithAI asks the AI provider which unsettled payable of an event a
// transaction settles. Provider trouble is reported in the Result, not as
// an error.
func (s *Service) SuggestWithAI(ctx context.Context, transactionID, eventID string) (aimatch.Result, error) {
	if eventID == "" {
		return aimatch.Result{}, invalid("event id is required")
	}
	tx, err := s.GetTransaction(ctx, transactionID)
	if err != nil {
		return aimatch.Result{}, err
	}
	payables, err := s.eventPayables(eventID)
	if err != nil {
		return aimatch.Result{}, err
	}
	return s.ai.Suggest(ctx, tx, unsettledFor(tx, payables)), nil
}

// SuggestAllWithAI runs the batch AI matcher over every unreconciled
// transaction that could settle one of the event's unsettled payables.
func (s *Service) SuggestAllWithAI(ctx context.Context, eventID string) (map[string]aimatch.Result, error) {
	if eventID == "" {
		return nil, invalid("event id is required")
	}
	payables, err := s.eventPayables(eventID)
	if err != nil {
		return nil, err
	}
	txs, err := s.store.ListTransactions()
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}

	var open []model.Payable
	for _, p := range payables {
		if !p.Payment().Settled() {
			open = append(open, p)
		}
	}

	var pending []*model.Transaction
	for _, tx := range txs {
		if !tx.Reconciled && len(unsettledFor(tx, open)) > 0 {
			pending = append(pending, tx)
		}
	}
	if len(pending) == 0 {
		return map[string]aimatch.Result{}, nil
	}

	return s.ai.SuggestBatch(ctx, pending, open), nil
}
