package reconcile

import (
	"context"
	"fmt"
	"strings"

	"github.com/clubledger/reconcile/internal/domain/categorizer"
	"github.com/clubledger/reconcile/internal/domain/model"
)

// Categorize proposes a category and account code for a transaction.
func (s *Service) Categorize(ctx context.Context, transactionID string) (categorizer.Result, error) {
	tx, err := s.GetTransaction(ctx, transactionID)
	if err != nil {
		return categorizer.Result{}, err
	}
	return s.categorizer.Categorize(tx), nil
}

// Suggestions returns the learned patterns that fit a transaction.
func (s *Service) Suggestions(ctx context.Context, transactionID string) ([]*model.CategorizationPattern, error) {
	tx, err := s.GetTransaction(ctx, transactionID)
	if err != nil {
		return nil, err
	}
	return s.categorizer.Suggestions(tx)
}

// LearnFromUserInput stores a confirmed categorization on the transaction
// and records it as a learned pattern.
func (s *Service) LearnFromUserInput(ctx context.Context, transactionID, category, accountCode string) (*model.CategorizationPattern, error) {
	category = strings.TrimSpace(category)
	accountCode = strings.TrimSpace(accountCode)
	if category == "" || accountCode == "" {
		return nil, invalid("category and account code are required")
	}

	tx, err := s.GetTransaction(ctx, transactionID)
	if err != nil {
		return nil, err
	}

	if tx.Category != category || tx.AccountCode != accountCode {
		tx.Category = category
		tx.AccountCode = accountCode
		if err := s.store.SaveTransaction(tx); err != nil {
			return nil, fmt.Errorf("save transaction %s: %w", tx.ID, err)
		}
	}

	return s.categorizer.LearnFromUserInput(tx, category, accountCode)
}
