// Package reconcile exposes the caller-facing reconciliation operations.
//
// Every operation is a stateless request/response call over the repository:
// it loads the documents it needs by id, applies one domain step and writes
// the result back. Concurrent callers are not serialized; last write wins
// and the repair passes restore consistency.
package reconcile

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"github.com/clubledger/reconcile/internal/domain/aimatch"
	"github.com/clubledger/reconcile/internal/domain/categorizer"
	"github.com/clubledger/reconcile/internal/domain/linking"
	"github.com/clubledger/reconcile/internal/domain/matcher"
	"github.com/clubledger/reconcile/internal/domain/model"
	"github.com/clubledger/reconcile/internal/infrastructure/storage"
)

// ErrInvalidInput marks requests that are malformed rather than rejected by
// a domain rule.
var ErrInvalidInput = errors.New("invalid input")

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}

// Options configures a Service.
type Options struct {
	Matching     matcher.Config
	Rules        *categorizer.RuleSet // nil uses the built-in rules
	PatternCache categorizer.Cache    // nil disables suggestion caching
	AI           *aimatch.Matcher     // nil disables AI matching
}

// Service implements the reconciliation operations over one repository.
type Service struct {
	store       storage.Repository
	linker      *linking.Linker
	matching    matcher.Config
	categorizer *categorizer.Categorizer
	ai          *aimatch.Matcher
	logger      *slog.Logger
}

// NewService creates a reconciliation service.
func NewService(store storage.Repository, opts Options, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.AI == nil {
		opts.AI = aimatch.NewMatcher(nil, aimatch.DefaultConfig(), logger)
	}
	return &Service{
		store:       store,
		linker:      linking.NewLinker(store, logger),
		matching:    opts.Matching,
		categorizer: categorizer.NewCategorizer(opts.Rules, store, opts.PatternCache, logger),
		ai:          opts.AI,
		logger:      logger.With(slog.String("component", "reconcile")),
	}
}

// MatchingConfig returns the default auto-match settings.
func (s *Service) MatchingConfig() matcher.Config {
	return s.matching
}

// GetPayable loads a registration or an expense.
func (s *Service) GetPayable(_ context.Context, entityType model.EntityType, id string) (model.Payable, error) {
	switch entityType {
	case model.EntityRegistration:
		r, err := s.store.GetRegistration(id)
		if err != nil {
			return nil, fmt.Errorf("registration %s: %w", id, err)
		}
		return r, nil
	case model.EntityExpense:
		e, err := s.store.GetExpense(id)
		if err != nil {
			return nil, fmt.Errorf("expense %s: %w", id, err)
		}
		return e, nil
	default:
		return nil, invalid("%q is not a payable type", entityType)
	}
}

// GetTransaction loads a transaction.
func (s *Service) GetTransaction(_ context.Context, id string) (*model.Transaction, error) {
	tx, err := s.store.GetTransaction(id)
	if err != nil {
		return nil, fmt.Errorf("transaction %s: %w", id, err)
	}
	return tx, nil
}

// Link settles a payable with a bank transaction.
func (s *Service) Link(ctx context.Context, entityType model.EntityType, payableID, transactionID string) error {
	p, err := s.GetPayable(ctx, entityType, payableID)
	if err != nil {
		return err
	}
	tx, err := s.GetTransaction(ctx, transactionID)
	if err != nil {
		return err
	}
	return s.linker.Link(p, tx, linking.ManualLink)
}

// Unlink detaches a payable from its transaction.
func (s *Service) Unlink(ctx context.Context, entityType model.EntityType, payableID string, markUnpaid bool) error {
	p, err := s.GetPayable(ctx, entityType, payableID)
	if err != nil {
		return err
	}
	return s.linker.Unlink(p, markUnpaid)
}

// MarkPaidCash records a cash payment.
func (s *Service) MarkPaidCash(ctx context.Context, entityType model.EntityType, payableID, comment string) error {
	p, err := s.GetPayable(ctx, entityType, payableID)
	if err != nil {
		return err
	}
	return s.linker.MarkPaidCash(p, comment)
}

// MarkUnpaid clears a cash payment.
func (s *Service) MarkUnpaid(ctx context.Context, entityType model.EntityType, payableID string) error {
	p, err := s.GetPayable(ctx, entityType, payableID)
	if err != nil {
		return err
	}
	return s.linker.MarkUnpaid(p)
}

// Evaluate scores how well a transaction fits a payable.
func (s *Service) Evaluate(ctx context.Context, entityType model.EntityType, payableID, transactionID string) (matcher.Quality, error) {
	p, err := s.GetPayable(ctx, entityType, payableID)
	if err != nil {
		return matcher.Quality{}, err
	}
	tx, err := s.GetTransaction(ctx, transactionID)
	if err != nil {
		return matcher.Quality{}, err
	}
	return matcher.NewMatcher(s.matching).Evaluate(p, tx), nil
}

// eventPayables returns the registrations and expenses of an event, oldest
// first.
func (s *Service) eventPayables(eventID string) ([]model.Payable, error) {
	regs, err := s.store.ListRegistrationsByEvent(eventID)
	if err != nil {
		return nil, fmt.Errorf("list registrations of event %s: %w", eventID, err)
	}
	exps, err := s.store.ListExpensesByEvent(eventID)
	if err != nil {
		return nil, fmt.Errorf("list expenses of event %s: %w", eventID, err)
	}

	payables := make([]model.Payable, 0, len(regs)+len(exps))
	for _, r := range regs {
		payables = append(payables, r)
	}
	for _, e := range exps {
		payables = append(payables, e)
	}
	sort.SliceStable(payables, func(i, j int) bool {
		di, dj := payables[i].DueDate(), payables[j].DueDate()
		if !di.Equal(dj) {
			return di.Before(dj)
		}
		return payables[i].PayableID() < payables[j].PayableID()
	})
	return payables, nil
}
