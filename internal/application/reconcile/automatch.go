package reconcile

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/clubledger/reconcile/internal/domain/linking"
	"github.com/clubledger/reconcile/internal/domain/matcher"
	"github.com/clubledger/reconcile/internal/domain/model"
	"github.com/clubledger/reconcile/internal/infrastructure/storage"
)

// CashComment is recorded on payables marked as cash by auto-match.
const CashComment = "Marked as cash by auto-match: no bank transaction found"

// AutoMatchOptions override the configured matching settings for one run.
type AutoMatchOptions struct {
	AmountTolerance   decimal.Decimal
	DateToleranceDays int // 0 disables the date filter
	AutoMarkCash      bool
	DryRun            bool // plan only, write nothing
}

// DefaultAutoMatchOptions returns the configured settings.
func (s *Service) DefaultAutoMatchOptions() AutoMatchOptions {
	return AutoMatchOptions{
		AmountTolerance:   s.matching.AmountTolerance,
		DateToleranceDays: s.matching.DateToleranceDays,
		AutoMarkCash:      s.matching.AutoMarkCash,
	}
}

// AutoMatchReport is the outcome of AutoMatchAll.
type AutoMatchReport struct {
	EventID    string
	DryRun     bool
	Plan       *matcher.Plan
	Linked     int
	MarkedCash int
	Failed     int
	Errors     []string
}

func (r *AutoMatchReport) fail(err error) {
	r.Failed++
	r.Errors = append(r.Errors, err.Error())
}

// AutoMatchAll matches the unsettled payables of one event against every
// transaction. Payables are taken in date order. Matches are linked one by
// one; a failed link is counted and the run goes on.
func (s *Service) AutoMatchAll(ctx context.Context, eventID string, opts AutoMatchOptions) (*AutoMatchReport, error) {
	if eventID == "" {
		return nil, invalid("event id is required")
	}
	if opts.AmountTolerance.IsNegative() || opts.DateToleranceDays < 0 {
		return nil, invalid("tolerances must not be negative")
	}
	if _, err := s.store.GetEvent(eventID); err != nil {
		return nil, fmt.Errorf("event %s: %w", eventID, err)
	}

	payables, err := s.eventPayables(eventID)
	if err != nil {
		return nil, err
	}
	txs, err := s.store.ListTransactions()
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}

	cfg := s.matching
	cfg.AmountTolerance = opts.AmountTolerance
	cfg.DateToleranceDays = opts.DateToleranceDays
	cfg.AutoMarkCash = opts.AutoMarkCash

	report := &AutoMatchReport{
		EventID: eventID,
		DryRun:  opts.DryRun,
		Plan:    matcher.NewMatcher(cfg).Plan(payables, txs),
	}

	if !opts.DryRun {
		for _, m := range report.Plan.Matches {
			if err := ctx.Err(); err != nil {
				return report, err
			}
			err := s.linker.Link(m.Payable, m.Transaction, linking.LinkOptions{
				Confidence: m.Confidence,
				MatchedBy:  model.MatchedByAuto,
			})
			if err != nil {
				s.logger.Warn("Auto-match link failed",
					"entity_type", m.Payable.EntityType(),
					"entity_id", m.Payable.PayableID(),
					"transaction_id", m.Transaction.ID,
					"error", err)
				report.fail(err)
				continue
			}
			report.Linked++
		}

		if opts.AutoMarkCash {
			for _, p := range report.Plan.CashSuggested {
				if err := s.linker.MarkPaidCash(p, CashComment); err != nil {
					s.logger.Warn("Auto-match cash marking failed",
						"entity_type", p.EntityType(),
						"entity_id", p.PayableID(),
						"error", err)
					report.fail(err)
					continue
				}
				report.MarkedCash++
			}
		}
	}

	s.logger.Info("Auto-match complete",
		slog.String("event_id", eventID),
		slog.Bool("dry_run", opts.DryRun),
		slog.Int("matches", len(report.Plan.Matches)),
		slog.Int("linked", report.Linked),
		slog.Int("needs_split", len(report.Plan.NeedsSplit)),
		slog.Int("unmatched", len(report.Plan.Unmatched)),
		slog.Int("marked_cash", report.MarkedCash),
		slog.Int("failed", report.Failed),
		slog.String("matched_amount", report.Plan.MatchedAmount.StringFixed(2)),
		slog.String("total_amount", report.Plan.TotalAmount.StringFixed(2)))
	return report, nil
}

// IsNotFound reports whether err means a referenced document is missing.
func IsNotFound(err error) bool {
	return errors.Is(err, storage.ErrNotFound)
}
