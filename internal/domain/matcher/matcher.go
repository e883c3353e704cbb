// Package matcher pairs unsettled payables with bank transactions.
//
// Matching is greedy and tiered, per payable in caller order:
//   - Exact amount (difference below one cent), confidence 100
//   - Amount within tolerance (default 0.50, inclusive), confidence 90
//   - Otherwise a transaction worth 2..10 times the price is flagged for splitting
//   - Otherwise the payable is reported unmatched and suggested as cash
//
// A transaction consumed by a match leaves the pool immediately, so the
// order of payables matters; callers usually sort them by date.
//
// Example usage:
//
//	m := matcher.NewMatcher(matcher.DefaultConfig())
//	plan := m.Plan(payables, transactions)
//	for _, match := range plan.Matches {
//		// link match.Payable to match.Transaction
//	}
package matcher

import (
	"github.com/shopspring/decimal"

	"github.com/clubledger/reconcile/internal/domain/model"
	"github.com/clubledger/reconcile/internal/domain/similarity"
)

var exactThreshold = decimal.NewFromFloat(0.01)

// Matcher matches payables with bank transactions
type Matcher struct {
	config Config
}

// NewMatcher creates a new matcher with the given config
func NewMatcher(config Config) *Matcher {
	return &Matcher{
		config: config,
	}
}

// Config returns the matcher configuration.
func (m *Matcher) Config() Config {
	return m.config
}

// Eligible reports whether tx may settle p at all: right direction of money,
// not split into children, and not already carrying a link of p's type.
func Eligible(p model.Payable, tx *model.Transaction) bool {
	if tx.IsParent {
		return false
	}
	if p.IncomingPayment() {
		if !tx.Amount.IsPositive() {
			return false
		}
	} else if !tx.Amount.IsNegative() {
		return false
	}
	return !tx.HasLinkOfType(p.EntityType())
}

// Plan runs one greedy pass. Settled payables are skipped so re-running
// a plan over already-matched data proposes nothing new.
func (m *Matcher) Plan(payables []model.Payable, transactions []*model.Transaction) *Plan {
	plan := &Plan{
		TotalAmount:   decimal.Zero,
		MatchedAmount: decimal.Zero,
	}

	// Build the candidate pool once, keeping caller order
	inPool := make(map[string]bool)
	for _, tx := range transactions {
		if inPool[tx.ID] {
			continue
		}
		for _, p := range payables {
			if !p.Payment().Settled() && Eligible(p, tx) {
				plan.Candidates = append(plan.Candidates, tx)
				inPool[tx.ID] = true
				break
			}
		}
	}

	used := make(map[string]bool)
	splitIndex := make(map[string]int)

	for _, p := range payables {
		if p.Payment().Settled() {
			continue
		}
		plan.TotalAmount = plan.TotalAmount.Add(p.AmountDue().Abs())

		if match := m.bestAmountMatch(p, plan.Candidates, used); match != nil {
			used[match.Transaction.ID] = true
			plan.Matches = append(plan.Matches, *match)
			plan.MatchedAmount = plan.MatchedAmount.Add(match.Transaction.Amount.Abs())
			continue
		}

		if tx, count := m.findMultipleOfPrice(p, plan.Candidates, used); tx != nil {
			if i, ok := splitIndex[tx.ID]; ok {
				plan.NeedsSplit[i].PayableIDs = append(plan.NeedsSplit[i].PayableIDs, p.PayableID())
			} else {
				splitIndex[tx.ID] = len(plan.NeedsSplit)
				plan.NeedsSplit = append(plan.NeedsSplit, SplitCandidate{
					Transaction:    tx,
					UnitPrice:      p.AmountDue().Abs(),
					SuggestedCount: count,
					PayableIDs:     []string{p.PayableID()},
				})
			}
			plan.Unmatched = append(plan.Unmatched, p)
			continue
		}

		plan.CashSuggested = append(plan.CashSuggested, p)
		plan.Unmatched = append(plan.Unmatched, p)
	}

	return plan
}

// bestAmountMatch tries the exact tier, then the tolerance tier. Within a
// tier the candidate with the best quality wins; ties go to the closest
// date, then to pool order.
func (m *Matcher) bestAmountMatch(p model.Payable, pool []*model.Transaction, used map[string]bool) *Match {
	due := p.AmountDue().Abs()

	tiers := []struct {
		tier       Tier
		confidence int
		accept     func(diff decimal.Decimal) bool
	}{
		{TierExact, ExactConfidence, func(diff decimal.Decimal) bool { return diff.LessThan(exactThreshold) }},
		{TierTolerance, ToleranceConfidence, func(diff decimal.Decimal) bool { return diff.LessThanOrEqual(m.config.AmountTolerance) }},
	}

	for _, tier := range tiers {
		var best *Match
		bestGap := 0

		for _, tx := range pool {
			if used[tx.ID] || !Eligible(p, tx) || !m.withinDateTolerance(p, tx) {
				continue
			}
			diff := due.Sub(tx.Amount.Abs()).Abs()
			if !tier.accept(diff) {
				continue
			}

			q := m.Evaluate(p, tx)
			gap := similarity.DaysBetween(p.DueDate(), tx.Date)
			if best == nil || q.Overall > best.Quality.Overall ||
				(q.Overall == best.Quality.Overall && gap < bestGap) {
				best = &Match{
					Payable:     p,
					Transaction: tx,
					Tier:        tier.tier,
					Confidence:  tier.confidence,
					Quality:     q,
				}
				bestGap = gap
			}
		}

		if best != nil {
			return best
		}
	}

	return nil
}

func (m *Matcher) withinDateTolerance(p model.Payable, tx *model.Transaction) bool {
	if m.config.DateToleranceDays <= 0 || p.DueDate().IsZero() || tx.Date.IsZero() {
		return true
	}
	return similarity.DaysBetween(p.DueDate(), tx.Date) <= m.config.DateToleranceDays
}
