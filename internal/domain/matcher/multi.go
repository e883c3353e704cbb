package matcher

import (
	"github.com/shopspring/decimal"

	"github.com/clubledger/reconcile/internal/domain/model"
)

// Bounds for multiple-of-price detection.
const (
	MinSplitCount = 2
	MaxSplitCount = 10
)

var ratioTolerance = decimal.NewFromFloat(0.1)

// MultipleOf returns the integer n such that amount is n times price, when
// n lies in [MinSplitCount, MaxSplitCount] and the ratio is within 0.1 of n.
func MultipleOf(amount, price decimal.Decimal) (int, bool) {
	price = price.Abs()
	if price.IsZero() {
		return 0, false
	}

	ratio := amount.Abs().DivRound(price, 4)
	n := ratio.Round(0)
	if ratio.Sub(n).Abs().GreaterThan(ratioTolerance) {
		return 0, false
	}

	count := int(n.IntPart())
	if count < MinSplitCount || count > MaxSplitCount {
		return 0, false
	}
	return count, true
}

// findMultipleOfPrice looks for an unused transaction that aggregates
// several payments of p's price. The best-scoring one is returned.
func (m *Matcher) findMultipleOfPrice(p model.Payable, pool []*model.Transaction, used map[string]bool) (*model.Transaction, int) {
	var best *model.Transaction
	bestCount, bestScore := 0, -1

	for _, tx := range pool {
		if used[tx.ID] || !Eligible(p, tx) || !m.withinDateTolerance(p, tx) {
			continue
		}
		count, ok := MultipleOf(tx.Amount, p.AmountDue())
		if !ok {
			continue
		}

		// Compare on name and date only, the amount is off by design
		q := m.Evaluate(p, tx)
		score := q.NameMatch + q.DateProximity
		if score > bestScore {
			best, bestCount, bestScore = tx, count, score
		}
	}

	return best, bestCount
}
