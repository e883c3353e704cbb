package matcher

import (
	"fmt"
	"math"

	"github.com/clubledger/reconcile/internal/domain/model"
	"github.com/clubledger/reconcile/internal/domain/similarity"
)

// Score weights. They sum to 1.
const (
	amountWeight = 0.40
	nameWeight   = 0.35
	dateWeight   = 0.25
)

// Quality is the weighted confidence that a transaction pays a payable.
type Quality struct {
	Overall       int      `json:"overall"`
	NameMatch     int      `json:"name_match"`
	DateProximity int      `json:"date_proximity"`
	AmountMatch   int      `json:"amount_match"`
	Warnings      []string `json:"warnings,omitempty"`
}

// Evaluate scores tx against p.
//
// The name is compared against both the counterparty and the free-text
// communication and the better score is kept, since payers often type
// their name in the memo.
func (m *Matcher) Evaluate(p model.Payable, tx *model.Transaction) Quality {
	name := p.DisplayName()
	nameScore := max(
		similarity.NameSimilarity(name, tx.Counterparty),
		similarity.NameSimilarity(name, tx.Communication),
	)

	q := Quality{
		AmountMatch:   similarity.AmountMatch(p.AmountDue(), tx.Amount),
		NameMatch:     nameScore,
		DateProximity: similarity.DateProximity(p.DueDate(), tx.Date),
	}
	q.Overall = int(math.Round(
		amountWeight*float64(q.AmountMatch) +
			nameWeight*float64(q.NameMatch) +
			dateWeight*float64(q.DateProximity),
	))

	diff := p.AmountDue().Abs().Sub(tx.Amount.Abs()).Abs()
	if diff.GreaterThan(m.config.WarningAmountDiff) {
		q.Warnings = append(q.Warnings, fmt.Sprintf("amount differs by %s", diff.StringFixed(2)))
	}
	if q.NameMatch < 50 {
		q.Warnings = append(q.Warnings, fmt.Sprintf("name %q does not resemble %q", name, tx.Counterparty))
	}
	if !p.DueDate().IsZero() && !tx.Date.IsZero() {
		if gap := similarity.DaysBetween(p.DueDate(), tx.Date); gap > m.config.WarningDateGapDays {
			q.Warnings = append(q.Warnings, fmt.Sprintf("dates are %d days apart", gap))
		}
	}

	return q
}
