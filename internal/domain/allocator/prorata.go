// Package allocator distributes an amount across shares proportionally to
// their weights:
//
//	multiplier = total / sum(weights)
//	share = weight * multiplier, rounded to the cent
//
// Rounding cents go to the largest share, so the shares always sum exactly
// to the total.
package allocator

import (
	"errors"

	"github.com/shopspring/decimal"
)

var (
	ErrNoWeights       = errors.New("no weights to allocate")
	ErrNegativeWeight  = errors.New("weight cannot be negative")
	ErrZeroTotalWeight = errors.New("weights sum to zero")
)

// Result contains the allocation results.
type Result struct {
	Multiplier decimal.Decimal
	Shares     []decimal.Decimal
}

// Allocate distributes total across weights. The total may be negative;
// shares then carry its sign.
func Allocate(total decimal.Decimal, weights []decimal.Decimal) (*Result, error) {
	if len(weights) == 0 {
		return nil, ErrNoWeights
	}

	sum := decimal.Zero
	for _, w := range weights {
		if w.IsNegative() {
			return nil, ErrNegativeWeight
		}
		sum = sum.Add(w)
	}
	if sum.IsZero() {
		return nil, ErrZeroTotalWeight
	}

	shares := make([]decimal.Decimal, len(weights))
	allocated := decimal.Zero
	largest := 0
	for i, w := range weights {
		shares[i] = total.Mul(w).Div(sum).Round(2)
		allocated = allocated.Add(shares[i])
		if shares[i].Abs().GreaterThan(shares[largest].Abs()) {
			largest = i
		}
	}

	// Fix rounding - adjust largest share if total is off
	if diff := total.Sub(allocated); !diff.IsZero() {
		shares[largest] = shares[largest].Add(diff)
	}

	return &Result{
		Multiplier: total.Div(sum),
		Shares:     shares,
	}, nil
}
