// Package splitter divides one aggregate bank transaction into child
// transactions that can each be linked to a single payable.
//
// The parent keeps its amount and is flagged is_parent; it is no longer
// linkable. Children carry parent_transaction_id and always sum exactly to
// the parent amount.
package splitter

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/clubledger/reconcile/internal/domain/allocator"
	"github.com/clubledger/reconcile/internal/domain/linking"
	"github.com/clubledger/reconcile/internal/domain/model"
)

// Split bounds.
const (
	MinParts = 2
	MaxParts = 50
)

// Rejection reasons.
var (
	ErrAlreadySplit     = errors.New("transaction is already split")
	ErrLinkedParent     = errors.New("transaction carries links")
	ErrChildTransaction = errors.New("transaction is itself a split part")
	ErrPartCount        = errors.New("invalid number of parts")
	ErrAmountMismatch   = errors.New("parts do not sum to the transaction amount")
	ErrPartSign         = errors.New("part has a different sign than the transaction")
)

func reject(reason error, format string, args ...any) error {
	return &linking.ValidationError{Reason: reason, Message: fmt.Sprintf(format, args...)}
}

// Check reports whether parent may be split into count parts.
func Check(parent *model.Transaction, count int) error {
	switch {
	case parent.IsParent:
		return reject(ErrAlreadySplit, "transaction %s is already split", parent.ID)
	case parent.ParentTransactionID != "":
		return reject(ErrChildTransaction, "transaction %s is part of %s", parent.ID, parent.ParentTransactionID)
	case parent.ExpectedReconciled():
		return reject(ErrLinkedParent, "transaction %s carries links, unlink them first", parent.ID)
	case count < MinParts || count > MaxParts:
		return reject(ErrPartCount, "a split needs between %d and %d parts, got %d", MinParts, MaxParts, count)
	}
	return nil
}

// Split divides parent into parts with the given amounts. The amounts must
// share the parent's sign and sum to its amount to the cent.
func Split(parent *model.Transaction, amounts []decimal.Decimal) ([]*model.Transaction, error) {
	if err := Check(parent, len(amounts)); err != nil {
		return nil, err
	}

	sum := decimal.Zero
	for i, a := range amounts {
		if a.IsZero() || a.Sign() != parent.Amount.Sign() {
			return nil, reject(ErrPartSign, "part %d (%s) does not match the sign of %s",
				i+1, a.StringFixed(2), parent.Amount.StringFixed(2))
		}
		sum = sum.Add(a)
	}
	if !sum.Round(2).Equal(parent.Amount.Round(2)) {
		return nil, reject(ErrAmountMismatch, "parts sum to %s, transaction is %s",
			sum.StringFixed(2), parent.Amount.StringFixed(2))
	}

	return build(parent, amounts), nil
}

// SplitEqual divides parent into count equal parts. Rounding cents go to
// the last part.
func SplitEqual(parent *model.Transaction, count int) ([]*model.Transaction, error) {
	if err := Check(parent, count); err != nil {
		return nil, err
	}

	n := decimal.NewFromInt(int64(count))
	share := parent.Amount.Div(n).Truncate(2)
	if share.IsZero() {
		return nil, reject(ErrPartCount, "%s cannot be split into %d parts", parent.Amount.StringFixed(2), count)
	}

	amounts := make([]decimal.Decimal, count)
	for i := range amounts {
		amounts[i] = share
	}
	amounts[count-1] = parent.Amount.Sub(share.Mul(decimal.NewFromInt(int64(count - 1))))

	return build(parent, amounts), nil
}

// SplitProRata divides parent proportionally to weights, typically the
// amounts due on the payables it covers. Rounding cents go to the largest part.
func SplitProRata(parent *model.Transaction, weights []decimal.Decimal) ([]*model.Transaction, error) {
	if err := Check(parent, len(weights)); err != nil {
		return nil, err
	}

	for i, w := range weights {
		if !w.IsPositive() {
			return nil, reject(ErrPartSign, "weight %d must be positive", i+1)
		}
	}

	allocation, err := allocator.Allocate(parent.Amount, weights)
	if err != nil {
		return nil, reject(ErrPartCount, "cannot split %s: %v", parent.Amount.StringFixed(2), err)
	}
	amounts := allocation.Shares

	for i, a := range amounts {
		if a.IsZero() {
			return nil, reject(ErrPartCount, "part %d would be zero", i+1)
		}
	}

	return build(parent, amounts), nil
}

// build creates the children and flags the parent.
func build(parent *model.Transaction, amounts []decimal.Decimal) []*model.Transaction {
	children := make([]*model.Transaction, len(amounts))
	for i, a := range amounts {
		children[i] = &model.Transaction{
			ID:                  uuid.NewString(),
			Amount:              a,
			Date:                parent.Date,
			Counterparty:        parent.Counterparty,
			Communication:       parent.Communication,
			Details:             fmt.Sprintf("part %d/%d of %s (%s)", i+1, len(amounts), parent.ID, parent.Amount.StringFixed(2)),
			AccountNumber:       parent.AccountNumber,
			ParentTransactionID: parent.ID,
			Category:            parent.Category,
			AccountCode:         parent.AccountCode,
		}
	}
	parent.IsParent = true
	return children
}
