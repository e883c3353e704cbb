// Package linking owns both sides of a payable <-> transaction link.
//
// A link is stored twice: as transaction_id on the payable and as a link
// record inside the transaction. The store cannot keep the two in step, so
// every write to either side goes through the Linker. Each operation writes
// the payable first and the transaction second. When the second write fails
// Link puts the payable back; anything left over is cleared by the repair
// pass.
package linking

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/clubledger/reconcile/internal/domain/model"
	"github.com/clubledger/reconcile/internal/infrastructure/storage"
)

// Store is the subset of the repository the Linker writes through.
type Store interface {
	GetTransaction(id string) (*model.Transaction, error)
	SaveTransaction(tx *model.Transaction) error
	SaveRegistration(r *model.Registration) error
	SaveExpense(e *model.Expense) error
}

// LinkOptions describes the provenance of a new link record.
type LinkOptions struct {
	Confidence int
	MatchedBy  model.MatchSource
}

// ManualLink is the provenance of a link made by a person.
var ManualLink = LinkOptions{Confidence: 100, MatchedBy: model.MatchedByManual}

// Linker applies link state transitions.
type Linker struct {
	store  Store
	logger *slog.Logger
	now    func() time.Time
}

// NewLinker creates a linker writing through store.
func NewLinker(store Store, logger *slog.Logger) *Linker {
	if logger == nil {
		logger = slog.Default()
	}
	return &Linker{
		store:  store,
		logger: logger.With(slog.String("component", "linker")),
		now:    time.Now,
	}
}

// CheckLink validates a link without writing anything.
func CheckLink(p model.Payable, tx *model.Transaction) error {
	pay := p.Payment()
	if pay.TransactionID != "" {
		return reject(ErrAlreadyLinked, fmt.Sprintf(
			"%s %s is already linked to transaction %s", p.EntityType(), p.PayableID(), pay.TransactionID))
	}
	if tx.IsParent {
		return reject(ErrParentTransaction, fmt.Sprintf(
			"transaction %s has been split, link one of its children instead", tx.ID))
	}
	if p.EntityType() == model.EntityRegistration && tx.HasLinkOfType(model.EntityRegistration) {
		return reject(ErrTransactionAlreadyLinked, fmt.Sprintf(
			"transaction %s is already linked to another registration", tx.ID))
	}
	if tx.HasLink(p.EntityType(), p.PayableID()) {
		return reject(ErrTransactionAlreadyLinked, fmt.Sprintf(
			"transaction %s already carries a link to %s %s", tx.ID, p.EntityType(), p.PayableID()))
	}
	if p.IncomingPayment() && !tx.Amount.IsPositive() {
		return reject(ErrWrongSign, fmt.Sprintf(
			"transaction %s is not incoming money (%s)", tx.ID, tx.Amount.StringFixed(2)))
	}
	if !p.IncomingPayment() && !tx.Amount.IsNegative() {
		return reject(ErrWrongSign, fmt.Sprintf(
			"transaction %s is not outgoing money (%s)", tx.ID, tx.Amount.StringFixed(2)))
	}
	return nil
}

// Link settles p with tx: the payable is marked paid by bank and the
// transaction gets a link record and becomes reconciled.
func (l *Linker) Link(p model.Payable, tx *model.Transaction, opts LinkOptions) error {
	if err := CheckLink(p, tx); err != nil {
		return err
	}
	if opts.MatchedBy == "" {
		opts.MatchedBy = model.MatchedByManual
	}

	pay := p.Payment()
	prevPay := *pay
	prevLinks := tx.MatchedEntities
	prevReconciled := tx.Reconciled

	pay.TransactionID = tx.ID
	pay.Paid = true
	pay.PaymentMode = model.PaymentBank

	tx.MatchedEntities = append(make([]model.MatchedEntity, 0, len(prevLinks)+1), prevLinks...)
	tx.MatchedEntities = append(tx.MatchedEntities, model.MatchedEntity{
		EntityType: p.EntityType(),
		EntityID:   p.PayableID(),
		EntityName: p.DisplayName(),
		Confidence: opts.Confidence,
		MatchedAt:  l.now().UTC(),
		MatchedBy:  opts.MatchedBy,
	})
	tx.Reconciled = true

	if err := l.savePayable(p); err != nil {
		*pay = prevPay
		tx.MatchedEntities, tx.Reconciled = prevLinks, prevReconciled
		return err
	}
	if err := l.store.SaveTransaction(tx); err != nil {
		err = fmt.Errorf("save transaction %s: %w", tx.ID, err)
		*pay = prevPay
		tx.MatchedEntities, tx.Reconciled = prevLinks, prevReconciled
		if rerr := l.savePayable(p); rerr != nil {
			l.logger.Error("Payable left pointing at unlinked transaction",
				"entity_type", p.EntityType(),
				"entity_id", p.PayableID(),
				"transaction_id", tx.ID,
				"error", rerr)
			return errors.Join(err, fmt.Errorf("restore %s %s: %w", p.EntityType(), p.PayableID(), rerr))
		}
		return err
	}

	l.logger.Info("Linked payable",
		"entity_type", p.EntityType(),
		"entity_id", p.PayableID(),
		"transaction_id", tx.ID,
		"confidence", opts.Confidence,
		"matched_by", opts.MatchedBy)
	return nil
}

// Unlink detaches p from its transaction. With markUnpaid the payable goes
// back to unpaid; otherwise it stays paid and is recorded as cash.
func (l *Linker) Unlink(p model.Payable, markUnpaid bool) error {
	pay := p.Payment()
	if pay.TransactionID == "" {
		return reject(ErrNotLinked, fmt.Sprintf("%s %s is not linked", p.EntityType(), p.PayableID()))
	}

	txID := pay.TransactionID
	tx, err := l.store.GetTransaction(txID)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return fmt.Errorf("load transaction %s: %w", txID, err)
	}

	pay.TransactionID = ""
	if markUnpaid {
		pay.Paid = false
		pay.PaymentMode = model.PaymentNone
	} else {
		pay.Paid = true
		pay.PaymentMode = model.PaymentCash
	}

	if err := l.savePayable(p); err != nil {
		return err
	}

	if tx == nil {
		l.logger.Warn("Linked transaction no longer exists",
			"entity_type", p.EntityType(),
			"entity_id", p.PayableID(),
			"transaction_id", txID)
		return nil
	}

	tx.RemoveLink(p.EntityType(), p.PayableID())
	tx.Reconciled = len(tx.MatchedEntities) > 0
	if err := l.store.SaveTransaction(tx); err != nil {
		return fmt.Errorf("save transaction %s: %w", tx.ID, err)
	}

	l.logger.Info("Unlinked payable",
		"entity_type", p.EntityType(),
		"entity_id", p.PayableID(),
		"transaction_id", txID,
		"mark_unpaid", markUnpaid)
	return nil
}

// MarkPaidCash records a cash payment. A bank-linked payable must be
// unlinked first.
func (l *Linker) MarkPaidCash(p model.Payable, comment string) error {
	pay := p.Payment()
	if pay.TransactionID != "" {
		return reject(ErrAlreadyLinked, fmt.Sprintf(
			"%s %s is linked to transaction %s, unlink it first", p.EntityType(), p.PayableID(), pay.TransactionID))
	}

	pay.Paid = true
	pay.PaymentMode = model.PaymentCash
	if comment != "" {
		pay.Comment = comment
	}
	return l.savePayable(p)
}

// MarkUnpaid clears a cash payment. A bank-linked payable must be unlinked
// instead.
func (l *Linker) MarkUnpaid(p model.Payable) error {
	pay := p.Payment()
	if pay.TransactionID != "" {
		return reject(ErrAlreadyLinked, fmt.Sprintf(
			"%s %s is linked to transaction %s, unlink it instead", p.EntityType(), p.PayableID(), pay.TransactionID))
	}
	if pay.Status() == model.StatusUnpaid {
		return nil
	}

	pay.Paid = false
	pay.PaymentMode = model.PaymentNone
	return l.savePayable(p)
}

func (l *Linker) savePayable(p model.Payable) error {
	var err error
	switch v := p.(type) {
	case *model.Registration:
		err = l.store.SaveRegistration(v)
	case *model.Expense:
		err = l.store.SaveExpense(v)
	default:
		return fmt.Errorf("unsupported payable type %T", p)
	}
	if err != nil {
		return fmt.Errorf("save %s %s: %w", p.EntityType(), p.PayableID(), err)
	}
	return nil
}
