// Package repair restores link integrity that the document store cannot
// enforce: dangling link records, stale back-references, event cascades and
// reconciled flags that drifted from the link list.
//
// Every pass is safe to re-run. A pass over a clean collection writes nothing.
package repair

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/clubledger/reconcile/internal/domain/model"
)

// Store is the part of the repository repair needs.
type Store interface {
	ListTransactions() ([]*model.Transaction, error)
	SaveTransaction(tx *model.Transaction) error

	ListRegistrations() ([]*model.Registration, error)
	ListRegistrationsByEvent(eventID string) ([]*model.Registration, error)
	SaveRegistration(r *model.Registration) error
	DeleteRegistration(id string) error

	ListExpenses() ([]*model.Expense, error)
	ListExpensesByEvent(eventID string) ([]*model.Expense, error)
	SaveExpense(e *model.Expense) error

	ListEvents() ([]*model.Event, error)
	ListMembers() ([]*model.Member, error)
}

// Report summarizes one repair pass.
type Report struct {
	DryRun bool `json:"dry_run"`

	TransactionsScanned  int `json:"transactions_scanned"`
	TransactionsUpdated  int `json:"transactions_updated"`
	LinksRemoved         int `json:"links_removed"`
	LegacyRefsCleared    int `json:"legacy_refs_cleared"`
	ReconciledFixed      int `json:"reconciled_fixed"`
	PayablesCleared      int `json:"payables_cleared"`
	RegistrationsDeleted int `json:"registrations_deleted"`
	ExpensesUpdated      int `json:"expenses_updated"`

	Failed int      `json:"failed"`
	Errors []string `json:"errors,omitempty"`
}

// Writes is the number of documents written or deleted.
func (r *Report) Writes() int {
	return r.TransactionsUpdated + r.PayablesCleared + r.RegistrationsDeleted + r.ExpensesUpdated
}

func (r *Report) fail(format string, args ...any) {
	r.Failed++
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
}

// Service runs repair passes.
type Service struct {
	store  Store
	logger *slog.Logger
	dryRun bool
}

// NewService creates a repair service. With dryRun set, passes compute
// their report without writing.
func NewService(store Store, logger *slog.Logger, dryRun bool) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		store:  store,
		logger: logger.With(slog.String("component", "repair")),
		dryRun: dryRun,
	}
}

// entityKey identifies a link target.
type entityKey struct {
	Type model.EntityType
	ID   string
}

// existence holds the ids present in each collection.
type existence map[entityKey]bool

func (e existence) has(t model.EntityType, id string) bool {
	return e[entityKey{t, id}]
}

func (s *Service) loadExistence() (existence, []*model.Registration, []*model.Expense, error) {
	ex := make(existence)

	regs, err := s.store.ListRegistrations()
	if err != nil {
		return nil, nil, nil, fmt.Errorf("list registrations: %w", err)
	}
	for _, r := range regs {
		ex[entityKey{model.EntityRegistration, r.ID}] = true
	}

	exps, err := s.store.ListExpenses()
	if err != nil {
		return nil, nil, nil, fmt.Errorf("list expenses: %w", err)
	}
	for _, e := range exps {
		ex[entityKey{model.EntityExpense, e.ID}] = true
	}

	events, err := s.store.ListEvents()
	if err != nil {
		return nil, nil, nil, fmt.Errorf("list events: %w", err)
	}
	for _, e := range events {
		ex[entityKey{model.EntityEvent, e.ID}] = true
	}

	members, err := s.store.ListMembers()
	if err != nil {
		return nil, nil, nil, fmt.Errorf("list members: %w", err)
	}
	for _, m := range members {
		ex[entityKey{model.EntityMember, m.ID}] = true
	}

	return ex, regs, exps, nil
}

// CleanAll is the full sweep. It drops link records and legacy references
// whose target no longer exists, collapses duplicate link records,
// recomputes every reconciled flag, and frees payables whose linked
// transaction is gone or carries no link record back to them.
func (s *Service) CleanAll(ctx context.Context) (*Report, error) {
	report := &Report{DryRun: s.dryRun}

	ex, regs, exps, err := s.loadExistence()
	if err != nil {
		return report, err
	}
	txs, err := s.store.ListTransactions()
	if err != nil {
		return report, fmt.Errorf("list transactions: %w", err)
	}

	txByID := make(map[string]*model.Transaction, len(txs))
	for _, tx := range txs {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		txByID[tx.ID] = tx
		report.TransactionsScanned++

		changed := false
		seen := make(map[entityKey]bool, len(tx.MatchedEntities))
		kept := make([]model.MatchedEntity, 0, len(tx.MatchedEntities))
		for _, m := range tx.MatchedEntities {
			key := entityKey{m.EntityType, m.EntityID}
			if !ex[key] || seen[key] {
				report.LinksRemoved++
				changed = true
				continue
			}
			seen[key] = true
			kept = append(kept, m)
		}
		if changed {
			tx.MatchedEntities = kept
		}

		if tx.ExpenseID != "" && !ex.has(model.EntityExpense, tx.ExpenseID) {
			tx.ExpenseID = ""
			report.LegacyRefsCleared++
			changed = true
		}
		if tx.EventID != "" && !ex.has(model.EntityEvent, tx.EventID) {
			tx.EventID = ""
			report.LegacyRefsCleared++
			changed = true
		}

		if want := tx.ExpectedReconciled(); tx.Reconciled != want {
			tx.Reconciled = want
			report.ReconciledFixed++
			changed = true
		}

		if changed {
			s.saveTransaction(tx, report)
		}
	}

	for _, r := range regs {
		if s.freeDanglingPayable(r, txByID) {
			s.savePayable(r, report)
		}
	}
	for _, e := range exps {
		if s.freeDanglingPayable(e, txByID) {
			s.savePayable(e, report)
		}
	}

	s.logSummary("Full repair complete", report)
	return report, nil
}

// freeDanglingPayable clears a back-reference to a transaction that no
// longer exists, or that holds no link record for the payable. The payable
// goes back to unpaid.
func (s *Service) freeDanglingPayable(p model.Payable, txByID map[string]*model.Transaction) bool {
	pay := p.Payment()
	if pay.TransactionID == "" {
		return false
	}
	tx, ok := txByID[pay.TransactionID]
	switch {
	case !ok:
		s.logger.Warn("Payable references a missing transaction",
			"entity_type", p.EntityType(),
			"entity_id", p.PayableID(),
			"transaction_id", pay.TransactionID)
	case backsPayable(tx, p):
		return false
	default:
		s.logger.Warn("Payable references a transaction without its link record",
			"entity_type", p.EntityType(),
			"entity_id", p.PayableID(),
			"transaction_id", pay.TransactionID)
	}
	pay.TransactionID = ""
	pay.Paid = false
	pay.PaymentMode = model.PaymentNone
	return true
}

// backsPayable reports whether tx carries the other side of p's link.
func backsPayable(tx *model.Transaction, p model.Payable) bool {
	if tx.HasLink(p.EntityType(), p.PayableID()) {
		return true
	}
	return p.EntityType() == model.EntityExpense && tx.ExpenseID == p.PayableID()
}

// CleanAfterDelete removes every reference to one deleted entity. Deleting an
// event also deletes its registrations, with their link records, and detaches
// its expenses.
func (s *Service) CleanAfterDelete(ctx context.Context, entityType model.EntityType, entityID string) (*Report, error) {
	report := &Report{DryRun: s.dryRun}
	if !entityType.Valid() {
		return report, fmt.Errorf("unknown entity type %q", entityType)
	}
	if entityID == "" {
		return report, fmt.Errorf("entity id is required")
	}

	targets := map[entityKey]bool{{entityType, entityID}: true}

	var dependents []*model.Registration
	var detached []*model.Expense
	if entityType == model.EntityEvent {
		var err error
		dependents, err = s.store.ListRegistrationsByEvent(entityID)
		if err != nil {
			return report, fmt.Errorf("list registrations of event %s: %w", entityID, err)
		}
		for _, r := range dependents {
			targets[entityKey{model.EntityRegistration, r.ID}] = true
		}
		detached, err = s.store.ListExpensesByEvent(entityID)
		if err != nil {
			return report, fmt.Errorf("list expenses of event %s: %w", entityID, err)
		}
	}

	txs, err := s.store.ListTransactions()
	if err != nil {
		return report, fmt.Errorf("list transactions: %w", err)
	}

	for _, tx := range txs {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		report.TransactionsScanned++

		changed := false
		for key := range targets {
			if n := tx.RemoveLink(key.Type, key.ID); n > 0 {
				report.LinksRemoved += n
				changed = true
			}
		}
		if entityType == model.EntityExpense && tx.ExpenseID == entityID {
			tx.ExpenseID = ""
			report.LegacyRefsCleared++
			changed = true
		}
		if entityType == model.EntityEvent && tx.EventID == entityID {
			tx.EventID = ""
			report.LegacyRefsCleared++
			changed = true
		}
		if !changed {
			continue
		}

		tx.Reconciled = tx.ExpectedReconciled()
		s.saveTransaction(tx, report)
	}

	for _, r := range dependents {
		if s.dryRun {
			report.RegistrationsDeleted++
			continue
		}
		if err := s.store.DeleteRegistration(r.ID); err != nil {
			report.fail("delete registration %s: %v", r.ID, err)
			s.logger.Warn("Failed to delete registration", "registration_id", r.ID, "error", err)
			continue
		}
		report.RegistrationsDeleted++
	}

	for _, e := range detached {
		e.EventID = ""
		if s.dryRun {
			report.ExpensesUpdated++
			continue
		}
		if err := s.store.SaveExpense(e); err != nil {
			report.fail("save expense %s: %v", e.ID, err)
			s.logger.Warn("Failed to detach expense", "expense_id", e.ID, "error", err)
			continue
		}
		report.ExpensesUpdated++
	}

	s.logSummary("Cleanup after delete complete", report,
		"entity_type", entityType, "entity_id", entityID)
	return report, nil
}

// RepairReconciliationStatus recomputes every reconciled flag from the link
// fields and writes only the transactions that drifted.
func (s *Service) RepairReconciliationStatus(ctx context.Context) (*Report, error) {
	report := &Report{DryRun: s.dryRun}

	txs, err := s.store.ListTransactions()
	if err != nil {
		return report, fmt.Errorf("list transactions: %w", err)
	}

	for _, tx := range txs {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		report.TransactionsScanned++

		want := tx.ExpectedReconciled()
		if tx.Reconciled == want {
			continue
		}
		tx.Reconciled = want
		report.ReconciledFixed++
		s.saveTransaction(tx, report)
	}

	s.logSummary("Reconciled status repair complete", report)
	return report, nil
}

func (s *Service) saveTransaction(tx *model.Transaction, report *Report) {
	if s.dryRun {
		report.TransactionsUpdated++
		return
	}
	if err := s.store.SaveTransaction(tx); err != nil {
		report.fail("save transaction %s: %v", tx.ID, err)
		s.logger.Warn("Failed to save transaction", "transaction_id", tx.ID, "error", err)
		return
	}
	report.TransactionsUpdated++
}

func (s *Service) savePayable(p model.Payable, report *Report) {
	if s.dryRun {
		report.PayablesCleared++
		return
	}
	var err error
	switch v := p.(type) {
	case *model.Registration:
		err = s.store.SaveRegistration(v)
	case *model.Expense:
		err = s.store.SaveExpense(v)
	}
	if err != nil {
		report.fail("save %s %s: %v", p.EntityType(), p.PayableID(), err)
		s.logger.Warn("Failed to save payable", "entity_type", p.EntityType(), "entity_id", p.PayableID(), "error", err)
		return
	}
	report.PayablesCleared++
}

func (s *Service) logSummary(msg string, report *Report, extra ...any) {
	args := append([]any{
		"scanned", report.TransactionsScanned,
		"transactions_updated", report.TransactionsUpdated,
		"links_removed", report.LinksRemoved,
		"reconciled_fixed", report.ReconciledFixed,
		"failed", report.Failed,
		"dry_run", report.DryRun,
	}, extra...)
	s.logger.Info(msg, args...)
}
