package storage

import (
	"errors"

	"github.com/clubledger/reconcile/internal/domain/model"
)

// ErrNotFound is returned when a document id does not exist in its collection.
var ErrNotFound = errors.New("document not found")

// Collection names. Each one is an independent document set; nothing
// links them at the storage level.
const (
	CollectionTransactions  = "transactions"
	CollectionRegistrations = "registrations"
	CollectionExpenses      = "expenses"
	CollectionEvents        = "events"
	CollectionMembers       = "members"
	CollectionPatterns      = "categorization_patterns"
)

// Repository defines the complete storage interface.
// This interface allows swapping implementations (SQLite, a hosted document
// store, etc.) and makes testing with mocks straightforward.
//
// Writes replace whole documents: the last writer wins and there is no
// transaction spanning two documents.
type Repository interface {
	TransactionRepository
	RegistrationRepository
	ExpenseRepository
	EventRepository
	MemberRepository
	PatternRepository
	Close() error
}

// TransactionRepository handles bank transaction documents
type TransactionRepository interface {
	GetTransaction(id string) (*model.Transaction, error)
	SaveTransaction(tx *model.Transaction) error
	ListTransactions() ([]*model.Transaction, error)
}

// RegistrationRepository handles event registration documents
type RegistrationRepository interface {
	GetRegistration(id string) (*model.Registration, error)
	SaveRegistration(r *model.Registration) error
	DeleteRegistration(id string) error
	ListRegistrations() ([]*model.Registration, error)
	ListRegistrationsByEvent(eventID string) ([]*model.Registration, error)
}

// ExpenseRepository handles expense claim documents
type ExpenseRepository interface {
	GetExpense(id string) (*model.Expense, error)
	SaveExpense(e *model.Expense) error
	ListExpenses() ([]*model.Expense, error)
	ListExpensesByEvent(eventID string) ([]*model.Expense, error)
}

// EventRepository handles event documents
type EventRepository interface {
	GetEvent(id string) (*model.Event, error)
	SaveEvent(e *model.Event) error
	DeleteEvent(id string) error
	ListEvents() ([]*model.Event, error)
}

// MemberRepository handles member documents
type MemberRepository interface {
	GetMember(id string) (*model.Member, error)
	SaveMember(m *model.Member) error
	ListMembers() ([]*model.Member, error)
}

// PatternRepository handles learned categorization patterns
type PatternRepository interface {
	GetPattern(id string) (*model.CategorizationPattern, error)
	SavePattern(p *model.CategorizationPattern) error

	// FindPatterns returns patterns matching every non-empty filter field
	FindPatterns(filter PatternFilter) ([]*model.CategorizationPattern, error)
}

// PatternFilter defines filters for pattern lookups
type PatternFilter struct {
	PrimaryKeyword string // Exact keyword (empty = any)
	RoundedAmount  *int64 // Exact rounded amount (nil = any)
	Counterparty   string // Exact counterparty, legacy patterns only
}
