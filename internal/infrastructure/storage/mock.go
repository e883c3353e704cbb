package storage

import (
	"fmt"
	"sort"
	"strings"

	"github.com/clubledger/reconcile/internal/domain/model"
)

// MockRepository is an in-memory implementation of Repository for testing.
// It stores all data in maps, making tests fast and isolated.
type MockRepository struct {
	transactions  map[string]*model.Transaction
	registrations map[string]*model.Registration
	expenses      map[string]*model.Expense
	events        map[string]*model.Event
	members       map[string]*model.Member
	patterns      map[string]*model.CategorizationPattern

	// Hooks for test assertions
	Writes  map[string]int // Saves per collection
	Deletes map[string]int // Deletes per collection

	// Error injection for testing error paths
	GetTransactionErr     error
	SaveTransactionErr    error
	SaveTransactionErrFor map[string]error // Keyed by transaction id
	SaveRegistrationErr   error
	SaveExpenseErr        error
	SavePatternErr        error
	ListErr               error
}

// NewMockRepository creates a new mock repository for testing
func NewMockRepository() *MockRepository {
	return &MockRepository{
		transactions:          make(map[string]*model.Transaction),
		registrations:         make(map[string]*model.Registration),
		expenses:              make(map[string]*model.Expense),
		events:                make(map[string]*model.Event),
		members:               make(map[string]*model.Member),
		patterns:              make(map[string]*model.CategorizationPattern),
		Writes:                make(map[string]int),
		Deletes:               make(map[string]int),
		SaveTransactionErrFor: make(map[string]error),
	}
}

// Compile-time check that MockRepository implements Repository
var _ Repository = (*MockRepository)(nil)

// Close does nothing for mock
func (m *MockRepository) Close() error {
	return nil
}

// TotalWrites returns the number of saves and deletes across all collections
func (m *MockRepository) TotalWrites() int {
	total := 0
	for _, n := range m.Writes {
		total += n
	}
	for _, n := range m.Deletes {
		total += n
	}
	return total
}

// ResetCounters clears the write and delete counters, typically after seeding
func (m *MockRepository) ResetCounters() {
	m.Writes = make(map[string]int)
	m.Deletes = make(map[string]int)
}

func notFound(collection, id string) error {
	return fmt.Errorf("%s/%s: %w", collection, id, ErrNotFound)
}

func copyRegistration(r *model.Registration) *model.Registration {
	c := *r
	return &c
}

func copyExpense(e *model.Expense) *model.Expense {
	c := *e
	return &c
}

func copyPattern(p *model.CategorizationPattern) *model.CategorizationPattern {
	c := *p
	c.Keywords = append([]string(nil), p.Keywords...)
	return &c
}

func sortedKeys[T any](docs map[string]T) []string {
	keys := make([]string, 0, len(docs))
	for k := range docs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// ================================================================
// TRANSACTIONS
// ================================================================

// GetTransaction returns a copy of the stored transaction
func (m *MockRepository) GetTransaction(id string) (*model.Transaction, error) {
	if m.GetTransactionErr != nil {
		return nil, m.GetTransactionErr
	}
	tx, ok := m.transactions[id]
	if !ok {
		return nil, notFound(CollectionTransactions, id)
	}
	return tx.Clone(), nil
}

// SaveTransaction stores a copy of the transaction
func (m *MockRepository) SaveTransaction(tx *model.Transaction) error {
	if m.SaveTransactionErr != nil {
		return m.SaveTransactionErr
	}
	if err := m.SaveTransactionErrFor[tx.ID]; err != nil {
		return err
	}
	m.Writes[CollectionTransactions]++
	m.transactions[tx.ID] = tx.Clone()
	return nil
}

// ListTransactions returns copies ordered by date
func (m *MockRepository) ListTransactions() ([]*model.Transaction, error) {
	if m.ListErr != nil {
		return nil, m.ListErr
	}
	var out []*model.Transaction
	for _, id := range sortedKeys(m.transactions) {
		out = append(out, m.transactions[id].Clone())
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}

// ================================================================
// REGISTRATIONS
// ================================================================

// GetRegistration returns a copy of the stored registration
func (m *MockRepository) GetRegistration(id string) (*model.Registration, error) {
	r, ok := m.registrations[id]
	if !ok {
		return nil, notFound(CollectionRegistrations, id)
	}
	return copyRegistration(r), nil
}

// SaveRegistration stores a copy of the registration
func (m *MockRepository) SaveRegistration(r *model.Registration) error {
	if m.SaveRegistrationErr != nil {
		return m.SaveRegistrationErr
	}
	m.Writes[CollectionRegistrations]++
	m.registrations[r.ID] = copyRegistration(r)
	return nil
}

// DeleteRegistration removes a registration
func (m *MockRepository) DeleteRegistration(id string) error {
	m.Deletes[CollectionRegistrations]++
	delete(m.registrations, id)
	return nil
}

// ListRegistrations returns copies of every registration
func (m *MockRepository) ListRegistrations() ([]*model.Registration, error) {
	if m.ListErr != nil {
		return nil, m.ListErr
	}
	var out []*model.Registration
	for _, id := range sortedKeys(m.registrations) {
		out = append(out, copyRegistration(m.registrations[id]))
	}
	return out, nil
}

// ListRegistrationsByEvent returns copies of one event's registrations
func (m *MockRepository) ListRegistrationsByEvent(eventID string) ([]*model.Registration, error) {
	all, err := m.ListRegistrations()
	if err != nil {
		return nil, err
	}
	var out []*model.Registration
	for _, r := range all {
		if r.EventID == eventID {
			out = append(out, r)
		}
	}
	return out, nil
}

// ================================================================
// EXPENSES
// ================================================================

// GetExpense returns a copy of the stored expense
func (m *MockRepository) GetExpense(id string) (*model.Expense, error) {
	e, ok := m.expenses[id]
	if !ok {
		return nil, notFound(CollectionExpenses, id)
	}
	return copyExpense(e), nil
}

// SaveExpense stores a copy of the expense
func (m *MockRepository) SaveExpense(e *model.Expense) error {
	if m.SaveExpenseErr != nil {
		return m.SaveExpenseErr
	}
	m.Writes[CollectionExpenses]++
	m.expenses[e.ID] = copyExpense(e)
	return nil
}

// ListExpenses returns copies of every expense
func (m *MockRepository) ListExpenses() ([]*model.Expense, error) {
	if m.ListErr != nil {
		return nil, m.ListErr
	}
	var out []*model.Expense
	for _, id := range sortedKeys(m.expenses) {
		out = append(out, copyExpense(m.expenses[id]))
	}
	return out, nil
}

// ListExpensesByEvent returns copies of one event's expenses
func (m *MockRepository) ListExpensesByEvent(eventID string) ([]*model.Expense, error) {
	all, err := m.ListExpenses()
	if err != nil {
		return nil, err
	}
	var out []*model.Expense
	for _, e := range all {
		if e.EventID == eventID {
			out = append(out, e)
		}
	}
	return out, nil
}

// ================================================================
// EVENTS AND MEMBERS
// ================================================================

// GetEvent returns a copy of the stored event
func (m *MockRepository) GetEvent(id string) (*model.Event, error) {
	e, ok := m.events[id]
	if !ok {
		return nil, notFound(CollectionEvents, id)
	}
	c := *e
	return &c, nil
}

// SaveEvent stores a copy of the event
func (m *MockRepository) SaveEvent(e *model.Event) error {
	m.Writes[CollectionEvents]++
	c := *e
	m.events[e.ID] = &c
	return nil
}

// DeleteEvent removes an event
func (m *MockRepository) DeleteEvent(id string) error {
	m.Deletes[CollectionEvents]++
	delete(m.events, id)
	return nil
}

// ListEvents returns copies of every event
func (m *MockRepository) ListEvents() ([]*model.Event, error) {
	var out []*model.Event
	for _, id := range sortedKeys(m.events) {
		c := *m.events[id]
		out = append(out, &c)
	}
	return out, nil
}

// GetMember returns a copy of the stored member
func (m *MockRepository) GetMember(id string) (*model.Member, error) {
	mem, ok := m.members[id]
	if !ok {
		return nil, notFound(CollectionMembers, id)
	}
	c := *mem
	return &c, nil
}

// SaveMember stores a copy of the member
func (m *MockRepository) SaveMember(mem *model.Member) error {
	m.Writes[CollectionMembers]++
	c := *mem
	m.members[mem.ID] = &c
	return nil
}

// ListMembers returns copies of every member
func (m *MockRepository) ListMembers() ([]*model.Member, error) {
	var out []*model.Member
	for _, id := range sortedKeys(m.members) {
		c := *m.members[id]
		out = append(out, &c)
	}
	return out, nil
}

// ================================================================
// CATEGORIZATION PATTERNS
// ================================================================

// GetPattern returns a copy of the stored pattern
func (m *MockRepository) GetPattern(id string) (*model.CategorizationPattern, error) {
	p, ok := m.patterns[id]
	if !ok {
		return nil, notFound(CollectionPatterns, id)
	}
	return copyPattern(p), nil
}

// SavePattern stores a copy of the pattern
func (m *MockRepository) SavePattern(p *model.CategorizationPattern) error {
	if m.SavePatternErr != nil {
		return m.SavePatternErr
	}
	m.Writes[CollectionPatterns]++
	m.patterns[p.ID] = copyPattern(p)
	return nil
}

// FindPatterns filters patterns the same way the SQLite store does
func (m *MockRepository) FindPatterns(filter PatternFilter) ([]*model.CategorizationPattern, error) {
	var out []*model.CategorizationPattern
	for _, id := range sortedKeys(m.patterns) {
		p := m.patterns[id]
		if filter.PrimaryKeyword != "" && p.PrimaryKeyword != filter.PrimaryKeyword {
			continue
		}
		if filter.RoundedAmount != nil && p.RoundedAmount != *filter.RoundedAmount {
			continue
		}
		if filter.Counterparty != "" {
			if p.PrimaryKeyword != "" || !strings.EqualFold(p.Counterparty, filter.Counterparty) {
				continue
			}
		}
		out = append(out, copyPattern(p))
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].UseCount > out[j].UseCount })
	return out, nil
}
