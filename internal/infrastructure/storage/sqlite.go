package storage

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	_ "github.com/mattn/go-sqlite3"

	"github.com/clubledger/reconcile/internal/domain/model"
)

// Storage is a document store on top of SQLite. Each collection is a table
// of (id, JSON document) rows. It implements the Repository interface.
type Storage struct {
	db *sql.DB
}

// Compile-time check that Storage implements Repository
var _ Repository = (*Storage)(nil)

// NewStorage creates a new storage instance with SQLite database
func NewStorage(dbPath string) (*Storage, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, err
	}

	// SQLite allows one writer at a time
	db.SetMaxOpenConns(1)

	s := &Storage{db: db}

	// Run all pending migrations
	if err := s.runMigrations(); err != nil {
		_ = db.Close()
		return nil, err
	}

	return s, nil
}

// Close closes the database connection
func (s *Storage) Close() error {
	return s.db.Close()
}

// ================================================================
// DOCUMENT HELPERS
// ================================================================

func (s *Storage) getDocument(collection, id string, dest any) error {
	var data string
	err := s.db.QueryRow(`SELECT data FROM `+collection+` WHERE id = ?`, id).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s/%s: %w", collection, id, ErrNotFound)
	}
	if err != nil {
		return err
	}
	return json.Unmarshal([]byte(data), dest)
}

func (s *Storage) saveDocument(collection, id string, doc any) error {
	if id == "" {
		return fmt.Errorf("%s: document id is required", collection)
	}
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to encode %s/%s: %w", collection, id, err)
	}

	query := `INSERT OR REPLACE INTO ` + collection + ` (id, data, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)`
	_, err = s.db.Exec(query, id, string(data))
	return err
}

func (s *Storage) deleteDocument(collection, id string) error {
	_, err := s.db.Exec(`DELETE FROM `+collection+` WHERE id = ?`, id)
	return err
}

// listDocuments decodes every row returned by query into a T.
func listDocuments[T any](s *Storage, query string, args ...any) ([]*T, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var docs []*T
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, err
		}
		doc := new(T)
		if err := json.Unmarshal([]byte(data), doc); err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}

	return docs, rows.Err()
}

// ================================================================
// TRANSACTIONS
// ================================================================

// GetTransaction retrieves a transaction by ID
func (s *Storage) GetTransaction(id string) (*model.Transaction, error) {
	tx := &model.Transaction{}
	if err := s.getDocument(CollectionTransactions, id, tx); err != nil {
		return nil, err
	}
	return tx, nil
}

// SaveTransaction replaces a transaction document
func (s *Storage) SaveTransaction(tx *model.Transaction) error {
	return s.saveDocument(CollectionTransactions, tx.ID, tx)
}

// ListTransactions returns every transaction ordered by date
func (s *Storage) ListTransactions() ([]*model.Transaction, error) {
	return listDocuments[model.Transaction](s, `
		SELECT data FROM transactions
		ORDER BY json_extract(data, '$.date'), id
	`)
}

// ================================================================
// REGISTRATIONS
// ================================================================

// GetRegistration retrieves a registration by ID
func (s *Storage) GetRegistration(id string) (*model.Registration, error) {
	r := &model.Registration{}
	if err := s.getDocument(CollectionRegistrations, id, r); err != nil {
		return nil, err
	}
	return r, nil
}

// SaveRegistration replaces a registration document
func (s *Storage) SaveRegistration(r *model.Registration) error {
	return s.saveDocument(CollectionRegistrations, r.ID, r)
}

// DeleteRegistration removes a registration document
func (s *Storage) DeleteRegistration(id string) error {
	return s.deleteDocument(CollectionRegistrations, id)
}

// ListRegistrations returns every registration
func (s *Storage) ListRegistrations() ([]*model.Registration, error) {
	return listDocuments[model.Registration](s, `SELECT data FROM registrations ORDER BY id`)
}

// ListRegistrationsByEvent returns the registrations of one event
func (s *Storage) ListRegistrationsByEvent(eventID string) ([]*model.Registration, error) {
	return listDocuments[model.Registration](s, `
		SELECT data FROM registrations
		WHERE json_extract(data, '$.event_id') = ?
		ORDER BY json_extract(data, '$.registered_at'), id
	`, eventID)
}

// ================================================================
// EXPENSES
// ================================================================

// GetExpense retrieves an expense by ID
func (s *Storage) GetExpense(id string) (*model.Expense, error) {
	e := &model.Expense{}
	if err := s.getDocument(CollectionExpenses, id, e); err != nil {
		return nil, err
	}
	return e, nil
}

// SaveExpense replaces an expense document
func (s *Storage) SaveExpense(e *model.Expense) error {
	return s.saveDocument(CollectionExpenses, e.ID, e)
}

// ListExpenses returns every expense
func (s *Storage) ListExpenses() ([]*model.Expense, error) {
	return listDocuments[model.Expense](s, `SELECT data FROM expenses ORDER BY id`)
}

// ListExpensesByEvent returns the expenses attached to one event
func (s *Storage) ListExpensesByEvent(eventID string) ([]*model.Expense, error) {
	return listDocuments[model.Expense](s, `
		SELECT data FROM expenses
		WHERE json_extract(data, '$.event_id') = ?
		ORDER BY json_extract(data, '$.submitted_at'), id
	`, eventID)
}

// ================================================================
// EVENTS AND MEMBERS
// ================================================================

// GetEvent retrieves an event by ID
func (s *Storage) GetEvent(id string) (*model.Event, error) {
	e := &model.Event{}
	if err := s.getDocument(CollectionEvents, id, e); err != nil {
		return nil, err
	}
	return e, nil
}

// SaveEvent replaces an event document
func (s *Storage) SaveEvent(e *model.Event) error {
	return s.saveDocument(CollectionEvents, e.ID, e)
}

// DeleteEvent removes an event document
func (s *Storage) DeleteEvent(id string) error {
	return s.deleteDocument(CollectionEvents, id)
}

// ListEvents returns every event
func (s *Storage) ListEvents() ([]*model.Event, error) {
	return listDocuments[model.Event](s, `SELECT data FROM events ORDER BY id`)
}

// GetMember retrieves a member by ID
func (s *Storage) GetMember(id string) (*model.Member, error) {
	m := &model.Member{}
	if err := s.getDocument(CollectionMembers, id, m); err != nil {
		return nil, err
	}
	return m, nil
}

// SaveMember replaces a member document
func (s *Storage) SaveMember(m *model.Member) error {
	return s.saveDocument(CollectionMembers, m.ID, m)
}

// ListMembers returns every member
func (s *Storage) ListMembers() ([]*model.Member, error) {
	return listDocuments[model.Member](s, `SELECT data FROM members ORDER BY id`)
}

// ================================================================
// CATEGORIZATION PATTERNS
// ================================================================

// GetPattern retrieves a pattern by its composite key
func (s *Storage) GetPattern(id string) (*model.CategorizationPattern, error) {
	p := &model.CategorizationPattern{}
	if err := s.getDocument(CollectionPatterns, id, p); err != nil {
		return nil, err
	}
	return p, nil
}

// SavePattern replaces a pattern document
func (s *Storage) SavePattern(p *model.CategorizationPattern) error {
	return s.saveDocument(CollectionPatterns, p.ID, p)
}

// FindPatterns returns patterns matching the filter, most used first
func (s *Storage) FindPatterns(filter PatternFilter) ([]*model.CategorizationPattern, error) {
	var conditions []string
	var args []any

	if filter.PrimaryKeyword != "" {
		conditions = append(conditions, `json_extract(data, '$.primary_keyword') = ?`)
		args = append(args, filter.PrimaryKeyword)
	}
	if filter.RoundedAmount != nil {
		conditions = append(conditions, `json_extract(data, '$.rounded_amount') = ?`)
		args = append(args, *filter.RoundedAmount)
	}
	if filter.Counterparty != "" {
		conditions = append(conditions,
			`COALESCE(json_extract(data, '$.primary_keyword'), '') = ''`,
			`LOWER(json_extract(data, '$.counterparty')) = LOWER(?)`)
		args = append(args, filter.Counterparty)
	}

	query := `SELECT data FROM categorization_patterns`
	if len(conditions) > 0 {
		query += ` WHERE ` + strings.Join(conditions, " AND ")
	}
	query += ` ORDER BY json_extract(data, '$.use_count') DESC, id`

	return listDocuments[model.CategorizationPattern](s, query, args...)
}
