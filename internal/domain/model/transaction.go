// Package model defines the documents stored by the reconciliation engine.
//
// The store enforces no schema and no foreign keys. Every cross-document
// reference below (link records, transaction_id back-references, event ids)
// is maintained by application code only.
package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// EntityType identifies what a link record points to.
type EntityType string

const (
	EntityRegistration EntityType = "registration"
	EntityExpense      EntityType = "expense"
	EntityEvent        EntityType = "event"
	EntityMember       EntityType = "member"
)

// Valid reports whether t is one of the known entity types.
func (t EntityType) Valid() bool {
	switch t {
	case EntityRegistration, EntityExpense, EntityEvent, EntityMember:
		return true
	}
	return false
}

// MatchSource records who created a link record.
type MatchSource string

const (
	MatchedByManual MatchSource = "manual"
	MatchedByAuto   MatchSource = "auto"
	MatchedByAI     MatchSource = "ai"
)

// MatchedEntity is a link record embedded in a Transaction.
type MatchedEntity struct {
	EntityType EntityType  `json:"entity_type"`
	EntityID   string      `json:"entity_id"`
	EntityName string      `json:"entity_name"`
	Confidence int         `json:"confidence"`
	MatchedAt  time.Time   `json:"matched_at"`
	MatchedBy  MatchSource `json:"matched_by"`
}

// Transaction is one bank movement.
type Transaction struct {
	ID            string          `json:"id"`
	Amount        decimal.Decimal `json:"amount"`
	Date          time.Time       `json:"date"`
	Counterparty  string          `json:"counterparty"`
	Communication string          `json:"communication"`
	Details       string          `json:"details,omitempty"`
	AccountNumber string          `json:"account_number"`

	IsParent            bool   `json:"is_parent"`
	ParentTransactionID string `json:"parent_transaction_id,omitempty"`

	Reconciled      bool            `json:"reconciled"`
	MatchedEntities []MatchedEntity `json:"matched_entities"`

	// Legacy single references written before link lists existed.
	ExpenseID string `json:"expense_id,omitempty"`
	EventID   string `json:"event_id,omitempty"`

	Category    string `json:"category,omitempty"`
	AccountCode string `json:"account_code,omitempty"`
}

// IsIncoming reports whether money came into the account.
func (t *Transaction) IsIncoming() bool {
	return t.Amount.IsPositive()
}

// HasLink reports whether a link record for (entityType, entityID) exists.
func (t *Transaction) HasLink(entityType EntityType, entityID string) bool {
	for _, m := range t.MatchedEntities {
		if m.EntityType == entityType && m.EntityID == entityID {
			return true
		}
	}
	return false
}

// HasLinkOfType reports whether any link record of entityType exists.
func (t *Transaction) HasLinkOfType(entityType EntityType) bool {
	for _, m := range t.MatchedEntities {
		if m.EntityType == entityType {
			return true
		}
	}
	return false
}

// RemoveLink drops every link record for (entityType, entityID) and returns
// how many were removed.
func (t *Transaction) RemoveLink(entityType EntityType, entityID string) int {
	kept := t.MatchedEntities[:0]
	removed := 0
	for _, m := range t.MatchedEntities {
		if m.EntityType == entityType && m.EntityID == entityID {
			removed++
			continue
		}
		kept = append(kept, m)
	}
	t.MatchedEntities = kept
	return removed
}

// HasLegacyReference reports whether a pre-link-list reference is still set.
func (t *Transaction) HasLegacyReference() bool {
	return t.ExpenseID != "" || t.EventID != ""
}

// ExpectedReconciled derives the reconciled flag from the link fields.
func (t *Transaction) ExpectedReconciled() bool {
	return len(t.MatchedEntities) > 0 || t.HasLegacyReference()
}

// Clone returns a deep copy.
func (t *Transaction) Clone() *Transaction {
	c := *t
	if t.MatchedEntities != nil {
		c.MatchedEntities = make([]MatchedEntity, len(t.MatchedEntities))
		copy(c.MatchedEntities, t.MatchedEntities)
	}
	return &c
}
