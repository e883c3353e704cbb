package model

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// PaymentMode is how a payable was settled.
type PaymentMode string

const (
	PaymentNone PaymentMode = "none"
	PaymentBank PaymentMode = "bank"
	PaymentCash PaymentMode = "cash"
)

// PaymentStatus is the derived state of a payable.
type PaymentStatus string

const (
	StatusUnpaid     PaymentStatus = "unpaid"
	StatusLinkedBank PaymentStatus = "linked_bank"
	StatusPaidCash   PaymentStatus = "paid_cash"
)

// Settlement holds the payment fields shared by every payable. Only the
// reconciliation engine writes them.
type Settlement struct {
	TransactionID string      `json:"transaction_id,omitempty"`
	Paid          bool        `json:"paid"`
	PaymentMode   PaymentMode `json:"payment_mode"`
	Comment       string      `json:"comment,omitempty"`
}

// Status derives the payment state from the settlement fields.
func (s *Settlement) Status() PaymentStatus {
	switch {
	case s.TransactionID != "":
		return StatusLinkedBank
	case s.Paid:
		return StatusPaidCash
	default:
		return StatusUnpaid
	}
}

// Settled reports whether nothing more is expected for this payable.
func (s *Settlement) Settled() bool {
	return s.TransactionID != "" || s.Paid
}

// Payable is an amount owed to or by the organization.
type Payable interface {
	EntityType() EntityType
	PayableID() string
	DisplayName() string
	AmountDue() decimal.Decimal
	DueDate() time.Time
	Payment() *Settlement
	// IncomingPayment is true when bank money must flow in to settle it.
	IncomingPayment() bool
}

// Registration is a member's sign-up to an event.
type Registration struct {
	ID           string          `json:"id"`
	EventID      string          `json:"event_id"`
	MemberID     string          `json:"member_id,omitempty"`
	Name         string          `json:"name"`
	Amount       decimal.Decimal `json:"amount"`
	RegisteredAt time.Time       `json:"registered_at"`
	Settlement
}

func (r *Registration) EntityType() EntityType     { return EntityRegistration }
func (r *Registration) PayableID() string          { return r.ID }
func (r *Registration) DisplayName() string        { return r.Name }
func (r *Registration) AmountDue() decimal.Decimal { return r.Amount }
func (r *Registration) DueDate() time.Time         { return r.RegisteredAt }
func (r *Registration) Payment() *Settlement       { return &r.Settlement }
func (r *Registration) IncomingPayment() bool      { return true }

// Expense is a reimbursement claim paid out by the organization.
type Expense struct {
	ID          string          `json:"id"`
	EventID     string          `json:"event_id,omitempty"`
	Claimant    string          `json:"claimant"`
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"`
	SubmittedAt time.Time       `json:"submitted_at"`
	Settlement
}

func (e *Expense) EntityType() EntityType     { return EntityExpense }
func (e *Expense) PayableID() string          { return e.ID }
func (e *Expense) AmountDue() decimal.Decimal { return e.Amount }
func (e *Expense) DueDate() time.Time         { return e.SubmittedAt }
func (e *Expense) Payment() *Settlement       { return &e.Settlement }
func (e *Expense) IncomingPayment() bool      { return false }

func (e *Expense) DisplayName() string {
	if e.Description == "" {
		return e.Claimant
	}
	return strings.TrimSpace(e.Claimant + " - " + e.Description)
}

// Event is an organized activity that registrations and expenses hang off.
type Event struct {
	ID    string          `json:"id"`
	Name  string          `json:"name"`
	Date  time.Time       `json:"date"`
	Price decimal.Decimal `json:"price"`
}

// Member is a club member.
type Member struct {
	ID        string `json:"id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

// FullName returns "First Last".
func (m *Member) FullName() string {
	return strings.TrimSpace(m.FirstName + " " + m.LastName)
}
