package transaction

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Type is the direction of money movement. Amounts are always positive.
type Type string

const (
	TypeDebit  Type = "debit"
	TypeCredit Type = "credit"
)

// Status represents the resolution state of a transaction.
type Status string

const (
	StatusExtracted     Status = "extracted"
	StatusAwaitingInput Status = "awaiting_input"
	StatusResolved      Status = "resolved"
)

const (
	DefaultCategory = "Uncategorized"
	DefaultCurrency = "INR"
)

var (
	ErrNotFound      = errors.New("transaction not found")
	ErrDuplicate     = errors.New("duplicate transaction")
	ErrInvalidParams = errors.New("invalid transaction params")
)

// Transaction is a persisted money movement owned by exactly one user or guest.
type Transaction struct {
	ID              uuid.UUID
	UserID          string
	Name            string
	Amount          int64 // Amount in minor units
	Currency        string
	Type            Type
	Status          Status
	Category        string
	Description     string
	ReferenceNumber string
	Sender          string
	RawMessage      string
	Date            time.Time
	ExternalID      *string
	CreatedAt       time.Time
	UpdatedAt       *time.Time
}

// DedupKey identifies a transaction tuple at one-second resolution. The store
// keeps it under a unique index so the same tuple can never be inserted twice.
func DedupKey(userID string, amount int64, name string, at time.Time) string {
	return fmt.Sprintf("%s|%d|%s|%d", userID, amount, normalizeName(name), at.Unix())
}

func normalizeName(name string) string {
	return strings.ToLower(strings.Join(strings.Fields(name), " "))
}

// IsDuplicateOf reports whether tx describes the same money movement as p.
// The caller is responsible for the time window.
func (tx *Transaction) IsDuplicateOf(p CreateParams) bool {
	if tx.UserID != p.UserID || tx.Amount != p.Amount {
		return false
	}

	if normalizeName(tx.Name) == normalizeName(p.Name) {
		return true
	}

	// A resolved transaction carries the user's merchant, so a redelivered
	// message is recognized by its body instead.
	return p.RawMessage != "" && tx.RawMessage == p.RawMessage
}
