package transaction

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

//go:generate mockgen -source=service.go -destination=repository_mock.go -package=transaction
type Repository interface {
	CreateTransaction(ctx context.Context, tx *Transaction) error
	GetTransaction(ctx context.Context, id uuid.UUID) (*Transaction, error)
	UpdateTransaction(ctx context.Context, tx *Transaction) error
	UpdateStatus(ctx context.Context, id uuid.UUID, status Status) error

	ListTransactions(ctx context.Context, filter ListFilter) ([]*Transaction, error)
	DeleteTransaction(ctx context.Context, id uuid.UUID) error
	FindInWindow(ctx context.Context, userID string, start, end time.Time) ([]*Transaction, error)

	BeginRecord(ctx context.Context, userID string, amount int64) (RecordTx, error)
}

// RecordTx is a database transaction serialized against every other RecordTx
// for the same user and amount.
type RecordTx interface {
	FindInWindow(ctx context.Context, userID string, start, end time.Time) ([]*Transaction, error)
	CreateTransaction(ctx context.Context, tx *Transaction) error
	Commit() error
	Rollback() error
}

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

type CreateParams struct {
	UserID          string
	Name            string
	Amount          int64
	Currency        string
	Type            Type
	Status          Status
	Category        string
	Description     string
	ReferenceNumber string
	Sender          string
	RawMessage      string
	Date            time.Time
}

type ListFilter struct {
	UserID    string
	Status    *Status
	StartDate *time.Time
	EndDate   *time.Time
}

func (s *Service) Create(ctx context.Context, params CreateParams) (*Transaction, error) {
	if err := validate(params); err != nil {
		return nil, err
	}

	tx := newTransaction(params)
	if err := s.repo.CreateTransaction(ctx, tx); err != nil {
		return nil, err
	}

	return tx, nil
}

// Record persists params unless a transaction with the same amount and name
// already exists within window of its date. It returns the stored or
// existing transaction and whether a new one was created. The existing
// transaction is nil when the duplicate was caught by the unique key.
func (s *Service) Record(ctx context.Context, params CreateParams, window time.Duration) (*Transaction, bool, error) {
	if err := validate(params); err != nil {
		return nil, false, err
	}

	rtx, err := s.repo.BeginRecord(ctx, params.UserID, params.Amount)
	if err != nil {
		return nil, false, fmt.Errorf("begin record: %w", err)
	}
	defer rtx.Rollback()

	existing, err := rtx.FindInWindow(ctx, params.UserID, params.Date.Add(-window), params.Date.Add(window))
	if err != nil {
		return nil, false, fmt.Errorf("find in window: %w", err)
	}

	for _, e := range existing {
		if e.IsDuplicateOf(params) {
			return e, false, nil
		}
	}

	tx := newTransaction(params)
	if err := rtx.CreateTransaction(ctx, tx); err != nil {
		if errors.Is(err, ErrDuplicate) {
			return nil, false, nil
		}

		return nil, false, fmt.Errorf("create transaction: %w", err)
	}

	if err := rtx.Commit(); err != nil {
		return nil, false, fmt.Errorf("commit record: %w", err)
	}

	return tx, true, nil
}

func (s *Service) FindInWindow(ctx context.Context, userID string, start, end time.Time) ([]*Transaction, error) {
	return s.repo.FindInWindow(ctx, userID, start, end)
}

func (s *Service) List(ctx context.Context, filter ListFilter) ([]*Transaction, error) {
	return s.repo.ListTransactions(ctx, filter)
}

func (s *Service) Update(ctx context.Context, tx *Transaction) error {
	return s.repo.UpdateTransaction(ctx, tx)
}

func (s *Service) UpdateStatus(ctx context.Context, id uuid.UUID, status Status) error {
	return s.repo.UpdateStatus(ctx, id, status)
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Transaction, error) {
	return s.repo.GetTransaction(ctx, id)
}

func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	return s.repo.DeleteTransaction(ctx, id)
}

func validate(p CreateParams) error {
	switch {
	case p.UserID == "":
		return fmt.Errorf("%w: user id is required", ErrInvalidParams)
	case p.Amount <= 0:
		return fmt.Errorf("%w: amount must be positive", ErrInvalidParams)
	case p.Date.IsZero():
		return fmt.Errorf("%w: date is required", ErrInvalidParams)
	}

	return nil
}

func newTransaction(p CreateParams) *Transaction {
	tx := &Transaction{
		UserID:          p.UserID,
		Name:            p.Name,
		Amount:          p.Amount,
		Currency:        p.Currency,
		Type:            p.Type,
		Status:          p.Status,
		Category:        p.Category,
		Description:     p.Description,
		ReferenceNumber: p.ReferenceNumber,
		Sender:          p.Sender,
		RawMessage:      p.RawMessage,
		Date:            p.Date,
	}

	if tx.Currency == "" {
		tx.Currency = DefaultCurrency
	}

	if tx.Type == "" {
		tx.Type = TypeDebit
	}

	if tx.Status == "" {
		tx.Status = StatusExtracted
	}

	if tx.Category == "" {
		tx.Category = DefaultCategory
	}

	return tx
}
