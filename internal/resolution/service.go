// Package resolution drives a transaction with an unknown merchant or
// category through user review.
package resolution

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/smsledger/internal/extraction"
	"github.com/MrJamesThe3rd/smsledger/internal/logger"
	"github.com/MrJamesThe3rd/smsledger/internal/matching"
	"github.com/MrJamesThe3rd/smsledger/internal/notify"
	"github.com/MrJamesThe3rd/smsledger/internal/transaction"
)

var (
	ErrAlreadyResolved = errors.New("transaction already resolved")
	ErrNotOwner        = errors.New("transaction belongs to another user")
	ErrInvalidInput    = errors.New("invalid resolution input")
)

type Transactions interface {
	Get(ctx context.Context, id uuid.UUID) (*transaction.Transaction, error)
	Update(ctx context.Context, tx *transaction.Transaction) error
	UpdateStatus(ctx context.Context, id uuid.UUID, status transaction.Status) error
	List(ctx context.Context, filter transaction.ListFilter) ([]*transaction.Transaction, error)
}

type CategoryMemory interface {
	Lookup(ctx context.Context, merchant, userID string) (string, error)
	Save(ctx context.Context, merchant, category, userID string) error
}

type PatternMemory interface {
	Suggest(ctx context.Context, message, userID string) (*matching.Match, error)
	Learn(ctx context.Context, message, merchant, category, userID string) (*matching.Pattern, error)
}

// Source tells where a suggestion came from.
type Source string

const (
	SourcePattern Source = "pattern"
	SourceStored  Source = "stored"
	SourceText    Source = "text"
	SourceNone    Source = "none"
)

type Suggestion struct {
	Merchant string
	Category string
	Source   Source
}

type ResolveParams struct {
	ID            uuid.UUID
	UserID        string
	Merchant      string
	Category      string
	SaveAsPattern bool
}

type Service struct {
	txs      Transactions
	memory   CategoryMemory
	patterns PatternMemory
	notifier notify.Notifier
}

func NewService(txs Transactions, memory CategoryMemory, patterns PatternMemory, notifier notify.Notifier) *Service {
	return &Service{txs: txs, memory: memory, patterns: patterns, notifier: notifier}
}

// Await parks tx for user review and sends a details-needed notice carrying
// the suggested merchant.
func (s *Service) Await(ctx context.Context, tx *transaction.Transaction) (Suggestion, error) {
	if tx.Status == transaction.StatusResolved {
		return Suggestion{}, ErrAlreadyResolved
	}

	if tx.Status != transaction.StatusAwaitingInput {
		tx.Status = transaction.StatusAwaitingInput
		if err := s.txs.UpdateStatus(ctx, tx.ID, tx.Status); err != nil {
			return Suggestion{}, fmt.Errorf("updating status: %w", err)
		}
	}

	sug, err := s.Suggest(ctx, tx)
	if err != nil {
		logger.FromContext(ctx).Warn().Err(err).Stringer("transaction_id", tx.ID).Msg("building suggestion failed")
	}

	err = s.notifier.Notify(ctx, notify.Notice{
		Kind:          notify.KindDetailsNeeded,
		UserID:        tx.UserID,
		TransactionID: &tx.ID,
		Merchant:      sug.Merchant,
		Amount:        tx.Amount,
		Currency:      tx.Currency,
		RawMessage:    tx.RawMessage,
	})
	if err != nil {
		return sug, fmt.Errorf("sending details needed notice: %w", err)
	}

	return sug, nil
}

// Suggest pre-fills the review form: a learned message pattern first, then
// the stored merchant, then whatever merchant the raw text names.
func (s *Service) Suggest(ctx context.Context, tx *transaction.Transaction) (Suggestion, error) {
	if tx.RawMessage != "" {
		match, err := s.patterns.Suggest(ctx, tx.RawMessage, tx.UserID)
		if err != nil {
			return Suggestion{Source: SourceNone}, fmt.Errorf("matching patterns: %w", err)
		}

		if match != nil {
			return Suggestion{Merchant: match.Merchant, Category: match.Category, Source: SourcePattern}, nil
		}
	}

	sug := Suggestion{Source: SourceNone}

	switch {
	case knownMerchant(tx.Name):
		sug.Merchant, sug.Source = tx.Name, SourceStored
	case extraction.MerchantFromText(tx.RawMessage) != "":
		sug.Merchant, sug.Source = extraction.MerchantFromText(tx.RawMessage), SourceText
	default:
		return sug, nil
	}

	if knownCategory(tx.Category) {
		sug.Category = tx.Category
		return sug, nil
	}

	category, err := s.memory.Lookup(ctx, sug.Merchant, tx.UserID)
	if err != nil {
		return sug, fmt.Errorf("looking up category: %w", err)
	}

	sug.Category = category

	return sug, nil
}

// Resolve applies the user's merchant and category, remembers the merchant
// and, when asked, learns the message pattern. Memory failures are logged;
// the transaction stays resolved.
func (s *Service) Resolve(ctx context.Context, params ResolveParams) (*transaction.Transaction, error) {
	merchant := strings.TrimSpace(params.Merchant)
	category := strings.TrimSpace(params.Category)

	if !knownMerchant(merchant) || !knownCategory(category) {
		return nil, fmt.Errorf("%w: merchant and category are required", ErrInvalidInput)
	}

	tx, err := s.owned(ctx, params.ID, params.UserID)
	if err != nil {
		return nil, err
	}

	if tx.Status == transaction.StatusResolved {
		return nil, ErrAlreadyResolved
	}

	tx.Name = merchant
	tx.Category = category
	tx.Status = transaction.StatusResolved

	if err := s.txs.Update(ctx, tx); err != nil {
		return nil, fmt.Errorf("updating transaction: %w", err)
	}

	log := logger.FromContext(ctx).With().Stringer("transaction_id", tx.ID).Logger()

	if err := s.memory.Save(ctx, merchant, category, params.UserID); err != nil {
		log.Warn().Err(err).Msg("saving merchant category failed")
	}

	if params.SaveAsPattern && tx.RawMessage != "" {
		if _, err := s.patterns.Learn(ctx, tx.RawMessage, merchant, category, params.UserID); err != nil {
			log.Warn().Err(err).Msg("saving message pattern failed")
		}
	}

	return tx, nil
}

// Dismiss returns an awaiting transaction to the extracted state. It stays
// stored and uncategorized.
func (s *Service) Dismiss(ctx context.Context, id uuid.UUID, userID string) (*transaction.Transaction, error) {
	tx, err := s.owned(ctx, id, userID)
	if err != nil {
		return nil, err
	}

	switch tx.Status {
	case transaction.StatusResolved:
		return nil, ErrAlreadyResolved
	case transaction.StatusExtracted:
		return tx, nil
	}

	if err := s.txs.UpdateStatus(ctx, tx.ID, transaction.StatusExtracted); err != nil {
		return nil, fmt.Errorf("updating status: %w", err)
	}

	tx.Status = transaction.StatusExtracted

	return tx, nil
}

func (s *Service) Pending(ctx context.Context, userID string) ([]*transaction.Transaction, error) {
	return s.txs.List(ctx, transaction.ListFilter{
		UserID: userID,
		Status: new(transaction.StatusAwaitingInput),
	})
}

// Get returns the transaction if userID owns it.
func (s *Service) Get(ctx context.Context, id uuid.UUID, userID string) (*transaction.Transaction, error) {
	return s.owned(ctx, id, userID)
}

func (s *Service) owned(ctx context.Context, id uuid.UUID, userID string) (*transaction.Transaction, error) {
	tx, err := s.txs.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if tx.UserID != userID {
		return nil, ErrNotOwner
	}

	return tx, nil
}

func knownMerchant(name string) bool {
	name = strings.TrimSpace(name)
	return name != "" && !strings.EqualFold(name, extraction.UnknownMerchant)
}

func knownCategory(category string) bool {
	category = strings.TrimSpace(category)
	return category != "" && !strings.EqualFold(category, extraction.Uncategorized)
}
