// Package notify delivers user-facing notices produced by the pipeline.
package notify

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

type Kind string

const (
	KindRecorded          Kind = "recorded"
	KindDetailsNeeded     Kind = "details_needed"
	KindProcessingFailed  Kind = "processing_failed"
	KindPersistenceFailed Kind = "persistence_failed"
)

type Notice struct {
	Kind          Kind       `json:"kind"`
	UserID        string     `json:"user_id"`
	TransactionID *uuid.UUID `json:"transaction_id,omitempty"`
	Merchant      string     `json:"merchant,omitempty"`
	Amount        int64      `json:"amount,omitempty"`
	Currency      string     `json:"currency,omitempty"`
	RawMessage    string     `json:"raw_message,omitempty"`
	Reason        string     `json:"reason,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
}

type Notifier interface {
	Notify(ctx context.Context, n Notice) error
}

// Multi fans a notice out to every notifier and joins their errors.
type Multi []Notifier

func (m Multi) Notify(ctx context.Context, n Notice) error {
	var errs []error

	for _, notifier := range m {
		if err := notifier.Notify(ctx, n); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}
