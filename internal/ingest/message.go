// Package ingest runs inbound SMS messages through filtering, extraction,
// deduplication and categorization.
package ingest

import (
	"time"

	"github.com/google/uuid"
)

// Message is one inbound SMS as delivered by the phone.
type Message struct {
	ID         uuid.UUID
	UserID     string
	Sender     string
	Body       string
	ReceivedAt time.Time
}

type Outcome string

const (
	// OutcomeIgnored means a filter rejected the message. Nothing is stored
	// and the user is not notified.
	OutcomeIgnored      Outcome = "ignored"
	OutcomeFailed       Outcome = "failed"
	OutcomeDuplicate    Outcome = "duplicate"
	OutcomeRecorded     Outcome = "recorded"
	OutcomeNeedsDetails Outcome = "needs_details"
)
