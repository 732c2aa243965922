package notify

import (
	"context"

	"github.com/rs/zerolog"
)

// Log writes notices to a zerolog logger.
type Log struct {
	log zerolog.Logger
}

func NewLog(log zerolog.Logger) *Log {
	return &Log{log: log.With().Str("component", "notify").Logger()}
}

func (l *Log) Notify(_ context.Context, n Notice) error {
	ev := l.log.Info()
	if n.Kind == KindProcessingFailed || n.Kind == KindPersistenceFailed {
		ev = l.log.Warn()
	}

	if n.TransactionID != nil {
		ev = ev.Stringer("transaction_id", n.TransactionID)
	}

	ev.Str("kind", string(n.Kind)).
		Str("user_id", n.UserID).
		Str("merchant", n.Merchant).
		Int64("amount", n.Amount).
		Str("currency", n.Currency).
		Str("reason", n.Reason).
		Msg("notice")

	return nil
}
