package ingest

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/MrJamesThe3rd/smsledger/internal/extraction"
	"github.com/MrJamesThe3rd/smsledger/internal/logger"
	"github.com/MrJamesThe3rd/smsledger/internal/matching"
	"github.com/MrJamesThe3rd/smsledger/internal/notify"
	"github.com/MrJamesThe3rd/smsledger/internal/resolution"
	"github.com/MrJamesThe3rd/smsledger/internal/screen"
	"github.com/MrJamesThe3rd/smsledger/internal/transaction"
)

const DefaultDedupWindow = 60 * time.Second

type Senders interface {
	Snapshot(userID string) *screen.SenderSet
}

type Recorder interface {
	Record(ctx context.Context, params transaction.CreateParams, window time.Duration) (*transaction.Transaction, bool, error)
}

type CategoryMemory interface {
	Lookup(ctx context.Context, merchant, userID string) (string, error)
}

type PatternMatcher interface {
	Suggest(ctx context.Context, message, userID string) (*matching.Match, error)
}

type Resolver interface {
	Await(ctx context.Context, tx *transaction.Transaction) (resolution.Suggestion, error)
}

type Deps struct {
	Senders   Senders
	Extractor extraction.Extractor
	Recorder  Recorder
	Memory    CategoryMemory
	Patterns  PatternMatcher
	Resolver  Resolver
	Notifier  notify.Notifier
	Window    time.Duration
}

type Processor struct {
	senders   Senders
	extractor extraction.Extractor
	recorder  Recorder
	memory    CategoryMemory
	patterns  PatternMatcher
	resolver  Resolver
	notifier  notify.Notifier
	window    time.Duration
	now       func() time.Time
}

func NewProcessor(d Deps) *Processor {
	if d.Window <= 0 {
		d.Window = DefaultDedupWindow
	}

	return &Processor{
		senders:   d.Senders,
		extractor: d.Extractor,
		recorder:  d.Recorder,
		memory:    d.Memory,
		patterns:  d.Patterns,
		resolver:  d.Resolver,
		notifier:  d.Notifier,
		window:    d.Window,
		now:       time.Now,
	}
}

// Process runs one message through the pipeline. It returns an error only
// when the message could not be persisted and is safe to process again.
func (p *Processor) Process(ctx context.Context, msg Message) (Outcome, error) {
	if msg.ReceivedAt.IsZero() {
		msg.ReceivedAt = p.now()
	}

	log := logger.FromContext(ctx).With().
		Stringer("message_id", msg.ID).
		Str("user_id", msg.UserID).
		Str("sender", msg.Sender).
		Logger()
	ctx = logger.WithContext(ctx, log)

	if !p.senders.Snapshot(msg.UserID).IsKnownFinancialSender(msg.Sender) {
		log.Debug().Msg("sender is not financial, skipping")
		return OutcomeIgnored, nil
	}

	if !screen.HasAmount(msg.Body) || !screen.IsDebitTransaction(msg.Body) {
		log.Debug().Msg("message is not a debit, skipping")
		return OutcomeIgnored, nil
	}

	d, err := p.extractor.Extract(ctx, msg.Body)
	if err != nil {
		log.Warn().Err(err).Msg("extraction failed")
		p.notify(ctx, log, notify.Notice{
			Kind:       notify.KindProcessingFailed,
			UserID:     msg.UserID,
			RawMessage: msg.Body,
			Reason:     "could not read an amount from the message",
		})

		return OutcomeFailed, nil
	}

	p.fillFromMemory(ctx, log, msg, &d)

	params := transaction.CreateParams{
		UserID:          msg.UserID,
		Name:            d.Merchant,
		Amount:          d.AmountMinor(),
		Currency:        d.Currency,
		Type:            transaction.TypeDebit,
		Status:          transaction.StatusExtracted,
		Category:        d.Category,
		Description:     d.Description,
		ReferenceNumber: d.ReferenceNumber,
		Sender:          msg.Sender,
		RawMessage:      msg.Body,
		Date:            occurrenceTime(d, msg.ReceivedAt),
	}

	resolved := d.HasMerchant() && d.HasCategory()
	if resolved {
		params.Status = transaction.StatusResolved
	}

	tx, created, err := p.recorder.Record(ctx, params, p.window)
	if err != nil {
		if errors.Is(err, transaction.ErrInvalidParams) {
			log.Warn().Err(err).Msg("extracted transaction is invalid")
			p.notify(ctx, log, notify.Notice{
				Kind:       notify.KindProcessingFailed,
				UserID:     msg.UserID,
				RawMessage: msg.Body,
				Reason:     err.Error(),
			})

			return OutcomeFailed, nil
		}

		log.Error().Err(err).Msg("recording transaction failed")
		p.notify(ctx, log, notify.Notice{
			Kind:       notify.KindPersistenceFailed,
			UserID:     msg.UserID,
			Merchant:   params.Name,
			Amount:     params.Amount,
			Currency:   params.Currency,
			RawMessage: msg.Body,
			Reason:     "transaction could not be saved, retrying",
		})

		return OutcomeFailed, fmt.Errorf("recording transaction: %w", err)
	}

	if !created {
		ev := log.Info().Str("merchant", params.Name).Int64("amount", params.Amount)
		if tx != nil {
			ev = ev.Stringer("existing_id", tx.ID)
		}

		ev.Msg("duplicate message, skipping")

		return OutcomeDuplicate, nil
	}

	log = log.With().Stringer("transaction_id", tx.ID).Logger()

	if resolved {
		log.Info().Str("category", tx.Category).Msg("transaction recorded")
		p.notify(ctx, log, notify.Notice{
			Kind:          notify.KindRecorded,
			UserID:        tx.UserID,
			TransactionID: &tx.ID,
			Merchant:      tx.Name,
			Amount:        tx.Amount,
			Currency:      tx.Currency,
		})

		return OutcomeRecorded, nil
	}

	if _, err := p.resolver.Await(ctx, tx); err != nil {
		log.Warn().Err(err).Msg("handing off to resolution failed")
	}

	log.Info().Msg("transaction needs details")

	return OutcomeNeedsDetails, nil
}

// fillFromMemory completes merchant and category from learned message
// patterns first and the merchant memory second. Lookup failures only cost
// an automatic categorization.
func (p *Processor) fillFromMemory(ctx context.Context, log zerolog.Logger, msg Message, d *extraction.Details) {
	match, err := p.patterns.Suggest(ctx, msg.Body, msg.UserID)
	if err != nil {
		log.Warn().Err(err).Msg("pattern lookup failed")
	}

	if match != nil && (!d.HasMerchant() || strings.EqualFold(d.Merchant, match.Merchant)) {
		d.Merchant = match.Merchant
		if !d.HasCategory() {
			d.Category = match.Category
		}
	}

	if !d.HasMerchant() || d.HasCategory() {
		return
	}

	category, err := p.memory.Lookup(ctx, d.Merchant, msg.UserID)
	if err != nil {
		log.Warn().Err(err).Msg("merchant memory lookup failed")
		return
	}

	if category != "" {
		d.Category = category
	}
}

func (p *Processor) notify(ctx context.Context, log zerolog.Logger, n notify.Notice) {
	if err := p.notifier.Notify(ctx, n); err != nil {
		log.Warn().Err(err).Str("kind", string(n.Kind)).Msg("sending notice failed")
	}
}

// occurrenceTime picks the timestamp stored for the transaction. SMS dates
// carry no time of day, so a date on the receive day resolves to the receive
// timestamp. Messages without a date use the receive timestamp too.
func occurrenceTime(d extraction.Details, receivedAt time.Time) time.Time {
	if !d.DateOnly {
		return receivedAt
	}

	y, m, day := d.Date.Date()

	ry, rm, rd := receivedAt.Date()
	if y == ry && m == rm && day == rd {
		return receivedAt
	}

	return time.Date(y, m, day, 0, 0, 0, 0, receivedAt.Location())
}
