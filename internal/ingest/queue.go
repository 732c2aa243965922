package ingest

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/MrJamesThe3rd/smsledger/internal/logger"
)

var ErrQueueClosed = errors.New("queue is closed")

type MessageProcessor interface {
	Process(ctx context.Context, msg Message) (Outcome, error)
}

type QueueConfig struct {
	Size       int
	Workers    int
	MaxRetries int
	// Backoff is multiplied by the attempt number before each retry.
	Backoff time.Duration
}

// Queue runs every message as an independent task on a fixed pool of
// workers. Failed messages are retried in place with linear backoff.
type Queue struct {
	proc MessageProcessor
	cfg  QueueConfig
	log  zerolog.Logger

	msgs chan Message
	wg   sync.WaitGroup

	// done is closed by Stop and wakes producers blocked on a full buffer.
	// msgs is closed only after every in-flight Enqueue has returned.
	mu      sync.RWMutex
	closed  bool
	done    chan struct{}
	pending sync.WaitGroup
}

func NewQueue(proc MessageProcessor, cfg QueueConfig, log zerolog.Logger) *Queue {
	if cfg.Size <= 0 {
		cfg.Size = 100
	}

	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}

	if cfg.Backoff <= 0 {
		cfg.Backoff = time.Second
	}

	return &Queue{
		proc: proc,
		cfg:  cfg,
		log:  log.With().Str("component", "queue").Logger(),
		msgs: make(chan Message, cfg.Size),
		done: make(chan struct{}),
	}
}

// Enqueue schedules msg. It blocks while the buffer is full, until ctx ends
// or the queue is stopped.
func (q *Queue) Enqueue(ctx context.Context, msg Message) error {
	q.mu.RLock()
	if q.closed {
		q.mu.RUnlock()
		return ErrQueueClosed
	}

	q.pending.Add(1)
	q.mu.RUnlock()

	defer q.pending.Done()

	if msg.ID == uuid.Nil {
		msg.ID = uuid.New()
	}

	if msg.ReceivedAt.IsZero() {
		msg.ReceivedAt = time.Now()
	}

	select {
	case q.msgs <- msg:
		return nil
	case <-q.done:
		return ErrQueueClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Start launches the workers. Processing uses ctx; cancel it to abandon
// retries that are waiting on backoff.
func (q *Queue) Start(ctx context.Context) {
	ctx = logger.WithContext(ctx, q.log)

	for range q.cfg.Workers {
		q.wg.Add(1)

		go q.worker(ctx)
	}
}

func (q *Queue) worker(ctx context.Context) {
	defer q.wg.Done()

	for msg := range q.msgs {
		q.process(ctx, msg)
	}
}

func (q *Queue) process(ctx context.Context, msg Message) {
	for attempt := 0; ; attempt++ {
		outcome, err := q.proc.Process(ctx, msg)
		if err == nil {
			q.log.Debug().Stringer("message_id", msg.ID).Str("outcome", string(outcome)).Msg("message processed")
			return
		}

		if attempt >= q.cfg.MaxRetries {
			q.log.Error().Err(err).Stringer("message_id", msg.ID).Int("attempts", attempt+1).Msg("giving up on message")
			return
		}

		backoff := time.Duration(attempt+1) * q.cfg.Backoff
		q.log.Warn().Err(err).Stringer("message_id", msg.ID).Dur("backoff", backoff).Msg("retrying message")

		select {
		case <-time.After(backoff):
		case <-ctx.Done():
			q.log.Warn().Stringer("message_id", msg.ID).Msg("queue stopped during backoff, dropping message")
			return
		}
	}
}

// Stop refuses new messages, lets the workers drain the buffer and waits for
// them until ctx expires. Producers blocked in Enqueue get ErrQueueClosed.
func (q *Queue) Stop(ctx context.Context) error {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return nil
	}

	q.closed = true
	close(q.done)
	q.mu.Unlock()

	finished := make(chan struct{})

	go func() {
		q.pending.Wait()
		close(q.msgs)
		q.wg.Wait()
		close(finished)
	}()

	select {
	case <-finished:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
