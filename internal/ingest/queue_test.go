package ingest_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrJamesThe3rd/smsledger/internal/ingest"
)

type scriptedProcessor struct {
	mu       sync.Mutex
	failures map[uuid.UUID]int
	calls    map[uuid.UUID]int
	done     chan uuid.UUID
}

func newScriptedProcessor() *scriptedProcessor {
	return &scriptedProcessor{
		failures: map[uuid.UUID]int{},
		calls:    map[uuid.UUID]int{},
		done:     make(chan uuid.UUID, 64),
	}
}

func (p *scriptedProcessor) Process(_ context.Context, msg ingest.Message) (ingest.Outcome, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.calls[msg.ID]++
	if p.calls[msg.ID] <= p.failures[msg.ID] {
		return ingest.OutcomeFailed, errors.New("database unavailable")
	}

	p.done <- msg.ID

	return ingest.OutcomeRecorded, nil
}

func (p *scriptedProcessor) callsFor(id uuid.UUID) int {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.calls[id]
}

func TestQueue_RetriesFailedMessages(t *testing.T) {
	proc := newScriptedProcessor()
	q := ingest.NewQueue(proc, ingest.QueueConfig{Workers: 2, MaxRetries: 3, Backoff: time.Millisecond}, zerolog.Nop())
	q.Start(context.Background())

	id := uuid.New()
	proc.failures[id] = 2

	require.NoError(t, q.Enqueue(context.Background(), ingest.Message{ID: id, UserID: "u1"}))

	select {
	case got := <-proc.done:
		assert.Equal(t, id, got)
	case <-time.After(2 * time.Second):
		t.Fatal("message was not processed")
	}

	require.NoError(t, q.Stop(context.Background()))
	assert.Equal(t, 3, proc.callsFor(id))
}

func TestQueue_GivesUpAfterMaxRetries(t *testing.T) {
	proc := newScriptedProcessor()
	q := ingest.NewQueue(proc, ingest.QueueConfig{Workers: 1, MaxRetries: 2, Backoff: time.Millisecond}, zerolog.Nop())
	q.Start(context.Background())

	id := uuid.New()
	proc.failures[id] = 10

	require.NoError(t, q.Enqueue(context.Background(), ingest.Message{ID: id}))
	require.NoError(t, q.Stop(context.Background()))

	assert.Equal(t, 3, proc.callsFor(id))
}

func TestQueue_StopDrainsBuffer(t *testing.T) {
	proc := newScriptedProcessor()
	q := ingest.NewQueue(proc, ingest.QueueConfig{Size: 32, Workers: 1}, zerolog.Nop())

	ids := make([]uuid.UUID, 0, 20)

	for range 20 {
		id := uuid.New()
		ids = append(ids, id)
		require.NoError(t, q.Enqueue(context.Background(), ingest.Message{ID: id}))
	}

	q.Start(context.Background())
	require.NoError(t, q.Stop(context.Background()))

	for _, id := range ids {
		assert.Equal(t, 1, proc.callsFor(id))
	}
}

func TestQueue_EnqueueAfterStop(t *testing.T) {
	q := ingest.NewQueue(newScriptedProcessor(), ingest.QueueConfig{}, zerolog.Nop())
	q.Start(context.Background())

	require.NoError(t, q.Stop(context.Background()))
	require.NoError(t, q.Stop(context.Background()))

	err := q.Enqueue(context.Background(), ingest.Message{})
	assert.ErrorIs(t, err, ingest.ErrQueueClosed)
}

type stuckProcessor struct {
	started chan struct{}
	release chan struct{}
	once    sync.Once
}

func (p *stuckProcessor) Process(context.Context, ingest.Message) (ingest.Outcome, error) {
	p.once.Do(func() { close(p.started) })
	<-p.release

	return ingest.OutcomeRecorded, nil
}

func TestQueue_StopHonorsDeadlineWithBlockedProducer(t *testing.T) {
	proc := &stuckProcessor{started: make(chan struct{}), release: make(chan struct{})}
	q := ingest.NewQueue(proc, ingest.QueueConfig{Size: 1, Workers: 1}, zerolog.Nop())
	q.Start(context.Background())

	require.NoError(t, q.Enqueue(context.Background(), ingest.Message{}))
	<-proc.started
	require.NoError(t, q.Enqueue(context.Background(), ingest.Message{}))

	producerErr := make(chan error, 1)

	go func() {
		producerErr <- q.Enqueue(context.Background(), ingest.Message{})
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	stopped := make(chan error, 1)

	go func() {
		stopped <- q.Stop(ctx)
	}()

	select {
	case err := <-stopped:
		assert.ErrorIs(t, err, context.DeadlineExceeded)
	case <-time.After(time.Second):
		t.Fatal("stop ignored its deadline")
	}

	select {
	case err := <-producerErr:
		assert.ErrorIs(t, err, ingest.ErrQueueClosed)
	case <-time.After(time.Second):
		t.Fatal("blocked producer was not released")
	}

	close(proc.release)
}
