package ingest_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrJamesThe3rd/smsledger/internal/extraction"
	"github.com/MrJamesThe3rd/smsledger/internal/ingest"
	"github.com/MrJamesThe3rd/smsledger/internal/matching"
	"github.com/MrJamesThe3rd/smsledger/internal/notify"
	"github.com/MrJamesThe3rd/smsledger/internal/resolution"
	"github.com/MrJamesThe3rd/smsledger/internal/screen"
	"github.com/MrJamesThe3rd/smsledger/internal/transaction"
)

// memRepo is an in-memory transaction.Repository. BeginRecord holds a single
// lock until commit or rollback, like the advisory lock in Postgres.
type memRepo struct {
	mu       sync.Mutex
	recordMu sync.Mutex
	txs      []*transaction.Transaction
	keys     map[string]bool
}

func newMemRepo() *memRepo {
	return &memRepo{keys: map[string]bool{}}
}

func (r *memRepo) all() []*transaction.Transaction {
	r.mu.Lock()
	defer r.mu.Unlock()

	return append([]*transaction.Transaction(nil), r.txs...)
}

func (r *memRepo) insert(tx *transaction.Transaction, key string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if key != "" {
		if r.keys[key] {
			return transaction.ErrDuplicate
		}

		r.keys[key] = true
	}

	tx.ID = uuid.New()
	tx.CreatedAt = time.Now()
	r.txs = append(r.txs, tx)

	return nil
}

func (r *memRepo) CreateTransaction(_ context.Context, tx *transaction.Transaction) error {
	return r.insert(tx, "")
}

func (r *memRepo) GetTransaction(_ context.Context, id uuid.UUID) (*transaction.Transaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, tx := range r.txs {
		if tx.ID == id {
			return tx, nil
		}
	}

	return nil, transaction.ErrNotFound
}

func (r *memRepo) UpdateTransaction(_ context.Context, tx *transaction.Transaction) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i, existing := range r.txs {
		if existing.ID == tx.ID {
			r.txs[i] = tx
			return nil
		}
	}

	return transaction.ErrNotFound
}

func (r *memRepo) UpdateStatus(_ context.Context, id uuid.UUID, status transaction.Status) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, tx := range r.txs {
		if tx.ID == id {
			tx.Status = status
			return nil
		}
	}

	return transaction.ErrNotFound
}

func (r *memRepo) ListTransactions(_ context.Context, filter transaction.ListFilter) ([]*transaction.Transaction, error) {
	var out []*transaction.Transaction

	for _, tx := range r.all() {
		if tx.UserID == filter.UserID && (filter.Status == nil || *filter.Status == tx.Status) {
			out = append(out, tx)
		}
	}

	return out, nil
}

func (r *memRepo) DeleteTransaction(context.Context, uuid.UUID) error {
	return nil
}

func (r *memRepo) FindInWindow(_ context.Context, userID string, start, end time.Time) ([]*transaction.Transaction, error) {
	var out []*transaction.Transaction

	for _, tx := range r.all() {
		if tx.UserID == userID && !tx.Date.Before(start) && !tx.Date.After(end) {
			out = append(out, tx)
		}
	}

	return out, nil
}

func (r *memRepo) BeginRecord(context.Context, string, int64) (transaction.RecordTx, error) {
	r.recordMu.Lock()
	return &memRecordTx{repo: r}, nil
}

type memRecordTx struct {
	repo *memRepo
	once sync.Once
}

func (t *memRecordTx) release() { t.once.Do(t.repo.recordMu.Unlock) }

func (t *memRecordTx) FindInWindow(ctx context.Context, userID string, start, end time.Time) ([]*transaction.Transaction, error) {
	return t.repo.FindInWindow(ctx, userID, start, end)
}

func (t *memRecordTx) CreateTransaction(_ context.Context, tx *transaction.Transaction) error {
	return t.repo.insert(tx, transaction.DedupKey(tx.UserID, tx.Amount, tx.Name, tx.Date))
}

func (t *memRecordTx) Commit() error   { t.release(); return nil }
func (t *memRecordTx) Rollback() error { t.release(); return nil }

type fakeMemory struct {
	mu         sync.Mutex
	categories map[string]string
	lookups    int
}

func (f *fakeMemory) Lookup(_ context.Context, merchant, _ string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.lookups++

	return f.categories[strings.ToLower(merchant)], nil
}

func (f *fakeMemory) Save(context.Context, string, string, string) error { return nil }

type fakePatterns struct {
	match *matching.Match
}

func (f *fakePatterns) Suggest(context.Context, string, string) (*matching.Match, error) {
	return f.match, nil
}

func (f *fakePatterns) Learn(context.Context, string, string, string, string) (*matching.Pattern, error) {
	return &matching.Pattern{}, nil
}

type recordingNotifier struct {
	mu      sync.Mutex
	notices []notify.Notice
}

func (r *recordingNotifier) Notify(_ context.Context, n notify.Notice) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.notices = append(r.notices, n)

	return nil
}

func (r *recordingNotifier) kinds() []notify.Kind {
	r.mu.Lock()
	defer r.mu.Unlock()

	var kinds []notify.Kind
	for _, n := range r.notices {
		kinds = append(kinds, n.Kind)
	}

	return kinds
}

type llmDown struct{}

func (llmDown) Generate(context.Context, string) (string, error) {
	return "", errors.New("dial tcp: network is unreachable")
}

type memSenders struct{}

func (memSenders) ListApproved(context.Context) ([]screen.ApprovedSender, error) { return nil, nil }
func (memSenders) AddApproved(context.Context, string, string) error { return nil }

type harness struct {
	proc     *ingest.Processor
	repo     *memRepo
	senders  *screen.Registry
	notifier *recordingNotifier
	memory   *fakeMemory
	patterns *fakePatterns
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	h := &harness{
		repo:     newMemRepo(),
		senders:  screen.NewRegistry(memSenders{}, screen.BuiltinSenders),
		notifier: &recordingNotifier{},
		memory:   &fakeMemory{categories: map[string]string{}},
		patterns: &fakePatterns{},
	}

	txs := transaction.NewService(h.repo)
	chain := extraction.NewChain(
		extraction.NewLLMExtractor(llmDown{}, time.Second, "INR"),
		extraction.NewRegexExtractor(),
	)

	h.proc = ingest.NewProcessor(ingest.Deps{
		Senders:   h.senders,
		Extractor: chain,
		Recorder:  txs,
		Memory:    h.memory,
		Patterns:  h.patterns,
		Resolver:  resolution.NewService(txs, h.memory, h.patterns, h.notifier),
		Notifier:  h.notifier,
		Window:    time.Minute,
	})

	return h
}

var receivedAt = time.Date(2024, 3, 28, 13, 45, 10, 0, time.UTC)

func msg(sender, body string) ingest.Message {
	return ingest.Message{ID: uuid.New(), UserID: "u1", Sender: sender, Body: body, ReceivedAt: receivedAt}
}

func TestProcessor_NonFinancialSenderIsSilent(t *testing.T) {
	bodies := []string{
		"Rs 500 debited from your account at SWIGGY",
		"Your OTP is 123456",
		"",
	}

	for _, sender := range []string{"+919812345678", "VM-FLPKRT", ""} {
		for _, body := range bodies {
			h := newHarness(t)

			outcome, err := h.proc.Process(context.Background(), msg(sender, body))
			require.NoError(t, err)

			assert.Equal(t, ingest.OutcomeIgnored, outcome, sender)
			assert.Empty(t, h.repo.all())
			assert.Empty(t, h.notifier.kinds())
		}
	}
}

func TestProcessor_ApprovedSenderIsPerUser(t *testing.T) {
	h := newHarness(t)

	_, err := h.senders.Approve(context.Background(), "u1", "LOCALCU")
	require.NoError(t, err)

	body := "Rs 250.00 debited from a/c XX12 at CORNER STORE on 28-03-2024"

	outcome, err := h.proc.Process(context.Background(), msg("VK-LOCALCU", body))
	require.NoError(t, err)
	assert.NotEqual(t, ingest.OutcomeIgnored, outcome)

	other := msg("VK-LOCALCU", body)
	other.UserID = "u2"

	outcome, err = h.proc.Process(context.Background(), other)
	require.NoError(t, err)
	assert.Equal(t, ingest.OutcomeIgnored, outcome)
	assert.Len(t, h.repo.all(), 1)
}

func TestProcessor_NoAmountOrDebitKeyword(t *testing.T) {
	bodies := []string{
		"Your OTP for login is 482913",
		"Rs 5,000 credited to your a/c XX12",
		"Your statement is ready to view",
	}

	for _, body := range bodies {
		h := newHarness(t)

		outcome, err := h.proc.Process(context.Background(), msg("VM-HDFCBK", body))
		require.NoError(t, err)

		assert.Equal(t, ingest.OutcomeIgnored, outcome, body)
		assert.Empty(t, h.repo.all())
		assert.Empty(t, h.notifier.kinds())
	}
}

func TestProcessor_RegexPathWhenLLMDown(t *testing.T) {
	h := newHarness(t)

	outcome, err := h.proc.Process(context.Background(),
		msg("AD-SBIUPI", "Your account has been debited with Rs 100.00 for GPAY payment."))
	require.NoError(t, err)

	assert.Equal(t, ingest.OutcomeNeedsDetails, outcome)

	txs := h.repo.all()
	require.Len(t, txs, 1)
	assert.Equal(t, int64(10000), txs[0].Amount)
	assert.Equal(t, "INR", txs[0].Currency)
	assert.Equal(t, transaction.StatusAwaitingInput, txs[0].Status)
	assert.Equal(t, []notify.Kind{notify.KindDetailsNeeded}, h.notifier.kinds())
}

func TestProcessor_Idempotent(t *testing.T) {
	h := newHarness(t)
	m := msg("VM-HDFCBK", "INR 2,999.00 debited from A/c XX1234 at SWIGGY on 28-03-24")

	first, err := h.proc.Process(context.Background(), m)
	require.NoError(t, err)

	second, err := h.proc.Process(context.Background(), m)
	require.NoError(t, err)

	redelivered := m
	redelivered.ID = uuid.New()
	redelivered.ReceivedAt = m.ReceivedAt.Add(40 * time.Second)

	third, err := h.proc.Process(context.Background(), redelivered)
	require.NoError(t, err)

	assert.Equal(t, ingest.OutcomeNeedsDetails, first)
	assert.Equal(t, ingest.OutcomeDuplicate, second)
	assert.Equal(t, ingest.OutcomeDuplicate, third)
	assert.Len(t, h.repo.all(), 1)
	assert.Equal(t, []notify.Kind{notify.KindDetailsNeeded}, h.notifier.kinds())
}

func TestProcessor_IdempotentUnderConcurrency(t *testing.T) {
	h := newHarness(t)
	m := msg("VM-HDFCBK", "Rs 450.00 spent on card XX99 at Zepto on 28-03-24")

	var wg sync.WaitGroup

	for range 16 {
		wg.Add(1)

		go func() {
			defer wg.Done()

			_, err := h.proc.Process(context.Background(), m)
			assert.NoError(t, err)
		}()
	}

	wg.Wait()

	assert.Len(t, h.repo.all(), 1)
}

func TestProcessor_DuplicateAfterResolution(t *testing.T) {
	h := newHarness(t)
	m := msg("VM-HDFCBK", "Your account has been debited with Rs 100.00 for GPAY payment.")

	_, err := h.proc.Process(context.Background(), m)
	require.NoError(t, err)

	tx := h.repo.all()[0]
	_, err = resolution.NewService(transaction.NewService(h.repo), h.memory, h.patterns, h.notifier).
		Resolve(context.Background(), resolution.ResolveParams{ID: tx.ID, UserID: "u1", Merchant: "Cafe", Category: "Food"})
	require.NoError(t, err)

	outcome, err := h.proc.Process(context.Background(), m)
	require.NoError(t, err)

	assert.Equal(t, ingest.OutcomeDuplicate, outcome)
	assert.Len(t, h.repo.all(), 1)
}

func TestProcessor_MerchantMemoryAutoResolves(t *testing.T) {
	h := newHarness(t)
	h.memory.categories["swiggy"] = "Food"

	outcome, err := h.proc.Process(context.Background(),
		msg("VM-HDFCBK", "INR 2,999.00 debited from A/c XX1234 at SWIGGY on 28-03-24"))
	require.NoError(t, err)

	assert.Equal(t, ingest.OutcomeRecorded, outcome)

	txs := h.repo.all()
	require.Len(t, txs, 1)
	assert.Equal(t, "SWIGGY", txs[0].Name)
	assert.Equal(t, "Food", txs[0].Category)
	assert.Equal(t, transaction.StatusResolved, txs[0].Status)
	assert.Equal(t, []notify.Kind{notify.KindRecorded}, h.notifier.kinds())
}

func TestProcessor_PatternFillsUnknownMerchant(t *testing.T) {
	h := newHarness(t)
	h.patterns.match = &matching.Match{Merchant: "Google Pay Topup", Category: "Wallet"}

	outcome, err := h.proc.Process(context.Background(),
		msg("VM-SBIUPI", "Your account has been debited with Rs 100.00 for GPAY payment."))
	require.NoError(t, err)

	assert.Equal(t, ingest.OutcomeRecorded, outcome)

	txs := h.repo.all()
	require.Len(t, txs, 1)
	assert.Equal(t, "Google Pay Topup", txs[0].Name)
	assert.Equal(t, "Wallet", txs[0].Category)
	assert.Zero(t, h.memory.lookups)
}

func TestProcessor_ExtractionFailureNotifies(t *testing.T) {
	h := newHarness(t)

	outcome, err := h.proc.Process(context.Background(), msg("VM-HDFCBK", "Rs 0.00 debited from your account"))
	require.NoError(t, err)

	assert.Equal(t, ingest.OutcomeFailed, outcome)
	assert.Empty(t, h.repo.all())
	assert.Equal(t, []notify.Kind{notify.KindProcessingFailed}, h.notifier.kinds())
}

type failingRecorder struct{}

func (failingRecorder) Record(context.Context, transaction.CreateParams, time.Duration) (*transaction.Transaction, bool, error) {
	return nil, false, errors.New("connection refused")
}

func TestProcessor_PersistenceFailure(t *testing.T) {
	notifier := &recordingNotifier{}
	proc := ingest.NewProcessor(ingest.Deps{
		Senders:   screen.NewRegistry(nil, screen.BuiltinSenders),
		Extractor: extraction.NewRegexExtractor(),
		Recorder:  failingRecorder{},
		Memory:    &fakeMemory{},
		Patterns:  &fakePatterns{},
		Notifier:  notifier,
	})

	outcome, err := proc.Process(context.Background(), msg("VM-HDFCBK", "Rs 250 paid to Chai Point"))
	require.Error(t, err)

	assert.Equal(t, ingest.OutcomeFailed, outcome)
	require.Equal(t, []notify.Kind{notify.KindPersistenceFailed}, notifier.kinds())
	assert.Equal(t, int64(25000), notifier.notices[0].Amount)
}

func TestProcessor_OccurrenceTime(t *testing.T) {
	type testCase struct {
		name       string
		body       string
		receivedAt time.Time
		want       time.Time
	}

	tests := []testCase{
		{
			name:       "date on receive day uses receive time",
			body:       "Rs 120 paid to Chai Point on 28-03-24",
			receivedAt: receivedAt,
			want:       receivedAt,
		},
		{
			name:       "earlier date keeps the calendar day",
			body:       "Rs 120 paid to Chai Point on 27-03-24",
			receivedAt: receivedAt,
			want:       time.Date(2024, 3, 27, 0, 0, 0, 0, time.UTC),
		},
		{
			name:       "no date uses receive time",
			body:       "Rs 120 paid to Chai Point",
			receivedAt: receivedAt,
			want:       receivedAt,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			h := newHarness(t)

			m := msg("VM-HDFCBK", tc.body)
			m.ReceivedAt = tc.receivedAt

			_, err := h.proc.Process(context.Background(), m)
			require.NoError(t, err)

			txs := h.repo.all()
			require.Len(t, txs, 1)
			assert.True(t, tc.want.Equal(txs[0].Date), "got %s", txs[0].Date)
		})
	}
}
