package resolution_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrJamesThe3rd/smsledger/internal/matching"
	"github.com/MrJamesThe3rd/smsledger/internal/notify"
	"github.com/MrJamesThe3rd/smsledger/internal/resolution"
	"github.com/MrJamesThe3rd/smsledger/internal/transaction"
)

type fakeTxs struct {
	byID    map[uuid.UUID]*transaction.Transaction
	updates int
}

func newFakeTxs(txs ...*transaction.Transaction) *fakeTxs {
	f := &fakeTxs{byID: map[uuid.UUID]*transaction.Transaction{}}
	for _, tx := range txs {
		f.byID[tx.ID] = tx
	}

	return f
}

func (f *fakeTxs) Get(_ context.Context, id uuid.UUID) (*transaction.Transaction, error) {
	tx, ok := f.byID[id]
	if !ok {
		return nil, transaction.ErrNotFound
	}

	cp := *tx

	return &cp, nil
}

func (f *fakeTxs) Update(_ context.Context, tx *transaction.Transaction) error {
	f.updates++
	cp := *tx
	f.byID[tx.ID] = &cp

	return nil
}

func (f *fakeTxs) UpdateStatus(_ context.Context, id uuid.UUID, status transaction.Status) error {
	f.updates++
	f.byID[id].Status = status

	return nil
}

func (f *fakeTxs) List(_ context.Context, filter transaction.ListFilter) ([]*transaction.Transaction, error) {
	var out []*transaction.Transaction

	for _, tx := range f.byID {
		if tx.UserID == filter.UserID && (filter.Status == nil || tx.Status == *filter.Status) {
			out = append(out, tx)
		}
	}

	return out, nil
}

type fakeMemory struct {
	categories map[string]string
	saved      []string
	err        error
}

func (f *fakeMemory) Lookup(_ context.Context, merchant, _ string) (string, error) {
	return f.categories[merchant], nil
}

func (f *fakeMemory) Save(_ context.Context, merchant, category, _ string) error {
	if f.err != nil {
		return f.err
	}

	f.saved = append(f.saved, merchant+"="+category)

	return nil
}

type fakePatterns struct {
	match   *matching.Match
	learned []string
}

func (f *fakePatterns) Suggest(context.Context, string, string) (*matching.Match, error) {
	return f.match, nil
}

func (f *fakePatterns) Learn(_ context.Context, message, merchant, category, _ string) (*matching.Pattern, error) {
	f.learned = append(f.learned, message)
	return &matching.Pattern{RawPattern: matching.Template(message), Merchant: merchant, Category: category}, nil
}

type recordingNotifier struct {
	notices []notify.Notice
}

func (r *recordingNotifier) Notify(_ context.Context, n notify.Notice) error {
	r.notices = append(r.notices, n)
	return nil
}

func pendingTx(status transaction.Status) *transaction.Transaction {
	return &transaction.Transaction{
		ID:         uuid.New(),
		UserID:     "u1",
		Name:       "Unknown Merchant",
		Amount:     10000,
		Currency:   "INR",
		Category:   "Uncategorized",
		Status:     status,
		RawMessage: "Rs 100.00 paid to Chai Point via UPI",
		Date:       time.Now(),
	}
}

func TestService_Await(t *testing.T) {
	tx := pendingTx(transaction.StatusExtracted)
	txs := newFakeTxs(tx)
	notifier := &recordingNotifier{}
	svc := resolution.NewService(txs, &fakeMemory{}, &fakePatterns{}, notifier)

	sug, err := svc.Await(context.Background(), tx)
	require.NoError(t, err)

	assert.Equal(t, transaction.StatusAwaitingInput, txs.byID[tx.ID].Status)
	assert.Equal(t, "Chai Point", sug.Merchant)
	assert.Equal(t, resolution.SourceText, sug.Source)

	require.Len(t, notifier.notices, 1)
	n := notifier.notices[0]
	assert.Equal(t, notify.KindDetailsNeeded, n.Kind)
	assert.Equal(t, int64(10000), n.Amount)
	assert.Equal(t, tx.RawMessage, n.RawMessage)
	assert.Equal(t, "Chai Point", n.Merchant)
	assert.Equal(t, tx.ID, *n.TransactionID)
}

func TestService_AwaitResolved(t *testing.T) {
	tx := pendingTx(transaction.StatusResolved)
	svc := resolution.NewService(newFakeTxs(tx), &fakeMemory{}, &fakePatterns{}, &recordingNotifier{})

	_, err := svc.Await(context.Background(), tx)
	assert.ErrorIs(t, err, resolution.ErrAlreadyResolved)
}

func TestService_Suggest(t *testing.T) {
	type testCase struct {
		name     string
		tx       *transaction.Transaction
		patterns *fakePatterns
		memory   *fakeMemory
		want     resolution.Suggestion
	}

	stored := pendingTx(transaction.StatusAwaitingInput)
	stored.Name = "Swiggy"

	noText := pendingTx(transaction.StatusAwaitingInput)
	noText.RawMessage = "Rs 100.00 debited"

	tests := []testCase{
		{
			name:     "pattern first",
			tx:       pendingTx(transaction.StatusAwaitingInput),
			patterns: &fakePatterns{match: &matching.Match{Merchant: "Chaayos", Category: "Tea"}},
			memory:   &fakeMemory{},
			want:     resolution.Suggestion{Merchant: "Chaayos", Category: "Tea", Source: resolution.SourcePattern},
		},
		{
			name:     "stored merchant with memory category",
			tx:       stored,
			patterns: &fakePatterns{},
			memory:   &fakeMemory{categories: map[string]string{"Swiggy": "Food"}},
			want:     resolution.Suggestion{Merchant: "Swiggy", Category: "Food", Source: resolution.SourceStored},
		},
		{
			name:     "merchant from text",
			tx:       pendingTx(transaction.StatusAwaitingInput),
			patterns: &fakePatterns{},
			memory:   &fakeMemory{},
			want:     resolution.Suggestion{Merchant: "Chai Point", Source: resolution.SourceText},
		},
		{
			name:     "nothing known",
			tx:       noText,
			patterns: &fakePatterns{},
			memory:   &fakeMemory{},
			want:     resolution.Suggestion{Source: resolution.SourceNone},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := resolution.NewService(newFakeTxs(tt.tx), tt.memory, tt.patterns, &recordingNotifier{})

			got, err := svc.Suggest(context.Background(), tt.tx)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestService_Resolve(t *testing.T) {
	t.Run("Success with pattern", func(t *testing.T) {
		tx := pendingTx(transaction.StatusAwaitingInput)
		txs := newFakeTxs(tx)
		memory := &fakeMemory{}
		patterns := &fakePatterns{}
		svc := resolution.NewService(txs, memory, patterns, &recordingNotifier{})

		got, err := svc.Resolve(context.Background(), resolution.ResolveParams{
			ID:            tx.ID,
			UserID:        "u1",
			Merchant:      " Chai Point ",
			Category:      "Tea",
			SaveAsPattern: true,
		})
		require.NoError(t, err)

		assert.Equal(t, transaction.StatusResolved, got.Status)
		assert.Equal(t, "Chai Point", txs.byID[tx.ID].Name)
		assert.Equal(t, "Tea", txs.byID[tx.ID].Category)
		assert.Equal(t, []string{"Chai Point=Tea"}, memory.saved)
		assert.Equal(t, []string{tx.RawMessage}, patterns.learned)
	})

	t.Run("Without pattern", func(t *testing.T) {
		tx := pendingTx(transaction.StatusAwaitingInput)
		patterns := &fakePatterns{}
		svc := resolution.NewService(newFakeTxs(tx), &fakeMemory{}, patterns, &recordingNotifier{})

		_, err := svc.Resolve(context.Background(), resolution.ResolveParams{ID: tx.ID, UserID: "u1", Merchant: "A", Category: "B"})
		require.NoError(t, err)
		assert.Empty(t, patterns.learned)
	})

	t.Run("Memory failure keeps resolution", func(t *testing.T) {
		tx := pendingTx(transaction.StatusAwaitingInput)
		txs := newFakeTxs(tx)
		svc := resolution.NewService(txs, &fakeMemory{err: errors.New("redis down")}, &fakePatterns{}, &recordingNotifier{})

		_, err := svc.Resolve(context.Background(), resolution.ResolveParams{ID: tx.ID, UserID: "u1", Merchant: "A", Category: "B"})
		require.NoError(t, err)
		assert.Equal(t, transaction.StatusResolved, txs.byID[tx.ID].Status)
	})

	errCases := []struct {
		name    string
		status  transaction.Status
		params  func(id uuid.UUID) resolution.ResolveParams
		wantErr error
	}{
		{
			name:   "NotOwner",
			status: transaction.StatusAwaitingInput,
			params: func(id uuid.UUID) resolution.ResolveParams {
				return resolution.ResolveParams{ID: id, UserID: "intruder", Merchant: "A", Category: "B"}
			},
			wantErr: resolution.ErrNotOwner,
		},
		{
			name:   "AlreadyResolved",
			status: transaction.StatusResolved,
			params: func(id uuid.UUID) resolution.ResolveParams {
				return resolution.ResolveParams{ID: id, UserID: "u1", Merchant: "A", Category: "B"}
			},
			wantErr: resolution.ErrAlreadyResolved,
		},
		{
			name:   "SentinelMerchant",
			status: transaction.StatusAwaitingInput,
			params: func(id uuid.UUID) resolution.ResolveParams {
				return resolution.ResolveParams{ID: id, UserID: "u1", Merchant: "Unknown Merchant", Category: "B"}
			},
			wantErr: resolution.ErrInvalidInput,
		},
		{
			name:   "MissingCategory",
			status: transaction.StatusAwaitingInput,
			params: func(id uuid.UUID) resolution.ResolveParams {
				return resolution.ResolveParams{ID: id, UserID: "u1", Merchant: "A"}
			},
			wantErr: resolution.ErrInvalidInput,
		},
		{
			name:   "NotFound",
			status: transaction.StatusAwaitingInput,
			params: func(uuid.UUID) resolution.ResolveParams {
				return resolution.ResolveParams{ID: uuid.New(), UserID: "u1", Merchant: "A", Category: "B"}
			},
			wantErr: transaction.ErrNotFound,
		},
	}

	for _, tc := range errCases {
		t.Run(tc.name, func(t *testing.T) {
			tx := pendingTx(tc.status)
			txs := newFakeTxs(tx)
			svc := resolution.NewService(txs, &fakeMemory{}, &fakePatterns{}, &recordingNotifier{})

			_, err := svc.Resolve(context.Background(), tc.params(tx.ID))
			assert.ErrorIs(t, err, tc.wantErr)
			assert.Zero(t, txs.updates)
		})
	}
}

func TestService_Dismiss(t *testing.T) {
	tx := pendingTx(transaction.StatusAwaitingInput)
	txs := newFakeTxs(tx)
	svc := resolution.NewService(txs, &fakeMemory{}, &fakePatterns{}, &recordingNotifier{})

	got, err := svc.Dismiss(context.Background(), tx.ID, "u1")
	require.NoError(t, err)
	assert.Equal(t, transaction.StatusExtracted, got.Status)
	assert.Equal(t, transaction.StatusExtracted, txs.byID[tx.ID].Status)
	assert.Equal(t, "Uncategorized", txs.byID[tx.ID].Category)

	pending, err := svc.Pending(context.Background(), "u1")
	require.NoError(t, err)
	assert.Empty(t, pending)

	_, err = svc.Dismiss(context.Background(), tx.ID, "u2")
	assert.ErrorIs(t, err, resolution.ErrNotOwner)
}

func TestService_Pending(t *testing.T) {
	waiting := pendingTx(transaction.StatusAwaitingInput)
	done := pendingTx(transaction.StatusResolved)
	svc := resolution.NewService(newFakeTxs(waiting, done), &fakeMemory{}, &fakePatterns{}, &recordingNotifier{})

	got, err := svc.Pending(context.Background(), "u1")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, waiting.ID, got[0].ID)
}
