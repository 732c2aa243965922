package account_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/MrJamesThe3rd/smsledger/internal/account"
)

func TestGuestID(t *testing.T) {
	assert.Equal(t, "guest:dev-42", account.GuestID(" dev-42 "))
	assert.True(t, account.IsGuest("guest:dev-42"))
	assert.False(t, account.IsGuest("guest:"))
	assert.False(t, account.IsGuest("user-1"))
}

func TestService_MigrateGuest(t *testing.T) {
	type testCase struct {
		name      string
		guestID   string
		userID    string
		setupMock func(m *account.MockRepository)
		want      account.Result
		wantErr   error
	}

	tests := []testCase{
		{
			name:    "moves guest rows",
			guestID: "guest:dev-1",
			userID:  "user-1",
			setupMock: func(m *account.MockRepository) {
				m.EXPECT().MigrateGuest(gomock.Any(), "guest:dev-1", "user-1").
					Return(account.Result{Transactions: 12, Merchants: 3, Patterns: 1}, nil)
			},
			want: account.Result{Transactions: 12, Merchants: 3, Patterns: 1},
		},
		{
			name:      "source must be a guest",
			guestID:   "user-2",
			userID:    "user-1",
			setupMock: func(m *account.MockRepository) {},
			wantErr:   account.ErrInvalidMigration,
		},
		{
			name:      "target must not be a guest",
			guestID:   "guest:dev-1",
			userID:    "guest:dev-2",
			setupMock: func(m *account.MockRepository) {},
			wantErr:   account.ErrInvalidMigration,
		},
		{
			name:      "target required",
			guestID:   "guest:dev-1",
			setupMock: func(m *account.MockRepository) {},
			wantErr:   account.ErrInvalidMigration,
		},
		{
			name:    "repository failure rolls back",
			guestID: "guest:dev-1",
			userID:  "user-1",
			setupMock: func(m *account.MockRepository) {
				m.EXPECT().MigrateGuest(gomock.Any(), "guest:dev-1", "user-1").
					Return(account.Result{}, errors.New("serialization failure"))
			},
			wantErr: errors.New("migrating guest: serialization failure"),
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			repo := account.NewMockRepository(ctrl)
			tc.setupMock(repo)

			got, err := account.NewService(repo, nil).MigrateGuest(context.Background(), tc.guestID, tc.userID)
			if tc.wantErr != nil {
				require.Error(t, err)

				if errors.Is(tc.wantErr, account.ErrInvalidMigration) {
					assert.ErrorIs(t, err, account.ErrInvalidMigration)
				} else {
					assert.EqualError(t, err, tc.wantErr.Error())
				}

				assert.Zero(t, got)

				return
			}

			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestService_MigrateGuestReloadsSenders(t *testing.T) {
	type testCase struct {
		name      string
		result    account.Result
		reloadErr error
		wantLoads int
	}

	tests := []testCase{
		{
			name:      "moved senders are republished",
			result:    account.Result{Transactions: 2, Senders: 1},
			wantLoads: 1,
		},
		{
			name:   "nothing to republish",
			result: account.Result{Transactions: 2},
		},
		{
			name:      "reload failure keeps the migration",
			result:    account.Result{Senders: 3},
			reloadErr: errors.New("db down"),
			wantLoads: 1,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			repo := account.NewMockRepository(ctrl)
			repo.EXPECT().MigrateGuest(gomock.Any(), "guest:dev-1", "user-1").Return(tc.result, nil)

			reloader := account.NewMockSenderReloader(ctrl)
			reloader.EXPECT().Load(gomock.Any()).Return(tc.reloadErr).Times(tc.wantLoads)

			got, err := account.NewService(repo, reloader).MigrateGuest(context.Background(), "guest:dev-1", "user-1")
			require.NoError(t, err)

			assert.Equal(t, tc.result, got)
		})
	}
}
