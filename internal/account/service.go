package account

//go:generate mockgen -source=service.go -destination=repository_mock.go -package=account

import (
	"context"
	"fmt"

	"github.com/MrJamesThe3rd/smsledger/internal/logger"
)

type Repository interface {
	// MigrateGuest moves every row owned by guestID to userID atomically.
	MigrateGuest(ctx context.Context, guestID, userID string) (Result, error)
}

// SenderReloader refreshes in-memory sender snapshots after approved codes
// change owner.
type SenderReloader interface {
	Load(ctx context.Context) error
}

type Service struct {
	repo    Repository
	senders SenderReloader
}

func NewService(repo Repository, senders SenderReloader) *Service {
	return &Service{repo: repo, senders: senders}
}

// MigrateGuest hands the guest's history to a signed-in user. Merchant
// mappings the user already has are kept over the guest's.
func (s *Service) MigrateGuest(ctx context.Context, guestID, userID string) (Result, error) {
	if !IsGuest(guestID) {
		return Result{}, fmt.Errorf("%w: %q is not a guest id", ErrInvalidMigration, guestID)
	}

	if userID == "" || IsGuest(userID) {
		return Result{}, fmt.Errorf("%w: target must be a signed-in user", ErrInvalidMigration)
	}

	res, err := s.repo.MigrateGuest(ctx, guestID, userID)
	if err != nil {
		return Result{}, fmt.Errorf("migrating guest: %w", err)
	}

	if res.Senders > 0 && s.senders != nil {
		if err := s.senders.Load(ctx); err != nil {
			logger.FromContext(ctx).Warn().Err(err).Str("user_id", userID).Msg("reloading approved senders failed")
		}
	}

	return res, nil
}
