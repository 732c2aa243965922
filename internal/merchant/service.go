package merchant

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/MrJamesThe3rd/smsledger/internal/extraction"
)

//go:generate mockgen -source=service.go -destination=repository_mock.go -package=merchant
type Repository interface {
	GetCategory(ctx context.Context, userID, merchant string) (string, error)
	SaveCategory(ctx context.Context, userID, merchant, category string) error
	ListMappings(ctx context.Context, userID string) ([]*Mapping, error)
}

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Lookup returns the category remembered for merchant, checking the user's
// own scope before the global one. It returns "" when nothing is known.
func (s *Service) Lookup(ctx context.Context, merchant, userID string) (string, error) {
	key := Normalize(merchant)
	if key == "" || key == Normalize(extraction.UnknownMerchant) {
		return "", nil
	}

	scopes := []string{GlobalScope}
	if userID != GlobalScope {
		scopes = []string{userID, GlobalScope}
	}

	for _, scope := range scopes {
		category, err := s.repo.GetCategory(ctx, scope, key)
		if err == nil {
			return category, nil
		}

		if !errors.Is(err, ErrNotFound) {
			return "", fmt.Errorf("looking up merchant: %w", err)
		}
	}

	return "", nil
}

// Save remembers category for merchant in the given scope. The last write wins.
func (s *Service) Save(ctx context.Context, merchant, category, userID string) error {
	key := Normalize(merchant)
	category = strings.TrimSpace(category)

	switch {
	case key == "", key == Normalize(extraction.UnknownMerchant):
		return fmt.Errorf("%w: merchant is required", ErrInvalidMapping)
	case category == "", strings.EqualFold(category, extraction.Uncategorized):
		return fmt.Errorf("%w: category is required", ErrInvalidMapping)
	}

	if err := s.repo.SaveCategory(ctx, userID, key, category); err != nil {
		return fmt.Errorf("saving merchant category: %w", err)
	}

	return nil
}

func (s *Service) List(ctx context.Context, userID string) ([]*Mapping, error) {
	return s.repo.ListMappings(ctx, userID)
}
