package matching

import (
	"context"
	"fmt"
	"strings"
)

//go:generate mockgen -source=service.go -destination=repository_mock.go -package=matching
type Repository interface {
	FindMatch(ctx context.Context, userID, template string) (*Match, error)
	CreatePattern(ctx context.Context, p *Pattern) error
	ListPatterns(ctx context.Context, userID string) ([]*Pattern, error)
}

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Suggest returns the merchant and category of the longest learned pattern
// contained in message, newest first on ties. It returns nil if none match.
func (s *Service) Suggest(ctx context.Context, message, userID string) (*Match, error) {
	t := Template(message)
	if t == "" {
		return nil, nil
	}

	return s.repo.FindMatch(ctx, userID, t)
}

// Learn remembers that messages like message belong to merchant and category.
// Patterns are only ever appended.
func (s *Service) Learn(ctx context.Context, message, merchant, category, userID string) (*Pattern, error) {
	t := Template(message)
	merchant = strings.TrimSpace(merchant)
	category = strings.TrimSpace(category)

	switch {
	case len(t) < MinPatternLength:
		return nil, fmt.Errorf("%w: need at least %d characters", ErrPatternTooShort, MinPatternLength)
	case merchant == "", category == "":
		return nil, fmt.Errorf("%w: merchant and category are required", ErrInvalidPattern)
	}

	p := &Pattern{
		UserID:     userID,
		RawPattern: t,
		Merchant:   merchant,
		Category:   category,
	}

	if err := s.repo.CreatePattern(ctx, p); err != nil {
		return nil, fmt.Errorf("creating pattern: %w", err)
	}

	return p, nil
}

func (s *Service) List(ctx context.Context, userID string) ([]*Pattern, error) {
	return s.repo.ListPatterns(ctx, userID)
}
