package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/MrJamesThe3rd/smsledger/internal/matching"
)

type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func (s *Store) FindMatch(ctx context.Context, userID, template string) (*matching.Match, error) {
	query := `
		SELECT merchant, category
		FROM message_patterns
		WHERE user_id = $1 AND $2 LIKE '%' || raw_pattern || '%'
		ORDER BY LENGTH(raw_pattern) DESC, created_at DESC, id DESC
		LIMIT 1
	`

	var m matching.Match

	err := s.db.QueryRowContext(ctx, query, userID, template).Scan(&m.Merchant, &m.Category)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}

		return nil, fmt.Errorf("finding match: %w", err)
	}

	return &m, nil
}

// CreatePattern stores the template with LIKE wildcards escaped so it only
// ever matches literally.
func (s *Store) CreatePattern(ctx context.Context, p *matching.Pattern) error {
	query := `
		INSERT INTO message_patterns (user_id, raw_pattern, merchant, category, created_at)
		VALUES ($1, $2, $3, $4, NOW())
		RETURNING id, created_at
	`

	err := s.db.QueryRowContext(ctx, query, p.UserID, likeEscaper.Replace(p.RawPattern), p.Merchant, p.Category).
		Scan(&p.ID, &p.CreatedAt)
	if err != nil {
		return fmt.Errorf("creating pattern: %w", err)
	}

	return nil
}

var likeUnescaper = strings.NewReplacer(`\\`, `\`, `\%`, `%`, `\_`, `_`)

func (s *Store) ListPatterns(ctx context.Context, userID string) ([]*matching.Pattern, error) {
	query := `
		SELECT id, user_id, raw_pattern, merchant, category, created_at
		FROM message_patterns
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC
	`

	rows, err := s.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("listing patterns: %w", err)
	}
	defer rows.Close()

	var patterns []*matching.Pattern

	for rows.Next() {
		var p matching.Pattern
		if err := rows.Scan(&p.ID, &p.UserID, &p.RawPattern, &p.Merchant, &p.Category, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning pattern: %w", err)
		}

		p.RawPattern = likeUnescaper.Replace(p.RawPattern)
		patterns = append(patterns, &p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating patterns: %w", err)
	}

	return patterns, nil
}
