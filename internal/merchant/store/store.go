package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/MrJamesThe3rd/smsledger/internal/merchant"
)

type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

func (s *Store) GetCategory(ctx context.Context, userID, name string) (string, error) {
	query := `SELECT category FROM merchant_categories WHERE user_id = $1 AND merchant = $2`

	var category string
	if err := s.db.QueryRowContext(ctx, query, userID, name).Scan(&category); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", merchant.ErrNotFound
		}

		return "", fmt.Errorf("getting merchant category: %w", err)
	}

	return category, nil
}

func (s *Store) SaveCategory(ctx context.Context, userID, name, category string) error {
	query := `
		INSERT INTO merchant_categories (user_id, merchant, category, updated_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (user_id, merchant) DO UPDATE
		SET category = EXCLUDED.category, updated_at = NOW()
	`

	if _, err := s.db.ExecContext(ctx, query, userID, name, category); err != nil {
		return fmt.Errorf("saving merchant category: %w", err)
	}

	return nil
}

func (s *Store) ListMappings(ctx context.Context, userID string) ([]*merchant.Mapping, error) {
	query := `
		SELECT user_id, merchant, category, updated_at
		FROM merchant_categories
		WHERE user_id = $1
		ORDER BY merchant ASC
	`

	rows, err := s.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("listing merchant categories: %w", err)
	}
	defer rows.Close()

	var mappings []*merchant.Mapping

	for rows.Next() {
		var m merchant.Mapping
		if err := rows.Scan(&m.UserID, &m.Merchant, &m.Category, &m.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scanning merchant category: %w", err)
		}

		mappings = append(mappings, &m)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating merchant categories: %w", err)
	}

	return mappings, nil
}
