package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/MrJamesThe3rd/smsledger/internal/screen"
)

type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

func (s *Store) ListApproved(ctx context.Context) ([]screen.ApprovedSender, error) {
	query := `
		SELECT user_id, code
		FROM approved_senders
		ORDER BY user_id, created_at ASC
	`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("listing approved senders: %w", err)
	}
	defer rows.Close()

	var approved []screen.ApprovedSender

	for rows.Next() {
		var a screen.ApprovedSender
		if err := rows.Scan(&a.UserID, &a.Code); err != nil {
			return nil, fmt.Errorf("scanning sender: %w", err)
		}

		approved = append(approved, a)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating senders: %w", err)
	}

	return approved, nil
}

func (s *Store) AddApproved(ctx context.Context, userID, code string) error {
	query := `
		INSERT INTO approved_senders (user_id, code, created_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (user_id, code) DO NOTHING
	`

	if _, err := s.db.ExecContext(ctx, query, userID, code); err != nil {
		return fmt.Errorf("adding approved sender: %w", err)
	}

	return nil
}
