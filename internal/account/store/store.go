package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/MrJamesThe3rd/smsledger/internal/account"
)

type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// MigrateGuest re-keys transactions, merchant memory, message patterns and
// approved senders in one database transaction.
func (s *Store) MigrateGuest(ctx context.Context, guestID, userID string) (account.Result, error) {
	var res account.Result

	dbTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return res, fmt.Errorf("beginning migration tx: %w", err)
	}
	defer dbTx.Rollback()

	// Dedup keys start with the owner. A guest row whose re-keyed value is
	// already taken by the user loses its key instead of failing the move.
	clearKeys := `
		UPDATE transactions g SET dedup_key = NULL
		WHERE g.user_id = $1 AND g.dedup_key IS NOT NULL
		AND EXISTS (
			SELECT 1 FROM transactions u
			WHERE u.dedup_key = $2 || substr(g.dedup_key, length($1) + 1)
		)
	`
	if _, err := dbTx.ExecContext(ctx, clearKeys, guestID, userID); err != nil {
		return res, fmt.Errorf("clearing colliding dedup keys: %w", err)
	}

	moveTransactions := `
		UPDATE transactions
		SET user_id = $2,
			dedup_key = $2 || substr(dedup_key, length($1) + 1),
			updated_at = NOW()
		WHERE user_id = $1
	`
	if res.Transactions, err = execCount(ctx, dbTx, moveTransactions, guestID, userID); err != nil {
		return res, fmt.Errorf("moving transactions: %w", err)
	}

	copyMerchants := `
		INSERT INTO merchant_categories (user_id, merchant, category, updated_at)
		SELECT $2, merchant, category, updated_at
		FROM merchant_categories
		WHERE user_id = $1
		ON CONFLICT (user_id, merchant) DO NOTHING
	`
	if res.Merchants, err = execCount(ctx, dbTx, copyMerchants, guestID, userID); err != nil {
		return res, fmt.Errorf("copying merchant categories: %w", err)
	}

	if _, err := dbTx.ExecContext(ctx, `DELETE FROM merchant_categories WHERE user_id = $1`, guestID); err != nil {
		return res, fmt.Errorf("removing guest merchant categories: %w", err)
	}

	movePatterns := `UPDATE message_patterns SET user_id = $2 WHERE user_id = $1`
	if res.Patterns, err = execCount(ctx, dbTx, movePatterns, guestID, userID); err != nil {
		return res, fmt.Errorf("moving message patterns: %w", err)
	}

	copySenders := `
		INSERT INTO approved_senders (user_id, code, created_at)
		SELECT $2, code, created_at
		FROM approved_senders
		WHERE user_id = $1
		ON CONFLICT (user_id, code) DO NOTHING
	`
	if res.Senders, err = execCount(ctx, dbTx, copySenders, guestID, userID); err != nil {
		return res, fmt.Errorf("copying approved senders: %w", err)
	}

	if _, err := dbTx.ExecContext(ctx, `DELETE FROM approved_senders WHERE user_id = $1`, guestID); err != nil {
		return res, fmt.Errorf("removing guest approved senders: %w", err)
	}

	if err := dbTx.Commit(); err != nil {
		return account.Result{}, fmt.Errorf("committing migration: %w", err)
	}

	return res, nil
}

func execCount(ctx context.Context, tx *sql.Tx, query string, args ...any) (int64, error) {
	r, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, err
	}

	return r.RowsAffected()
}
