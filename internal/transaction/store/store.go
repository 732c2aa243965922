package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"hash/fnv"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/smsledger/internal/transaction"
)

type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// scanner is satisfied by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// scanTransaction reads a row selected with selectTransactionColumns.
func scanTransaction(s scanner) (*transaction.Transaction, error) {
	var tx transaction.Transaction

	var typeStr, statusStr string

	var externalID sql.NullString

	if err := s.Scan(
		&tx.ID, &tx.UserID, &tx.Name, &tx.Amount, &tx.Currency, &typeStr, &statusStr,
		&tx.Category, &tx.Description, &tx.ReferenceNumber, &tx.Sender, &tx.RawMessage,
		&tx.Date, &externalID, &tx.CreatedAt, &tx.UpdatedAt,
	); err != nil {
		return nil, err
	}

	tx.Type = transaction.Type(typeStr)
	tx.Status = transaction.Status(statusStr)

	if externalID.Valid {
		tx.ExternalID = &externalID.String
	}

	return &tx, nil
}

const selectTransactionColumns = `
	id, user_id, name, amount, currency, type, status,
	category, description, reference_number, sender, raw_message,
	date, external_id, created_at, updated_at
`

const insertTransaction = `
	INSERT INTO transactions (
		user_id, name, amount, currency, type, status, category, description,
		reference_number, sender, raw_message, date, dedup_key, created_at, updated_at
	)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, NOW(), NOW())
`

func insertArgs(tx *transaction.Transaction, dedupKey *string) []any {
	return []any{
		tx.UserID, tx.Name, tx.Amount, tx.Currency, tx.Type, tx.Status, tx.Category, tx.Description,
		tx.ReferenceNumber, tx.Sender, tx.RawMessage, tx.Date, dedupKey,
	}
}

func (s *Store) CreateTransaction(ctx context.Context, tx *transaction.Transaction) error {
	query := insertTransaction + ` RETURNING id, created_at, updated_at`

	err := s.db.QueryRowContext(ctx, query, insertArgs(tx, nil)...).Scan(&tx.ID, &tx.CreatedAt, &tx.UpdatedAt)
	if err != nil {
		return fmt.Errorf("creating transaction: %w", err)
	}

	return nil
}

func (s *Store) GetTransaction(ctx context.Context, id uuid.UUID) (*transaction.Transaction, error) {
	query := `SELECT ` + selectTransactionColumns + `
		FROM transactions
		WHERE id = $1 AND deleted_at IS NULL`

	tx, err := scanTransaction(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, transaction.ErrNotFound
		}

		return nil, fmt.Errorf("getting transaction: %w", err)
	}

	return tx, nil
}

func (s *Store) ListTransactions(ctx context.Context, filter transaction.ListFilter) ([]*transaction.Transaction, error) {
	query := `SELECT ` + selectTransactionColumns + `
		FROM transactions
		WHERE deleted_at IS NULL`

	var args []any

	argIdx := 1

	if filter.UserID != "" {
		query += fmt.Sprintf(" AND user_id = $%d", argIdx)

		args = append(args, filter.UserID)
		argIdx++
	}

	if filter.Status != nil {
		query += fmt.Sprintf(" AND status = $%d", argIdx)

		args = append(args, *filter.Status)
		argIdx++
	}

	if filter.StartDate != nil {
		query += fmt.Sprintf(" AND date >= $%d", argIdx)

		args = append(args, *filter.StartDate)
		argIdx++
	}

	if filter.EndDate != nil {
		query += fmt.Sprintf(" AND date <= $%d", argIdx)

		args = append(args, *filter.EndDate)
		argIdx++
	}

	query += " ORDER BY date DESC"

	return queryTransactions(ctx, s.db, query, args...)
}

func (s *Store) FindInWindow(ctx context.Context, userID string, start, end time.Time) ([]*transaction.Transaction, error) {
	return findInWindow(ctx, s.db, userID, start, end)
}

func (s *Store) UpdateTransaction(ctx context.Context, tx *transaction.Transaction) error {
	query := `
		UPDATE transactions
		SET name = $1, amount = $2, currency = $3, type = $4, status = $5, category = $6,
			description = $7, reference_number = $8, date = $9, external_id = $10, updated_at = NOW()
		WHERE id = $11 AND deleted_at IS NULL
		RETURNING updated_at
	`

	err := s.db.QueryRowContext(ctx, query,
		tx.Name,
		tx.Amount,
		tx.Currency,
		tx.Type,
		tx.Status,
		tx.Category,
		tx.Description,
		tx.ReferenceNumber,
		tx.Date,
		tx.ExternalID,
		tx.ID,
	).Scan(&tx.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return transaction.ErrNotFound
		}

		return fmt.Errorf("updating transaction: %w", err)
	}

	return nil
}

func (s *Store) UpdateStatus(ctx context.Context, id uuid.UUID, status transaction.Status) error {
	query := `
		UPDATE transactions
		SET status = $1, updated_at = NOW()
		WHERE id = $2 AND deleted_at IS NULL
	`

	res, err := s.db.ExecContext(ctx, query, status, id)
	if err != nil {
		return fmt.Errorf("updating status: %w", err)
	}

	return requireOneRow(res)
}

func (s *Store) DeleteTransaction(ctx context.Context, id uuid.UUID) error {
	query := `
		UPDATE transactions
		SET deleted_at = NOW()
		WHERE id = $1 AND deleted_at IS NULL
	`

	res, err := s.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("deleting transaction: %w", err)
	}

	return requireOneRow(res)
}

func requireOneRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("reading affected rows: %w", err)
	}

	if n == 0 {
		return transaction.ErrNotFound
	}

	return nil
}

func findInWindow(ctx context.Context, q querier, userID string, start, end time.Time) ([]*transaction.Transaction, error) {
	query := `SELECT ` + selectTransactionColumns + `
		FROM transactions
		WHERE deleted_at IS NULL AND user_id = $1 AND date >= $2 AND date <= $3
		ORDER BY date ASC`

	return queryTransactions(ctx, q, query, userID, start, end)
}

func queryTransactions(ctx context.Context, q querier, query string, args ...any) ([]*transaction.Transaction, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying transactions: %w", err)
	}
	defer rows.Close()

	var txs []*transaction.Transaction

	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning transaction: %w", err)
		}

		txs = append(txs, tx)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating transactions: %w", err)
	}

	return txs, nil
}

func recordLockKey(userID string, amount int64) int64 {
	h := fnv.New64a()
	h.Write([]byte(userID))
	h.Write([]byte{0})
	h.Write([]byte(strconv.FormatInt(amount, 10)))

	return int64(h.Sum64())
}

type recordTx struct {
	tx *sql.Tx
}

// BeginRecord opens a database transaction holding an advisory lock for the
// user and amount until commit or rollback.
func (s *Store) BeginRecord(ctx context.Context, userID string, amount int64) (transaction.RecordTx, error) {
	dbTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning record tx: %w", err)
	}

	if _, err := dbTx.ExecContext(ctx, "SELECT pg_advisory_xact_lock($1)", recordLockKey(userID, amount)); err != nil {
		dbTx.Rollback()
		return nil, fmt.Errorf("acquiring record lock: %w", err)
	}

	return &recordTx{tx: dbTx}, nil
}

func (rtx *recordTx) Commit() error   { return rtx.tx.Commit() }
func (rtx *recordTx) Rollback() error { return rtx.tx.Rollback() }

func (rtx *recordTx) FindInWindow(ctx context.Context, userID string, start, end time.Time) ([]*transaction.Transaction, error) {
	return findInWindow(ctx, rtx.tx, userID, start, end)
}

// CreateTransaction inserts tx with its dedup key. A key collision returns
// transaction.ErrDuplicate and leaves the database transaction usable.
func (rtx *recordTx) CreateTransaction(ctx context.Context, tx *transaction.Transaction) error {
	key := transaction.DedupKey(tx.UserID, tx.Amount, tx.Name, tx.Date)
	query := insertTransaction + ` ON CONFLICT (dedup_key) DO NOTHING RETURNING id, created_at, updated_at`

	err := rtx.tx.QueryRowContext(ctx, query, insertArgs(tx, &key)...).Scan(&tx.ID, &tx.CreatedAt, &tx.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return transaction.ErrDuplicate
		}

		return fmt.Errorf("creating transaction: %w", err)
	}

	return nil
}
