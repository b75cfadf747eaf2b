package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"payhub-backend/internal/logger"
	"payhub-backend/internal/repository"
)

// DBTX is satisfied by both *sql.DB and *sql.Tx.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type Store struct {
	db *sql.DB
	repository.LedgerRepository
	repository.IdempotencyRepository
}

func NewStore(db *sql.DB) *Store {
	return &Store{
		db:                    db,
		LedgerRepository:      NewLedgerRepository(db),
		IdempotencyRepository: NewIdempotencyRepository(db),
	}
}

// Repositories returns repositories bound to the pool, outside any transaction.
func (s *Store) Repositories() repository.Repositories {
	return repository.Repositories{
		Ledgers:     s.LedgerRepository,
		Idempotency: s.IdempotencyRepository,
	}
}

func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context, repos repository.Repositories) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		logger.Error("Failed to begin transaction", "error", err)
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	repos := repository.Repositories{
		Ledgers:     NewLedgerRepository(tx),
		Idempotency: NewIdempotencyRepository(tx),
	}
	if err := fn(ctx, repos); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		logger.Error("Failed to commit transaction", "error", err)
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

const uniqueViolation = "23505"

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == uniqueViolation
}
