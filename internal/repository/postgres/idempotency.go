package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"payhub-backend/internal/domain"
	"payhub-backend/internal/logger"
	"payhub-backend/internal/repository"
)

type idempotencyRepository struct {
	db DBTX
}

func NewIdempotencyRepository(db DBTX) repository.IdempotencyRepository {
	return &idempotencyRepository{db: db}
}

func (r *idempotencyRepository) Get(ctx context.Context, key, requestHash string) (*domain.IdempotencyRecord, error) {
	logger.EnterMethod("idempotencyRepository.Get", "key", key)

	query := `
		SELECT id, idempotency_key, request_hash, request_body, response_code, response_body,
		       COALESCE(ledger_reference, ''), date_created, date_updated
		FROM idempotency_keys
		WHERE idempotency_key = $1 AND request_hash = $2
	`
	rec := &domain.IdempotencyRecord{}
	err := r.db.QueryRowContext(ctx, query, key, requestHash).Scan(
		&rec.ID, &rec.IdempotencyKey, &rec.RequestHash, &rec.RequestBody, &rec.ResponseCode, &rec.ResponseBody,
		&rec.LedgerReference, &rec.DateCreated, &rec.DateUpdated,
	)
	if errors.Is(err, sql.ErrNoRows) {
		logger.ExitMethod("idempotencyRepository.Get", "key", key, "found", false)
		return nil, nil
	}
	if err != nil {
		logger.ExitMethodWithError("idempotencyRepository.Get", err, "key", key)
		return nil, err
	}

	logger.ExitMethod("idempotencyRepository.Get", "key", key, "found", true)
	return rec, nil
}

func (r *idempotencyRepository) ExistsForOtherRequest(ctx context.Context, key, requestHash string) (bool, error) {
	logger.EnterMethod("idempotencyRepository.ExistsForOtherRequest", "key", key)

	query := `SELECT EXISTS (SELECT 1 FROM idempotency_keys WHERE idempotency_key = $1 AND request_hash <> $2)`
	var exists bool
	if err := r.db.QueryRowContext(ctx, query, key, requestHash).Scan(&exists); err != nil {
		logger.ExitMethodWithError("idempotencyRepository.ExistsForOtherRequest", err, "key", key)
		return false, err
	}

	logger.ExitMethod("idempotencyRepository.ExistsForOtherRequest", "key", key, "exists", exists)
	return exists, nil
}

func (r *idempotencyRepository) Create(ctx context.Context, record *domain.IdempotencyRecord) error {
	logger.EnterMethod("idempotencyRepository.Create", "key", record.IdempotencyKey, "responseCode", record.ResponseCode)

	query := `
		INSERT INTO idempotency_keys (
			idempotency_key, request_hash, request_body, response_code, response_body,
			ledger_reference, date_created, date_updated
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id
	`
	now := time.Now().UTC()
	record.DateCreated = now
	record.DateUpdated = now
	err := r.db.QueryRowContext(ctx, query,
		record.IdempotencyKey, record.RequestHash, record.RequestBody, record.ResponseCode, record.ResponseBody,
		record.LedgerReference, record.DateCreated, record.DateUpdated,
	).Scan(&record.ID)
	if err != nil {
		if isUniqueViolation(err) {
			err = domain.ErrDuplicateKey
		}
		logger.ExitMethodWithError("idempotencyRepository.Create", err, "key", record.IdempotencyKey)
		return err
	}

	logger.ExitMethod("idempotencyRepository.Create", "id", record.ID)
	return nil
}

func (r *idempotencyRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	logger.EnterMethod("idempotencyRepository.DeleteOlderThan", "cutoff", cutoff)

	query := `DELETE FROM idempotency_keys WHERE date_created < $1`
	logger.DatabaseCall("delete", query, "cutoff", cutoff)
	res, err := r.db.ExecContext(ctx, query, cutoff)
	if err != nil {
		logger.DatabaseResult("delete", 0, err)
		logger.ExitMethodWithError("idempotencyRepository.DeleteOlderThan", err)
		return 0, err
	}
	n, err := res.RowsAffected()
	logger.DatabaseResult("delete", n, err)
	if err != nil {
		return 0, err
	}

	logger.ExitMethod("idempotencyRepository.DeleteOlderThan", "deleted", n)
	return n, nil
}
