package postgres_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"payhub-backend/internal/domain"
	"payhub-backend/internal/repository"
	"payhub-backend/internal/repository/postgres"
)

func TestIdempotencyRepository_Get(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("error opening mock database: %v", err)
	}
	defer db.Close()

	repo := postgres.NewIdempotencyRepository(db)
	ctx := context.Background()
	now := time.Now()

	t.Run("Found", func(t *testing.T) {
		mock.ExpectQuery("FROM idempotency_keys").
			WithArgs("key-1", "abc").
			WillReturnRows(sqlmock.NewRows([]string{"id", "idempotency_key", "request_hash", "request_body", "response_code",
				"response_body", "ledger_reference", "date_created", "date_updated"}).
				AddRow(1, "key-1", "abc", `{"amount":"50"}`, 201, `{"status":"success"}`, "2024-1715000000123", now, now))

		rec, err := repo.Get(ctx, "key-1", "abc")
		require.NoError(t, err)
		require.NotNil(t, rec)
		assert.Equal(t, 201, rec.ResponseCode)
		assert.Equal(t, `{"status":"success"}`, rec.ResponseBody)
	})

	t.Run("Missing", func(t *testing.T) {
		mock.ExpectQuery("FROM idempotency_keys").
			WithArgs("key-2", "abc").
			WillReturnRows(sqlmock.NewRows([]string{"id"}))

		rec, err := repo.Get(ctx, "key-2", "abc")
		assert.NoError(t, err)
		assert.Nil(t, rec)
	})

	t.Run("Database error", func(t *testing.T) {
		mock.ExpectQuery("FROM idempotency_keys").
			WillReturnError(errors.New("connection reset"))

		_, err := repo.Get(ctx, "key-3", "abc")
		assert.Error(t, err)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestIdempotencyRepository_Create(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("error opening mock database: %v", err)
	}
	defer db.Close()

	repo := postgres.NewIdempotencyRepository(db)
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		rec := &domain.IdempotencyRecord{IdempotencyKey: "key-1", RequestHash: "abc", RequestBody: "{}", ResponseCode: 201, ResponseBody: "{}"}
		mock.ExpectQuery("INSERT INTO idempotency_keys").
			WithArgs("key-1", "abc", "{}", 201, "{}", "", sqlmock.AnyArg(), sqlmock.AnyArg()).
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(5))

		assert.NoError(t, repo.Create(ctx, rec))
		assert.Equal(t, int64(5), rec.ID)
		assert.False(t, rec.DateCreated.IsZero())
	})

	t.Run("Duplicate", func(t *testing.T) {
		mock.ExpectQuery("INSERT INTO idempotency_keys").
			WillReturnError(&pq.Error{Code: "23505", Constraint: "uq_idempotency_key_hash"})

		err := repo.Create(ctx, &domain.IdempotencyRecord{IdempotencyKey: "key-1", RequestHash: "abc"})
		assert.ErrorIs(t, err, domain.ErrDuplicateKey)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestIdempotencyRepository_ExistsForOtherRequest(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("error opening mock database: %v", err)
	}
	defer db.Close()

	repo := postgres.NewIdempotencyRepository(db)

	mock.ExpectQuery("SELECT EXISTS").
		WithArgs("key-1", "abc").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	exists, err := repo.ExistsForOtherRequest(context.Background(), "key-1", "abc")
	assert.NoError(t, err)
	assert.True(t, exists)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestIdempotencyRepository_DeleteOlderThan(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("error opening mock database: %v", err)
	}
	defer db.Close()

	repo := postgres.NewIdempotencyRepository(db)
	cutoff := time.Now().Add(-48 * time.Hour)

	mock.ExpectExec("DELETE FROM idempotency_keys WHERE date_created < \\$1").
		WithArgs(cutoff).
		WillReturnResult(sqlmock.NewResult(0, 12))

	n, err := repo.DeleteOlderThan(context.Background(), cutoff)
	assert.NoError(t, err)
	assert.Equal(t, int64(12), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_WithinTx(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("error opening mock database: %v", err)
	}
	defer db.Close()

	store := postgres.NewStore(db)
	ctx := context.Background()

	t.Run("Commit", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectExec("UPDATE ledgers SET status").
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		err := store.WithinTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
			return repos.Ledgers.UpdateStatus(ctx, 10, domain.LedgerStatusPaid)
		})
		assert.NoError(t, err)
	})

	t.Run("Rollback on error", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectRollback()

		boom := errors.New("boom")
		err := store.WithinTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
			return boom
		})
		assert.ErrorIs(t, err, boom)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}
