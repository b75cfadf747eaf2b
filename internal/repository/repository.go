package repository

import (
	"context"
	"time"

	"payhub-backend/internal/domain"
)

// LedgerRepository persists ledgers with their fees, remissions, payments and apportions.
// Lookups return domain.ErrLedgerNotFound when nothing matches.
type LedgerRepository interface {
	Create(ctx context.Context, ledger *domain.Ledger) error
	GetByReference(ctx context.Context, reference string) (*domain.Ledger, error)
	// GetByReferenceForUpdate locks the ledger row until the surrounding transaction ends.
	GetByReferenceForUpdate(ctx context.Context, reference string) (*domain.Ledger, error)
	GetReferenceByPaymentReference(ctx context.Context, paymentReference string) (string, error)
	ListByCcdCaseNumber(ctx context.Context, ccdCaseNumber string) ([]domain.Ledger, error)
	// ListUpdatedAfter pages through ledgers in (date_updated, id) order, returning
	// those strictly after the cursor and updated no later than until.
	ListUpdatedAfter(ctx context.Context, after LedgerCursor, until time.Time, limit int) ([]LedgerCursor, error)
	UpdateStatus(ctx context.Context, ledgerID int64, status domain.LedgerStatus) error

	AddRemission(ctx context.Context, ledgerID int64, remission *domain.Remission) error
	AddPayment(ctx context.Context, ledgerID int64, payment *domain.Payment) error
	// UpdatePayment saves status and error fields, appends unsaved history entries
	// and upserts disputes.
	UpdatePayment(ctx context.Context, payment *domain.Payment) error
	SaveApportions(ctx context.Context, fees []domain.Fee, apportions []domain.FeePayApportion) error
}

// LedgerCursor is a keyset position over ledgers ordered by (date_updated, id).
type LedgerCursor struct {
	DateUpdated time.Time
	ID          int64
	Reference   string
}

// IdempotencyRepository stores responses keyed by (idempotency key, request hash).
type IdempotencyRepository interface {
	// Get returns nil and no error when no record matches.
	Get(ctx context.Context, key, requestHash string) (*domain.IdempotencyRecord, error)
	ExistsForOtherRequest(ctx context.Context, key, requestHash string) (bool, error)
	// Create returns domain.ErrDuplicateKey when the pair is already stored.
	Create(ctx context.Context, record *domain.IdempotencyRecord) error
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

// Repositories groups the repositories bound to one connection or transaction.
type Repositories struct {
	Ledgers     LedgerRepository
	Idempotency IdempotencyRepository
}

// Transactor runs fn inside a single database transaction. The transaction is
// committed when fn returns nil and rolled back otherwise.
type Transactor interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context, repos Repositories) error) error
}
