package service_test

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"payhub-backend/internal/domain"
	"payhub-backend/internal/events"
	"payhub-backend/internal/repository"
)

// MockLedgerRepo
type MockLedgerRepo struct {
	mock.Mock
}

func (m *MockLedgerRepo) Create(ctx context.Context, ledger *domain.Ledger) error {
	args := m.Called(ctx, ledger)
	return args.Error(0)
}
func (m *MockLedgerRepo) GetByReference(ctx context.Context, reference string) (*domain.Ledger, error) {
	args := m.Called(ctx, reference)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Ledger), args.Error(1)
}
func (m *MockLedgerRepo) GetByReferenceForUpdate(ctx context.Context, reference string) (*domain.Ledger, error) {
	args := m.Called(ctx, reference)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Ledger), args.Error(1)
}
func (m *MockLedgerRepo) GetReferenceByPaymentReference(ctx context.Context, paymentReference string) (string, error) {
	args := m.Called(ctx, paymentReference)
	return args.String(0), args.Error(1)
}
func (m *MockLedgerRepo) ListByCcdCaseNumber(ctx context.Context, ccdCaseNumber string) ([]domain.Ledger, error) {
	args := m.Called(ctx, ccdCaseNumber)
	return args.Get(0).([]domain.Ledger), args.Error(1)
}
func (m *MockLedgerRepo) ListUpdatedAfter(ctx context.Context, after repository.LedgerCursor, until time.Time, limit int) ([]repository.LedgerCursor, error) {
	args := m.Called(ctx, after, until, limit)
	return args.Get(0).([]repository.LedgerCursor), args.Error(1)
}
func (m *MockLedgerRepo) UpdateStatus(ctx context.Context, ledgerID int64, status domain.LedgerStatus) error {
	args := m.Called(ctx, ledgerID, status)
	return args.Error(0)
}
func (m *MockLedgerRepo) AddRemission(ctx context.Context, ledgerID int64, remission *domain.Remission) error {
	args := m.Called(ctx, ledgerID, remission)
	return args.Error(0)
}
func (m *MockLedgerRepo) AddPayment(ctx context.Context, ledgerID int64, payment *domain.Payment) error {
	args := m.Called(ctx, ledgerID, payment)
	return args.Error(0)
}
func (m *MockLedgerRepo) UpdatePayment(ctx context.Context, payment *domain.Payment) error {
	args := m.Called(ctx, payment)
	return args.Error(0)
}
func (m *MockLedgerRepo) SaveApportions(ctx context.Context, fees []domain.Fee, apportions []domain.FeePayApportion) error {
	args := m.Called(ctx, fees, apportions)
	return args.Error(0)
}

// MockIdempotencyRepo
type MockIdempotencyRepo struct {
	mock.Mock
}

func (m *MockIdempotencyRepo) Get(ctx context.Context, key, requestHash string) (*domain.IdempotencyRecord, error) {
	args := m.Called(ctx, key, requestHash)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.IdempotencyRecord), args.Error(1)
}
func (m *MockIdempotencyRepo) ExistsForOtherRequest(ctx context.Context, key, requestHash string) (bool, error) {
	args := m.Called(ctx, key, requestHash)
	return args.Bool(0), args.Error(1)
}
func (m *MockIdempotencyRepo) Create(ctx context.Context, record *domain.IdempotencyRecord) error {
	args := m.Called(ctx, record)
	return args.Error(0)
}
func (m *MockIdempotencyRepo) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	args := m.Called(ctx, cutoff)
	return args.Get(0).(int64), args.Error(1)
}

// fakeTx runs fn directly against the mocked repositories.
type fakeTx struct {
	repos repository.Repositories
}

func (f *fakeTx) WithinTx(ctx context.Context, fn func(ctx context.Context, repos repository.Repositories) error) error {
	return fn(ctx, f.repos)
}

// MockAccountClient
type MockAccountClient struct {
	mock.Mock
}

func (m *MockAccountClient) GetAccountDetails(ctx context.Context, accountNumber string) (*domain.AccountDetails, error) {
	args := m.Called(ctx, accountNumber)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.AccountDetails), args.Error(1)
}

// MockPublisher
type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) PublishPaymentStatus(ctx context.Context, event events.PaymentStatusEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}
func (m *MockPublisher) Close() error {
	return nil
}

type legacyServices map[string]bool

func (l legacyServices) IsLegacyPBA(serviceName string) bool {
	return l[serviceName]
}
