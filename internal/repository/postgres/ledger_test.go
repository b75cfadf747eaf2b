package postgres_test

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"payhub-backend/internal/domain"
	"payhub-backend/internal/repository"
	"payhub-backend/internal/repository/postgres"
)

var ledgerColumns = []string{
	"id", "reference", "kind", "ccd_case_number", "case_reference", "organisation_id",
	"service_name", "callback_url", "status", "date_created", "date_updated",
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestLedgerRepository_Create(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("error opening mock database: %v", err)
	}
	defer db.Close()

	repo := postgres.NewLedgerRepository(db)
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		ledger := &domain.Ledger{
			Reference:     "2024-1715000000123",
			Kind:          domain.LedgerKindServiceRequest,
			CcdCaseNumber: "1111222233334444",
			ServiceName:   "Divorce",
			Status:        domain.LedgerStatusNotPaid,
			Fees: []domain.Fee{{
				Code: "FEE0226", Version: "3", Volume: 1,
				CalculatedAmount: decimal.NewNullDecimal(dec("215.00")),
				NetAmount:        decimal.NewNullDecimal(dec("215.00")),
				AmountDue:        dec("215.00"),
			}},
		}

		mock.ExpectQuery("INSERT INTO ledgers").
			WithArgs(ledger.Reference, ledger.Kind, ledger.CcdCaseNumber, "", "", "Divorce", "", ledger.Status, sqlmock.AnyArg(), sqlmock.AnyArg()).
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(10))
		mock.ExpectQuery("INSERT INTO fees").
			WithArgs(int64(10), "FEE0226", "3", int32(1), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(),
				sqlmock.AnyArg(), sqlmock.AnyArg(), false, "", sqlmock.AnyArg()).
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(100))

		err := repo.Create(ctx, ledger)
		assert.NoError(t, err)
		assert.Equal(t, int64(10), ledger.ID)
		assert.Equal(t, int64(100), ledger.Fees[0].ID)
		assert.Equal(t, int64(10), ledger.Fees[0].LedgerID)
		assert.False(t, ledger.DateCreated.IsZero())
	})

	t.Run("Duplicate reference", func(t *testing.T) {
		mock.ExpectQuery("INSERT INTO ledgers").
			WillReturnError(&pq.Error{Code: "23505"})

		err := repo.Create(ctx, &domain.Ledger{Reference: "2024-1715000000123"})
		assert.ErrorIs(t, err, domain.ErrDuplicateKey)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLedgerRepository_GetByReference(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("error opening mock database: %v", err)
	}
	defer db.Close()

	repo := postgres.NewLedgerRepository(db)
	ctx := context.Background()
	now := time.Date(2024, 5, 6, 12, 0, 0, 0, time.UTC)

	t.Run("Success", func(t *testing.T) {
		mock.ExpectQuery("FROM ledgers\\s+WHERE reference = \\$1 FOR UPDATE").
			WithArgs("2024-1715000000123").
			WillReturnRows(sqlmock.NewRows(ledgerColumns).
				AddRow(10, "2024-1715000000123", "service_request", "1111222233334444", "", "", "Divorce", "http://callback", "Partially paid", now, now))
		mock.ExpectQuery("FROM fees WHERE ledger_id = \\$1").
			WithArgs(int64(10)).
			WillReturnRows(sqlmock.NewRows([]string{"id", "ledger_id", "code", "version", "volume", "fee_amount", "calculated_amount",
				"net_amount", "amount_due", "allocated_amount", "is_fully_apportioned", "ccd_case_number", "date_created"}).
				AddRow(100, 10, "FEE0226", "3", 1, nil, "100.00", "100.00", "60.00", "40.00", false, "1111222233334444", now))
		mock.ExpectQuery("FROM remissions WHERE ledger_id = \\$1").
			WithArgs(int64(10)).
			WillReturnRows(sqlmock.NewRows([]string{"id", "ledger_id", "fee_id", "remission_reference", "hwf_reference", "hwf_amount",
				"beneficiary_name", "ccd_case_number", "date_created"}))
		mock.ExpectQuery("FROM payments WHERE ledger_id = \\$1").
			WithArgs(int64(10)).
			WillReturnRows(sqlmock.NewRows([]string{"id", "ledger_id", "reference", "amount", "currency", "status", "method",
				"account_number", "customer_reference", "service_name", "ccd_case_number", "error_code", "error_message",
				"date_created", "date_updated"}).
				AddRow(7, 10, "RC-1715-0000-0012-3452", "40.00", "GBP", "success", "payment by account",
					"PBA0000001", "ref", "Divorce", "1111222233334444", nil, nil, now, now))
		mock.ExpectQuery("FROM status_histories WHERE payment_id = ANY\\(\\$1\\)").
			WithArgs(sqlmock.AnyArg()).
			WillReturnRows(sqlmock.NewRows([]string{"id", "payment_id", "status", "error_code", "message", "date_created"}).
				AddRow(1, 7, "success", nil, nil, now))
		mock.ExpectQuery("FROM payment_disputes WHERE payment_id = ANY\\(\\$1\\)").
			WithArgs(sqlmock.AnyArg()).
			WillReturnRows(sqlmock.NewRows([]string{"id", "payment_id", "amount", "active", "date_created", "date_updated"}))
		mock.ExpectQuery("FROM fee_pay_apportions a").
			WithArgs(int64(10)).
			WillReturnRows(sqlmock.NewRows([]string{"id", "fee_id", "payment_id", "apportion_amount", "allocated_amount",
				"calculated_amount", "fee_amount", "payment_amount", "surplus_amount", "shortfall_amount",
				"ccd_case_number", "apportion_type", "date_created"}).
				AddRow(3, 100, 7, "40.00", "40.00", "100.00", "100.00", "40.00", "0", "60.00", "1111222233334444", "AUTO", now))

		ledger, err := repo.GetByReferenceForUpdate(ctx, "2024-1715000000123")
		require.NoError(t, err)
		assert.Equal(t, domain.LedgerKindServiceRequest, ledger.Kind)
		assert.Equal(t, domain.LedgerStatusPartiallyPaid, ledger.Status)
		require.Len(t, ledger.Fees, 1)
		assert.False(t, ledger.Fees[0].FeeAmount.Valid)
		assert.True(t, ledger.Fees[0].CalculatedAmount.Decimal.Equal(dec("100")))
		assert.Empty(t, ledger.Remissions)
		require.Len(t, ledger.Payments, 1)
		assert.Equal(t, domain.PaymentStatusSuccess, ledger.Payments[0].Status)
		assert.True(t, ledger.Payments[0].Amount.Equal(dec("40")))
		assert.Nil(t, ledger.Payments[0].ErrorCode)
		require.Len(t, ledger.Payments[0].StatusHistories, 1)
		require.Len(t, ledger.Apportions, 1)
		assert.True(t, ledger.Apportions[0].ShortfallAmount.Equal(dec("60")))
	})

	t.Run("Not found", func(t *testing.T) {
		mock.ExpectQuery("FROM ledgers\\s+WHERE reference = \\$1").
			WithArgs("2024-0000000000000").
			WillReturnRows(sqlmock.NewRows(ledgerColumns))

		_, err := repo.GetByReference(ctx, "2024-0000000000000")
		assert.ErrorIs(t, err, domain.ErrLedgerNotFound)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLedgerRepository_AddPayment(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("error opening mock database: %v", err)
	}
	defer db.Close()

	repo := postgres.NewLedgerRepository(db)
	ctx := context.Background()

	t.Run("Failed payment with history", func(t *testing.T) {
		code, msg := "CA-E0003", "Your account is on hold"
		payment := &domain.Payment{
			Reference:     "RC-1715-0000-0012-3452",
			Amount:        dec("50.00"),
			Currency:      domain.CurrencyGBP,
			Status:        domain.PaymentStatusFailed,
			Method:        domain.PaymentMethodAccount,
			AccountNumber: "PBA0000001",
			ErrorCode:     &code,
			ErrorMessage:  &msg,
		}
		payment.AppendHistory(domain.PaymentStatusFailed, &code, &msg, time.Now())

		mock.ExpectQuery("INSERT INTO payments").
			WithArgs(int64(10), payment.Reference, sqlmock.AnyArg(), "GBP", payment.Status, payment.Method,
				"PBA0000001", "", "", "", code, msg, sqlmock.AnyArg(), sqlmock.AnyArg()).
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(7))
		mock.ExpectQuery("INSERT INTO status_histories").
			WithArgs(int64(7), payment.Status, code, msg, sqlmock.AnyArg()).
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(70))

		err := repo.AddPayment(ctx, 10, payment)
		assert.NoError(t, err)
		assert.Equal(t, int64(7), payment.ID)
		assert.Equal(t, int64(70), payment.StatusHistories[0].ID)
		assert.Equal(t, int64(7), payment.StatusHistories[0].PaymentID)
	})

	t.Run("Success without history", func(t *testing.T) {
		payment := &domain.Payment{Reference: "RC-1715-0000-0012-3460", Amount: dec("50.00"), Status: domain.PaymentStatusSuccess}

		mock.ExpectQuery("INSERT INTO payments").
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(8))

		err := repo.AddPayment(ctx, 10, payment)
		assert.NoError(t, err)
		assert.Empty(t, payment.StatusHistories)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLedgerRepository_UpdatePayment(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("error opening mock database: %v", err)
	}
	defer db.Close()

	repo := postgres.NewLedgerRepository(db)
	ctx := context.Background()
	now := time.Now()

	t.Run("Appends only new history and saves disputes", func(t *testing.T) {
		payment := &domain.Payment{
			ID:     7,
			Status: domain.PaymentStatusSuccess,
			StatusHistories: []domain.StatusHistory{
				{ID: 1, PaymentID: 7, Status: domain.PaymentStatusCreated, DateCreated: now},
				{Status: domain.PaymentStatusSuccess, DateCreated: now},
			},
			Disputes: []domain.Dispute{
				{ID: 4, Amount: dec("5.00"), Active: false, DateUpdated: now},
				{Amount: dec("10.00"), Active: true, DateCreated: now, DateUpdated: now},
			},
		}

		mock.ExpectExec("UPDATE payments").
			WithArgs(payment.Status, nil, nil, sqlmock.AnyArg(), int64(7)).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectQuery("INSERT INTO status_histories").
			WithArgs(int64(7), domain.PaymentStatusSuccess, nil, nil, sqlmock.AnyArg()).
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(2))
		mock.ExpectExec("UPDATE payment_disputes").
			WithArgs(sqlmock.AnyArg(), false, sqlmock.AnyArg(), int64(4)).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectQuery("INSERT INTO payment_disputes").
			WithArgs(int64(7), sqlmock.AnyArg(), true, sqlmock.AnyArg(), sqlmock.AnyArg()).
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(5))

		err := repo.UpdatePayment(ctx, payment)
		assert.NoError(t, err)
		assert.Equal(t, int64(2), payment.StatusHistories[1].ID)
		assert.Equal(t, int64(5), payment.Disputes[1].ID)
	})

	t.Run("Unknown payment", func(t *testing.T) {
		mock.ExpectExec("UPDATE payments").
			WillReturnResult(sqlmock.NewResult(0, 0))

		err := repo.UpdatePayment(ctx, &domain.Payment{ID: 99, Status: domain.PaymentStatusFailed})
		assert.ErrorIs(t, err, domain.ErrPaymentNotFound)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLedgerRepository_UpdateStatus(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("error opening mock database: %v", err)
	}
	defer db.Close()

	repo := postgres.NewLedgerRepository(db)
	ctx := context.Background()

	mock.ExpectExec("UPDATE ledgers SET status").
		WithArgs(domain.LedgerStatusPaid, sqlmock.AnyArg(), int64(10)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	assert.NoError(t, repo.UpdateStatus(ctx, 10, domain.LedgerStatusPaid))

	mock.ExpectExec("UPDATE ledgers SET status").
		WillReturnResult(sqlmock.NewResult(0, 0))
	assert.ErrorIs(t, repo.UpdateStatus(ctx, 11, domain.LedgerStatusPaid), domain.ErrLedgerNotFound)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLedgerRepository_SaveApportions(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("error opening mock database: %v", err)
	}
	defer db.Close()

	repo := postgres.NewLedgerRepository(db)
	ctx := context.Background()

	fees := []domain.Fee{{ID: 100, AllocatedAmount: dec("40"), AmountDue: dec("60"), IsFullyApportioned: false}}
	apportions := []domain.FeePayApportion{{FeeID: 100, PaymentID: 7, ApportionAmount: dec("40"), ApportionType: domain.ApportionTypeAuto}}

	mock.ExpectExec("UPDATE fees SET allocated_amount").
		WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), false, int64(100)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery("INSERT INTO fee_pay_apportions").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(3))

	err = repo.SaveApportions(ctx, fees, apportions)
	assert.NoError(t, err)
	assert.Equal(t, int64(3), apportions[0].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLedgerRepository_GetReferenceByPaymentReference(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("error opening mock database: %v", err)
	}
	defer db.Close()

	repo := postgres.NewLedgerRepository(db)
	ctx := context.Background()

	mock.ExpectQuery("SELECT l.reference FROM ledgers l").
		WithArgs("RC-1715-0000-0012-3452").
		WillReturnRows(sqlmock.NewRows([]string{"reference"}).AddRow("2024-1715000000123"))
	ref, err := repo.GetReferenceByPaymentReference(ctx, "RC-1715-0000-0012-3452")
	assert.NoError(t, err)
	assert.Equal(t, "2024-1715000000123", ref)

	mock.ExpectQuery("SELECT l.reference FROM ledgers l").
		WithArgs("RC-0000-0000-0000-0000").
		WillReturnRows(sqlmock.NewRows([]string{"reference"}))
	_, err = repo.GetReferenceByPaymentReference(ctx, "RC-0000-0000-0000-0000")
	assert.ErrorIs(t, err, domain.ErrPaymentNotFound)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLedgerRepository_ListUpdatedAfter(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("error opening mock database: %v", err)
	}
	defer db.Close()

	repo := postgres.NewLedgerRepository(db)
	ctx := context.Background()
	until := time.Date(2024, 5, 6, 12, 0, 0, 0, time.UTC)
	after := repository.LedgerCursor{DateUpdated: until.Add(-time.Hour), ID: 41}

	mock.ExpectQuery(`SELECT id, reference, date_updated FROM ledgers\s+WHERE \(date_updated, id\) > \(\$1, \$2\)`).
		WithArgs(after.DateUpdated, int64(41), until, 2).
		WillReturnRows(sqlmock.NewRows([]string{"id", "reference", "date_updated"}).
			AddRow(42, "2024-1715000000042", until.Add(-30*time.Minute)).
			AddRow(7, "2024-1715000000007", until.Add(-10*time.Minute)))

	page, err := repo.ListUpdatedAfter(ctx, after, until, 2)
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, repository.LedgerCursor{ID: 7, Reference: "2024-1715000000007", DateUpdated: until.Add(-10 * time.Minute)}, page[1])

	assert.NoError(t, mock.ExpectationsWereMet())
}
