package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/lib/pq"

	"payhub-backend/internal/domain"
	"payhub-backend/internal/logger"
	"payhub-backend/internal/repository"
)

type ledgerRepository struct {
	db DBTX
}

func NewLedgerRepository(db DBTX) repository.LedgerRepository {
	return &ledgerRepository{db: db}
}

func (r *ledgerRepository) Create(ctx context.Context, ledger *domain.Ledger) error {
	logger.EnterMethod("ledgerRepository.Create", "reference", ledger.Reference, "fees", len(ledger.Fees))

	query := `
		INSERT INTO ledgers (
			reference, kind, ccd_case_number, case_reference, organisation_id,
			service_name, callback_url, status, date_created, date_updated
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id
	`
	now := time.Now().UTC()
	err := r.db.QueryRowContext(ctx, query,
		ledger.Reference, ledger.Kind, ledger.CcdCaseNumber, ledger.CaseReference, ledger.OrganisationID,
		ledger.ServiceName, ledger.CallbackURL, ledger.Status, now, now,
	).Scan(&ledger.ID)
	if err != nil {
		if isUniqueViolation(err) {
			err = domain.ErrDuplicateKey
		}
		logger.ExitMethodWithError("ledgerRepository.Create", err, "reference", ledger.Reference)
		return err
	}
	ledger.DateCreated = now
	ledger.DateUpdated = now

	for i := range ledger.Fees {
		if err := r.insertFee(ctx, ledger.ID, &ledger.Fees[i], now); err != nil {
			logger.ExitMethodWithError("ledgerRepository.Create", err, "reference", ledger.Reference)
			return err
		}
	}
	for i := range ledger.Remissions {
		if err := r.AddRemission(ctx, ledger.ID, &ledger.Remissions[i]); err != nil {
			logger.ExitMethodWithError("ledgerRepository.Create", err, "reference", ledger.Reference)
			return err
		}
	}

	logger.ExitMethod("ledgerRepository.Create", "ledgerID", ledger.ID)
	return nil
}

func (r *ledgerRepository) insertFee(ctx context.Context, ledgerID int64, fee *domain.Fee, now time.Time) error {
	query := `
		INSERT INTO fees (
			ledger_id, code, version, volume, fee_amount, calculated_amount, net_amount,
			amount_due, allocated_amount, is_fully_apportioned, ccd_case_number, date_created
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING id
	`
	if fee.DateCreated.IsZero() {
		fee.DateCreated = now
	}
	fee.LedgerID = ledgerID
	return r.db.QueryRowContext(ctx, query,
		ledgerID, fee.Code, fee.Version, fee.Volume, fee.FeeAmount, fee.CalculatedAmount, fee.NetAmount,
		fee.AmountDue, fee.AllocatedAmount, fee.IsFullyApportioned, fee.CcdCaseNumber, fee.DateCreated,
	).Scan(&fee.ID)
}

const selectLedger = `
	SELECT id, reference, kind, COALESCE(ccd_case_number, ''), COALESCE(case_reference, ''),
	       COALESCE(organisation_id, ''), COALESCE(service_name, ''), COALESCE(callback_url, ''),
	       status, date_created, date_updated
	FROM ledgers
`

func (r *ledgerRepository) GetByReference(ctx context.Context, reference string) (*domain.Ledger, error) {
	return r.get(ctx, "ledgerRepository.GetByReference", selectLedger+` WHERE reference = $1`, reference)
}

func (r *ledgerRepository) GetByReferenceForUpdate(ctx context.Context, reference string) (*domain.Ledger, error) {
	return r.get(ctx, "ledgerRepository.GetByReferenceForUpdate", selectLedger+` WHERE reference = $1 FOR UPDATE`, reference)
}

func (r *ledgerRepository) get(ctx context.Context, method, query, reference string) (*domain.Ledger, error) {
	logger.EnterMethod(method, "reference", reference)

	ledger := &domain.Ledger{}
	err := r.db.QueryRowContext(ctx, query, reference).Scan(
		&ledger.ID, &ledger.Reference, &ledger.Kind, &ledger.CcdCaseNumber, &ledger.CaseReference,
		&ledger.OrganisationID, &ledger.ServiceName, &ledger.CallbackURL,
		&ledger.Status, &ledger.DateCreated, &ledger.DateUpdated,
	)
	if errors.Is(err, sql.ErrNoRows) {
		err = domain.ErrLedgerNotFound
	}
	if err != nil {
		logger.ExitMethodWithError(method, err, "reference", reference)
		return nil, err
	}

	if err := r.loadChildren(ctx, ledger); err != nil {
		logger.ExitMethodWithError(method, err, "reference", reference)
		return nil, err
	}

	logger.ExitMethod(method, "ledgerID", ledger.ID, "payments", len(ledger.Payments))
	return ledger, nil
}

func (r *ledgerRepository) loadChildren(ctx context.Context, ledger *domain.Ledger) error {
	var err error
	if ledger.Fees, err = r.listFees(ctx, ledger.ID); err != nil {
		return err
	}
	if ledger.Remissions, err = r.listRemissions(ctx, ledger.ID); err != nil {
		return err
	}
	if ledger.Payments, err = r.listPayments(ctx, ledger.ID); err != nil {
		return err
	}
	if ledger.Apportions, err = r.listApportions(ctx, ledger.ID); err != nil {
		return err
	}
	return nil
}

func (r *ledgerRepository) listFees(ctx context.Context, ledgerID int64) ([]domain.Fee, error) {
	query := `
		SELECT id, ledger_id, code, version, volume, fee_amount, calculated_amount, net_amount,
		       amount_due, allocated_amount, is_fully_apportioned, COALESCE(ccd_case_number, ''), date_created
		FROM fees WHERE ledger_id = $1 ORDER BY date_created, id
	`
	rows, err := r.db.QueryContext(ctx, query, ledgerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var fees []domain.Fee
	for rows.Next() {
		var f domain.Fee
		if err := rows.Scan(&f.ID, &f.LedgerID, &f.Code, &f.Version, &f.Volume, &f.FeeAmount, &f.CalculatedAmount,
			&f.NetAmount, &f.AmountDue, &f.AllocatedAmount, &f.IsFullyApportioned, &f.CcdCaseNumber, &f.DateCreated); err != nil {
			return nil, err
		}
		fees = append(fees, f)
	}
	return fees, rows.Err()
}

func (r *ledgerRepository) listRemissions(ctx context.Context, ledgerID int64) ([]domain.Remission, error) {
	query := `
		SELECT id, ledger_id, fee_id, remission_reference, COALESCE(hwf_reference, ''), hwf_amount,
		       COALESCE(beneficiary_name, ''), COALESCE(ccd_case_number, ''), date_created
		FROM remissions WHERE ledger_id = $1 ORDER BY date_created, id
	`
	rows, err := r.db.QueryContext(ctx, query, ledgerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var remissions []domain.Remission
	for rows.Next() {
		var rm domain.Remission
		var feeID sql.NullInt64
		if err := rows.Scan(&rm.ID, &rm.LedgerID, &feeID, &rm.RemissionReference, &rm.HwfReference, &rm.HwfAmount,
			&rm.BeneficiaryName, &rm.CcdCaseNumber, &rm.DateCreated); err != nil {
			return nil, err
		}
		if feeID.Valid {
			rm.FeeID = &feeID.Int64
		}
		remissions = append(remissions, rm)
	}
	return remissions, rows.Err()
}

func (r *ledgerRepository) listPayments(ctx context.Context, ledgerID int64) ([]domain.Payment, error) {
	query := `
		SELECT id, ledger_id, reference, amount, currency, status, method, COALESCE(account_number, ''),
		       COALESCE(customer_reference, ''), COALESCE(service_name, ''), COALESCE(ccd_case_number, ''),
		       error_code, error_message, date_created, date_updated
		FROM payments WHERE ledger_id = $1 ORDER BY date_created, id
	`
	rows, err := r.db.QueryContext(ctx, query, ledgerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var payments []domain.Payment
	index := make(map[int64]int)
	for rows.Next() {
		var p domain.Payment
		if err := rows.Scan(&p.ID, &p.LedgerID, &p.Reference, &p.Amount, &p.Currency, &p.Status, &p.Method,
			&p.AccountNumber, &p.CustomerReference, &p.ServiceName, &p.CcdCaseNumber,
			&p.ErrorCode, &p.ErrorMessage, &p.DateCreated, &p.DateUpdated); err != nil {
			return nil, err
		}
		index[p.ID] = len(payments)
		payments = append(payments, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(payments) == 0 {
		return payments, nil
	}

	ids := make([]int64, 0, len(payments))
	for _, p := range payments {
		ids = append(ids, p.ID)
	}
	if err := r.attachHistories(ctx, ids, payments, index); err != nil {
		return nil, err
	}
	if err := r.attachDisputes(ctx, ids, payments, index); err != nil {
		return nil, err
	}
	return payments, nil
}

func (r *ledgerRepository) attachHistories(ctx context.Context, ids []int64, payments []domain.Payment, index map[int64]int) error {
	query := `
		SELECT id, payment_id, status, error_code, message, date_created
		FROM status_histories WHERE payment_id = ANY($1) ORDER BY date_created, id
	`
	rows, err := r.db.QueryContext(ctx, query, pq.Array(ids))
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var h domain.StatusHistory
		if err := rows.Scan(&h.ID, &h.PaymentID, &h.Status, &h.ErrorCode, &h.Message, &h.DateCreated); err != nil {
			return err
		}
		if i, ok := index[h.PaymentID]; ok {
			payments[i].StatusHistories = append(payments[i].StatusHistories, h)
		}
	}
	return rows.Err()
}

func (r *ledgerRepository) attachDisputes(ctx context.Context, ids []int64, payments []domain.Payment, index map[int64]int) error {
	query := `
		SELECT id, payment_id, amount, active, date_created, date_updated
		FROM payment_disputes WHERE payment_id = ANY($1) ORDER BY date_created, id
	`
	rows, err := r.db.QueryContext(ctx, query, pq.Array(ids))
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var d domain.Dispute
		if err := rows.Scan(&d.ID, &d.PaymentID, &d.Amount, &d.Active, &d.DateCreated, &d.DateUpdated); err != nil {
			return err
		}
		if i, ok := index[d.PaymentID]; ok {
			payments[i].Disputes = append(payments[i].Disputes, d)
		}
	}
	return rows.Err()
}

func (r *ledgerRepository) listApportions(ctx context.Context, ledgerID int64) ([]domain.FeePayApportion, error) {
	query := `
		SELECT a.id, a.fee_id, a.payment_id, a.apportion_amount, a.allocated_amount, a.calculated_amount,
		       a.fee_amount, a.payment_amount, a.surplus_amount, a.shortfall_amount,
		       COALESCE(a.ccd_case_number, ''), a.apportion_type, a.date_created
		FROM fee_pay_apportions a
		JOIN fees f ON f.id = a.fee_id
		WHERE f.ledger_id = $1
		ORDER BY a.date_created, a.id
	`
	rows, err := r.db.QueryContext(ctx, query, ledgerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var apportions []domain.FeePayApportion
	for rows.Next() {
		var a domain.FeePayApportion
		if err := rows.Scan(&a.ID, &a.FeeID, &a.PaymentID, &a.ApportionAmount, &a.AllocatedAmount, &a.CalculatedAmount,
			&a.FeeAmount, &a.PaymentAmount, &a.SurplusAmount, &a.ShortfallAmount,
			&a.CcdCaseNumber, &a.ApportionType, &a.DateCreated); err != nil {
			return nil, err
		}
		apportions = append(apportions, a)
	}
	return apportions, rows.Err()
}

func (r *ledgerRepository) GetReferenceByPaymentReference(ctx context.Context, paymentReference string) (string, error) {
	logger.EnterMethod("ledgerRepository.GetReferenceByPaymentReference", "paymentReference", paymentReference)

	query := `
		SELECT l.reference FROM ledgers l
		JOIN payments p ON p.ledger_id = l.id
		WHERE p.reference = $1
	`
	var reference string
	err := r.db.QueryRowContext(ctx, query, paymentReference).Scan(&reference)
	if errors.Is(err, sql.ErrNoRows) {
		err = domain.ErrPaymentNotFound
	}
	if err != nil {
		logger.ExitMethodWithError("ledgerRepository.GetReferenceByPaymentReference", err, "paymentReference", paymentReference)
		return "", err
	}

	logger.ExitMethod("ledgerRepository.GetReferenceByPaymentReference", "reference", reference)
	return reference, nil
}

func (r *ledgerRepository) ListByCcdCaseNumber(ctx context.Context, ccdCaseNumber string) ([]domain.Ledger, error) {
	logger.EnterMethod("ledgerRepository.ListByCcdCaseNumber", "ccdCaseNumber", ccdCaseNumber)

	rows, err := r.db.QueryContext(ctx, selectLedger+` WHERE ccd_case_number = $1 ORDER BY date_created`, ccdCaseNumber)
	if err != nil {
		logger.ExitMethodWithError("ledgerRepository.ListByCcdCaseNumber", err, "ccdCaseNumber", ccdCaseNumber)
		return nil, err
	}

	var ledgers []domain.Ledger
	for rows.Next() {
		var l domain.Ledger
		if err := rows.Scan(&l.ID, &l.Reference, &l.Kind, &l.CcdCaseNumber, &l.CaseReference,
			&l.OrganisationID, &l.ServiceName, &l.CallbackURL,
			&l.Status, &l.DateCreated, &l.DateUpdated); err != nil {
			rows.Close()
			logger.ExitMethodWithError("ledgerRepository.ListByCcdCaseNumber", err, "ccdCaseNumber", ccdCaseNumber)
			return nil, err
		}
		ledgers = append(ledgers, l)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		logger.ExitMethodWithError("ledgerRepository.ListByCcdCaseNumber", err, "ccdCaseNumber", ccdCaseNumber)
		return nil, err
	}

	for i := range ledgers {
		if err := r.loadChildren(ctx, &ledgers[i]); err != nil {
			logger.ExitMethodWithError("ledgerRepository.ListByCcdCaseNumber", err, "ccdCaseNumber", ccdCaseNumber)
			return nil, err
		}
	}

	logger.ExitMethod("ledgerRepository.ListByCcdCaseNumber", "count", len(ledgers))
	return ledgers, nil
}

func (r *ledgerRepository) ListUpdatedAfter(ctx context.Context, after repository.LedgerCursor, until time.Time, limit int) ([]repository.LedgerCursor, error) {
	logger.EnterMethod("ledgerRepository.ListUpdatedAfter", "after", after.DateUpdated, "afterID", after.ID, "until", until, "limit", limit)

	query := `SELECT id, reference, date_updated FROM ledgers
		WHERE (date_updated, id) > ($1, $2) AND date_updated <= $3
		ORDER BY date_updated, id LIMIT $4`
	rows, err := r.db.QueryContext(ctx, query, after.DateUpdated, after.ID, until, limit)
	if err != nil {
		logger.ExitMethodWithError("ledgerRepository.ListUpdatedAfter", err)
		return nil, err
	}
	defer rows.Close()

	var page []repository.LedgerCursor
	for rows.Next() {
		var c repository.LedgerCursor
		if err := rows.Scan(&c.ID, &c.Reference, &c.DateUpdated); err != nil {
			logger.ExitMethodWithError("ledgerRepository.ListUpdatedAfter", err)
			return nil, err
		}
		page = append(page, c)
	}

	logger.ExitMethod("ledgerRepository.ListUpdatedAfter", "count", len(page))
	return page, rows.Err()
}

func (r *ledgerRepository) UpdateStatus(ctx context.Context, ledgerID int64, status domain.LedgerStatus) error {
	logger.EnterMethod("ledgerRepository.UpdateStatus", "ledgerID", ledgerID, "status", status)

	query := `UPDATE ledgers SET status = $1, date_updated = $2 WHERE id = $3`
	res, err := r.db.ExecContext(ctx, query, status, time.Now().UTC(), ledgerID)
	if err != nil {
		logger.ExitMethodWithError("ledgerRepository.UpdateStatus", err, "ledgerID", ledgerID)
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		logger.ExitMethodWithError("ledgerRepository.UpdateStatus", domain.ErrLedgerNotFound, "ledgerID", ledgerID)
		return domain.ErrLedgerNotFound
	}

	logger.ExitMethod("ledgerRepository.UpdateStatus", "ledgerID", ledgerID)
	return nil
}

func (r *ledgerRepository) AddRemission(ctx context.Context, ledgerID int64, remission *domain.Remission) error {
	logger.EnterMethod("ledgerRepository.AddRemission", "ledgerID", ledgerID, "reference", remission.RemissionReference)

	query := `
		INSERT INTO remissions (
			ledger_id, fee_id, remission_reference, hwf_reference, hwf_amount,
			beneficiary_name, ccd_case_number, date_created
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id
	`
	if remission.DateCreated.IsZero() {
		remission.DateCreated = time.Now().UTC()
	}
	remission.LedgerID = ledgerID
	err := r.db.QueryRowContext(ctx, query,
		ledgerID, remission.FeeID, remission.RemissionReference, remission.HwfReference, remission.HwfAmount,
		remission.BeneficiaryName, remission.CcdCaseNumber, remission.DateCreated,
	).Scan(&remission.ID)
	if err != nil {
		logger.ExitMethodWithError("ledgerRepository.AddRemission", err, "ledgerID", ledgerID)
		return err
	}

	logger.ExitMethod("ledgerRepository.AddRemission", "remissionID", remission.ID)
	return nil
}

func (r *ledgerRepository) AddPayment(ctx context.Context, ledgerID int64, payment *domain.Payment) error {
	logger.EnterMethod("ledgerRepository.AddPayment", "ledgerID", ledgerID, "reference", payment.Reference, "status", payment.Status)

	query := `
		INSERT INTO payments (
			ledger_id, reference, amount, currency, status, method, account_number, customer_reference,
			service_name, ccd_case_number, error_code, error_message, date_created, date_updated
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		RETURNING id
	`
	now := time.Now().UTC()
	if payment.DateCreated.IsZero() {
		payment.DateCreated = now
	}
	payment.DateUpdated = now
	payment.LedgerID = ledgerID
	err := r.db.QueryRowContext(ctx, query,
		ledgerID, payment.Reference, payment.Amount, payment.Currency, payment.Status, payment.Method,
		payment.AccountNumber, payment.CustomerReference, payment.ServiceName, payment.CcdCaseNumber,
		payment.ErrorCode, payment.ErrorMessage, payment.DateCreated, payment.DateUpdated,
	).Scan(&payment.ID)
	if err != nil {
		if isUniqueViolation(err) {
			err = domain.ErrDuplicateKey
		}
		logger.ExitMethodWithError("ledgerRepository.AddPayment", err, "ledgerID", ledgerID)
		return err
	}

	if err := r.appendHistories(ctx, payment); err != nil {
		logger.ExitMethodWithError("ledgerRepository.AddPayment", err, "paymentID", payment.ID)
		return err
	}

	logger.ExitMethod("ledgerRepository.AddPayment", "paymentID", payment.ID)
	return nil
}

func (r *ledgerRepository) UpdatePayment(ctx context.Context, payment *domain.Payment) error {
	logger.EnterMethod("ledgerRepository.UpdatePayment", "paymentID", payment.ID, "status", payment.Status)

	query := `
		UPDATE payments
		SET status = $1, error_code = $2, error_message = $3, date_updated = $4
		WHERE id = $5
	`
	payment.DateUpdated = time.Now().UTC()
	res, err := r.db.ExecContext(ctx, query, payment.Status, payment.ErrorCode, payment.ErrorMessage, payment.DateUpdated, payment.ID)
	if err != nil {
		logger.ExitMethodWithError("ledgerRepository.UpdatePayment", err, "paymentID", payment.ID)
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		logger.ExitMethodWithError("ledgerRepository.UpdatePayment", domain.ErrPaymentNotFound, "paymentID", payment.ID)
		return domain.ErrPaymentNotFound
	}

	if err := r.appendHistories(ctx, payment); err != nil {
		logger.ExitMethodWithError("ledgerRepository.UpdatePayment", err, "paymentID", payment.ID)
		return err
	}
	if err := r.saveDisputes(ctx, payment); err != nil {
		logger.ExitMethodWithError("ledgerRepository.UpdatePayment", err, "paymentID", payment.ID)
		return err
	}

	logger.ExitMethod("ledgerRepository.UpdatePayment", "paymentID", payment.ID)
	return nil
}

// appendHistories inserts the history entries that have not been saved yet.
func (r *ledgerRepository) appendHistories(ctx context.Context, payment *domain.Payment) error {
	query := `
		INSERT INTO status_histories (payment_id, status, error_code, message, date_created)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`
	for i := range payment.StatusHistories {
		h := &payment.StatusHistories[i]
		if h.ID != 0 {
			continue
		}
		h.PaymentID = payment.ID
		if err := r.db.QueryRowContext(ctx, query, payment.ID, h.Status, h.ErrorCode, h.Message, h.DateCreated).Scan(&h.ID); err != nil {
			return err
		}
	}
	return nil
}

func (r *ledgerRepository) saveDisputes(ctx context.Context, payment *domain.Payment) error {
	insert := `
		INSERT INTO payment_disputes (payment_id, amount, active, date_created, date_updated)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`
	update := `UPDATE payment_disputes SET amount = $1, active = $2, date_updated = $3 WHERE id = $4`
	for i := range payment.Disputes {
		d := &payment.Disputes[i]
		d.PaymentID = payment.ID
		if d.ID == 0 {
			if err := r.db.QueryRowContext(ctx, insert, payment.ID, d.Amount, d.Active, d.DateCreated, d.DateUpdated).Scan(&d.ID); err != nil {
				return err
			}
			continue
		}
		if _, err := r.db.ExecContext(ctx, update, d.Amount, d.Active, d.DateUpdated, d.ID); err != nil {
			return err
		}
	}
	return nil
}

func (r *ledgerRepository) SaveApportions(ctx context.Context, fees []domain.Fee, apportions []domain.FeePayApportion) error {
	logger.EnterMethod("ledgerRepository.SaveApportions", "fees", len(fees), "apportions", len(apportions))

	feeQuery := `
		UPDATE fees SET allocated_amount = $1, amount_due = $2, is_fully_apportioned = $3
		WHERE id = $4
	`
	for _, f := range fees {
		if _, err := r.db.ExecContext(ctx, feeQuery, f.AllocatedAmount, f.AmountDue, f.IsFullyApportioned, f.ID); err != nil {
			logger.ExitMethodWithError("ledgerRepository.SaveApportions", err, "feeID", f.ID)
			return err
		}
	}

	apportionQuery := `
		INSERT INTO fee_pay_apportions (
			fee_id, payment_id, apportion_amount, allocated_amount, calculated_amount, fee_amount,
			payment_amount, surplus_amount, shortfall_amount, ccd_case_number, apportion_type, date_created
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING id
	`
	for i := range apportions {
		a := &apportions[i]
		err := r.db.QueryRowContext(ctx, apportionQuery,
			a.FeeID, a.PaymentID, a.ApportionAmount, a.AllocatedAmount, a.CalculatedAmount, a.FeeAmount,
			a.PaymentAmount, a.SurplusAmount, a.ShortfallAmount, a.CcdCaseNumber, a.ApportionType, a.DateCreated,
		).Scan(&a.ID)
		if err != nil {
			logger.ExitMethodWithError("ledgerRepository.SaveApportions", err, "feeID", a.FeeID)
			return err
		}
	}

	logger.ExitMethod("ledgerRepository.SaveApportions")
	return nil
}
