package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"payhub-backend/internal/domain"
	"payhub-backend/internal/logger"
	"payhub-backend/internal/service"
	"payhub-backend/internal/utils"
)

// Exit codes
const (
	exitOK       = 0
	exitFailed   = 1
	exitUsage    = 2
	exitRejected = 3 // request understood but refused, e.g. a failed payment
)

func (a *app) run(ctx context.Context, args []string, out io.Writer) int {
	cmd, rest := args[0], args[1:]
	var (
		result any
		code   = exitOK
		err    error
	)
	switch cmd {
	case "create-ledger":
		result, err = a.createLedger(ctx, rest)
	case "ledger":
		result, err = a.showLedger(ctx, rest)
	case "list":
		result, err = a.listLedgers(ctx, rest)
	case "status":
		result, err = a.ledgerStatus(ctx, rest)
	case "recalc":
		result, err = a.recalc(ctx, rest)
	case "remit":
		result, err = a.remit(ctx, rest)
	case "pay":
		result, code, err = a.pay(ctx, rest)
	case "payment-status":
		result, err = a.paymentStatus(ctx, rest)
	case "dispute":
		result, err = a.dispute(ctx, rest)
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n", cmd)
		usage()
		return exitUsage
	}
	if err != nil {
		if errors.Is(err, flag.ErrHelp) || errors.Is(err, errUsage) {
			return exitUsage
		}
		logger.Error("Command failed", "command", cmd, "error", err)
		fmt.Fprintf(os.Stderr, "%s: %v\n", cmd, err)
		return exitCode(err)
	}
	if err := writeJSON(out, result); err != nil {
		fmt.Fprintf(os.Stderr, "failed to write output: %v\n", err)
		return exitFailed
	}
	return code
}

var errUsage = errors.New("usage")

// exitCode maps domain errors to process exit codes.
func exitCode(err error) int {
	switch {
	case errors.Is(err, domain.ErrValidation):
		return exitUsage
	case errors.Is(err, domain.ErrAmountMismatch),
		errors.Is(err, domain.ErrAlreadyPaid),
		errors.Is(err, domain.ErrIdempotencyConflict),
		errors.Is(err, domain.ErrRequestInProgress),
		errors.Is(err, domain.ErrUnhandledAccountStatus):
		return exitRejected
	default:
		return exitFailed
	}
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func requireFlags(fs *flag.FlagSet, values map[string]string) error {
	for name, v := range values {
		if strings.TrimSpace(v) == "" {
			fmt.Fprintf(os.Stderr, "-%s is required\n", name)
			fs.Usage()
			return errUsage
		}
	}
	return nil
}

// feeList collects repeated -fee CODE:VERSION:VOLUME:AMOUNT flags.
type feeList []service.FeeRequest

func (f *feeList) String() string {
	parts := make([]string, 0, len(*f))
	for _, fee := range *f {
		parts = append(parts, fee.Code)
	}
	return strings.Join(parts, ",")
}

func (f *feeList) Set(v string) error {
	fee, err := parseFee(v)
	if err != nil {
		return err
	}
	*f = append(*f, fee)
	return nil
}

func parseFee(v string) (service.FeeRequest, error) {
	parts := strings.Split(v, ":")
	if len(parts) != 4 {
		return service.FeeRequest{}, fmt.Errorf("fee must be CODE:VERSION:VOLUME:AMOUNT, got %q", v)
	}
	volume, err := strconv.ParseInt(parts[2], 10, 32)
	if err != nil || volume <= 0 {
		return service.FeeRequest{}, fmt.Errorf("invalid fee volume %q", parts[2])
	}
	amt, err := utils.ParseAmount(parts[3])
	if err != nil {
		return service.FeeRequest{}, err
	}
	return service.FeeRequest{
		Code:      parts[0],
		Version:   parts[1],
		Volume:    int32(volume),
		FeeAmount: decimal.NewNullDecimal(amt),
	}, nil
}

func parseOptionalAmount(s string) (decimal.Decimal, error) {
	if strings.TrimSpace(s) == "" {
		return decimal.Zero, nil
	}
	return utils.ParseAmount(s)
}

func (a *app) createLedger(ctx context.Context, args []string) (any, error) {
	fs := flag.NewFlagSet("create-ledger", flag.ContinueOnError)
	kind := fs.String("kind", string(domain.LedgerKindServiceRequest), "Ledger kind: service_request, order or payment_group")
	ccd := fs.String("case", "", "CCD case number")
	caseRef := fs.String("case-ref", "", "Case reference")
	org := fs.String("org", "", "HMCTS organisation id")
	svc := fs.String("service", "", "Enterprise service name")
	callback := fs.String("callback", "", "Service callback URL")
	var fees feeList
	fs.Var(&fees, "fee", "Fee as CODE:VERSION:VOLUME:AMOUNT (repeatable)")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if err := requireFlags(fs, map[string]string{"case": *ccd, "service": *svc}); err != nil {
		return nil, err
	}
	return a.ledgers.CreateLedger(ctx, service.CreateLedgerRequest{
		Kind:           domain.LedgerKind(*kind),
		CcdCaseNumber:  *ccd,
		CaseReference:  *caseRef,
		OrganisationID: *org,
		ServiceName:    *svc,
		CallbackURL:    *callback,
		Fees:           fees,
	})
}

func (a *app) showLedger(ctx context.Context, args []string) (any, error) {
	fs := flag.NewFlagSet("ledger", flag.ContinueOnError)
	ref := fs.String("ref", "", "Ledger reference")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if err := requireFlags(fs, map[string]string{"ref": *ref}); err != nil {
		return nil, err
	}
	return a.ledgers.GetLedger(ctx, *ref)
}

func (a *app) listLedgers(ctx context.Context, args []string) (any, error) {
	fs := flag.NewFlagSet("list", flag.ContinueOnError)
	ccd := fs.String("case", "", "CCD case number")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	return a.ledgers.ListLedgersByCase(ctx, *ccd)
}

func (a *app) ledgerStatus(ctx context.Context, args []string) (any, error) {
	fs := flag.NewFlagSet("status", flag.ContinueOnError)
	ref := fs.String("ref", "", "Ledger reference")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if err := requireFlags(fs, map[string]string{"ref": *ref}); err != nil {
		return nil, err
	}
	summary, err := a.ledgers.GetStatus(ctx, *ref)
	if err != nil {
		return nil, err
	}
	return statusOutput{
		Reference:      *ref,
		Status:         summary.Status,
		FeeTotal:       utils.FormatMoney(summary.FeeTotal),
		RemissionTotal: utils.FormatMoney(summary.RemissionTotal),
		PaymentTotal:   utils.FormatMoney(summary.PaymentTotal),
		PendingTotal:   utils.FormatMoney(summary.PendingTotal),
	}, nil
}

type statusOutput struct {
	Reference      string              `json:"reference"`
	Status         domain.LedgerStatus `json:"status"`
	FeeTotal       string              `json:"fee_total"`
	RemissionTotal string              `json:"remission_total"`
	PaymentTotal   string              `json:"payment_total"`
	PendingTotal   string              `json:"pending_total"`
}

func (a *app) recalc(ctx context.Context, args []string) (any, error) {
	fs := flag.NewFlagSet("recalc", flag.ContinueOnError)
	ref := fs.String("ref", "", "Ledger reference")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if err := requireFlags(fs, map[string]string{"ref": *ref}); err != nil {
		return nil, err
	}
	status, drifted, err := a.ledgers.RecalculateStatus(ctx, *ref)
	if err != nil {
		return nil, err
	}
	return map[string]any{"reference": *ref, "status": status, "repaired": drifted}, nil
}

func (a *app) remit(ctx context.Context, args []string) (any, error) {
	fs := flag.NewFlagSet("remit", flag.ContinueOnError)
	ref := fs.String("ref", "", "Ledger reference")
	hwf := fs.String("hwf", "", "Help with fees reference")
	amt := fs.String("amount", "", "Remission amount")
	beneficiary := fs.String("beneficiary", "", "Beneficiary name")
	feeCode := fs.String("fee-code", "", "Fee the remission applies to")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if err := requireFlags(fs, map[string]string{"ref": *ref, "hwf": *hwf, "amount": *amt}); err != nil {
		return nil, err
	}
	value, err := utils.ParseAmount(*amt)
	if err != nil {
		return nil, err
	}
	return a.ledgers.AddRemission(ctx, *ref, service.RemissionRequest{
		HwfReference:    *hwf,
		HwfAmount:       value,
		BeneficiaryName: *beneficiary,
		FeeCode:         *feeCode,
	})
}

func (a *app) pay(ctx context.Context, args []string) (any, int, error) {
	fs := flag.NewFlagSet("pay", flag.ContinueOnError)
	ref := fs.String("ref", "", "Ledger (service request) reference")
	key := fs.String("key", "", "Idempotency key (generated when empty)")
	amt := fs.String("amount", "", "Payment amount")
	currency := fs.String("currency", domain.CurrencyGBP, "Currency")
	acct := fs.String("account", "", "Credit account number")
	customerRef := fs.String("customer-ref", "", "Customer reference")
	orgName := fs.String("org-name", "", "Organisation name")
	if err := fs.Parse(args); err != nil {
		return nil, exitUsage, err
	}
	if err := requireFlags(fs, map[string]string{"ref": *ref, "amount": *amt, "account": *acct}); err != nil {
		return nil, exitUsage, err
	}
	value, err := utils.ParseAmount(*amt)
	if err != nil {
		return nil, exitUsage, err
	}
	if *key == "" {
		*key = uuid.NewString()
		logger.Info("Generated idempotency key", "key", *key)
	}

	res, err := a.payments.CreateCreditAccountPayment(ctx, *ref, *key, service.CreditAccountPaymentRequest{
		Amount:            value,
		Currency:          *currency,
		AccountNumber:     *acct,
		CustomerReference: *customerRef,
		OrganisationName:  *orgName,
	})
	if err != nil {
		return nil, exitCode(err), err
	}
	out := payOutput{
		IdempotencyKey: *key,
		HTTPStatus:     res.Code,
		Replayed:       res.Replayed,
		Payment:        res.Payment,
	}
	if res.Code == http.StatusPaymentRequired {
		return out, exitRejected, nil
	}
	return out, exitOK, nil
}

type payOutput struct {
	IdempotencyKey string                  `json:"idempotency_key"`
	HTTPStatus     int                     `json:"http_status"`
	Replayed       bool                    `json:"replayed"`
	Payment        service.PaymentResponse `json:"payment"`
}

func (a *app) paymentStatus(ctx context.Context, args []string) (any, error) {
	fs := flag.NewFlagSet("payment-status", flag.ContinueOnError)
	ref := fs.String("payment", "", "Payment reference")
	status := fs.String("status", "", "New status: success, failed, pending, ...")
	errCode := fs.String("code", "", "Error code")
	message := fs.String("message", "", "Status message")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if err := requireFlags(fs, map[string]string{"payment": *ref, "status": *status}); err != nil {
		return nil, err
	}
	return a.payments.UpdatePaymentStatus(ctx, *ref, domain.PaymentStatus(strings.ToLower(*status)), *errCode, *message)
}

func (a *app) dispute(ctx context.Context, args []string) (any, error) {
	if len(args) == 0 {
		fmt.Fprintln(os.Stderr, "usage: payctl dispute raise|resolve [flags]")
		return nil, errUsage
	}
	action, args := args[0], args[1:]
	fs := flag.NewFlagSet("dispute "+action, flag.ContinueOnError)
	ref := fs.String("payment", "", "Payment reference")
	switch action {
	case "raise":
		amt := fs.String("amount", "", "Disputed amount")
		if err := fs.Parse(args); err != nil {
			return nil, err
		}
		if err := requireFlags(fs, map[string]string{"payment": *ref, "amount": *amt}); err != nil {
			return nil, err
		}
		value, err := utils.ParseAmount(*amt)
		if err != nil {
			return nil, err
		}
		return a.payments.RaiseDispute(ctx, *ref, value)
	case "resolve":
		id := fs.Int64("id", 0, "Dispute id")
		if err := fs.Parse(args); err != nil {
			return nil, err
		}
		if err := requireFlags(fs, map[string]string{"payment": *ref}); err != nil {
			return nil, err
		}
		if err := a.payments.ResolveDispute(ctx, *ref, *id); err != nil {
			return nil, err
		}
		return map[string]any{"payment_reference": *ref, "dispute_id": *id, "resolved": true}, nil
	default:
		fmt.Fprintf(os.Stderr, "unknown dispute action %q\n", action)
		return nil, errUsage
	}
}
