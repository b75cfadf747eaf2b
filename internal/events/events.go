package events

import (
	"context"
	"crypto/rand"
	"fmt"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/shopspring/decimal"

	"payhub-backend/internal/domain"
	"payhub-backend/internal/logger"
)

const (
	// CallbackURLProperty carries the owning service's callback URL on every message.
	CallbackURLProperty = "serviceCallbackUrl"
	MessageLabel        = "Service Callback Message"
)

// PaymentStatusEvent notifies the owning service that a payment on its ledger changed.
type PaymentStatusEvent struct {
	ID                      string          `json:"id"`
	ServiceRequestReference string          `json:"service_request_reference"`
	ServiceRequestStatus    string          `json:"service_request_status"`
	CcdCaseNumber           string          `json:"ccd_case_number"`
	PaymentReference        string          `json:"payment_reference"`
	PaymentMethod           string          `json:"payment_method"`
	AccountNumber           string          `json:"account_number,omitempty"`
	Amount                  decimal.Decimal `json:"amount"`
	Status                  string          `json:"status"`
	ErrorCode               string          `json:"error_code,omitempty"`
	ErrorMessage            string          `json:"error_message,omitempty"`
	ServiceCallbackURL      string          `json:"-"`
	OccurredAt              time.Time       `json:"occurred_at"`
}

// Publisher delivers payment status events to the configured broker.
type Publisher interface {
	PublishPaymentStatus(ctx context.Context, event PaymentStatusEvent) error
	Close() error
}

// NewPaymentStatusEvent builds the callback payload for a payment on a ledger.
func NewPaymentStatusEvent(ledger *domain.Ledger, payment *domain.Payment, ledgerStatus domain.LedgerStatus, now time.Time) PaymentStatusEvent {
	evt := PaymentStatusEvent{
		ID:                      NewEventID(now),
		ServiceRequestReference: ledger.Reference,
		ServiceRequestStatus:    string(ledgerStatus),
		CcdCaseNumber:           ledger.CcdCaseNumber,
		PaymentReference:        payment.Reference,
		PaymentMethod:           string(payment.Method),
		AccountNumber:           payment.AccountNumber,
		Amount:                  payment.Amount,
		Status:                  payment.Status.External(),
		ServiceCallbackURL:      ledger.CallbackURL,
		OccurredAt:              now,
	}
	if payment.ErrorCode != nil {
		evt.ErrorCode = *payment.ErrorCode
	}
	if payment.ErrorMessage != nil {
		evt.ErrorMessage = *payment.ErrorMessage
	}
	return evt
}

// NewEventID returns a lexically sortable unique id.
func NewEventID(t time.Time) string {
	return ulid.MustNew(ulid.Timestamp(t), ulid.Monotonic(rand.Reader, 0)).String()
}

// Config selects and configures the broker.
type Config struct {
	Broker      string // "rabbitmq", "kafka" or "log"
	RabbitMQURL string
	Exchange    string
	RoutingKey  string
	Brokers     []string
	Topic       string
}

// New connects to the configured broker. When RabbitMQ cannot be reached at
// startup the log publisher is returned so payments keep flowing.
func New(cfg Config) (Publisher, error) {
	switch cfg.Broker {
	case "", "log":
		return NewLogPublisher(), nil
	case "rabbitmq":
		p, err := NewRabbitMQPublisher(cfg.RabbitMQURL, cfg.Exchange, cfg.RoutingKey)
		if err != nil {
			logger.Warn("RabbitMQ unavailable, callbacks will only be logged", "error", err)
			return NewLogPublisher(), nil
		}
		return p, nil
	case "kafka":
		return NewKafkaPublisher(cfg.Brokers, cfg.Topic)
	default:
		return nil, fmt.Errorf("unsupported event broker: %s", cfg.Broker)
	}
}
