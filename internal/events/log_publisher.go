package events

import (
	"context"

	"payhub-backend/internal/logger"
)

// LogPublisher writes events to the structured log instead of a broker.
type LogPublisher struct{}

func NewLogPublisher() *LogPublisher {
	return &LogPublisher{}
}

func (p *LogPublisher) PublishPaymentStatus(ctx context.Context, event PaymentStatusEvent) error {
	logger.WarnContext(ctx, "Callback publish skipped, no broker configured",
		"event_id", event.ID,
		"reference", event.ServiceRequestReference,
		"payment_reference", event.PaymentReference,
		"status", event.Status,
		CallbackURLProperty, event.ServiceCallbackURL,
	)
	return nil
}

func (p *LogPublisher) Close() error { return nil }
