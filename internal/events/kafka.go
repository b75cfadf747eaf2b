package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"payhub-backend/internal/logger"
)

// KafkaPublisher writes events keyed by ledger reference, so all events of one
// ledger land on the same partition in order.
type KafkaPublisher struct {
	writer *kafka.Writer
}

func NewKafkaPublisher(brokers []string, topic string) (*KafkaPublisher, error) {
	if len(brokers) == 0 {
		return nil, fmt.Errorf("kafka publisher requires at least one broker")
	}
	if topic == "" {
		return nil, fmt.Errorf("kafka publisher requires a topic")
	}
	return &KafkaPublisher{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireOne,
			MaxAttempts:  3,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
			Logger: kafka.LoggerFunc(func(msg string, args ...interface{}) {
				logger.Debug(fmt.Sprintf(msg, args...))
			}),
		},
	}, nil
}

func (p *KafkaPublisher) PublishPaymentStatus(ctx context.Context, event PaymentStatusEvent) error {
	msg, err := newKafkaMessage(event)
	if err != nil {
		return err
	}

	logger.ExternalServiceCall("kafka", "WriteMessages", "topic", p.writer.Topic, "reference", event.ServiceRequestReference)
	err = p.writer.WriteMessages(ctx, msg)
	logger.ExternalServiceResult("kafka", "WriteMessages", err, "event_id", event.ID)
	if err != nil {
		return fmt.Errorf("failed to publish payment status event: %w", err)
	}
	return nil
}

func newKafkaMessage(event PaymentStatusEvent) (kafka.Message, error) {
	body, err := json.Marshal(event)
	if err != nil {
		return kafka.Message{}, fmt.Errorf("failed to marshal event: %w", err)
	}
	return kafka.Message{
		Key:   []byte(event.ServiceRequestReference),
		Value: body,
		Time:  event.OccurredAt,
		Headers: []kafka.Header{
			{Key: CallbackURLProperty, Value: []byte(event.ServiceCallbackURL)},
			{Key: "label", Value: []byte(MessageLabel)},
		},
	}, nil
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}
