package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/rabbitmq/amqp091-go"

	"payhub-backend/internal/logger"
)

// RabbitMQPublisher publishes events to a durable topic exchange.
type RabbitMQPublisher struct {
	mu         sync.Mutex
	conn       *amqp091.Connection
	channel    *amqp091.Channel
	exchange   string
	routingKey string
}

func sanitizeAMQPURL(raw string) (string, error) {
	clean := strings.TrimSpace(raw)
	clean = strings.Trim(clean, "\"'")
	if !strings.HasSuffix(clean, "/") {
		clean += "/"
	}
	u, err := url.Parse(clean)
	if err != nil {
		return "", err
	}
	if u.Scheme != "amqp" && u.Scheme != "amqps" {
		return "", errors.New("AMQP scheme must be either 'amqp://' or 'amqps://'")
	}
	return clean, nil
}

func NewRabbitMQPublisher(amqpURL, exchange, routingKey string) (*RabbitMQPublisher, error) {
	cleanURL, err := sanitizeAMQPURL(amqpURL)
	if err != nil {
		return nil, err
	}

	conn, err := amqp091.DialConfig(cleanURL, amqp091.Config{
		Dial: amqp091.DefaultDial(10 * time.Second),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	p := &RabbitMQPublisher{conn: conn, exchange: exchange, routingKey: routingKey}
	if err := p.openChannel(); err != nil {
		conn.Close()
		return nil, err
	}
	return p, nil
}

func (p *RabbitMQPublisher) openChannel() error {
	channel, err := p.conn.Channel()
	if err != nil {
		return fmt.Errorf("failed to open channel: %w", err)
	}
	err = channel.ExchangeDeclare(
		p.exchange, // name
		"topic",    // type
		true,       // durable
		false,      // auto-deleted
		false,      // internal
		false,      // no-wait
		nil,        // arguments
	)
	if err != nil {
		channel.Close()
		return fmt.Errorf("failed to declare exchange %s: %w", p.exchange, err)
	}
	p.channel = channel
	return nil
}

func (p *RabbitMQPublisher) PublishPaymentStatus(ctx context.Context, event PaymentStatusEvent) error {
	msg, err := newPublishing(event)
	if err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	logger.ExternalServiceCall("rabbitmq", "Publish", "exchange", p.exchange, "reference", event.ServiceRequestReference)
	err = p.channel.PublishWithContext(ctx, p.exchange, p.routingKey, false, false, msg)
	if errors.Is(err, amqp091.ErrClosed) && !p.conn.IsClosed() {
		// channel closed under us; reopen once and retry
		if reopenErr := p.openChannel(); reopenErr == nil {
			err = p.channel.PublishWithContext(ctx, p.exchange, p.routingKey, false, false, msg)
		}
	}
	logger.ExternalServiceResult("rabbitmq", "Publish", err, "event_id", event.ID)
	if err != nil {
		return fmt.Errorf("failed to publish payment status event: %w", err)
	}
	return nil
}

func newPublishing(event PaymentStatusEvent) (amqp091.Publishing, error) {
	body, err := json.Marshal(event)
	if err != nil {
		return amqp091.Publishing{}, fmt.Errorf("failed to marshal event: %w", err)
	}
	return amqp091.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp091.Persistent,
		MessageId:    event.ID,
		Type:         MessageLabel,
		Timestamp:    event.OccurredAt,
		Headers:      amqp091.Table{CallbackURLProperty: event.ServiceCallbackURL},
		Body:         body,
	}, nil
}

func (p *RabbitMQPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.channel != nil {
		p.channel.Close()
	}
	if p.conn != nil {
		return p.conn.Close()
	}
	return nil
}
