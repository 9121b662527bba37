package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"

	"remitgate/internal/core/domain"

	amqp "github.com/rabbitmq/amqp091-go"
)

// RabbitMQConfig holds the broker settings for the audit publisher
type RabbitMQConfig struct {
	URL   string
	Queue string
}

// RabbitMQAuditSink publishes audit events to a durable queue
type RabbitMQAuditSink struct {
	mu      sync.Mutex
	conn    *amqp.Connection
	channel *amqp.Channel
	queue   string
}

// NewRabbitMQAuditSink dials the broker and declares the audit queue
func NewRabbitMQAuditSink(cfg RabbitMQConfig) (*RabbitMQAuditSink, error) {
	if strings.TrimSpace(cfg.URL) == "" {
		return nil, errors.New("rabbitmq url is required")
	}
	if strings.TrimSpace(cfg.Queue) == "" {
		return nil, errors.New("rabbitmq audit queue is required")
	}

	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, err
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, err
	}

	if _, err := ch.QueueDeclare(cfg.Queue, true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, err
	}

	return &RabbitMQAuditSink{conn: conn, channel: ch, queue: cfg.Queue}, nil
}

func (s *RabbitMQAuditSink) Name() string { return "rabbitmq" }

// Write publishes one event as a persistent JSON message
func (s *RabbitMQAuditSink) Write(ctx context.Context, event domain.AuditEvent) error {
	msg, err := encodeAuditEvent(event)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.channel.PublishWithContext(ctx, "", s.queue, false, false, msg)
}

// Close closes the underlying channel and connection
func (s *RabbitMQAuditSink) Close() error {
	if s.channel != nil {
		_ = s.channel.Close()
	}
	if s.conn != nil {
		return s.conn.Close()
	}
	return nil
}

func encodeAuditEvent(event domain.AuditEvent) (amqp.Publishing, error) {
	body, err := json.Marshal(event)
	if err != nil {
		return amqp.Publishing{}, err
	}

	return amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    event.ID,
		Timestamp:    event.OccurredAt,
		Type:         string(event.Type),
		Headers: amqp.Table{
			"outcome": string(event.Outcome),
			"actor":   event.ActorRef,
		},
		Body: body,
	}, nil
}
