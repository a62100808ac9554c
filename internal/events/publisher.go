// Package events publishes committed asset transitions to RabbitMQ.
// Publishing happens after commit and never changes the outcome of a transition.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"equipment/pkg/metadata"
	"equipment/pkg/models"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

const DefaultQueue = "asset.transitions"

type TransitionEvent struct {
	RecordID   string  `json:"record_id"`
	AssetID    int64   `json:"asset_id"`
	Action     string  `json:"action"`
	Status     string  `json:"status"`
	PersonID   *int64  `json:"person_id,omitempty"`
	ActorID    int64   `json:"actor_id"`
	Condition  *string `json:"condition,omitempty"`
	Notes      *string `json:"notes,omitempty"`
	OccurredAt string  `json:"occurred_at"`
	RecordedAt string  `json:"recorded_at"`
}

func NewTransitionEvent(record models.TransitionRecord, status metadata.Status) TransitionEvent {
	event := TransitionEvent{
		RecordID:   record.ID.String(),
		AssetID:    record.AssetID,
		Action:     string(record.Action),
		Status:     string(status),
		PersonID:   record.PersonID,
		ActorID:    record.ActorID,
		Notes:      record.Notes,
		OccurredAt: record.OccurredAt.UTC().Format(time.RFC3339),
		RecordedAt: record.RecordedAt.UTC().Format(time.RFC3339),
	}
	if record.Condition != nil {
		condition := string(*record.Condition)
		event.Condition = &condition
	}
	return event
}

// Publisher opens a channel per message; the connection is safe for
// concurrent use.
type Publisher struct {
	conn   *amqp.Connection
	queue  string
	logger *zap.Logger
}

// NewPublisher dials the broker and declares the durable transitions queue.
func NewPublisher(url, queue string, logger *zap.Logger) (*Publisher, error) {
	if queue == "" {
		queue = DefaultQueue
	}

	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("rabbitmq dial: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("rabbitmq channel: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if _, err := ch.QueueDeclare(
		queue,
		true,  // durable
		false, // autoDelete
		false, // exclusive
		false, // noWait
		nil,
	); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("rabbitmq queue declare: %w", err)
	}

	logger.Info("Connected to RabbitMQ", zap.String("queue", queue))

	return &Publisher{conn: conn, queue: queue, logger: logger}, nil
}

func (p *Publisher) PublishTransition(ctx context.Context, record models.TransitionRecord, status metadata.Status) error {
	msg, err := newPublishing(NewTransitionEvent(record, status))
	if err != nil {
		return err
	}

	ch, err := p.conn.Channel()
	if err != nil {
		return fmt.Errorf("rabbitmq channel: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.PublishWithContext(ctx,
		"",      // default exchange
		p.queue, // routing key = queue name
		false,   // mandatory
		false,   // immediate
		msg,
	); err != nil {
		return fmt.Errorf("rabbitmq publish: %w", err)
	}

	p.logger.Debug("Published transition event",
		zap.String("record_id", record.ID.String()),
		zap.String("queue", p.queue),
	)

	return nil
}

func (p *Publisher) Close() error {
	return p.conn.Close()
}

func newPublishing(event TransitionEvent) (amqp.Publishing, error) {
	body, err := json.Marshal(event)
	if err != nil {
		return amqp.Publishing{}, fmt.Errorf("marshal transition event: %w", err)
	}

	return amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    event.RecordID,
		Type:         "asset.transition." + event.Action,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	}, nil
}
