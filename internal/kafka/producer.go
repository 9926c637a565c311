package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	skafka "github.com/segmentio/kafka-go"
)

// Match lifecycle event types carried on the match-events topic.
const (
	EventMatchSuggested = "match.suggested"
	EventMatchPending   = "match.pending"
	EventMatchConfirmed = "match.confirmed"
	EventMatchRejected  = "match.rejected"
	EventMatchCancelled = "match.cancelled"
	EventMatchCompleted = "match.completed"
	EventBrokerNotify   = "broker.notify"
)

// Event is the envelope every published message uses. Payload holds the
// type-specific body (usually a models.Match).
type Event struct {
	Type       string      `json:"type"`
	OccurredAt time.Time   `json:"occurred_at"`
	Payload    interface{} `json:"payload"`
}

// Writer is the subset of segmentio kafka.Writer the producer needs,
// so tests can inject their own.
type Writer interface {
	WriteMessages(ctx context.Context, msgs ...skafka.Message) error
	Close() error
}

// Publisher is what the lifecycle manager and rules engine depend on.
type Publisher interface {
	PublishEvent(ctx context.Context, key string, eventType string, payload interface{}) error
	Close() error
}

// Producer writes match events to a single topic, keyed by load ID so
// all events for one load land on the same partition in order.
type Producer struct {
	writer Writer
}

func NewProducer(brokerURL, topic string) *Producer {
	return &Producer{writer: &skafka.Writer{
		Addr:     skafka.TCP(brokerURL),
		Topic:    topic,
		Balancer: &skafka.LeastBytes{},
	}}
}

// NewProducerWithWriter allows injecting a test writer.
func NewProducerWithWriter(w Writer) *Producer {
	return &Producer{writer: w}
}

func (p *Producer) PublishEvent(ctx context.Context, key string, eventType string, payload interface{}) error {
	b, err := json.Marshal(Event{
		Type:       eventType,
		OccurredAt: time.Now().UTC(),
		Payload:    payload,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal %s event: %w", eventType, err)
	}
	msg := skafka.Message{
		Key:   []byte(key),
		Value: b,
		Headers: []skafka.Header{
			{Key: "event-type", Value: []byte(eventType)},
		},
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("failed to publish %s event: %w", eventType, err)
	}
	return nil
}

func (p *Producer) Close() error {
	return p.writer.Close()
}
