// internal/worker/bridge.go
package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"

	"github.com/Tanmoy095/LogiSynapse/services/matching-service/internal/kafka"
	"github.com/Tanmoy095/LogiSynapse/services/matching-service/internal/rabbitmq"
)

// Queue names the notification workers consume from.
const (
	EmailQueue = "email_jobs"
	SMSQueue   = "sms_jobs"
)

// Bridge consumes match lifecycle events from kafka and fans the ones a
// human cares about out to the rabbitmq notification queues. Delivery
// itself (SMTP, SMS gateway) lives in the communications stack, not here.
type Bridge struct {
	consumer *kafka.Consumer
	rabbit   *rabbitmq.Client
}

func NewBridge(consumer *kafka.Consumer, rabbit *rabbitmq.Client) *Bridge {
	return &Bridge{consumer: consumer, rabbit: rabbit}
}

// notificationJob is the ticket dropped on a rabbitmq queue.
type notificationJob struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// jobsFor maps an event type to the notification jobs it produces.
// Suggested and pending events stay in-app; only decisions reach the
// carrier's inbox or phone.
func jobsFor(eventType string) []struct{ queue, jobType string } {
	switch eventType {
	case kafka.EventMatchConfirmed:
		return []struct{ queue, jobType string }{
			{EmailQueue, "match_confirmed_email"},
			{SMSQueue, "match_confirmed_sms"},
		}
	case kafka.EventMatchRejected:
		return []struct{ queue, jobType string }{
			{EmailQueue, "match_rejected_email"},
		}
	case kafka.EventMatchCancelled:
		return []struct{ queue, jobType string }{
			{EmailQueue, "match_cancelled_email"},
			{SMSQueue, "match_cancelled_sms"},
		}
	case kafka.EventBrokerNotify:
		return []struct{ queue, jobType string }{
			{EmailQueue, "broker_review_email"},
		}
	default:
		return nil
	}
}

// Run declares the queues and consumes events until ctx is cancelled.
func (b *Bridge) Run(ctx context.Context, wg *sync.WaitGroup) error {
	if err := b.rabbit.DeclareQueue(EmailQueue); err != nil {
		return fmt.Errorf("failed to declare email queue: %w", err)
	}
	if err := b.rabbit.DeclareQueue(SMSQueue); err != nil {
		return fmt.Errorf("failed to declare sms queue: %w", err)
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		b.consumer.Run(ctx, b.handle)
	}()
	return nil
}

// handle translates one lifecycle event into notification jobs. A
// rabbitmq publish error is returned so kafka redelivers the event.
func (b *Bridge) handle(ctx context.Context, key, value []byte) error {
	var event kafka.Event
	if err := json.Unmarshal(value, &event); err != nil {
		log.Printf("bridge: dropping undecodable event (key %s): %v", key, err)
		return nil
	}

	jobs := jobsFor(event.Type)
	if len(jobs) == 0 {
		return nil
	}

	payload, err := json.Marshal(event.Payload)
	if err != nil {
		log.Printf("bridge: dropping event %s with unencodable payload: %v", event.Type, err)
		return nil
	}

	for _, j := range jobs {
		body, err := json.Marshal(notificationJob{Type: j.jobType, Payload: payload})
		if err != nil {
			return err
		}
		if err := b.rabbit.Publish(ctx, j.queue, body); err != nil {
			return fmt.Errorf("failed to enqueue %s: %w", j.jobType, err)
		}
	}
	log.Printf("bridge: %s fanned out to %d queue(s)", event.Type, len(jobs))
	return nil
}
