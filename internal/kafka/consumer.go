package kafka

import (
	"context"
	"log"
	"time"

	skafka "github.com/segmentio/kafka-go"
)

// Handler processes one fetched message. Returning an error leaves the
// offset uncommitted so the message is redelivered.
type Handler func(ctx context.Context, key, value []byte) error

// Consumer reads match events as part of a consumer group. Multiple
// bridge workers with the same group ID split the partitions between
// them instead of each seeing every message.
type Consumer struct {
	reader *skafka.Reader
}

func NewConsumer(brokers []string, topic, groupID string) *Consumer {
	return &Consumer{
		reader: skafka.NewReader(skafka.ReaderConfig{
			Brokers:  brokers,
			Topic:    topic,
			GroupID:  groupID,
			MinBytes: 10e3,
			MaxBytes: 10e6,
		}),
	}
}

// Run fetches, handles and commits messages until ctx is cancelled.
// Each message gets its own handling deadline.
func (c *Consumer) Run(ctx context.Context, handler Handler) {
	log.Printf("kafka consumer started, topic=%s group=%s",
		c.reader.Config().Topic, c.reader.Config().GroupID)

	for {
		if ctx.Err() != nil {
			return
		}

		m, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			log.Printf("kafka fetch error: %v", err)
			time.Sleep(time.Second)
			continue
		}

		handleCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		err = handler(handleCtx, m.Key, m.Value)
		cancel()

		if err != nil {
			// Uncommitted, Kafka will redeliver.
			log.Printf("kafka handler failed at offset %d: %v", m.Offset, err)
			continue
		}

		if err := c.reader.CommitMessages(ctx, m); err != nil {
			log.Printf("kafka commit failed: %v", err)
		}
	}
}

func (c *Consumer) Close() error {
	return c.reader.Close()
}
