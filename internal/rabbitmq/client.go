package rabbitmq

import (
	"context"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Client wraps one AMQP connection and channel. The bridge worker uses
// it to hand match notifications to the email and SMS queues.
type Client struct {
	conn *amqp.Connection
	chn  *amqp.Channel
}

func NewClient(url string) (*Client, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("failed to dial rabbitmq: %w", err)
	}
	chn, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}
	return &Client{conn: conn, chn: chn}, nil
}

func (c *Client) Close() error {
	if err := c.chn.Close(); err != nil {
		return err
	}
	return c.conn.Close()
}

// DeclareQueue creates the queue if it does not exist. Durable, so
// notifications survive a broker restart.
func (c *Client) DeclareQueue(name string) error {
	_, err := c.chn.QueueDeclare(name, true, false, false, false, nil)
	return err
}

// Publish sends one persistent JSON message to the named queue.
func (c *Client) Publish(ctx context.Context, queue string, body []byte) error {
	return c.chn.PublishWithContext(ctx,
		"",    // default exchange
		queue, // routing key
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Body:         body,
		},
	)
}

// Consume returns a delivery channel for the named queue. Manual acks.
func (c *Client) Consume(queue string) (<-chan amqp.Delivery, error) {
	return c.chn.Consume(queue, "", false, false, false, false, nil)
}
