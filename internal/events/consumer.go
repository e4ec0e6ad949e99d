package events

import (
	"context"
	"fmt"

	"github.com/rabbitmq/amqp091-go"

	"spendtrack/internal/log"
)

// Handler processes one activity message. Returning an error requeues it.
type Handler func(ctx context.Context, msg ActivityMessage) error

// AMQPConsumer reads activity messages from a queue bound to the activity
// exchange.
type AMQPConsumer struct {
	conn    *amqp091.Connection
	channel *amqp091.Channel
	queue   string
	logger  *log.Logger
}

// NewAMQPConsumer connects to url and binds queue to the exchange with
// bindingKey, e.g. "#" or "expense.*". An empty queue name declares a
// server-named queue that is removed when the consumer disconnects.
func NewAMQPConsumer(url, exchangeName, queue, bindingKey string, logger *log.Logger) (*AMQPConsumer, error) {
	conn, err := amqp091.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial AMQP: %w", err)
	}
	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}

	c := &AMQPConsumer{
		conn:    conn,
		channel: channel,
		logger:  logger.WithComponent(log.ComponentEvents),
	}
	if err := c.setup(exchangeName, queue, bindingKey); err != nil {
		c.Close()
		return nil, err
	}
	return c, nil
}

func (c *AMQPConsumer) setup(exchangeName, queue, bindingKey string) error {
	if err := declareExchange(c.channel, exchangeName); err != nil {
		return err
	}

	temporary := queue == ""
	q, err := c.channel.QueueDeclare(
		queue,      // name
		!temporary, // durable
		temporary,  // delete when unused
		temporary,  // exclusive
		false,      // no-wait
		nil,        // arguments
	)
	if err != nil {
		return fmt.Errorf("declare queue: %w", err)
	}
	c.queue = q.Name

	if bindingKey == "" {
		bindingKey = "#"
	}
	if err := c.channel.QueueBind(q.Name, bindingKey, exchangeName, false, nil); err != nil {
		return fmt.Errorf("bind queue: %w", err)
	}
	return nil
}

// Queue is the name of the queue being consumed.
func (c *AMQPConsumer) Queue() string { return c.queue }

// Consume delivers messages to handle until ctx is cancelled.
func (c *AMQPConsumer) Consume(ctx context.Context, handle Handler) error {
	msgs, err := c.channel.Consume(
		c.queue, // queue
		"",      // consumer
		false,   // auto-ack
		false,   // exclusive
		false,   // no-local
		false,   // no-wait
		nil,     // args
	)
	if err != nil {
		return fmt.Errorf("start consuming: %w", err)
	}

	c.logger.InfoContext(ctx, "Started consuming activity messages", "queue", c.queue)
	for {
		select {
		case <-ctx.Done():
			c.logger.InfoContext(ctx, "Stopping message consumption", "reason", ctx.Err())
			return ctx.Err()
		case d, ok := <-msgs:
			if !ok {
				return fmt.Errorf("message channel closed")
			}
			c.dispatch(ctx, d, handle)
		}
	}
}

// dispatch acks handled messages, requeues failed ones and drops
// messages that do not decode.
func (c *AMQPConsumer) dispatch(ctx context.Context, d amqp091.Delivery, handle Handler) {
	msg, err := ActivityMessageFromJSON(d.Body)
	if err != nil {
		c.logger.ErrorContext(ctx, "Failed to unmarshal activity message", log.FieldError, err.Error())
		_ = d.Nack(false, false)
		return
	}

	if err := handle(ctx, msg); err != nil {
		c.logger.WarnContext(ctx, "Failed to handle activity message",
			log.FieldError, err.Error(),
			log.FieldResource, string(msg.Resource),
			log.FieldResourceID, msg.ID)
		_ = d.Nack(false, true)
		return
	}
	_ = d.Ack(false)
}

func (c *AMQPConsumer) Close() error {
	if c.channel != nil {
		c.channel.Close()
	}
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}
