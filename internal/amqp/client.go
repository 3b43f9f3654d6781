// Package amqp publishes and consumes the async mirror queue. Queue writes
// are fire-and-forget from the request path: a publish failure is logged, the
// local write has already succeeded.
package amqp

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/rabbitmq/amqp091-go"

	"bilancio/internal/core"
)

type Client struct {
	conn         *amqp091.Connection
	channel      *amqp091.Channel
	exchangeName string
	queueName    string
}

func NewClient(url, exchangeName, queueName string) (*Client, error) {
	conn, err := amqp091.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial AMQP: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}

	client := &Client{
		conn:         conn,
		channel:      channel,
		exchangeName: exchangeName,
		queueName:    queueName,
	}

	if err := client.setup(); err != nil {
		client.Close()
		return nil, fmt.Errorf("setup exchange and queue: %w", err)
	}

	return client, nil
}

func (c *Client) setup() error {
	err := c.channel.ExchangeDeclare(
		c.exchangeName, // name
		"direct",       // type
		true,           // durable
		false,          // auto-deleted
		false,          // internal
		false,          // no-wait
		nil,            // arguments
	)
	if err != nil {
		return fmt.Errorf("declare exchange: %w", err)
	}

	_, err = c.channel.QueueDeclare(
		c.queueName, // name
		true,        // durable
		false,       // delete when unused
		false,       // exclusive
		false,       // no-wait
		nil,         // arguments
	)
	if err != nil {
		return fmt.Errorf("declare queue: %w", err)
	}

	// Routing key is the queue name; one direct binding per queue
	err = c.channel.QueueBind(
		c.queueName,
		c.queueName,
		c.exchangeName,
		false,
		nil,
	)
	if err != nil {
		return fmt.Errorf("bind queue: %w", err)
	}

	return nil
}

// PublishTransactionSync asks the mirror worker to sync one transaction.
func (c *Client) PublishTransactionSync(ctx context.Context, id string) error {
	body, err := newEnvelope(KindTransactionSync, TransactionSyncMessage{ID: id})
	if err != nil {
		return err
	}
	if err := c.publish(ctx, body); err != nil {
		return err
	}

	slog.InfoContext(ctx, "Published transaction sync message",
		"id", id,
		"exchange", c.exchangeName,
		"queue", c.queueName)
	return nil
}

// PublishTransactionDelete tells the mirror worker to drop a transaction
// that no longer exists locally.
func (c *Client) PublishTransactionDelete(ctx context.Context, t core.Transaction) error {
	body, err := newEnvelope(KindTransactionDelete, TransactionDeleteMessage{
		ID:          t.ID,
		UserID:      t.UserID,
		Description: t.Description,
		Amount:      t.Amount.String(),
		Category:    t.Category,
		Date:        t.Date.Format("2006-01-02"),
	})
	if err != nil {
		return err
	}
	if err := c.publish(ctx, body); err != nil {
		return err
	}

	slog.InfoContext(ctx, "Published transaction delete message", "id", t.ID)
	return nil
}

// PublishBudgetAlert reports a budget that crossed its limit.
func (c *Client) PublishBudgetAlert(ctx context.Context, b core.Budget) error {
	body, err := newEnvelope(KindBudgetAlert, BudgetAlertMessage{
		BudgetID: b.ID,
		UserID:   b.UserID,
		Category: b.Category,
		Limit:    b.Amount.String(),
		Spent:    b.Spent.String(),
		Currency: b.Currency,
	})
	if err != nil {
		return err
	}
	if err := c.publish(ctx, body); err != nil {
		return err
	}

	slog.WarnContext(ctx, "Published budget alert message",
		"budget_id", b.ID,
		"category", b.Category,
		"spent", b.Spent.String(),
		"limit", b.Amount.String())
	return nil
}

func (c *Client) publish(ctx context.Context, body []byte) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	err := c.channel.PublishWithContext(
		ctx,
		c.exchangeName, // exchange
		c.queueName,    // routing key
		false,          // mandatory
		false,          // immediate
		amqp091.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp091.Persistent,
			Timestamp:    time.Now(),
			Body:         body,
		},
	)
	if err != nil {
		return fmt.Errorf("publish message: %w", err)
	}
	return nil
}

// MirrorHandler receives decoded queue messages, one method per kind.
type MirrorHandler interface {
	HandleSync(ctx context.Context, msg TransactionSyncMessage) error
	HandleDelete(ctx context.Context, msg TransactionDeleteMessage) error
	HandleAlert(ctx context.Context, msg BudgetAlertMessage) error
}

// ConsumeMirrorMessages blocks consuming the queue until ctx is cancelled.
// Undecodable messages are rejected without requeue; handler failures are
// requeued for another attempt.
func (c *Client) ConsumeMirrorMessages(ctx context.Context, handler MirrorHandler) error {
	msgs, err := c.channel.Consume(
		c.queueName, // queue
		"",          // consumer
		false,       // auto-ack (we want manual ack)
		false,       // exclusive
		false,       // no-local
		false,       // no-wait
		nil,         // args
	)
	if err != nil {
		return fmt.Errorf("start consuming: %w", err)
	}

	slog.InfoContext(ctx, "Started consuming mirror messages", "queue", c.queueName)

	for {
		select {
		case <-ctx.Done():
			slog.InfoContext(ctx, "Stopping message consumption", "reason", ctx.Err())
			return ctx.Err()
		case delivery, ok := <-msgs:
			if !ok {
				return fmt.Errorf("message channel closed")
			}

			env, err := envelopeFromJSON(delivery.Body)
			if err != nil {
				slog.ErrorContext(ctx, "Failed to unmarshal envelope", "error", err)
				delivery.Nack(false, false) // reject and don't requeue
				continue
			}

			if err := dispatch(ctx, handler, env); err != nil {
				slog.ErrorContext(ctx, "Failed to handle message",
					"kind", env.Kind,
					"error", err)
				delivery.Nack(false, true) // reject and requeue
				continue
			}

			delivery.Ack(false)
			slog.InfoContext(ctx, "Processed mirror message", "kind", env.Kind)
		}
	}
}

func dispatch(ctx context.Context, handler MirrorHandler, env *Envelope) error {
	switch env.Kind {
	case KindTransactionSync:
		var msg TransactionSyncMessage
		if err := json.Unmarshal(env.Payload, &msg); err != nil {
			return fmt.Errorf("decode sync payload: %w", err)
		}
		return handler.HandleSync(ctx, msg)
	case KindTransactionDelete:
		var msg TransactionDeleteMessage
		if err := json.Unmarshal(env.Payload, &msg); err != nil {
			return fmt.Errorf("decode delete payload: %w", err)
		}
		return handler.HandleDelete(ctx, msg)
	case KindBudgetAlert:
		var msg BudgetAlertMessage
		if err := json.Unmarshal(env.Payload, &msg); err != nil {
			return fmt.Errorf("decode alert payload: %w", err)
		}
		return handler.HandleAlert(ctx, msg)
	default:
		return fmt.Errorf("unknown message kind: %s", env.Kind)
	}
}

func (c *Client) Close() error {
	if c.channel != nil {
		c.channel.Close()
	}
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}
