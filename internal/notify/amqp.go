// AngelaMos | 2026
// amqp.go

package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/streadway/amqp"
)

// Connect dials the broker, retrying a few times while it starts up.
func Connect(url string, retries int, backoff time.Duration) (*amqp.Connection, error) {
	var lastErr error
	for attempt := 0; attempt <= retries; attempt++ {
		conn, err := amqp.Dial(url)
		if err == nil {
			return conn, nil
		}
		lastErr = err
		time.Sleep(backoff)
	}
	return nil, fmt.Errorf("dial amqp after %d attempts: %w", retries+1, lastErr)
}

// DeclareTopology sets up the durable direct exchange and queue used for
// email jobs. The queue name doubles as the routing key.
func DeclareTopology(ch *amqp.Channel, exchange, queue string, prefetch int) error {
	if err := ch.ExchangeDeclare(exchange, "direct", true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare exchange: %w", err)
	}

	if _, err := ch.QueueDeclare(queue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare queue: %w", err)
	}

	if err := ch.QueueBind(queue, queue, exchange, false, nil); err != nil {
		return fmt.Errorf("bind queue: %w", err)
	}

	if prefetch > 0 {
		if err := ch.Qos(prefetch, 0, false); err != nil {
			return fmt.Errorf("set qos: %w", err)
		}
	}

	return nil
}

type amqpChannel interface {
	Publish(exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

// QueuePublisher hands messages to the mailer worker through RabbitMQ.
type QueuePublisher struct {
	mu         sync.Mutex
	ch         amqpChannel
	exchange   string
	routingKey string
}

func NewQueuePublisher(ch amqpChannel, exchange, routingKey string) *QueuePublisher {
	return &QueuePublisher{ch: ch, exchange: exchange, routingKey: routingKey}
}

func (p *QueuePublisher) Send(_ context.Context, msg Message) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("encode email job: %w", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	err = p.ch.Publish(p.exchange, p.routingKey, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now(),
		Body:         body,
	})
	if err != nil {
		return fmt.Errorf("publish email job: %w", err)
	}

	return nil
}

var errUndecodable = errors.New("undecodable email job")

// HandleDelivery decodes one queued job and sends it. Jobs that cannot be
// decoded are dropped; delivery failures are requeued once.
func HandleDelivery(ctx context.Context, d amqp.Delivery, sender Dispatcher, logger *slog.Logger) {
	err := deliver(ctx, d.Body, sender)
	switch {
	case err == nil:
		if ackErr := d.Ack(false); ackErr != nil {
			logger.Error("ack email job", "error", ackErr)
		}
	case errors.Is(err, errUndecodable):
		logger.Error("dropping email job", "error", err)
		if nackErr := d.Nack(false, false); nackErr != nil {
			logger.Error("nack email job", "error", nackErr)
		}
	default:
		requeue := !d.Redelivered
		logger.Warn("email delivery failed",
			"error", err,
			"requeue", requeue,
		)
		if nackErr := d.Nack(false, requeue); nackErr != nil {
			logger.Error("nack email job", "error", nackErr)
		}
	}
}

func deliver(ctx context.Context, body []byte, sender Dispatcher) error {
	var msg Message
	if err := json.Unmarshal(body, &msg); err != nil {
		return fmt.Errorf("%w: %w", errUndecodable, err)
	}
	if msg.To == "" || msg.Template == "" {
		return fmt.Errorf("%w: missing recipient or template", errUndecodable)
	}
	return sender.Send(ctx, msg)
}

// Consume processes queued jobs with at most workers in flight until ctx
// is cancelled or the channel closes.
func Consume(
	ctx context.Context,
	ch *amqp.Channel,
	queue string,
	workers int,
	sender Dispatcher,
	logger *slog.Logger,
) error {
	deliveries, err := ch.Consume(queue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("consume %s: %w", queue, err)
	}

	if workers < 1 {
		workers = 1
	}
	sem := make(chan struct{}, workers)
	var wg sync.WaitGroup
	defer wg.Wait()

	for {
		select {
		case <-ctx.Done():
			return nil
		case d, ok := <-deliveries:
			if !ok {
				return fmt.Errorf("consume %s: delivery channel closed", queue)
			}
			sem <- struct{}{}
			wg.Add(1)
			go func(d amqp.Delivery) {
				defer wg.Done()
				defer func() { <-sem }()
				HandleDelivery(ctx, d, sender, logger)
			}(d)
		}
	}
}
