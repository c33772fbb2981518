package eventbus

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// ExchangeName is the topic exchange booking events are published to.
const ExchangeName = "driverapp.booking.events"

type amqpSession struct {
	conn    *amqp.Connection
	channel *amqp.Channel
}

func dialExchange(url, exchange string) (*amqpSession, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("connect to rabbitmq: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}
	if err := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("declare exchange %s: %w", exchange, err)
	}
	return &amqpSession{conn: conn, channel: ch}, nil
}

func (s *amqpSession) close() error {
	chErr := s.channel.Close()
	if err := s.conn.Close(); err != nil && !errors.Is(err, amqp.ErrClosed) {
		return err
	}
	if chErr != nil && !errors.Is(chErr, amqp.ErrClosed) {
		return chErr
	}
	return nil
}

// RabbitMQPublisher publishes persistent JSON messages to the topic exchange.
type RabbitMQPublisher struct {
	mu      sync.Mutex
	session *amqpSession
	logger  *zap.Logger
}

// NewRabbitMQPublisher dials url and declares the exchange.
func NewRabbitMQPublisher(url string, logger *zap.Logger) (*RabbitMQPublisher, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	session, err := dialExchange(url, ExchangeName)
	if err != nil {
		return nil, err
	}
	logger.Info("rabbitmq publisher connected", zap.String("exchange", ExchangeName))
	return &RabbitMQPublisher{session: session, logger: logger}, nil
}

// Publish sends body with routingKey. amqp channels are not safe for
// concurrent publishing, hence the mutex.
func (p *RabbitMQPublisher) Publish(ctx context.Context, routingKey string, body []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	err := p.session.channel.PublishWithContext(ctx, ExchangeName, routingKey, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	})
	if err != nil {
		return fmt.Errorf("publish %s: %w", routingKey, err)
	}
	return nil
}

// Close closes the channel and connection.
func (p *RabbitMQPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.session.close()
}

// RabbitMQConsumer feeds a durable queue bound to the registry's routing keys
// into the registry.
type RabbitMQConsumer struct {
	session  *amqpSession
	queue    string
	registry *Registry
	logger   *zap.Logger
}

// NewRabbitMQConsumer declares queue and binds it to every routing key known
// to registry at call time.
func NewRabbitMQConsumer(url, queue string, registry *Registry, logger *zap.Logger) (*RabbitMQConsumer, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	session, err := dialExchange(url, ExchangeName)
	if err != nil {
		return nil, err
	}
	if _, err := session.channel.QueueDeclare(queue, true, false, false, false, nil); err != nil {
		_ = session.close()
		return nil, fmt.Errorf("declare queue %s: %w", queue, err)
	}
	for _, key := range registry.RoutingKeys() {
		if err := session.channel.QueueBind(queue, key, ExchangeName, false, nil); err != nil {
			_ = session.close()
			return nil, fmt.Errorf("bind %s to %s: %w", queue, key, err)
		}
	}
	return &RabbitMQConsumer{session: session, queue: queue, registry: registry, logger: logger}, nil
}

// Run consumes until ctx is done or the delivery channel closes.
// Messages whose handlers fail are requeued once, then dropped.
func (c *RabbitMQConsumer) Run(ctx context.Context) error {
	if err := c.session.channel.Qos(1, 0, false); err != nil {
		return fmt.Errorf("set qos: %w", err)
	}
	deliveries, err := c.session.channel.Consume(c.queue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("consume %s: %w", c.queue, err)
	}
	c.logger.Info("rabbitmq consumer started", zap.String("queue", c.queue))

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok := <-deliveries:
			if !ok {
				return errors.New("rabbitmq delivery channel closed")
			}
			c.handle(ctx, d)
		}
	}
}

func (c *RabbitMQConsumer) handle(ctx context.Context, d amqp.Delivery) {
	var env Envelope
	if err := json.Unmarshal(d.Body, &env); err != nil {
		c.logger.Error("dropping undecodable message", zap.String("routing_key", d.RoutingKey), zap.Error(err))
		_ = d.Nack(false, false)
		return
	}
	if env.RoutingKey == "" {
		env.RoutingKey = d.RoutingKey
	}
	if err := c.registry.Dispatch(ctx, &env); err != nil {
		_ = d.Nack(false, !d.Redelivered)
		return
	}
	_ = d.Ack(false)
}

// Close closes the channel and connection.
func (c *RabbitMQConsumer) Close() error {
	return c.session.close()
}
