package rabbitmq

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/apex/log"
	"github.com/cenkalti/backoff/v4"
	"github.com/streadway/amqp"
)

const publishTimeout = 30 * time.Second

// Publisher sends audit trail events to a direct exchange.
type Publisher struct {
	mu            sync.Mutex
	amqpURL       string
	conn          *amqp.Connection
	channel       *amqp.Channel
	exchange      string
	routingPrefix string
	connectPolicy func(ctx context.Context) backoff.BackOff
}

// NewPublisher dials the broker, retrying with exponential backoff for up to connectWindow.
func NewPublisher(amqpURL, exchangeName, routingPrefix string, connectWindow time.Duration) (*Publisher, error) {
	p := &Publisher{
		amqpURL:       amqpURL,
		exchange:      exchangeName,
		routingPrefix: routingPrefix,
		connectPolicy: func(ctx context.Context) backoff.BackOff {
			b := backoff.NewExponentialBackOff()
			b.InitialInterval = 500 * time.Millisecond
			b.MaxInterval = 10 * time.Second
			b.MaxElapsedTime = connectWindow
			return backoff.WithContext(b, ctx)
		},
	}

	ctx, cancel := context.WithTimeout(context.Background(), connectWindow+time.Second)
	defer cancel()

	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.connectWithRetryLocked(ctx); err != nil {
		return nil, err
	}
	return p, nil
}

// PublishEvent sends the event with routing key "<prefix>.<event type>".
func (p *Publisher) PublishEvent(event AuditEvent) error {
	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()

	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event to JSON: %w", err)
	}

	publishing := amqp.Publishing{
		ContentType:  "application/json",
		Body:         body,
		DeliveryMode: amqp.Persistent,
		Timestamp:    event.Timestamp,
		MessageId:    event.SessionID,
	}

	return p.publish(ctx, p.routingKey(event.Type), publishing)
}

func (p *Publisher) routingKey(eventType string) string {
	if p.routingPrefix == "" {
		return eventType
	}
	return p.routingPrefix + "." + eventType
}

// Close closes the publisher connection and channel
func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	var err error
	if p.channel != nil {
		if channelErr := p.channel.Close(); channelErr != nil {
			log.Warnf("Failed to close channel: %v", channelErr)
			err = channelErr
		}
	}
	if p.conn != nil {
		if connErr := p.conn.Close(); connErr != nil {
			log.Warnf("Failed to close connection: %v", connErr)
			if err == nil {
				err = connErr
			}
		}
	}
	return err
}

// IsConnected indicates whether the publisher currently has an open connection/channel.
func (p *Publisher) IsConnected() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.conn != nil && !p.conn.IsClosed() && p.channel != nil
}

func (p *Publisher) connectWithRetryLocked(ctx context.Context) error {
	attempt := 0
	return backoff.Retry(func() error {
		attempt++
		err := p.connectLocked()
		if err != nil {
			log.WithFields(log.Fields{
				"attempt":  attempt,
				"exchange": p.exchange,
			}).WithError(err).Warn("trail.connect.retry")
		}
		return err
	}, p.connectPolicy(ctx))
}

func (p *Publisher) connectLocked() error {
	conn, err := amqp.Dial(p.amqpURL)
	if err != nil {
		return fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return fmt.Errorf("failed to open channel: %w", err)
	}

	if err := ch.ExchangeDeclare(
		p.exchange,
		"direct",
		true,
		false,
		false,
		false,
		nil,
	); err != nil {
		ch.Close()
		conn.Close()
		return fmt.Errorf("failed to declare exchange: %w", err)
	}

	p.conn = conn
	p.channel = ch
	return nil
}

func (p *Publisher) closeLocked() {
	if p.channel != nil {
		_ = p.channel.Close()
		p.channel = nil
	}
	if p.conn != nil {
		_ = p.conn.Close()
		p.conn = nil
	}
}

func isConnClosedErr(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, amqp.ErrClosed) {
		return true
	}
	return strings.Contains(err.Error(), "channel/connection is not open")
}

func (p *Publisher) publish(ctx context.Context, routingKey string, publishing amqp.Publishing) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.conn == nil || p.conn.IsClosed() || p.channel == nil {
		p.closeLocked()
		if err := p.connectWithRetryLocked(ctx); err != nil {
			return err
		}
	}

	err := p.channel.Publish(p.exchange, routingKey, false, false, publishing)
	if err != nil && isConnClosedErr(err) {
		p.closeLocked()
		if connErr := p.connectWithRetryLocked(ctx); connErr != nil {
			return fmt.Errorf("failed to publish event: %w (reconnect failed: %v)", err, connErr)
		}
		err = p.channel.Publish(p.exchange, routingKey, false, false, publishing)
	}
	if err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}
	return nil
}
