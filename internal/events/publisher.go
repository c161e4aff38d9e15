// Package events publishes domain events to a durable topic exchange and
// fans the same envelope out to sibling services over HTTP. Delivery is
// at-most-once: there is no retry queue and no acknowledgment tracking.
package events

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gourab8389/e-commerce-order-server/internal/domain"
	"github.com/gourab8389/e-commerce-order-server/pkg/applog"
	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

const (
	ExchangeName = "order-events"
	ServiceName  = "order-service"

	siblingTimeout = 10 * time.Second
)

// exchangeChannel is the slice of *amqp.Channel the publisher needs.
type exchangeChannel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

type Publisher struct {
	url      string
	siblings []string

	conn    *amqp.Connection
	channel exchangeChannel

	httpClient *http.Client
	logger     *zap.Logger
}

// NewPublisher builds a publisher for the given broker URL and sibling
// base URLs. Call Connect before publishing; until then (and after a
// failed Connect) every exchange publish is a logged no-op.
func NewPublisher(url string, siblings []string, logger *zap.Logger) *Publisher {
	return &Publisher{
		url:      url,
		siblings: siblings,
		httpClient: &http.Client{
			Timeout: siblingTimeout,
		},
		logger: logger,
	}
}

// Connect dials the broker and declares the durable topic exchange.
// Connection failure is logged, not returned: the host process keeps
// running without the exchange. There is no automatic reconnection.
func (p *Publisher) Connect(ctx context.Context) {
	conn, err := amqp.Dial(p.url)
	if err != nil {
		applog.Error(ctx, p.logger, "rabbitmq connection failed", zap.Error(err))
		return
	}

	channel, err := conn.Channel()
	if err != nil {
		applog.Error(ctx, p.logger, "rabbitmq channel open failed", zap.Error(err))
		_ = conn.Close()
		return
	}

	if err := channel.ExchangeDeclare(
		ExchangeName,
		"topic",
		true,  // durable
		false, // auto-delete
		false, // internal
		false, // no-wait
		nil,
	); err != nil {
		applog.Error(ctx, p.logger, "exchange declare failed", zap.Error(err))
		_ = channel.Close()
		_ = conn.Close()
		return
	}

	p.conn = conn
	p.channel = channel

	applog.Info(ctx, p.logger, "rabbitmq connected", zap.String("exchange", ExchangeName))
}

// Publish wraps data in the event envelope and delivers it twice over:
// once to the exchange under a routing key equal to the event type, and
// once to each configured sibling. All deliveries run concurrently and
// every failure is swallowed after logging; the call returns when the
// last attempt has settled.
func (p *Publisher) Publish(ctx context.Context, eventType domain.EventType, data any) {
	envelope := domain.Envelope{
		Type:      eventType,
		Data:      data,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Service:   ServiceName,
	}

	body, err := json.Marshal(envelope)
	if err != nil {
		applog.Error(ctx, p.logger, "event envelope marshal failed",
			zap.String("event_type", string(eventType)),
			zap.Error(err),
		)
		return
	}

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		p.publishToExchange(ctx, string(eventType), body)
	}()

	for _, sibling := range p.siblings {
		wg.Add(1)
		go func(base string) {
			defer wg.Done()
			p.notifySibling(ctx, base, string(eventType), body)
		}(sibling)
	}

	wg.Wait()

	applog.Debug(ctx, p.logger, "event published",
		zap.String("event_type", string(eventType)),
		zap.Int("siblings", len(p.siblings)),
	)
}

func (p *Publisher) publishToExchange(ctx context.Context, routingKey string, body []byte) {
	if p.channel == nil {
		applog.Error(ctx, p.logger, "rabbitmq channel is not initialized, skipping exchange publish",
			zap.String("routing_key", routingKey),
		)
		return
	}

	err := p.channel.PublishWithContext(
		ctx,
		ExchangeName,
		routingKey,
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Body:         body,
		},
	)
	if err != nil {
		applog.Error(ctx, p.logger, "exchange publish failed",
			zap.String("routing_key", routingKey),
			zap.Error(err),
		)
		return
	}

	applog.Debug(ctx, p.logger, "message published to exchange", zap.String("routing_key", routingKey))
}

func (p *Publisher) notifySibling(ctx context.Context, base, eventType string, body []byte) {
	url := base + "/events"

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		applog.Warn(ctx, p.logger, "sibling request build failed", zap.String("url", url), zap.Error(err))
		return
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		applog.Warn(ctx, p.logger, "failed to send event to sibling service",
			zap.String("url", url),
			zap.String("event_type", eventType),
			zap.Error(err),
		)
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusMultipleChoices {
		applog.Warn(ctx, p.logger, "sibling service rejected event",
			zap.String("url", url),
			zap.String("event_type", eventType),
			zap.Int("status", resp.StatusCode),
		)
	}
}

func (p *Publisher) Close() error {
	var channelErr, connErr error

	if p.channel != nil {
		channelErr = p.channel.Close()
		p.channel = nil
	}
	if p.conn != nil {
		connErr = p.conn.Close()
		p.conn = nil
	}

	if channelErr != nil {
		return fmt.Errorf("closing channel: %w", channelErr)
	}
	if connErr != nil {
		return fmt.Errorf("closing connection: %w", connErr)
	}
	return nil
}
