// Package events publishes moderation audit events to RabbitMQ.
package events

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"report-bot/config"

	"github.com/pkg/errors"
	amqp "github.com/rabbitmq/amqp091-go"
	log "github.com/sirupsen/logrus"
)

const (
	TicketOpened   = "ticket.opened"
	ReportApproved = "report.approved"
	ReportRejected = "report.rejected"
	TicketClosed   = "ticket.closed"
	BanRemoved     = "ban.removed"
)

type Event struct {
	Type       string    `json:"type"`
	ChannelID  string    `json:"channel_id,omitempty"`
	ReporterID string    `json:"reporter_id,omitempty"`
	TargetID   string    `json:"target_id,omitempty"`
	StaffID    string    `json:"staff_id,omitempty"`
	Reason     string    `json:"reason,omitempty"`
	At         time.Time `json:"at"`
}

type Publisher interface {
	Publish(ctx context.Context, ev Event) error
	Close() error
}

// Noop drops every event.
type Noop struct{}

func (Noop) Publish(context.Context, Event) error { return nil }
func (Noop) Close() error                         { return nil }

func New(cfg *config.EventsConfig) (Publisher, error) {
	if !cfg.Enabled {
		return Noop{}, nil
	}
	p, err := Dial(cfg.AMQPURL, cfg.Exchange, cfg.RoutingKey)
	if err != nil {
		return nil, err
	}
	log.Printf("[Events] Publishing to exchange %q", cfg.Exchange)
	return p, nil
}

type AMQPPublisher struct {
	mu       sync.Mutex
	conn     *amqp.Connection
	ch       *amqp.Channel
	exchange string
	key      string
}

func Dial(url, exchange, routingKey string) (*AMQPPublisher, error) {
	if url == "" {
		return nil, errors.New("events.amqp_url must be set when events are enabled")
	}
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, errors.Wrap(err, "amqp dial")
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, errors.Wrap(err, "amqp channel")
	}
	if err := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		_ = conn.Close()
		return nil, errors.Wrapf(err, "declare exchange %s", exchange)
	}
	return &AMQPPublisher{conn: conn, ch: ch, exchange: exchange, key: routingKey}, nil
}

func (p *AMQPPublisher) Publish(ctx context.Context, ev Event) error {
	if ev.At.IsZero() {
		ev.At = time.Now().UTC()
	}
	body, err := json.Marshal(ev)
	if err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	return p.ch.PublishWithContext(ctx, p.exchange, RoutingKey(p.key, ev.Type), false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    ev.At,
		Type:         ev.Type,
		Body:         body,
	})
}

func (p *AMQPPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	_ = p.ch.Close()
	return p.conn.Close()
}

// RoutingKey joins the configured prefix and the event type.
func RoutingKey(prefix, eventType string) string {
	if prefix == "" {
		return eventType
	}
	return prefix + "." + eventType
}
