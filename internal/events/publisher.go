// Package events publishes delivery reports for downstream consumers (admin
// dashboard, analytics). Publishing is strictly fire-and-forget: a broker
// outage must never change a delivery outcome.
package events

import (
	"encoding/json"
	"time"

	"github.com/rs/zerolog"
	"github.com/streadway/amqp"
)

const (
	KindDripStep      = "drip_step"
	KindScheduledSend = "scheduled_send"
)

// DeliveryReport describes one dispatch outcome: a drip step's chunk batch
// for one step, or a single scheduled send.
type DeliveryReport struct {
	Kind       string    `json:"kind"`
	EntityID   string    `json:"entity_id"`
	Recipients int       `json:"recipients"`
	Succeeded  bool      `json:"succeeded"`
	Error      string    `json:"error,omitempty"`
	At         time.Time `json:"at"`
}

type Publisher interface {
	Publish(report DeliveryReport)
}

// AMQPPublisher fans delivery reports out on a durable exchange.
type AMQPPublisher struct {
	conn     *amqp.Connection
	ch       *amqp.Channel
	exchange string
	log      zerolog.Logger
}

func NewAMQPPublisher(url string, log zerolog.Logger) (*AMQPPublisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, err
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, err
	}
	const exchange = "delivery_reports"
	if err := ch.ExchangeDeclare(exchange, "fanout", true, false, false, false, nil); err != nil {
		ch.Close()
		conn.Close()
		return nil, err
	}
	return &AMQPPublisher{conn: conn, ch: ch, exchange: exchange, log: log}, nil
}

func (p *AMQPPublisher) Publish(report DeliveryReport) {
	body, err := json.Marshal(report)
	if err != nil {
		p.log.Warn().Err(err).Msg("failed to encode delivery report")
		return
	}
	err = p.ch.Publish(p.exchange, "", false, false, amqp.Publishing{
		ContentType: "application/json",
		Body:        body,
	})
	if err != nil {
		p.log.Warn().Err(err).Str("entity", report.EntityID).Msg("failed to publish delivery report")
	}
}

func (p *AMQPPublisher) Close() {
	if p.ch != nil {
		p.ch.Close()
	}
	if p.conn != nil {
		p.conn.Close()
	}
}

// LogPublisher is the fallback when no broker is configured.
type LogPublisher struct {
	Log zerolog.Logger
}

func (p *LogPublisher) Publish(report DeliveryReport) {
	p.Log.Debug().
		Str("kind", report.Kind).
		Str("entity", report.EntityID).
		Int("recipients", report.Recipients).
		Bool("succeeded", report.Succeeded).
		Msg("delivery report")
}

var (
	_ Publisher = (*AMQPPublisher)(nil)
	_ Publisher = (*LogPublisher)(nil)
)
