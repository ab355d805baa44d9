package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"travel-booking/pkg/utils"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

const confirmedQueue = "reservation.confirmed"

// Publisher pushes confirmation events onto a durable queue for
// downstream consumers (analytics, push notifications). A failed broker
// connection at startup degrades the publisher to a logged no-op.
type Publisher struct {
	conn    *amqp.Connection
	channel *amqp.Channel
	log     *zap.Logger
}

func NewPublisher(config utils.QueueConfig, log *zap.Logger) *Publisher {
	p := &Publisher{log: log.With(zap.String("component", "queue"))}

	conn, err := amqp.Dial(config.URL)
	if err != nil {
		p.log.Warn("Broker unavailable, event publishing disabled", zap.Error(err))
		return p
	}

	ch, err := conn.Channel()
	if err != nil {
		p.log.Warn("Broker channel open failed, event publishing disabled", zap.Error(err))
		conn.Close()
		return p
	}

	// Durable so events survive broker restarts.
	if _, err := ch.QueueDeclare(confirmedQueue, true, false, false, false, nil); err != nil {
		p.log.Warn("Queue declare failed, event publishing disabled", zap.Error(err))
		ch.Close()
		conn.Close()
		return p
	}

	p.conn = conn
	p.channel = ch
	return p
}

func (p *Publisher) PublishReservationConfirmed(ctx context.Context, evt ConfirmedEvent) error {
	if p.channel == nil {
		p.log.Debug("Event publishing disabled, skipping",
			zap.String("reservation_id", evt.ReservationID.String()),
		)
		return nil
	}

	body, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("marshal confirmation event: %w", err)
	}

	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	}

	if err := p.channel.PublishWithContext(ctx, "", confirmedQueue, false, false, pub); err != nil {
		return fmt.Errorf("publish confirmation event: %w", err)
	}

	return nil
}

func (p *Publisher) Close() {
	if p.channel != nil {
		p.channel.Close()
	}
	if p.conn != nil {
		p.conn.Close()
	}
}
