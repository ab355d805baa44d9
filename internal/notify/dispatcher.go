// Package notify implements the best-effort side effects fired once per
// confirmed reservation: guest and owner emails, a durable queue event,
// and in-app notification rows. Deliveries are fire-and-forget by
// contract: failures are logged and swallowed, never retried inline,
// and never surfaced to the payment flow.
package notify

import (
	"context"
	"fmt"
	"time"

	"travel-booking/internal/data/entity"
	"travel-booking/internal/data/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ConfirmedEvent carries everything downstream channels need without
// re-querying the primary store.
type ConfirmedEvent struct {
	ReservationID uuid.UUID `json:"reservation_id"`
	OrderRef      string    `json:"order_ref"`
	GuestID       uuid.UUID `json:"guest_id"`
	GuestEmail    string    `json:"guest_email"`
	GuestName     string    `json:"guest_name"`
	OwnerID       uuid.UUID `json:"owner_id"`
	OwnerEmail    string    `json:"owner_email"`
	SubjectTitle  string    `json:"subject_title"`
	TotalPrice    float64   `json:"total_price"`
	PaidAt        time.Time `json:"paid_at"`
}

// Dispatcher is the contract the reconciliation flow calls exactly once
// per confirmation.
type Dispatcher interface {
	ReservationConfirmed(evt ConfirmedEvent)
}

type dispatcher struct {
	mailer        *Mailer
	queue         *Publisher
	notifications repository.NotificationRepository
	log           *zap.Logger
}

func NewDispatcher(mailer *Mailer, queue *Publisher, notifications repository.NotificationRepository, log *zap.Logger) Dispatcher {
	return &dispatcher{
		mailer:        mailer,
		queue:         queue,
		notifications: notifications,
		log:           log.With(zap.String("component", "notify")),
	}
}

// ReservationConfirmed fans out on its own goroutine with a detached
// timeout context so a slow mail or broker call never blocks the
// request that confirmed the reservation.
func (d *dispatcher) ReservationConfirmed(evt ConfirmedEvent) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := d.mailer.SendGuestConfirmation(evt); err != nil {
			d.log.Error("Failed to send guest confirmation email",
				zap.Error(err),
				zap.String("reservation_id", evt.ReservationID.String()),
			)
		}

		if err := d.mailer.SendPaymentReceipt(evt); err != nil {
			d.log.Error("Failed to send payment receipt email",
				zap.Error(err),
				zap.String("reservation_id", evt.ReservationID.String()),
			)
		}

		if err := d.mailer.SendOwnerAlert(evt); err != nil {
			d.log.Error("Failed to send owner alert email",
				zap.Error(err),
				zap.String("reservation_id", evt.ReservationID.String()),
			)
		}

		if err := d.queue.PublishReservationConfirmed(ctx, evt); err != nil {
			d.log.Error("Failed to publish confirmation event",
				zap.Error(err),
				zap.String("reservation_id", evt.ReservationID.String()),
			)
		}

		d.createInAppNotifications(ctx, evt)

		d.log.Info("Confirmation notifications dispatched",
			zap.String("reservation_id", evt.ReservationID.String()),
			zap.String("order_ref", evt.OrderRef),
		)
	}()
}

func (d *dispatcher) createInAppNotifications(ctx context.Context, evt ConfirmedEvent) {
	now := time.Now()

	guestNote := &entity.Notification{
		BaseSimple: entity.BaseSimple{
			ID:        uuid.New(),
			CreatedAt: now,
		},
		UserID:        evt.GuestID,
		ReservationID: evt.ReservationID,
		Type:          entity.NotificationTypeReservationConfirmed,
		Message:       fmt.Sprintf("Your reservation %s for %s is confirmed", evt.OrderRef, evt.SubjectTitle),
	}

	if err := d.notifications.Create(ctx, guestNote); err != nil {
		d.log.Error("Failed to create guest notification",
			zap.Error(err),
			zap.String("reservation_id", evt.ReservationID.String()),
		)
	}

	ownerNote := &entity.Notification{
		BaseSimple: entity.BaseSimple{
			ID:        uuid.New(),
			CreatedAt: now,
		},
		UserID:        evt.OwnerID,
		ReservationID: evt.ReservationID,
		Type:          entity.NotificationTypeOwnerAlert,
		Message:       fmt.Sprintf("%s has a new paid reservation (%s)", evt.SubjectTitle, evt.OrderRef),
	}

	if err := d.notifications.Create(ctx, ownerNote); err != nil {
		d.log.Error("Failed to create owner notification",
			zap.Error(err),
			zap.String("reservation_id", evt.ReservationID.String()),
		)
	}
}
