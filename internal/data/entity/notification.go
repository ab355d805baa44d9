package entity

import (
	"github.com/google/uuid"
)

type NotificationType string

const (
	NotificationTypeReservationConfirmed NotificationType = "reservation_confirmed"
	NotificationTypeOwnerAlert           NotificationType = "owner_alert"
)

// Notification is an in-app notification row written by the dispatcher
// on confirmation and deleted when its reservation is deleted.
type Notification struct {
	BaseSimple
	UserID        uuid.UUID        `db:"user_id"`
	ReservationID uuid.UUID        `db:"reservation_id"`
	Type          NotificationType `db:"type"`
	Message       string           `db:"message"`
	IsRead        bool             `db:"is_read"`
}
