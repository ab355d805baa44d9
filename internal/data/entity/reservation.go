package entity

import (
	"time"

	"github.com/google/uuid"
)

type ReservationStatus string

const (
	ReservationStatusPending   ReservationStatus = "pending"
	ReservationStatusConfirmed ReservationStatus = "confirmed"
	ReservationStatusCancelled ReservationStatus = "cancelled"
)

func (s ReservationStatus) Valid() bool {
	switch s {
	case ReservationStatusPending, ReservationStatusConfirmed, ReservationStatusCancelled:
		return true
	}
	return false
}

type PaymentStatus string

const (
	PaymentStatusPending       PaymentStatus = "pending"
	PaymentStatusPaid          PaymentStatus = "paid"
	PaymentStatusFailed        PaymentStatus = "failed"
	PaymentStatusRefunded      PaymentStatus = "refunded"
	PaymentStatusRefundPending PaymentStatus = "refund_pending"
)

func (s PaymentStatus) Valid() bool {
	switch s {
	case PaymentStatusPending, PaymentStatusPaid, PaymentStatusFailed,
		PaymentStatusRefunded, PaymentStatusRefundPending:
		return true
	}
	return false
}

type PaymentMethod string

const (
	PaymentMethodCheckout PaymentMethod = "checkout"
	PaymentMethodOrders   PaymentMethod = "orders"
	PaymentMethodWallet   PaymentMethod = "wallet"
)

func (m PaymentMethod) Valid() bool {
	switch m {
	case PaymentMethodCheckout, PaymentMethodOrders, PaymentMethodWallet:
		return true
	}
	return false
}

// Reservation correlates a requester, a subject, a temporal extent and
// payment state. The temporal extent is variant-dependent: stays and
// vehicles carry a [StartDate, EndDate) range, dining carries a single
// DiningDate plus DiningTime slot.
//
// ExternalSessionID/ExternalOrderID are stable correlation keys: set at
// most once (first write wins) so an asynchronous processor callback can
// always be resolved back to the same reservation.
type Reservation struct {
	Base
	OrderRef   string      `db:"order_ref"`
	UserID     uuid.UUID   `db:"user_id"`
	SubjectID  uuid.UUID   `db:"subject_id"`
	Kind       SubjectKind `db:"subject_kind"`
	StartDate  *time.Time  `db:"start_date"`
	EndDate    *time.Time  `db:"end_date"`
	DiningDate *time.Time  `db:"dining_date"`
	DiningTime *string     `db:"dining_time"`
	GuestCount int         `db:"guest_count"`
	TotalPrice float64     `db:"total_price"`

	Status        ReservationStatus `db:"status"`
	PaymentStatus PaymentStatus     `db:"payment_status"`
	IsPaid        bool              `db:"is_paid"`
	PaymentMethod *PaymentMethod    `db:"payment_method"`

	ExternalSessionID  *string    `db:"external_session_id"`
	ExternalOrderID    *string    `db:"external_order_id"`
	ExternalPaymentRef *string    `db:"external_payment_ref"`
	RefundNote         *string    `db:"refund_note"`
	PaymentDate        *time.Time `db:"payment_date"`
}
