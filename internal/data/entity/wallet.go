package entity

import (
	"github.com/google/uuid"
)

// Wallet holds a user's internal credit balance. Wallet-paid
// reservations are refunded back into it on cancellation.
type Wallet struct {
	BaseNoDelete
	UserID  uuid.UUID `db:"user_id"`
	Balance float64   `db:"balance"`
}
