// Package payment abstracts the external payment processors behind a
// single Gateway contract. Two processor styles exist: a hosted
// redirect-checkout processor and an order/signature processor. Both are
// normalized into the same session/status/reference tuple so the
// reconciliation flow never branches on processor identity.
package payment

import (
	"context"
	"errors"
)

// SessionStatus is the processor-agnostic payment state of a session.
type SessionStatus string

const (
	SessionStatusPending SessionStatus = "pending"
	SessionStatusPaid    SessionStatus = "paid"
	SessionStatusFailed  SessionStatus = "failed"
	SessionStatusExpired SessionStatus = "expired"
)

// ErrNotConfigured is returned when processor credentials are absent.
var ErrNotConfigured = errors.New("payment processor not configured")

type CreateSessionRequest struct {
	ReservationID string
	OrderRef      string
	Amount        float64
	Currency      string
	Description   string
	CustomerEmail string
	SuccessURL    string
	CancelURL     string
}

// Session is the handle returned by session creation. OrderID is only
// set by order-style processors.
type Session struct {
	SessionID   string
	OrderID     string
	RedirectURL string
}

// SessionDetails is the read-only view of a session at the processor.
// Metadata carries back whatever was embedded at creation time
// (notably the reservation id).
type SessionDetails struct {
	Status     SessionStatus
	PaymentRef string
	AmountPaid float64
	Metadata   map[string]string
}

type RefundResult struct {
	RefundID string
}

// Gateway is the seam between the reconciliation flow and an external
// processor. RetrieveSession must be side-effect free upstream so it is
// safe to poll.
type Gateway interface {
	Name() string
	Configured() bool
	CreateSession(ctx context.Context, req CreateSessionRequest) (*Session, error)
	RetrieveSession(ctx context.Context, sessionID string) (*SessionDetails, error)
	Refund(ctx context.Context, paymentRef string, amount float64) (*RefundResult, error)
}
