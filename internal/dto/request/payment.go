package request

type CreateSessionRequest struct {
	ReservationID string `json:"reservation_id" validate:"required,uuid4"`
	Method        string `json:"method" validate:"required,oneof=checkout orders wallet"`
}

// VerifyPaymentRequest serves both processor styles. A session-style
// verify sends only the session id; an order-style verify callback also
// carries the payment id and its signature.
type VerifyPaymentRequest struct {
	SessionID string `json:"session_id" validate:"required"`
	PaymentID string `json:"payment_id,omitempty"`
	Signature string `json:"signature,omitempty"`
}
