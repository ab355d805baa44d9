package response

type SessionResponse struct {
	ReservationID string `json:"reservation_id"`
	SessionID     string `json:"session_id"`
	RedirectURL   string `json:"redirect_url,omitempty"`
	Method        string `json:"method"`
}

type VerifyResponse struct {
	Message     string              `json:"message"`
	Reservation ReservationResponse `json:"reservation"`
}

type CancelResponse struct {
	Success       bool   `json:"success"`
	Message       string `json:"message"`
	PaymentStatus string `json:"payment_status"`
}
