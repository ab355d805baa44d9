package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"travel-booking/pkg/utils"

	"go.uber.org/zap"
)

// CheckoutGateway drives the redirect-session processor: a session is
// created server-side, the browser is sent to the processor's hosted
// page, and the processor reports back via redirect, polling, and a
// signed webhook.
type CheckoutGateway struct {
	apiBase string
	secret  string
	client  *http.Client
	log     *zap.Logger
}

func NewCheckoutGateway(config utils.CheckoutConfig, log *zap.Logger) *CheckoutGateway {
	return &CheckoutGateway{
		apiBase: config.APIBase,
		secret:  config.SecretKey,
		client:  &http.Client{Timeout: 15 * time.Second},
		log:     log.With(zap.String("gateway", "checkout")),
	}
}

func (g *CheckoutGateway) Name() string { return "checkout" }

func (g *CheckoutGateway) Configured() bool { return g.secret != "" }

type checkoutSessionPayload struct {
	Amount      int64             `json:"amount"`
	Currency    string            `json:"currency"`
	Description string            `json:"description"`
	Customer    string            `json:"customer_email"`
	SuccessURL  string            `json:"success_url"`
	CancelURL   string            `json:"cancel_url"`
	Metadata    map[string]string `json:"metadata"`
	ExpiresIn   int64             `json:"expires_in"`
}

type checkoutSessionResponse struct {
	ID            string            `json:"id"`
	URL           string            `json:"url"`
	PaymentStatus string            `json:"payment_status"`
	PaymentRef    string            `json:"payment_intent"`
	AmountTotal   int64             `json:"amount_total"`
	Metadata      map[string]string `json:"metadata"`
}

func (g *CheckoutGateway) CreateSession(ctx context.Context, req CreateSessionRequest) (*Session, error) {
	if !g.Configured() {
		return nil, ErrNotConfigured
	}

	payload := checkoutSessionPayload{
		Amount:      toMinorUnits(req.Amount),
		Currency:    req.Currency,
		Description: req.Description,
		Customer:    req.CustomerEmail,
		SuccessURL:  req.SuccessURL,
		CancelURL:   req.CancelURL,
		Metadata: map[string]string{
			"reservation_id": req.ReservationID,
			"order_ref":      req.OrderRef,
		},
		// Sessions expire processor-side after 30 minutes
		ExpiresIn: int64(30 * time.Minute / time.Second),
	}

	var resp checkoutSessionResponse
	if err := g.do(ctx, http.MethodPost, "/checkout/sessions", payload, &resp); err != nil {
		return nil, fmt.Errorf("create checkout session for %s: %w", req.OrderRef, err)
	}

	g.log.Info("Checkout session created",
		zap.String("session_id", resp.ID),
		zap.String("order_ref", req.OrderRef),
	)

	return &Session{
		SessionID:   resp.ID,
		RedirectURL: resp.URL,
	}, nil
}

func (g *CheckoutGateway) RetrieveSession(ctx context.Context, sessionID string) (*SessionDetails, error) {
	if !g.Configured() {
		return nil, ErrNotConfigured
	}

	var resp checkoutSessionResponse
	if err := g.do(ctx, http.MethodGet, "/checkout/sessions/"+sessionID, nil, &resp); err != nil {
		return nil, fmt.Errorf("retrieve checkout session %s: %w", sessionID, err)
	}

	return &SessionDetails{
		Status:     mapCheckoutStatus(resp.PaymentStatus),
		PaymentRef: resp.PaymentRef,
		AmountPaid: fromMinorUnits(resp.AmountTotal),
		Metadata:   resp.Metadata,
	}, nil
}

type checkoutRefundResponse struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

func (g *CheckoutGateway) Refund(ctx context.Context, paymentRef string, amount float64) (*RefundResult, error) {
	if !g.Configured() {
		return nil, ErrNotConfigured
	}

	payload := map[string]any{
		"payment_intent": paymentRef,
		"amount":         toMinorUnits(amount),
	}

	var resp checkoutRefundResponse
	if err := g.do(ctx, http.MethodPost, "/refunds", payload, &resp); err != nil {
		return nil, fmt.Errorf("refund payment %s: %w", paymentRef, err)
	}

	g.log.Info("Checkout refund issued",
		zap.String("payment_ref", paymentRef),
		zap.String("refund_id", resp.ID),
	)

	return &RefundResult{RefundID: resp.ID}, nil
}

func (g *CheckoutGateway) do(ctx context.Context, method, path string, payload, out any) error {
	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("marshal payload: %w", err)
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, g.apiBase+path, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+g.secret)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return fmt.Errorf("call processor: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read processor response: %w", err)
	}

	if resp.StatusCode >= 400 {
		g.log.Warn("Processor returned error",
			zap.Int("status", resp.StatusCode),
			zap.String("path", path),
		)
		return fmt.Errorf("processor responded %d: %s", resp.StatusCode, string(raw))
	}

	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode processor response: %w", err)
	}

	return nil
}

func mapCheckoutStatus(status string) SessionStatus {
	switch status {
	case "paid", "complete":
		return SessionStatusPaid
	case "expired":
		return SessionStatusExpired
	case "failed":
		return SessionStatusFailed
	default:
		return SessionStatusPending
	}
}

// Processor APIs deal in minor currency units.
func toMinorUnits(amount float64) int64 {
	return int64(amount*100 + 0.5)
}

func fromMinorUnits(amount int64) float64 {
	return float64(amount) / 100
}
