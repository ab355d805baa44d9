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

// OrdersGateway drives the order/signature processor: an order is
// created server-side, the client completes payment against it, and
// callbacks carry an HMAC signature over the order and payment ids.
type OrdersGateway struct {
	apiBase   string
	keyID     string
	keySecret string
	client    *http.Client
	log       *zap.Logger
}

func NewOrdersGateway(config utils.OrdersConfig, log *zap.Logger) *OrdersGateway {
	return &OrdersGateway{
		apiBase:   config.APIBase,
		keyID:     config.KeyID,
		keySecret: config.KeySecret,
		client:    &http.Client{Timeout: 15 * time.Second},
		log:       log.With(zap.String("gateway", "orders")),
	}
}

func (g *OrdersGateway) Name() string { return "orders" }

func (g *OrdersGateway) Configured() bool { return g.keyID != "" && g.keySecret != "" }

type orderPayload struct {
	Amount   int64             `json:"amount"`
	Currency string            `json:"currency"`
	Receipt  string            `json:"receipt"`
	Notes    map[string]string `json:"notes"`
}

type orderResponse struct {
	ID       string            `json:"id"`
	Status   string            `json:"status"`
	Amount   int64             `json:"amount"`
	Receipt  string            `json:"receipt"`
	Notes    map[string]string `json:"notes"`
	Payments []orderPayment    `json:"payments"`
}

type orderPayment struct {
	ID     string `json:"id"`
	Status string `json:"status"`
	Amount int64  `json:"amount"`
}

func (g *OrdersGateway) CreateSession(ctx context.Context, req CreateSessionRequest) (*Session, error) {
	if !g.Configured() {
		return nil, ErrNotConfigured
	}

	payload := orderPayload{
		Amount:   toMinorUnits(req.Amount),
		Currency: req.Currency,
		Receipt:  req.OrderRef,
		Notes: map[string]string{
			"reservation_id": req.ReservationID,
		},
	}

	var resp orderResponse
	if err := g.do(ctx, http.MethodPost, "/orders", payload, &resp); err != nil {
		return nil, fmt.Errorf("create order for %s: %w", req.OrderRef, err)
	}

	g.log.Info("Processor order created",
		zap.String("order_id", resp.ID),
		zap.String("order_ref", req.OrderRef),
	)

	// The order id doubles as the session correlation key; the hosted
	// payment page is keyed by it.
	return &Session{
		SessionID:   resp.ID,
		OrderID:     resp.ID,
		RedirectURL: fmt.Sprintf("%s/hosted/%s?key=%s", g.apiBase, resp.ID, g.keyID),
	}, nil
}

func (g *OrdersGateway) RetrieveSession(ctx context.Context, sessionID string) (*SessionDetails, error) {
	if !g.Configured() {
		return nil, ErrNotConfigured
	}

	var resp orderResponse
	if err := g.do(ctx, http.MethodGet, "/orders/"+sessionID+"?expand=payments", nil, &resp); err != nil {
		return nil, fmt.Errorf("retrieve order %s: %w", sessionID, err)
	}

	details := &SessionDetails{
		Status:   mapOrderStatus(resp.Status),
		Metadata: resp.Notes,
	}

	// A captured payment carries the reference used for refunds.
	for _, p := range resp.Payments {
		if p.Status == "captured" {
			details.Status = SessionStatusPaid
			details.PaymentRef = p.ID
			details.AmountPaid = fromMinorUnits(p.Amount)
			break
		}
	}

	return details, nil
}

type orderRefundResponse struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

func (g *OrdersGateway) Refund(ctx context.Context, paymentRef string, amount float64) (*RefundResult, error) {
	if !g.Configured() {
		return nil, ErrNotConfigured
	}

	payload := map[string]any{
		"amount": toMinorUnits(amount),
	}

	var resp orderRefundResponse
	if err := g.do(ctx, http.MethodPost, "/payments/"+paymentRef+"/refund", payload, &resp); err != nil {
		return nil, fmt.Errorf("refund payment %s: %w", paymentRef, err)
	}

	g.log.Info("Order refund issued",
		zap.String("payment_ref", paymentRef),
		zap.String("refund_id", resp.ID),
	)

	return &RefundResult{RefundID: resp.ID}, nil
}

func (g *OrdersGateway) do(ctx context.Context, method, path string, payload, out any) error {
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
	req.SetBasicAuth(g.keyID, g.keySecret)
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

func mapOrderStatus(status string) SessionStatus {
	switch status {
	case "paid":
		return SessionStatusPaid
	case "expired":
		return SessionStatusExpired
	case "failed":
		return SessionStatusFailed
	default:
		return SessionStatusPending
	}
}
