package adaptor

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"travel-booking/internal/dto/request"
	"travel-booking/internal/usecase"
	"travel-booking/pkg/utils"

	"go.uber.org/zap"
)

type PaymentHandler struct {
	service usecase.PaymentService
	log     *zap.Logger
}

func NewPaymentHandler(service usecase.PaymentService, log *zap.Logger) *PaymentHandler {
	return &PaymentHandler{
		service: service,
		log:     log.With(zap.String("handler", "payment")),
	}
}

// CreateSession handles POST /api/payments/session (protected)
func (h *PaymentHandler) CreateSession(w http.ResponseWriter, r *http.Request) {
	userID, ok := utils.GetUserIDFromContext(r.Context())
	if !ok {
		utils.ResponseUnauthorized(w, "Authentication required")
		return
	}

	var req request.CreateSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.ResponseBadRequest(w, "Invalid request body", nil)
		return
	}

	session, err := h.service.CreateSession(r.Context(), userID.String(), &req)
	if err != nil {
		handleServiceError(h.log, w, err, "create payment session")
		return
	}

	utils.ResponseCreated(w, "success", session)
}

// VerifyPayment handles POST /api/payments/verify
func (h *PaymentHandler) VerifyPayment(w http.ResponseWriter, r *http.Request) {
	var req request.VerifyPaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.ResponseBadRequest(w, "Invalid request body", nil)
		return
	}

	result, err := h.service.VerifyPayment(r.Context(), &req)
	if err != nil {
		handleServiceError(h.log, w, err, "verify payment")
		return
	}

	utils.ResponseSuccess(w, "success", result)
}

// Webhook handles POST /api/payments/webhook. The body must be read raw
// before any decoding because the signature covers the exact bytes.
func (h *PaymentHandler) Webhook(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil {
		utils.ResponseBadRequest(w, "Failed to read body", nil)
		return
	}

	signature := r.Header.Get("Webhook-Signature")

	if err := h.service.HandleWebhook(r.Context(), payload, signature); err != nil {
		if errors.Is(err, usecase.ErrInvalidInput) {
			utils.ResponseBadRequest(w, "Invalid webhook", nil)
			return
		}
		h.log.Error("Webhook processing failed", zap.Error(err))
		utils.ResponseInternalError(w, "Webhook processing failed")
		return
	}

	utils.ResponseSuccess(w, "success", nil)
}

// SuccessPage handles GET /payments/success. This is a browser landing
// page after checkout, so it renders HTML rather than the JSON envelope.
func (h *PaymentHandler) SuccessPage(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	sessionID := query.Get("session_id")
	reservationID := query.Get("reservation_id")

	reservation, err := h.service.ConfirmRedirect(r.Context(), sessionID, reservationID)

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err != nil {
		h.log.Warn("Success redirect could not be confirmed", zap.Error(err))
		w.WriteHeader(http.StatusOK)
		fmt.Fprint(w, `<html><body><h1>Thank you</h1><p>We are confirming your payment. Check your reservations for the final status.</p></body></html>`)
		return
	}

	w.WriteHeader(http.StatusOK)
	fmt.Fprintf(w, `<html><body><h1>Payment received</h1><p>Reservation %s is %s.</p></body></html>`,
		reservation.OrderRef, reservation.Status)
}

// CancelPage handles GET /payments/cancel, the browser landing after
// the user backs out of checkout.
func (h *PaymentHandler) CancelPage(w http.ResponseWriter, r *http.Request) {
	sessionID := r.URL.Query().Get("session_id")

	if sessionID != "" {
		if err := h.service.AbandonSession(r.Context(), sessionID); err != nil {
			h.log.Warn("Failed to abandon session", zap.Error(err), zap.String("session_id", sessionID))
		}
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, `<html><body><h1>Payment cancelled</h1><p>Your reservation was not charged.</p></body></html>`)
}
