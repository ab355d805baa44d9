package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"travel-booking/internal/data/entity"
	"travel-booking/internal/data/repository"
	"travel-booking/internal/dto/request"
	"travel-booking/internal/dto/response"
	"travel-booking/internal/notify"
	"travel-booking/internal/payment"
	"travel-booking/pkg/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// PaymentService owns the reconciliation of external payment state into
// reservations. Three independent triggers feed the same transition:
// the signed webhook, the browser redirect back from the processor, and
// the client's explicit verify poll. None of them is ordered relative
// to the others; the conditional confirm in the store is the only
// idempotency guard.
type PaymentService interface {
	CreateSession(ctx context.Context, userID string, req *request.CreateSessionRequest) (*response.SessionResponse, error)
	VerifyPayment(ctx context.Context, req *request.VerifyPaymentRequest) (*response.VerifyResponse, error)
	HandleWebhook(ctx context.Context, payload []byte, signatureHeader string) error
	ConfirmRedirect(ctx context.Context, sessionID, reservationID string) (*response.ReservationResponse, error)
	AbandonSession(ctx context.Context, sessionID string) error
}

type paymentService struct {
	repo       *repository.Repository
	gateways   map[entity.PaymentMethod]payment.Gateway
	dispatcher notify.Dispatcher
	config     *utils.Config
	log        *zap.Logger
}

func NewPaymentService(
	repo *repository.Repository,
	gateways map[entity.PaymentMethod]payment.Gateway,
	dispatcher notify.Dispatcher,
	config *utils.Config,
	log *zap.Logger,
) PaymentService {
	return &paymentService{
		repo:       repo,
		gateways:   gateways,
		dispatcher: dispatcher,
		config:     config,
		log:        log.With(zap.String("service", "payment")),
	}
}

func (s *paymentService) CreateSession(ctx context.Context, userID string, req *request.CreateSessionRequest) (*response.SessionResponse, error) {
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		s.log.Warn("Create session validation failed", zap.Any("errors", errs))
		return nil, fmt.Errorf("%w: %s", ErrInvalidInput, utils.FormatValidationErrors(errs))
	}

	userUUID, err := uuid.Parse(userID)
	if err != nil {
		return nil, fmt.Errorf("%w: user ID %s", ErrInvalidInput, userID)
	}

	reservationID, err := uuid.Parse(req.ReservationID)
	if err != nil {
		return nil, fmt.Errorf("%w: reservation ID %s", ErrInvalidInput, req.ReservationID)
	}

	res, err := s.repo.Reservation.FindByID(ctx, reservationID)
	if err != nil {
		return nil, fmt.Errorf("find reservation: %w", err)
	}
	if res == nil {
		return nil, fmt.Errorf("reservation %s: %w", req.ReservationID, ErrNotFound)
	}

	if res.UserID != userUUID {
		return nil, fmt.Errorf("reservation %s: %w", req.ReservationID, ErrForbidden)
	}

	if res.IsPaid {
		return nil, ErrAlreadyPaid
	}
	if res.Status == entity.ReservationStatusCancelled {
		return nil, ErrAlreadyCancelled
	}

	method := entity.PaymentMethod(req.Method)
	if method == entity.PaymentMethodWallet {
		return s.payWithWallet(ctx, res)
	}

	gateway, ok := s.gateways[method]
	if !ok || !gateway.Configured() {
		return nil, ErrUpstreamUnavailable
	}

	user, err := s.repo.User.FindByID(ctx, res.UserID)
	if err != nil {
		return nil, fmt.Errorf("find reservation user: %w", err)
	}
	if user == nil {
		return nil, fmt.Errorf("user %s: %w", res.UserID, ErrNotFound)
	}

	sess, err := gateway.CreateSession(ctx, payment.CreateSessionRequest{
		ReservationID: res.ID.String(),
		OrderRef:      res.OrderRef,
		Amount:        res.TotalPrice,
		Currency:      "inr",
		Description:   fmt.Sprintf("Reservation %s", res.OrderRef),
		CustomerEmail: user.Email,
		SuccessURL:    s.config.App.BaseURL + "/payments/success?reservation_id=" + res.ID.String() + "&session_id={SESSION_ID}",
		CancelURL:     s.config.App.BaseURL + "/payments/cancel?session_id={SESSION_ID}",
	})
	if err != nil {
		s.log.Error("Failed to create payment session",
			zap.Error(err),
			zap.String("reservation_id", res.ID.String()),
			zap.String("method", string(method)),
		)
		return nil, fmt.Errorf("%w: %v", ErrUpstreamUnavailable, err)
	}

	var orderID *string
	if sess.OrderID != "" {
		orderID = &sess.OrderID
	}

	// First write wins: the correlation key never changes once set.
	claimed, err := s.repo.Reservation.ClaimSession(ctx, res.ID, method, sess.SessionID, orderID)
	if err != nil {
		return nil, fmt.Errorf("persist session: %w", err)
	}
	if !claimed {
		return nil, fmt.Errorf("%w: payment session already exists for reservation %s", ErrConflict, res.ID.String())
	}

	s.log.Info("Payment session created",
		zap.String("reservation_id", res.ID.String()),
		zap.String("session_id", sess.SessionID),
		zap.String("method", string(method)),
	)

	return &response.SessionResponse{
		ReservationID: res.ID.String(),
		SessionID:     sess.SessionID,
		RedirectURL:   sess.RedirectURL,
		Method:        string(method),
	}, nil
}

// payWithWallet settles immediately from the internal balance; there is
// no external session, so a synthetic one keeps the correlation key
// invariant intact.
func (s *paymentService) payWithWallet(ctx context.Context, res *entity.Reservation) (*response.SessionResponse, error) {
	debited, err := s.repo.Wallet.Debit(ctx, res.UserID, res.TotalPrice)
	if err != nil {
		return nil, fmt.Errorf("debit wallet: %w", err)
	}
	if !debited {
		return nil, ErrInsufficientFunds
	}

	sessionID := "wallet_" + uuid.NewString()
	claimed, err := s.repo.Reservation.ClaimSession(ctx, res.ID, entity.PaymentMethodWallet, sessionID, nil)
	if err != nil {
		return nil, fmt.Errorf("persist session: %w", err)
	}
	if !claimed {
		// Refund the debit; some other session beat us to the claim.
		s.repo.Wallet.Credit(ctx, res.UserID, res.TotalPrice)
		return nil, fmt.Errorf("%w: payment session already exists for reservation %s", ErrConflict, res.ID.String())
	}

	ref := sessionID
	if _, _, err := s.reconcile(ctx, res, payment.SessionStatusPaid, &ref); err != nil {
		return nil, err
	}

	return &response.SessionResponse{
		ReservationID: res.ID.String(),
		SessionID:     sessionID,
		Method:        string(entity.PaymentMethodWallet),
	}, nil
}

func (s *paymentService) VerifyPayment(ctx context.Context, req *request.VerifyPaymentRequest) (*response.VerifyResponse, error) {
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrInvalidInput, utils.FormatValidationErrors(errs))
	}

	res, err := s.resolveReservation(ctx, "", req.SessionID)
	if err != nil {
		return nil, err
	}

	// Order-style processors verify via callback signature instead of a
	// session fetch.
	if req.PaymentID != "" || req.Signature != "" {
		if !payment.VerifyOrderSignature(req.SessionID, req.PaymentID, req.Signature, s.config.Orders.KeySecret) {
			s.log.Warn("Order signature verification failed",
				zap.String("session_id", req.SessionID),
			)
			return nil, fmt.Errorf("%w: payment signature mismatch", ErrInvalidInput)
		}

		paymentID := req.PaymentID
		res, _, err = s.reconcile(ctx, res, payment.SessionStatusPaid, &paymentID)
		if err != nil {
			return nil, err
		}
		return s.verifyResponse(ctx, res), nil
	}

	method := entity.PaymentMethodCheckout
	if res.PaymentMethod != nil {
		method = *res.PaymentMethod
	}

	gateway, ok := s.gateways[method]
	if !ok || !gateway.Configured() {
		return nil, ErrUpstreamUnavailable
	}

	details, err := gateway.RetrieveSession(ctx, req.SessionID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstreamUnavailable, err)
	}

	var ref *string
	if details.PaymentRef != "" {
		ref = &details.PaymentRef
	}

	res, _, err = s.reconcile(ctx, res, details.Status, ref)
	if err != nil {
		return nil, err
	}

	return s.verifyResponse(ctx, res), nil
}

// HandleWebhook is the asynchronous entry point. Signature verification
// happens over the raw bytes before any lookup; a bad signature is the
// only processing error surfaced to the sender, everything after a
// valid signature is acknowledged so the upstream stops retrying.
func (s *paymentService) HandleWebhook(ctx context.Context, payload []byte, signatureHeader string) error {
	if !payment.VerifyWebhookSignature(payload, signatureHeader, s.config.Checkout.WebhookSecret) {
		s.log.Warn("Webhook signature verification failed")
		return fmt.Errorf("%w: webhook signature mismatch", ErrInvalidInput)
	}

	var event struct {
		Type string `json:"type"`
		Data struct {
			ID            string            `json:"id"`
			PaymentStatus string            `json:"payment_status"`
			PaymentRef    string            `json:"payment_intent"`
			Metadata      map[string]string `json:"metadata"`
		} `json:"data"`
	}
	if err := json.Unmarshal(payload, &event); err != nil {
		return fmt.Errorf("%w: malformed webhook payload", ErrInvalidInput)
	}

	if event.Type != "checkout.session.completed" {
		// Unrecognized event types are acknowledged, not rejected.
		s.log.Debug("Ignoring webhook event", zap.String("type", event.Type))
		return nil
	}

	// A completed session with a deferred payment method is not paid yet;
	// a later delivery or a verify poll will pick it up.
	if event.Data.PaymentStatus != "" && event.Data.PaymentStatus != "paid" {
		s.log.Info("Webhook session completed but not paid",
			zap.String("session_id", event.Data.ID),
			zap.String("payment_status", event.Data.PaymentStatus),
		)
		return nil
	}

	res, err := s.resolveReservation(ctx, event.Data.Metadata["reservation_id"], event.Data.ID)
	if err != nil {
		// Acknowledge anyway: a retry will not make a stale or unknown
		// session resolvable.
		s.log.Warn("Webhook could not be matched to a reservation",
			zap.String("session_id", event.Data.ID),
		)
		return nil
	}

	var ref *string
	if event.Data.PaymentRef != "" {
		ref = &event.Data.PaymentRef
	}

	_, confirmed, err := s.reconcile(ctx, res, payment.SessionStatusPaid, ref)
	if err != nil {
		return err
	}

	if !confirmed {
		s.log.Info("Duplicate webhook delivery ignored",
			zap.String("reservation_id", res.ID.String()),
			zap.String("session_id", event.Data.ID),
		)
	}

	return nil
}

// ConfirmRedirect handles the browser landing back from the processor.
func (s *paymentService) ConfirmRedirect(ctx context.Context, sessionID, reservationID string) (*response.ReservationResponse, error) {
	res, err := s.resolveReservation(ctx, reservationID, sessionID)
	if err != nil {
		return nil, err
	}

	// The redirect itself proves nothing; confirm against the processor.
	method := entity.PaymentMethodCheckout
	if res.PaymentMethod != nil {
		method = *res.PaymentMethod
	}

	if gateway, ok := s.gateways[method]; ok && gateway.Configured() && res.ExternalSessionID != nil {
		details, err := gateway.RetrieveSession(ctx, *res.ExternalSessionID)
		if err != nil {
			s.log.Warn("Failed to retrieve session on redirect",
				zap.Error(err),
				zap.String("reservation_id", res.ID.String()),
			)
		} else {
			var ref *string
			if details.PaymentRef != "" {
				ref = &details.PaymentRef
			}
			res, _, err = s.reconcile(ctx, res, details.Status, ref)
			if err != nil {
				return nil, err
			}
		}
	}

	var title string
	if subject, _ := s.repo.Subject.FindByID(ctx, res.SubjectID); subject != nil {
		title = subject.Title
	}
	resp := response.ReservationToResponse(res, title)
	return &resp, nil
}

// AbandonSession handles the explicit cancel redirect: pending only,
// repeat calls are no-ops, confirmed reservations are untouched.
func (s *paymentService) AbandonSession(ctx context.Context, sessionID string) error {
	res, err := s.resolveReservation(ctx, "", sessionID)
	if err != nil {
		return err
	}

	cancelled, err := s.repo.Reservation.CancelPending(ctx, res.ID)
	if err != nil {
		return fmt.Errorf("cancel pending reservation: %w", err)
	}

	if cancelled {
		s.log.Info("Payment abandoned, reservation cancelled",
			zap.String("reservation_id", res.ID.String()),
			zap.String("session_id", sessionID),
		)
	}
	return nil
}

// reconcile applies one observed payment state to a reservation. If the
// reservation is already paid nothing is written and the stored state is
// returned; this is the sole idempotency guard, backed by the
// conditional update in the store. The boolean reports whether this
// call performed the confirmation, and only that caller dispatches
// notifications.
func (s *paymentService) reconcile(ctx context.Context, res *entity.Reservation, observed payment.SessionStatus, paymentRef *string) (*entity.Reservation, bool, error) {
	if res.IsPaid {
		return res, false, nil
	}

	if observed != payment.SessionStatusPaid {
		// Not paid yet: leave the reservation pending for a later
		// trigger or explicit abandonment.
		return res, false, nil
	}

	paidAt := time.Now()
	flipped, err := s.repo.Reservation.ConfirmPaid(ctx, res.ID, paymentRef, paidAt)
	if err != nil {
		return nil, false, fmt.Errorf("confirm reservation: %w", err)
	}

	if !flipped {
		// Another trigger won the race between our read and write.
		fresh, err := s.repo.Reservation.FindByID(ctx, res.ID)
		if err != nil || fresh == nil {
			return res, false, nil
		}
		return fresh, false, nil
	}

	res.Status = entity.ReservationStatusConfirmed
	res.PaymentStatus = entity.PaymentStatusPaid
	res.IsPaid = true
	res.PaymentDate = &paidAt
	if paymentRef != nil {
		res.ExternalPaymentRef = paymentRef
	}

	s.log.Info("Reservation confirmed",
		zap.String("reservation_id", res.ID.String()),
		zap.String("order_ref", res.OrderRef),
	)

	s.dispatchConfirmation(ctx, res, paidAt)

	return res, true, nil
}

// dispatchConfirmation hands off to the best-effort dispatcher. Lookup
// failures here degrade the notification, never the confirmation.
func (s *paymentService) dispatchConfirmation(ctx context.Context, res *entity.Reservation, paidAt time.Time) {
	evt := notify.ConfirmedEvent{
		ReservationID: res.ID,
		OrderRef:      res.OrderRef,
		GuestID:       res.UserID,
		TotalPrice:    res.TotalPrice,
		PaidAt:        paidAt,
	}

	if guest, err := s.repo.User.FindByID(ctx, res.UserID); err == nil && guest != nil {
		evt.GuestEmail = guest.Email
		evt.GuestName = guest.Username
	}

	if subject, err := s.repo.Subject.FindByID(ctx, res.SubjectID); err == nil && subject != nil {
		evt.SubjectTitle = subject.Title
		evt.OwnerID = subject.OwnerID
		if owner, err := s.repo.User.FindByID(ctx, subject.OwnerID); err == nil && owner != nil {
			evt.OwnerEmail = owner.Email
		}
	}

	s.dispatcher.ReservationConfirmed(evt)
}

// resolveReservation maps an asynchronous event back to its
// reservation: embedded reservation id first, then the session id, then
// the external order id.
func (s *paymentService) resolveReservation(ctx context.Context, reservationID, sessionID string) (*entity.Reservation, error) {
	if reservationID != "" {
		if id, err := uuid.Parse(reservationID); err == nil {
			res, err := s.repo.Reservation.FindByID(ctx, id)
			if err != nil {
				return nil, fmt.Errorf("find reservation: %w", err)
			}
			if res != nil {
				return res, nil
			}
		}
	}

	if sessionID != "" {
		res, err := s.repo.Reservation.FindBySessionID(ctx, sessionID)
		if err != nil {
			return nil, fmt.Errorf("find reservation by session: %w", err)
		}
		if res != nil {
			return res, nil
		}

		res, err = s.repo.Reservation.FindByExternalOrderID(ctx, sessionID)
		if err != nil {
			return nil, fmt.Errorf("find reservation by order: %w", err)
		}
		if res != nil {
			return res, nil
		}
	}

	return nil, fmt.Errorf("reservation for session %s: %w", sessionID, ErrNotFound)
}

func (s *paymentService) verifyResponse(ctx context.Context, res *entity.Reservation) *response.VerifyResponse {
	message := "Payment pending"
	if res.IsPaid {
		message = "Payment verified"
	} else if res.Status == entity.ReservationStatusCancelled {
		message = "Reservation cancelled"
	}

	var title string
	if subject, _ := s.repo.Subject.FindByID(ctx, res.SubjectID); subject != nil {
		title = subject.Title
	}

	resp := response.ReservationToResponse(res, title)
	return &response.VerifyResponse{
		Message:     message,
		Reservation: resp,
	}
}
