package usecase

import (
	"context"
	"fmt"

	"travel-booking/internal/data/entity"
	"travel-booking/internal/data/repository"
	"travel-booking/internal/dto/response"
	"travel-booking/internal/payment"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// RefundService cancels reservations and returns money along whichever
// path it was paid. The cancellation always proceeds; a failed external
// refund only changes the payment status, never blocks the cancel.
type RefundService interface {
	Cancel(ctx context.Context, userID, reservationID string) (*response.CancelResponse, error)
}

type refundService struct {
	repo     *repository.Repository
	gateways map[entity.PaymentMethod]payment.Gateway
	log      *zap.Logger
}

func NewRefundService(repo *repository.Repository, gateways map[entity.PaymentMethod]payment.Gateway, log *zap.Logger) RefundService {
	return &refundService{
		repo:     repo,
		gateways: gateways,
		log:      log.With(zap.String("service", "refund")),
	}
}

func (s *refundService) Cancel(ctx context.Context, userID, reservationID string) (*response.CancelResponse, error) {
	userUUID, err := uuid.Parse(userID)
	if err != nil {
		return nil, fmt.Errorf("%w: user ID %s", ErrInvalidInput, userID)
	}

	resUUID, err := uuid.Parse(reservationID)
	if err != nil {
		return nil, fmt.Errorf("%w: reservation ID %s", ErrInvalidInput, reservationID)
	}

	res, err := s.repo.Reservation.FindByID(ctx, resUUID)
	if err != nil {
		return nil, fmt.Errorf("find reservation: %w", err)
	}
	if res == nil {
		return nil, fmt.Errorf("reservation %s: %w", reservationID, ErrNotFound)
	}

	if res.UserID != userUUID {
		return nil, fmt.Errorf("reservation %s: %w", reservationID, ErrForbidden)
	}

	if res.Status == entity.ReservationStatusCancelled {
		return nil, ErrAlreadyCancelled
	}

	if !res.IsPaid {
		cancelled, err := s.repo.Reservation.CancelWithPaymentStatus(ctx, res.ID, entity.PaymentStatusFailed, nil)
		if err != nil {
			return nil, fmt.Errorf("cancel reservation: %w", err)
		}
		if !cancelled {
			return nil, ErrAlreadyCancelled
		}
		return &response.CancelResponse{
			Success:       true,
			Message:       "Reservation cancelled",
			PaymentStatus: string(entity.PaymentStatusFailed),
		}, nil
	}

	method := entity.PaymentMethodCheckout
	if res.PaymentMethod != nil {
		method = *res.PaymentMethod
	}

	if method == entity.PaymentMethodWallet {
		return s.refundToWallet(ctx, res)
	}

	return s.refundViaProcessor(ctx, res, method)
}

func (s *refundService) refundToWallet(ctx context.Context, res *entity.Reservation) (*response.CancelResponse, error) {
	if err := s.repo.Wallet.Credit(ctx, res.UserID, res.TotalPrice); err != nil {
		return nil, fmt.Errorf("credit wallet: %w", err)
	}

	cancelled, err := s.repo.Reservation.CancelWithPaymentStatus(ctx, res.ID, entity.PaymentStatusRefunded, nil)
	if err != nil {
		return nil, fmt.Errorf("cancel reservation: %w", err)
	}
	if !cancelled {
		return nil, ErrAlreadyCancelled
	}

	s.log.Info("Wallet refund completed",
		zap.String("reservation_id", res.ID.String()),
		zap.Float64("amount", res.TotalPrice),
	)

	return &response.CancelResponse{
		Success:       true,
		Message:       "Reservation cancelled, refund issued to wallet",
		PaymentStatus: string(entity.PaymentStatusRefunded),
	}, nil
}

func (s *refundService) refundViaProcessor(ctx context.Context, res *entity.Reservation, method entity.PaymentMethod) (*response.CancelResponse, error) {
	status := entity.PaymentStatusRefunded
	message := "Reservation cancelled, refund initiated"
	var note *string

	ref, err := s.paymentRef(ctx, res, method)
	if err != nil {
		s.log.Warn("Could not resolve payment reference for refund",
			zap.Error(err),
			zap.String("reservation_id", res.ID.String()),
		)
		status = entity.PaymentStatusRefundPending
		message = "Reservation cancelled, refund requires manual review"
		n := "payment reference unresolved: " + err.Error()
		note = &n
	} else {
		gateway := s.gateways[method]
		if _, err := gateway.Refund(ctx, ref, res.TotalPrice); err != nil {
			s.log.Error("Processor refund failed",
				zap.Error(err),
				zap.String("reservation_id", res.ID.String()),
				zap.String("payment_ref", ref),
			)
			status = entity.PaymentStatusRefundPending
			message = "Reservation cancelled, refund requires manual review"
			n := "refund failed: " + err.Error()
			note = &n
		}
	}

	cancelled, err := s.repo.Reservation.CancelWithPaymentStatus(ctx, res.ID, status, note)
	if err != nil {
		return nil, fmt.Errorf("cancel reservation: %w", err)
	}
	if !cancelled {
		return nil, ErrAlreadyCancelled
	}

	if status == entity.PaymentStatusRefunded {
		s.log.Info("Processor refund completed",
			zap.String("reservation_id", res.ID.String()),
			zap.Float64("amount", res.TotalPrice),
		)
	}

	return &response.CancelResponse{
		Success:       true,
		Message:       message,
		PaymentStatus: string(status),
	}, nil
}

// paymentRef returns the captured payment reference, fetching it from
// the processor when confirmation happened without one (an order-style
// verify callback records the payment id, a bare webhook might not).
func (s *refundService) paymentRef(ctx context.Context, res *entity.Reservation, method entity.PaymentMethod) (string, error) {
	if res.ExternalPaymentRef != nil && *res.ExternalPaymentRef != "" {
		return *res.ExternalPaymentRef, nil
	}

	gateway, ok := s.gateways[method]
	if !ok || !gateway.Configured() {
		return "", fmt.Errorf("%s gateway not configured", method)
	}

	if res.ExternalSessionID == nil {
		return "", fmt.Errorf("reservation has no payment session")
	}

	details, err := gateway.RetrieveSession(ctx, *res.ExternalSessionID)
	if err != nil {
		return "", fmt.Errorf("retrieve session: %w", err)
	}
	if details.PaymentRef == "" {
		return "", fmt.Errorf("session %s has no captured payment", *res.ExternalSessionID)
	}

	// Persist for a later retry of a failed refund.
	if err := s.repo.Reservation.SetPaymentRef(ctx, res.ID, details.PaymentRef); err != nil {
		s.log.Warn("Failed to persist payment reference", zap.Error(err))
	}

	return details.PaymentRef, nil
}
