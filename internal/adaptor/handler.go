package adaptor

import (
	"errors"
	"net/http"

	"travel-booking/internal/usecase"
	"travel-booking/pkg/utils"

	"go.uber.org/zap"
)

type Handler struct {
	Auth         *AuthHandler
	Subject      *SubjectHandler
	Reservation  *ReservationHandler
	Payment      *PaymentHandler
	Wallet       *WalletHandler
	Notification *NotificationHandler
}

func NewHandler(service *usecase.Service, log *zap.Logger) *Handler {
	return &Handler{
		Auth:         NewAuthHandler(service.Auth, log),
		Subject:      NewSubjectHandler(service.Subject, log),
		Reservation:  NewReservationHandler(service.Reservation, service.Refund, log),
		Payment:      NewPaymentHandler(service.Payment, log),
		Wallet:       NewWalletHandler(service.Wallet, log),
		Notification: NewNotificationHandler(service.Notification, log),
	}
}

// handleServiceError maps service sentinels to HTTP responses. The raw
// error text is returned for client-side errors only; everything else
// is a generic 500 with the detail kept in the log.
func handleServiceError(log *zap.Logger, w http.ResponseWriter, err error, operation string) {
	switch {
	case errors.Is(err, usecase.ErrNotFound):
		log.Warn(operation+" failed - not found", zap.Error(err))
		utils.ResponseNotFound(w, err.Error())

	case errors.Is(err, usecase.ErrForbidden):
		log.Warn(operation+" failed - forbidden", zap.Error(err))
		utils.ResponseForbidden(w, err.Error())

	case errors.Is(err, usecase.ErrInvalidInput),
		errors.Is(err, usecase.ErrInvalidDateRange),
		errors.Is(err, usecase.ErrInvalidPrice),
		errors.Is(err, usecase.ErrSelfBooking):
		log.Warn(operation+" failed - invalid input", zap.Error(err))
		utils.ResponseBadRequest(w, err.Error(), nil)

	case errors.Is(err, usecase.ErrConflict),
		errors.Is(err, usecase.ErrAlreadyPaid),
		errors.Is(err, usecase.ErrAlreadyCancelled):
		log.Warn(operation+" failed - conflict", zap.Error(err))
		utils.ResponseConflict(w, err.Error())

	case errors.Is(err, usecase.ErrInsufficientFunds):
		log.Warn(operation+" failed - insufficient funds", zap.Error(err))
		utils.ResponseBadRequest(w, err.Error(), nil)

	case errors.Is(err, usecase.ErrUpstreamUnavailable):
		log.Error(operation+" failed - upstream unavailable", zap.Error(err))
		utils.ResponseBadGateway(w, "Payment provider unavailable")

	default:
		log.Error("Failed to "+operation, zap.Error(err))
		utils.ResponseInternalError(w, "Internal server error")
	}
}
