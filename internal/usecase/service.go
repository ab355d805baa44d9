package usecase

import (
	"travel-booking/internal/data/entity"
	"travel-booking/internal/data/repository"
	"travel-booking/internal/notify"
	"travel-booking/internal/payment"
	"travel-booking/pkg/utils"

	"go.uber.org/zap"
)

type Service struct {
	Auth         AuthService
	Subject      SubjectService
	Reservation  ReservationService
	Payment      PaymentService
	Refund       RefundService
	Wallet       WalletService
	Notification NotificationService
}

func NewService(
	repo *repository.Repository,
	gateways map[entity.PaymentMethod]payment.Gateway,
	dispatcher notify.Dispatcher,
	config *utils.Config,
	log *zap.Logger,
) *Service {
	return &Service{
		Auth:         NewAuthService(repo, config, log),
		Subject:      NewSubjectService(repo, log),
		Reservation:  NewReservationService(repo, log),
		Payment:      NewPaymentService(repo, gateways, dispatcher, config, log),
		Refund:       NewRefundService(repo, gateways, log),
		Wallet:       NewWalletService(repo, log),
		Notification: NewNotificationService(repo, log),
	}
}
