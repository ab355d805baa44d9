package wire

import (
	"travel-booking/internal/adaptor"
	"travel-booking/internal/data/repository"
	"travel-booking/pkg/middleware"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

func wireAccount(
	r chi.Router,
	walletHandler *adaptor.WalletHandler,
	notificationHandler *adaptor.NotificationHandler,
	repo *repository.Repository,
	log *zap.Logger,
) {
	r.Group(func(r chi.Router) {
		r.Use(middleware.AuthSession(repo.Session, log))

		// GET /api/wallet - Current balance
		r.Get("/api/wallet", walletHandler.GetWallet)

		// GET /api/notifications - In-app notifications
		r.Get("/api/notifications", notificationHandler.GetNotifications)

		// PUT /api/notifications/{id}/read - Mark one as read
		r.Put("/api/notifications/{id}/read", notificationHandler.MarkRead)
	})
}
