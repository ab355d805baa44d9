package wire

import (
	"time"

	"travel-booking/internal/adaptor"
	"travel-booking/internal/data/repository"
	"travel-booking/pkg/middleware"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func wirePayment(
	r chi.Router,
	paymentHandler *adaptor.PaymentHandler,
	repo *repository.Repository,
	rdb *redis.Client,
	log *zap.Logger,
) {
	r.Group(func(r chi.Router) {
		r.Use(middleware.AuthSession(repo.Session, log))

		// POST /api/payments/session - Open a payment session
		r.Post("/api/payments/session", paymentHandler.CreateSession)
	})

	// The webhook and verify endpoints are unauthenticated by nature;
	// signatures authenticate them instead, rate limiting caps abuse.
	r.Group(func(r chi.Router) {
		r.Use(middleware.RateLimit(rdb, 60, time.Minute, log))

		// POST /api/payments/webhook - Processor callback
		r.Post("/api/payments/webhook", paymentHandler.Webhook)

		// POST /api/payments/verify - Client-driven verification
		r.Post("/api/payments/verify", paymentHandler.VerifyPayment)
	})

	// Browser landing pages after checkout
	r.Get("/payments/success", paymentHandler.SuccessPage)
	r.Get("/payments/cancel", paymentHandler.CancelPage)
}
