package wire

import (
	"travel-booking/internal/adaptor"
	"travel-booking/internal/data/repository"
	"travel-booking/pkg/middleware"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

func wireReservation(
	r chi.Router,
	reservationHandler *adaptor.ReservationHandler,
	repo *repository.Repository,
	log *zap.Logger,
) {
	r.Group(func(r chi.Router) {
		r.Use(middleware.AuthSession(repo.Session, log))

		// POST /api/reservations - Create a pending reservation
		r.Post("/api/reservations", reservationHandler.CreateReservation)

		// GET /api/reservations - Reservation history
		r.Get("/api/reservations", reservationHandler.GetUserReservations)

		// GET /api/reservations/{id} - Reservation details
		r.Get("/api/reservations/{id}", reservationHandler.GetReservationByID)

		// PUT /api/reservations/{id}/cancel - Cancel with refund
		r.Put("/api/reservations/{id}/cancel", reservationHandler.CancelReservation)

		// DELETE /api/reservations/{id} - Remove a reservation record
		r.Delete("/api/reservations/{id}", reservationHandler.DeleteReservation)
	})
}
