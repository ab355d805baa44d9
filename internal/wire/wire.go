// internal/wire/wire.go
package wire

import (
	"net/http"

	"travel-booking/internal/adaptor"
	"travel-booking/internal/data/entity"
	"travel-booking/internal/data/repository"
	"travel-booking/internal/notify"
	"travel-booking/internal/payment"
	"travel-booking/internal/usecase"
	"travel-booking/pkg/middleware"
	"travel-booking/pkg/utils"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// App holds the wired HTTP surface.
type App struct {
	Router *chi.Mux
}

// Wiring initializes services and handlers and assembles the router.
func Wiring(
	repo *repository.Repository,
	gateways map[entity.PaymentMethod]payment.Gateway,
	dispatcher notify.Dispatcher,
	rdb *redis.Client,
	config *utils.Config,
	logger *zap.Logger,
) *App {
	service := usecase.NewService(repo, gateways, dispatcher, config, logger)
	handler := adaptor.NewHandler(service, logger)

	router := setupRouter(handler, repo, rdb, config, logger)

	return &App{
		Router: router,
	}
}

func setupRouter(
	handler *adaptor.Handler,
	repo *repository.Repository,
	rdb *redis.Client,
	config *utils.Config,
	logger *zap.Logger,
) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.Logger(logger))
	r.Use(middleware.Recover(logger))
	r.Use(middleware.CORS())

	wireAuth(r, handler.Auth, repo, logger)
	wireSubject(r, handler.Subject, repo, logger)
	wireReservation(r, handler.Reservation, repo, logger)
	wirePayment(r, handler.Payment, repo, rdb, logger)
	wireAccount(r, handler.Wallet, handler.Notification, repo, logger)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	return r
}
