// main.go
package main

import (
	"log"

	"travel-booking/cmd"
	"travel-booking/internal/data/entity"
	"travel-booking/internal/data/repository"
	"travel-booking/internal/notify"
	"travel-booking/internal/payment"
	"travel-booking/internal/wire"
	"travel-booking/pkg/database"
	"travel-booking/pkg/utils"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func main() {
	// Load config
	config, err := utils.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize logger
	logger, err := utils.InitLogger(config.App.LogPath, config.App.Debug)
	if err != nil {
		log.Printf("Failed to init logger: %v. Using standard log.", err)
		logger, _ = zap.NewProduction()
	}
	defer logger.Sync()

	logger.Info("Starting application",
		zap.String("app", config.App.Name),
		zap.String("port", config.App.Port),
		zap.Bool("debug", config.App.Debug),
	)

	// Connect to database
	db, err := database.InitDB(config.Database)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	logger.Info("Database connected successfully")

	// Initialize all repositories
	repos := repository.NewRepository(db, logger)

	// Payment processors; an unconfigured gateway reports itself as such
	// and the services refuse to route payments through it.
	gateways := map[entity.PaymentMethod]payment.Gateway{
		entity.PaymentMethodCheckout: payment.NewCheckoutGateway(config.Checkout, logger),
		entity.PaymentMethodOrders:   payment.NewOrdersGateway(config.Orders, logger),
	}

	// Redis backs rate limiting on the public payment endpoints. Nil is
	// fine, the limiter degrades to pass-through.
	var rdb *redis.Client
	if config.Redis.Addr != "" {
		rdb = redis.NewClient(&redis.Options{
			Addr:     config.Redis.Addr,
			Password: config.Redis.Password,
			DB:       config.Redis.DB,
		})
		defer rdb.Close()
	}

	// Outbound notification stack: transactional mail, broker events and
	// in-app rows behind one fire-and-forget dispatcher.
	mailer := notify.NewMailer(config.Email, logger)
	publisher := notify.NewPublisher(config.Queue, logger)
	defer publisher.Close()
	dispatcher := notify.NewDispatcher(mailer, publisher, repos.Notification, logger)

	// Wire all dependencies
	app := wire.Wiring(repos, gateways, dispatcher, rdb, config, logger)

	// Start server
	logger.Info("Starting HTTP server", zap.String("port", config.App.Port))

	cmd.APIServer(app.Router, config.App.Port)
}
