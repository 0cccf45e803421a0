package routes

import (
	websocket "github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/gokul-gkm/DevConnect-Backend-sub001/internal/config"
	"github.com/gokul-gkm/DevConnect-Backend-sub001/internal/handlers"
	"github.com/gokul-gkm/DevConnect-Backend-sub001/internal/middleware"
	"github.com/gokul-gkm/DevConnect-Backend-sub001/internal/notification"
	"github.com/gokul-gkm/DevConnect-Backend-sub001/internal/repository"
	"github.com/gokul-gkm/DevConnect-Backend-sub001/internal/services"
	presencews "github.com/gokul-gkm/DevConnect-Backend-sub001/internal/websocket"
)

// Registry exposes the long-lived services the server wires into background
// jobs after route registration.
type Registry struct {
	Availability *services.AvailabilityService
}

func RegisterRoutes(
	app *fiber.App,
	cfg *config.Config,
	db *pgxpool.Pool,
	log zerolog.Logger,
) (*Registry, error) {
	userRepo := repository.NewUserRepository(db)
	profileRepo := repository.NewDeveloperProfileRepository(db)
	sessionRepo := repository.NewSessionRepository(db)
	slotRepo := repository.NewAvailabilityRepository(db)
	walletRepo := repository.NewWalletRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)

	hub := presencews.NewHub()
	go hub.Run()
	notifier := notification.NewService(notificationRepo, hub, log)

	gateway := services.NewPaymentGateway(cfg.PaymentWebhookSecret, cfg.PaymentCheckoutBaseURL)
	settlementService, err := services.NewSettlementService(db, services.SettlementConfig{
		DeveloperPercentage: decimal.NewFromFloat(cfg.DeveloperPercentage),
		AdminUserID:         cfg.AdminUserID,
	}, log)
	if err != nil {
		return nil, err
	}

	availabilityService := services.NewAvailabilityService(db, sessionRepo, slotRepo, log)
	sessionService := services.NewSessionService(
		db,
		sessionRepo,
		userRepo,
		profileRepo,
		slotRepo,
		gateway,
		settlementService,
		notifier,
		log,
	)
	walletService := services.NewWalletService(db, walletRepo, userRepo, log)
	webhookService := services.NewPaymentWebhookService(db, gateway, notifier, cfg.AdminUserID, log)

	authHandler := handlers.NewAuthHandler(db, userRepo, cfg.JWTSecret)
	sessionHandler := handlers.NewSessionHandler(sessionService)
	availabilityHandler := handlers.NewAvailabilityHandler(availabilityService)
	walletHandler := handlers.NewWalletHandler(walletService)
	webhookHandler := handlers.NewWebhookHandler(webhookService)
	notificationHandler := handlers.NewNotificationHandler(notificationRepo)
	wsHandler := handlers.NewWSHandler(hub, cfg.JWTSecret)

	api := app.Group("/api")

	auth := api.Group("/auth")
	auth.Post("/register", authHandler.Register)
	auth.Post("/login", authHandler.Login)
	auth.Get("/me", middleware.AuthRequired(cfg.JWTSecret), authHandler.Me)

	// Webhook deliveries authenticate by signature, not bearer token.
	api.Post("/webhooks/payment", webhookHandler.HandlePaymentWebhook)

	authProtected := api.Group("/v1", middleware.AuthRequired(cfg.JWTSecret))

	sessions := authProtected.Group("/sessions")
	sessions.Post("/book", sessionHandler.BookSession)
	sessions.Get("", sessionHandler.ListSessions)
	sessions.Get("/:id", sessionHandler.GetSession)
	sessions.Post("/:id/approve", sessionHandler.Approve)
	sessions.Post("/:id/reject", sessionHandler.Reject)
	sessions.Post("/:id/cancel", sessionHandler.Cancel)
	sessions.Post("/:id/start", sessionHandler.StartCall)
	sessions.Post("/:id/complete", sessionHandler.EndCall)
	sessions.Post("/:id/checkout", sessionHandler.CreateCheckout)

	availability := authProtected.Group("/availability")
	availability.Get("/check", availabilityHandler.CheckAvailability)
	availability.Get("/slots", availabilityHandler.GetUnavailableSlots)
	availability.Put("/slots", availabilityHandler.SetUnavailableSlots)
	availability.Put("/weekly", availabilityHandler.SetWeeklySlots)

	wallets := authProtected.Group("/wallet")
	wallets.Post("", walletHandler.CreateWallet)
	wallets.Get("", walletHandler.GetWallet)
	wallets.Get("/transactions", walletHandler.ListTransactions)

	notifications := authProtected.Group("/notifications")
	notifications.Get("", notificationHandler.ListNotifications)
	notifications.Post("/:id/read", notificationHandler.MarkRead)

	api.Use("/v1/ws", wsHandler.WebSocketAuth)
	api.Get("/v1/ws", websocket.New(wsHandler.HandleWebSocket))

	return &Registry{Availability: availabilityService}, nil
}
