package main

import (
	"log"
	"log/slog"
	"net/http"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/apis"
	"github.com/pocketbase/pocketbase/core"
	"github.com/pocketbase/pocketbase/plugins/migratecmd"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	pubnub "github.com/pubnub/go"

	"eventhub/config"
	"eventhub/internal/handlers"
	"eventhub/internal/ledger"
	"eventhub/internal/notify"
	"eventhub/internal/services"
	"eventhub/internal/ticket"
	"eventhub/utils"

	_ "eventhub/migrations"
)

func main() {
	app := pocketbase.New()

	// Load configuration
	cfg := config.LoadConfig()

	// Initialize Redis
	redisClient, err := utils.NewRedisClient(cfg.RedisURL, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		log.Fatal(err)
	}
	defer redisClient.Close()

	// Initialize PubNub; left nil without credentials so realtime publishing
	// becomes a no-op.
	var pn *pubnub.PubNub
	if cfg.PubNubPublishKey != "" && cfg.PubNubSubscribeKey != "" {
		pnConfig := pubnub.NewConfig()
		pnConfig.PublishKey = cfg.PubNubPublishKey
		pnConfig.SubscribeKey = cfg.PubNubSubscribeKey
		pnConfig.SecretKey = cfg.PubNubSecretKey
		pn = pubnub.NewPubNub(pnConfig)
	}

	// Initialize shared components
	stockLedger := ledger.New(redisClient)
	issuer := ticket.NewIssuer()
	mailer := notify.NewMailer(app)
	discord := notify.NewDiscord(cfg.WebhookMaxFailures, cfg.WebhookCooldown)
	realtime := notify.NewRealtime(pn)

	// Initialize services
	eventService := services.NewEventService(app, stockLedger, discord)
	registrationService := services.NewRegistrationService(app, stockLedger, issuer, mailer, realtime)
	paymentService := services.NewPaymentService(app, stockLedger, issuer, mailer, realtime)
	redemptionService := services.NewRedemptionService(app, realtime)

	// Initialize handlers
	eventHandler := handlers.NewEventHandler(eventService)
	registrationHandler := handlers.NewRegistrationHandler(registrationService, paymentService)
	organizerHandler := handlers.NewOrganizerHandler(paymentService, redemptionService)

	// Enable migrations
	migratecmd.MustRegister(app, app.RootCmd, migratecmd.Config{
		Automigrate: true,
	})

	// Register routes
	app.OnServe().BindFunc(func(e *core.ServeEvent) error {
		// Public listings
		e.Router.GET("/api/events", eventHandler.List)
		e.Router.GET("/api/events/{eventId}", eventHandler.Details)

		// Participant endpoints
		participant := e.Router.Group("/api")
		participant.Bind(apis.RequireAuth("users"))
		participant.BindFunc(handlers.RequireRole(handlers.RoleParticipant))
		participant.POST("/events/{eventId}/register", registrationHandler.Register)
		participant.DELETE("/events/{eventId}/register", registrationHandler.Cancel)
		participant.GET("/events/{eventId}/registration", registrationHandler.Status)
		participant.GET("/me/registrations", registrationHandler.Mine)
		participant.PATCH("/events/{eventId}/registrations/{registrationId}/payment-proof", registrationHandler.UploadProof)

		// Organizer endpoints
		organizer := e.Router.Group("/api/organizer")
		organizer.Bind(apis.RequireAuth("users"))
		organizer.BindFunc(handlers.RequireRole(handlers.RoleOrganizer))
		organizer.POST("/events", eventHandler.Create)
		organizer.GET("/events", eventHandler.Mine)
		organizer.PATCH("/events/{eventId}", eventHandler.Update)
		organizer.POST("/events/{eventId}/publish", eventHandler.Publish)
		organizer.POST("/events/{eventId}/close", eventHandler.Close)
		organizer.GET("/events/{eventId}/registrations", eventHandler.Registrations)
		organizer.GET("/events/{eventId}/analytics", eventHandler.Analytics)
		organizer.GET("/events/{eventId}/payments", organizerHandler.PendingPayments)
		organizer.POST("/events/{eventId}/registrations/{registrationId}/approve", organizerHandler.ApprovePayment)
		organizer.POST("/events/{eventId}/registrations/{registrationId}/reject", organizerHandler.RejectPayment)
		organizer.PATCH("/events/{eventId}/registrations/{registrationId}/attendance", organizerHandler.SetAttendance)
		organizer.PATCH("/events/{eventId}/registrations/{registrationId}/collected", organizerHandler.SetCollected)

		scan := organizer.Group("")
		scan.BindFunc(handlers.RateLimit(redisClient, "scan", cfg.ScanRateLimit, cfg.ScanRateWindow))
		scan.POST("/events/{eventId}/scan", organizerHandler.Scan)

		// Monitoring
		if cfg.EnableMetrics {
			e.Router.GET("/metrics", apis.WrapStdHandler(promhttp.Handler()))
		}

		// Health check
		e.Router.GET("/health", func(e *core.RequestEvent) error {
			if err := redisClient.Ping(e.Request.Context()).Err(); err != nil {
				return e.JSON(http.StatusServiceUnavailable, map[string]string{
					"status": "unhealthy",
					"error":  err.Error(),
				})
			}
			return e.JSON(http.StatusOK, map[string]string{"status": "healthy"})
		})

		slog.Info("server routes registered", "environment", cfg.Environment)

		return e.Next()
	})

	// Start server
	if err := app.Start(); err != nil {
		log.Fatal(err)
	}
}
