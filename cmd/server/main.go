package main

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/hostscout/concierge/internal/assistant"
	"github.com/hostscout/concierge/internal/billing"
	"github.com/hostscout/concierge/internal/handler"
	mid "github.com/hostscout/concierge/internal/middleware"
	"github.com/hostscout/concierge/internal/model"
	"github.com/hostscout/concierge/internal/pms"
	"github.com/hostscout/concierge/pkg/config"
	"github.com/hostscout/concierge/pkg/database"
	"github.com/hostscout/concierge/pkg/jwtutil"
	"github.com/hostscout/concierge/pkg/logger"
	"github.com/hostscout/concierge/prometheus"
)

func main() {
	appConfig, err := config.Load("concierge")
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	if err := logger.InitLogger(&logger.LogConfig{
		Level:       appConfig.Log.Level,
		Environment: appConfig.Server.Env,
		ServiceName: appConfig.ServiceName,
	}); err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}

	log := logger.GetLogger()
	log.Info("Starting concierge service", appConfig.LogConfig()...)

	jwtutil.Initialize(&appConfig.JWT)
	prometheus.InitMetrics()

	db, err := database.InitDB(&appConfig.DB)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}

	if err := database.MigrateModels(
		&model.PMC{},
		&model.PMCUser{},
		&model.PMCIntegration{},
		&model.Property{},
		&model.Reservation{},
		&model.Guide{},
		&model.Upgrade{},
		&model.UpgradePurchase{},
		&model.ChatSession{},
		&model.ChatMessage{},
		&model.AdminMessage{},
		&model.AnalyticsEvent{},
	); err != nil {
		log.Fatal("Failed to migrate database", zap.Error(err))
	}

	// Wire the domain services
	hostaway := pms.NewHostawayClient(&appConfig.Hostaway)
	syncer := pms.NewSyncer(db, hostaway)
	billingService := billing.NewService(db, &appConfig.Stripe, appConfig.Server.AppBaseURL)

	var llm *assistant.OpenAIClient
	var summarizer *assistant.Summarizer
	if appConfig.OpenAI.APIKey != "" {
		llm = assistant.NewOpenAIClient(&appConfig.OpenAI)
		summarizer = assistant.NewSummarizer(db, llm,
			appConfig.OpenAI.SummaryMaxMsgs, appConfig.OpenAI.SummaryThrottle)
	} else {
		log.Warn("OPENAI_API_KEY not set, guest chat will serve fallback replies only")
	}

	handler.Init(handler.Services{
		Syncer:     syncer,
		Billing:    billingService,
		LLM:        llm,
		Summarizer: summarizer,
	})

	// Nightly PMS sync
	var scheduler *cron.Cron
	if appConfig.Sync.Enabled {
		scheduler = cron.New()
		_, err := scheduler.AddFunc(appConfig.Sync.Schedule, func() {
			results := syncer.SyncAll(context.Background())
			log.Info("Scheduled PMS sync finished", zap.Int("pmcs", len(results)))
		})
		if err != nil {
			log.Fatal("Invalid sync schedule", zap.String("schedule", appConfig.Sync.Schedule), zap.Error(err))
		}
		scheduler.Start()
		defer scheduler.Stop()
		log.Info("PMS sync scheduled", zap.String("schedule", appConfig.Sync.Schedule))
	}

	e := echo.New()
	e.HideBanner = true

	e.Use(middleware.Recover())
	e.Use(middleware.CORS())
	e.Use(mid.RequestIDMiddleware)
	e.Use(logger.Middleware())
	e.Use(prometheus.MetricsMiddleware)

	// Ops endpoints
	e.GET("/health", handler.HealthCheck)
	e.GET("/metrics", echo.WrapHandler(prometheus.Handler()))

	// Stripe webhook: raw body, signature-verified, no auth middleware
	e.POST("/stripe/webhook", handler.StripeWebhook)

	// Admin auth
	e.POST("/api/auth/signup", handler.Signup)
	e.POST("/api/auth/login", handler.Login)

	// Guest app endpoints, token-scoped rather than JWT-scoped
	guest := e.Group("/api/guest")
	guest.GET("/properties/:id", handler.GetGuestProperty)
	guest.GET("/properties/:id/guides", handler.ListGuestGuides)
	guest.POST("/properties/:id/session", handler.StartGuestSession)
	guest.POST("/unlock", handler.UnlockStay)
	guest.POST("/chat", handler.GuestChat)
	guest.GET("/messages", handler.ListGuestMessages)
	guest.GET("/upgrades", handler.ListGuestUpgrades)
	guest.POST("/upgrades/:upgradeId/checkout", handler.CreateGuestCheckout)
	guest.GET("/purchases", handler.ListGuestPurchases)
	guest.GET("/purchases/:purchaseId", handler.GetGuestPurchase)
	guest.POST("/events", handler.IngestGuestEvent)

	// Admin dashboard endpoints, JWT-scoped to one PMC
	admin := e.Group("/api/admin", mid.AuthMiddleware)
	admin.GET("/me", handler.Me)

	admin.GET("/properties", handler.ListProperties)
	admin.GET("/properties/:id", handler.GetProperty)
	admin.PATCH("/properties/:id", handler.UpdateProperty)
	admin.GET("/properties/:id/reservations", handler.ListReservations)

	admin.GET("/properties/:id/guides", handler.ListGuides)
	admin.POST("/properties/:id/guides", handler.CreateGuide)
	admin.PATCH("/properties/:id/guides/:guideId", handler.UpdateGuide)
	admin.DELETE("/properties/:id/guides/:guideId", handler.DeleteGuide)
	admin.POST("/properties/:id/guides/reorder", handler.ReorderGuides)

	admin.GET("/properties/:id/upgrades", handler.ListUpgrades)
	admin.POST("/properties/:id/upgrades", handler.CreateUpgrade)
	admin.PATCH("/properties/:id/upgrades/:upgradeId", handler.UpdateUpgrade)
	admin.DELETE("/properties/:id/upgrades/:upgradeId", handler.DeleteUpgrade)
	admin.POST("/properties/:id/upgrades/reorder", handler.ReorderUpgrades)
	admin.GET("/properties/:id/purchases", handler.ListPurchases)

	admin.GET("/chats", handler.ListChatSessions)
	admin.GET("/chats/:id", handler.GetChatSession)
	admin.PATCH("/chats/:id", handler.UpdateChatSession)
	admin.POST("/chats/:id/resolve", handler.ResolveChatSession)
	admin.POST("/chats/:id/reply", handler.SendAdminReply)
	admin.POST("/chats/:id/summary", handler.RefreshSessionSummary)

	admin.GET("/inbox", handler.ListAdminMessages)
	admin.POST("/inbox/:id/read", handler.MarkAdminMessageRead)
	admin.POST("/inbox/read-all", handler.MarkAllAdminMessagesRead)

	admin.GET("/analytics/summary", handler.GetAnalyticsSummary)

	admin.POST("/sync", handler.TriggerSync)
	admin.GET("/sync/status", handler.SyncStatus)
	admin.GET("/integrations", handler.ListIntegrations)
	admin.POST("/integrations", handler.ConnectIntegration)
	admin.DELETE("/integrations/:id", handler.DisconnectIntegration)

	admin.GET("/team", handler.ListTeamMembers)
	admin.POST("/team", handler.CreateTeamMember)
	admin.PATCH("/team/:id", handler.UpdateTeamMember)
	admin.DELETE("/team/:id", handler.DeleteTeamMember)

	log.Info("Server starting", zap.String("port", appConfig.Server.Port))
	if err := e.Start(":" + appConfig.Server.Port); err != nil && err != http.ErrServerClosed {
		log.Fatal("Server failed to start", zap.Error(err))
	}
}
