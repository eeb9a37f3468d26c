package router

import (
	"net/http"

	"copyforge/config"
	"copyforge/internal/changefeed"
	"copyforge/internal/handler"
	"copyforge/internal/middleware"
	"copyforge/internal/notify"
	"copyforge/internal/repository"
	"copyforge/internal/service"
	"copyforge/internal/ws"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// Setup builds the HTTP engine. The returned stop function detaches the
// websocket hub from feed and cancels pending refreshes.
func Setup(cfg *config.Config, db *gorm.DB, feed *changefeed.Feed, limiter *middleware.InMemoryRateLimiter, log logrus.FieldLogger) (*gin.Engine, func()) {
	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger(log))
	r.Use(middleware.CORS(&cfg.CORS))

	// Repositories
	userRepo := repository.NewUserRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)
	dismissalRepo := repository.NewDismissalRepository(db)
	usageRepo := repository.NewUsageRepository(db)

	// Services
	n := cfg.Notifications
	agg := notify.NewAggregator(notify.Thresholds{
		Warning:     n.WarningRatio,
		Critical:    n.CriticalRatio,
		WelcomeAge:  n.WelcomeAge,
		CriticalAge: n.CriticalAge,
		WarningAge:  n.WarningAge,
	}, n.UpgradeURL)
	gateway := service.NewRepoGateway(userRepo, notificationRepo, dismissalRepo)
	notifSvc := service.NewNotificationService(gateway, agg, service.NewReadTracker(), feed, log)
	authSvc := service.NewAuthService(cfg, userRepo)
	adminNotifSvc := service.NewAdminNotificationService(notificationRepo, feed, log)
	usageSvc := service.NewUsageService(usageRepo, userRepo, feed)

	hub := ws.NewNotificationHub(notifSvc, n.Debounce, log)
	detach := hub.Attach(feed)

	// Handlers
	authHandler := handler.NewAuthHandler(authSvc, log)
	meHandler := handler.NewMeHandler(userRepo, usageSvc, log)
	notificationHandler := handler.NewNotificationHandler(notifSvc)
	adminHandler := handler.NewAdminHandler(adminNotifSvc, usageSvc, log)

	authMw := middleware.AuthRequired(&cfg.JWT)
	// After authMw the limiter keys by user, elsewhere by client IP.
	limit := middleware.RateLimit(limiter)

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/ws/notifications", limit, ws.UpgradeNotificationsWS(&cfg.JWT, hub))

	api := r.Group("/api/v1")
	{
		authGroup := api.Group("/auth")
		authGroup.Use(limit)
		{
			authGroup.POST("/register", authHandler.Register)
			authGroup.POST("/login", authHandler.Login)
		}

		me := api.Group("/me")
		me.Use(authMw, limit)
		{
			me.GET("/profile", meHandler.GetProfile)
			me.POST("/usage", meHandler.RecordUsage)
			me.GET("/usage", meHandler.UsageHistory)
			me.GET("/notifications", notificationHandler.List)
			me.POST("/notifications/dismiss-all", notificationHandler.DismissAll)
			me.POST("/notifications/:id/dismiss", notificationHandler.Dismiss)
			me.PUT("/notifications/read-all", notificationHandler.MarkAllRead)
			me.PUT("/notifications/:id/read", notificationHandler.MarkRead)
		}

		admin := api.Group("/admin")
		admin.Use(authMw, limit, middleware.AdminRequired())
		{
			admin.GET("/notifications", adminHandler.ListNotifications)
			admin.POST("/notifications", adminHandler.CreateNotification)
			admin.PATCH("/notifications/:id/active", adminHandler.SetNotificationActive)
			admin.DELETE("/notifications/:id", adminHandler.DeleteNotification)
			admin.PATCH("/users/:id/limit", adminHandler.SetWordsLimit)
			admin.POST("/users/:id/reset-usage", adminHandler.ResetUsage)
		}
	}

	return r, func() {
		detach()
		hub.Close()
	}
}
