package api

import (
	"github.com/gin-gonic/gin"
	v1 "github.com/subtrack/subtrack/internal/api/v1"
	"github.com/subtrack/subtrack/internal/auth"
	"github.com/subtrack/subtrack/internal/config"
	"github.com/subtrack/subtrack/internal/logger"
	"github.com/subtrack/subtrack/internal/rest/middleware"
)

type Handlers struct {
	Health       *v1.HealthHandler
	Auth         *v1.AuthHandler
	User         *v1.UserHandler
	Subscription *v1.SubscriptionHandler
	Analytics    *v1.AnalyticsHandler
	Reminder     *v1.ReminderHandler
}

func NewRouter(handlers Handlers, cfg *config.Configuration, logger *logger.Logger, authProvider auth.Provider) *gin.Engine {
	router := gin.New()
	router.Use(
		gin.Recovery(),
		middleware.RequestIDMiddleware,
		middleware.LoggingMiddleware(logger),
		middleware.SentryMiddleware(cfg),
		middleware.ErrorHandler(cfg, logger),
	)

	router.GET("/health", handlers.Health.Health)

	public := router.Group("/v1")
	{
		authRoutes := public.Group("/auth")
		{
			authRoutes.POST("/signup", handlers.Auth.SignUp)
			authRoutes.POST("/login", handlers.Auth.Login)
		}
	}

	private := router.Group("/v1",
		middleware.AuthenticateMiddleware(authProvider, logger),
		middleware.SentryUserContextMiddleware,
	)

	user := private.Group("/users")
	{
		user.GET("/me", handlers.User.GetUserInfo)
		user.PUT("/me", handlers.User.UpdateUser)
	}

	subscription := private.Group("/subscriptions")
	{
		subscription.POST("", handlers.Subscription.CreateSubscription)
		subscription.GET("", handlers.Subscription.ListSubscriptions)
		subscription.GET("/upcoming-renewals", handlers.Subscription.ListUpcomingRenewals)
		subscription.GET("/export", handlers.Subscription.ExportSubscriptions)
		subscription.GET("/user/:user_id", handlers.Subscription.ListUserSubscriptions)
		subscription.GET("/:id", handlers.Subscription.GetSubscription)
		subscription.PATCH("/:id/cancel", handlers.Subscription.CancelSubscription)
		subscription.DELETE("/:id", handlers.Subscription.DeleteSubscription)
		subscription.POST("/:id/reminders", handlers.Subscription.TriggerReminders)
		subscription.GET("/:id/reminders", handlers.Subscription.GetReminderStatus)
	}

	analytics := private.Group("/analytics")
	{
		analytics.GET("/expenses", handlers.Analytics.GetExpenses)
		analytics.GET("/categories", handlers.Analytics.GetCategoryBreakdown)
	}

	admin := private.Group("/admin")
	{
		admin.POST("/reminders/backfill", handlers.Reminder.Backfill)
	}

	return router
}
