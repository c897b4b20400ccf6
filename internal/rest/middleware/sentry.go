package middleware

import (
	"time"

	"github.com/getsentry/sentry-go"
	sentrygin "github.com/getsentry/sentry-go/gin"
	"github.com/gin-gonic/gin"
	"github.com/subtrack/subtrack/internal/config"
	"github.com/subtrack/subtrack/internal/types"
)

// SentryMiddleware returns a middleware that captures errors and performance data
func SentryMiddleware(cfg *config.Configuration) gin.HandlerFunc {
	if !cfg.Sentry.Enabled {
		return func(c *gin.Context) {
			c.Next()
		}
	}

	return sentrygin.New(sentrygin.Options{
		Repanic:         true,
		WaitForDelivery: false,
		Timeout:         2 * time.Second,
	})
}

// SentryUserContextMiddleware tags the request scope with the authenticated user.
// Mount it after AuthenticateMiddleware.
func SentryUserContextMiddleware(c *gin.Context) {
	hub := sentrygin.GetHubFromContext(c)
	if hub == nil {
		c.Next()
		return
	}
	if userID := types.GetUserID(c.Request.Context()); userID != "" {
		hub.Scope().SetUser(sentry.User{ID: userID})
		hub.Scope().SetTag("user_id", userID)
	}
	c.Next()
}
