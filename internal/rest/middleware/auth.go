package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/subtrack/subtrack/internal/auth"
	ierr "github.com/subtrack/subtrack/internal/errors"
	"github.com/subtrack/subtrack/internal/logger"
	"github.com/subtrack/subtrack/internal/types"
)

const bearerPrefix = "Bearer "

// AuthenticateMiddleware requires a valid bearer token and puts its user id in the request
// context
func AuthenticateMiddleware(provider auth.Provider, log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader(types.HeaderAuthorization)
		if !strings.HasPrefix(header, bearerPrefix) {
			abortUnauthorized(c, ierr.NewError("missing bearer token").
				WithHint("Please provide a valid bearer token").
				Mark(ierr.ErrUnauthorized))
			return
		}

		token := strings.TrimSpace(strings.TrimPrefix(header, bearerPrefix))
		claims, err := provider.ValidateToken(c.Request.Context(), token)
		if err != nil {
			log.Debugw("rejected bearer token", "error", err)
			abortUnauthorized(c, err)
			return
		}

		ctx := types.SetUserID(c.Request.Context(), claims.UserID)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

func abortUnauthorized(c *gin.Context, err error) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, ierr.NewErrorResponse(err, false))
}
