package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/subtrack/subtrack/internal/config"
	ierr "github.com/subtrack/subtrack/internal/errors"
	"github.com/subtrack/subtrack/internal/logger"
	"github.com/subtrack/subtrack/internal/types"
)

// ErrorHandler renders the last error a handler attached with c.Error. Internal messages
// are only exposed outside production.
func ErrorHandler(cfg *config.Configuration, log *logger.Logger) gin.HandlerFunc {
	showInternal := cfg.Server.Env != types.EnvProd

	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}

		err := c.Errors.Last().Err
		status := ierr.HTTPStatusFromErr(err)
		if status >= 500 {
			log.WithContext(c.Request.Context()).Errorw("request failed",
				"path", c.Request.URL.Path,
				"error", err)
		}

		c.JSON(status, ierr.NewErrorResponse(err, showInternal))
	}
}
