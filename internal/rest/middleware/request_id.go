package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/subtrack/subtrack/internal/types"
)

// RequestIDMiddleware propagates X-Request-ID, generating one when the client sent none
func RequestIDMiddleware(c *gin.Context) {
	requestID := c.GetHeader(types.HeaderRequestID)
	if requestID == "" {
		requestID = types.GenerateUUIDWithPrefix(types.UUID_PREFIX_REQUEST)
	}

	ctx := types.SetRequestID(c.Request.Context(), requestID)
	c.Request = c.Request.WithContext(ctx)
	c.Header(types.HeaderRequestID, requestID)
	c.Next()
}
