package middleware

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/azrrael22/horse-reserved/internal/infra/logger"
)

const requestIDHeader = "X-Request-ID"

// RequestID attaches a correlation identifier to the request. An inbound
// X-Request-ID is honored; otherwise the trace id doubles as the request id
// so both correlation headers line up in the logs, with a fresh UUID as the
// last resort.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = c.GetHeader(TraceIDHeader)
		}
		if id == "" {
			id = uuid.NewString()
		}

		c.Writer.Header().Set(requestIDHeader, id)
		c.Request = c.Request.WithContext(
			context.WithValue(c.Request.Context(), logger.RequestIDKey{}, id),
		)

		c.Next()
	}
}
