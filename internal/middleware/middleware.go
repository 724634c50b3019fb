package middleware

import (
	"fmt"
	"net/http"
	"time"

	"todolist/internal/dto"

	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const RequestIDHeader = "X-Request-ID"

const contextKeyRequestID = "request_id"

// RequestIDFromContext returns the id set by RequestID. Empty if not set.
func RequestIDFromContext(c *gin.Context) string {
	v, ok := c.Get(contextKeyRequestID)
	if !ok {
		return ""
	}
	id, _ := v.(string)
	return id
}

// RequestID reuses an incoming X-Request-ID or assigns a new one and echoes it back.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIDHeader)
		if id == "" || len(id) > 128 {
			id = uuid.NewString()
		}
		c.Set(contextKeyRequestID, id)
		c.Header(RequestIDHeader, id)
		c.Next()
	}
}

// Logger logs one line per request.
func Logger(logger *log.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		fields := []any{
			"method", c.Request.Method,
			"path", c.Request.URL.RequestURI(),
			"status", status,
			"latency", time.Since(start).Round(time.Microsecond),
			"ip", c.ClientIP(),
			"request_id", RequestIDFromContext(c),
		}
		switch {
		case status >= http.StatusInternalServerError:
			logger.Error("request", fields...)
		case status >= http.StatusBadRequest:
			logger.Warn("request", fields...)
		default:
			logger.Info("request", fields...)
		}
	}
}

// Recovery turns a panic in any handler into a logged 500 so one bad request
// cannot take the process down.
func Recovery(logger *log.Logger) gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered any) {
		logger.Error("panic recovered",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"request_id", RequestIDFromContext(c),
			"panic", fmt.Sprint(recovered),
		)
		c.AbortWithStatusJSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "Internal server error"})
	})
}
