package middlewares

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/hiflogistics/freight_backend/config"
	"github.com/hiflogistics/freight_backend/utils"
	"github.com/sirupsen/logrus"
)

const (
	CorrelationIdHeader = "x-correlation-id"
	ActorHeader         = "X-User-Name"
)

// CorrelationIdMiddleware reuses the caller's correlation id or starts a new one,
// and echoes it back on the response.
func CorrelationIdMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		cid := c.GetHeader(CorrelationIdHeader)
		if cid == "" {
			cid = uuid.NewString()
		}
		c.Writer.Header().Set(CorrelationIdHeader, cid)
		c.Request = c.Request.WithContext(utils.SetCorrelationIdInContext(c.Request.Context(), cid))
		c.Next()
	}
}

// ActorMiddleware records who is acting for history rows. Identity is not verified here.
func ActorMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		name := strings.TrimSpace(c.GetHeader(ActorHeader))
		if name == "" {
			name = utils.DefaultActorName
		}
		c.Request = c.Request.WithContext(utils.SetActorNameInContext(c.Request.Context(), name))
		c.Next()
	}
}

// ReadinessMiddleware answers 503 until the database is connected. /healthz always passes.
func ReadinessMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.URL.Path == "/healthz" {
			c.Next()
			return
		}
		if config.GetDB() == nil {
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": "service is starting"})
			return
		}
		c.Next()
	}
}

// ErrorLogger logs only requests that collected errors.
func ErrorLogger(logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) > 0 {
			cid, _ := utils.GetCorrelationIdFromContext(c.Request.Context())
			logger.WithFields(logrus.Fields{
				"method":         c.Request.Method,
				"path":           c.FullPath(),
				"status":         c.Writer.Status(),
				"correlation_id": cid,
			}).Error(c.Errors.String())
		}
	}
}
