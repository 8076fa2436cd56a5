package app

import (
	"github.com/gin-gonic/gin"
	"github.com/gofrs/uuid"
	"github.com/sirupsen/logrus"

	"github.com/embedportal/astratoui/environment"
)

// RequestId tags every request with a uuid so log lines from one request can
// be correlated.
func RequestId() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := uuid.NewV4()
		if err != nil {
			c.AbortWithStatus(500)
			return
		}
		c.Set(environment.RequestIdKey, id.String())
		c.Next()
	}
}

// RequestLogger puts a request scoped logrus entry on the context. Controllers
// fetch it with c.MustGet(environment.LogKey).
func RequestLogger(logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		requestId := c.MustGet(environment.RequestIdKey).(string)

		log := logger.WithFields(logrus.Fields{
			"request.id":     requestId,
			"request.method": c.Request.Method,
			"request.path":   c.Request.URL.Path,
		})
		c.Set(environment.LogKey, log)
		c.Next()
	}
}
