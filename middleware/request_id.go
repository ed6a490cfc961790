package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/snap-point/articles-api/utils"
)

// RequestID reuses an incoming X-Request-ID or generates a new one, stores it
// on the context and echoes it in the response.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(utils.RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}

		utils.SetRequestID(c, id)
		c.Header(utils.RequestIDHeader, id)

		c.Next()
	}
}
