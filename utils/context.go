package utils

import (
	"github.com/gin-gonic/gin"
)

type contextKey string

const RequestIDContextKey contextKey = "requestID"

const RequestIDHeader = "X-Request-ID"

func SetRequestID(c *gin.Context, id string) {
	c.Set(string(RequestIDContextKey), id)
}

func GetRequestID(c *gin.Context) string {
	id, exists := c.Get(string(RequestIDContextKey))
	if !exists {
		return ""
	}
	if s, ok := id.(string); ok {
		return s
	}
	return ""
}
