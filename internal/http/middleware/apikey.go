package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// APIKey guards requests with a static key when one is configured. An
// empty key disables the check, for local development.
func APIKey(required string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if required == "" {
			c.Next()
			return
		}
		if c.GetHeader("X-API-Key") != required {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"detail": "invalid API key"})
			return
		}
		c.Next()
	}
}
