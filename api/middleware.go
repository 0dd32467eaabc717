package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

const userKey = "username"

// RequireUser pulls the authenticated username set by the fronting
// gateway. Authentication itself happens upstream of this service.
func RequireUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		username := c.GetHeader("X-Username")
		if username == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
			return
		}
		c.Set(userKey, username)
		c.Next()
	}
}

func currentUser(c *gin.Context) string {
	return c.GetString(userKey)
}
