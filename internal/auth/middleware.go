package auth

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// ContextUserID is the gin context key handlers read the caller's
// user ID from after Middleware has run.
const ContextUserID = "userId"

// Middleware validates the Bearer token and injects the user ID into
// the request context. Requests without a valid token are rejected
// with 401 before reaching any handler.
func Middleware(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if strings.HasPrefix(header, "Bearer ") {
			token := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
			userID, err := ParseAccessToken(secret, token)
			if err == nil {
				c.Set(ContextUserID, userID)
				c.Next()
				return
			}
		}
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
	}
}
