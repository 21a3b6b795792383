package middleware

import (
	"net/http"
	"strings"

	"klaus/pkg/response"
	"klaus/pkg/utils"

	"github.com/gin-gonic/gin"
)

// AuthMiddleware validates the bearer token and stores the caller
// identity in the request context.
func AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			response.Error(c, http.StatusUnauthorized, response.ErrTokenInvalid, "Authorization header is required")
			c.Abort()
			return
		}

		// Expect "Bearer <token>"
		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			response.Error(c, http.StatusUnauthorized, response.ErrTokenInvalid, "Invalid authorization header format")
			c.Abort()
			return
		}

		claims, err := utils.ParseToken(parts[1])
		if err != nil {
			response.Error(c, http.StatusUnauthorized, response.ErrTokenInvalid, "Invalid or expired token")
			c.Abort()
			return
		}

		c.Set("userID", claims.UserID)
		c.Set("handle", claims.Handle)

		c.Next()
	}
}

// CurrentUserID reads the authenticated user id set by AuthMiddleware.
func CurrentUserID(c *gin.Context) string {
	if v, exists := c.Get("userID"); exists {
		if id, ok := v.(string); ok {
			return id
		}
	}
	return ""
}
