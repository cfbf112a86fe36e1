package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"grimoire-backend/internal/shared/response"
	"grimoire-backend/pkg/jwt"
)

// ContextUserID is the gin context key carrying the authenticated user.
const ContextUserID = "userID"

// Auth verifies the bearer token on protected routes and puts the user ID
// into the request context. Every rejection uses the same message so a
// caller cannot tell a missing token from an expired or forged one.
func Auth(manager *jwt.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			abortUnauthorized(c)
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			abortUnauthorized(c)
			return
		}

		userID, err := manager.Verify(parts[1])
		if err != nil {
			abortUnauthorized(c)
			return
		}

		c.Set(ContextUserID, userID)
		c.Next()
	}
}

// UserID reads the authenticated user set by Auth.
func UserID(c *gin.Context) (uuid.UUID, bool) {
	v, ok := c.Get(ContextUserID)
	if !ok {
		return uuid.Nil, false
	}
	id, ok := v.(uuid.UUID)
	return id, ok
}

func abortUnauthorized(c *gin.Context) {
	response.ErrorResponse(c, http.StatusUnauthorized, "UNAUTHORIZED", "invalid or missing token")
	c.Abort()
}
