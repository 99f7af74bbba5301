package auth

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

const userIDKey = "auth.user_id"

// RequireAuth rejects requests without a valid bearer token and stores the
// user id on the gin context. Browsers opening a websocket may pass the
// token as a query parameter instead.
func (s *Service) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := extractToken(c)
		if token == "" {
			abort(c, "missing or invalid token")
			return
		}
		userID, err := s.Verify(token)
		if err != nil {
			s.log.Debug("token rejected", "path", c.FullPath(), "error", err)
			abort(c, "missing or invalid token")
			return
		}
		c.Set(userIDKey, userID)
		c.Next()
	}
}

// UserID returns the authenticated user id set by RequireAuth.
func UserID(c *gin.Context) string {
	return c.GetString(userIDKey)
}

func extractToken(c *gin.Context) string {
	authHeader := c.GetHeader("Authorization")
	if len(authHeader) > 7 && strings.EqualFold(authHeader[:7], "Bearer ") {
		return strings.TrimSpace(authHeader[7:])
	}
	return c.Query("token")
}

func abort(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"error": gin.H{"message": msg, "code": "unauthorized"},
	})
}
