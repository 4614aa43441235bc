package middleware

import (
	"net/http"
	"strings"

	"rigcheck/internal/services"

	"github.com/gin-gonic/gin"
)

const userIDKey = "user_id"

// BearerToken extracts the token from an "Authorization: Bearer" header
func BearerToken(header string) string {
	const prefix = "Bearer "
	if len(header) > len(prefix) && strings.EqualFold(header[:len(prefix)], prefix) {
		return strings.TrimSpace(header[len(prefix):])
	}
	return ""
}

// RequireOwner rejects requests without a valid owner token and stores the
// token's user id for handlers.
func RequireOwner(auth *services.AuthService, secLog *SecurityLogger) gin.HandlerFunc {
	validator := NewInputValidator()
	return func(c *gin.Context) {
		token := BearerToken(c.GetHeader("Authorization"))
		if token == "" {
			secLog.LogFailedAuth(c.ClientIP(), "missing bearer token")
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing token"})
			return
		}
		if !validator.ValidateToken(token) {
			secLog.LogFailedAuth(c.ClientIP(), "malformed token")
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}
		claims, err := auth.ValidateToken(token)
		if err != nil {
			secLog.LogFailedAuth(c.ClientIP(), err.Error())
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}
		c.Set(userIDKey, claims.UserID)
		c.Next()
	}
}

// UserID returns the owner set by RequireOwner
func UserID(c *gin.Context) string {
	return c.GetString(userIDKey)
}
