package middleware

import (
	"net/http"
	"strings"

	"collab-service/internal/websocket"

	"github.com/gin-gonic/gin"
)

// TokenVerifier resolves a bearer token to a principal. Same contract the
// WebSocket admission gate uses.
type TokenVerifier interface {
	Verify(token string) (*websocket.Principal, error)
}

type AuthMiddleware struct {
	tokens TokenVerifier
}

func NewAuthMiddleware(tokens TokenVerifier) *AuthMiddleware {
	return &AuthMiddleware{tokens: tokens}
}

func (am *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "authorization header is required"})
			c.Abort()
			return
		}

		tokenString := strings.TrimPrefix(authHeader, "Bearer ")
		principal, err := am.tokens.Verify(tokenString)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			c.Abort()
			return
		}

		c.Set("user_id", principal.UserID)
		c.Set("username", principal.Username)
		c.Next()
	}
}

// CurrentUserID reads the authenticated user id set by RequireAuth.
func CurrentUserID(c *gin.Context) (uint, bool) {
	v, ok := c.Get("user_id")
	if !ok {
		return 0, false
	}
	id, ok := v.(uint)
	return id, ok
}
