package middlewares

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/geocoder89/jobsapi/internal/apperrors"
	"github.com/geocoder89/jobsapi/internal/auth"
)

// TokenVerifier checks a raw bearer token and returns its claims.
type TokenVerifier interface {
	VerifyToken(token string) (*auth.Claims, error)
}

type AuthMiddleware struct {
	jwt TokenVerifier
}

func NewAuthMiddleware(jwt TokenVerifier) *AuthMiddleware {
	return &AuthMiddleware{jwt: jwt}
}

// RequireAuth rejects the request before any downstream handler runs unless
// the Authorization header carries a valid bearer token.
func (m *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if !strings.HasPrefix(authHeader, "Bearer ") {
			_ = c.Error(apperrors.Authentication())
			c.Abort()
			return
		}

		raw := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer"))
		if raw == "" {
			_ = c.Error(apperrors.Authentication())
			c.Abort()
			return
		}

		claims, err := m.jwt.VerifyToken(raw)
		if err != nil {
			_ = c.Error(apperrors.InvalidToken())
			c.Abort()
			return
		}

		// Stash the identity on the context for the rest of the request
		c.Set(CtxUserID, claims.UserID)
		c.Set(CtxUserName, claims.Name)

		c.Next()
	}
}

// Helpers so handlers don't need to know the magic keys.

func UserIDFromContext(c *gin.Context) (string, bool) {
	v, ok := c.Get(CtxUserID)
	if !ok {
		return "", false
	}
	id, ok := v.(string)
	return id, ok
}

func UserNameFromContext(c *gin.Context) (string, bool) {
	v, ok := c.Get(CtxUserName)
	if !ok {
		return "", false
	}
	name, ok := v.(string)
	return name, ok
}
