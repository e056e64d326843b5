package middlewares

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/tracker000/gridtrack/internal/domain/account"
	"github.com/tracker000/gridtrack/internal/session"
)

// SessionResolver is kept small so tests can fake it easily.
type SessionResolver interface {
	Resolve(ctx context.Context, token string) (account.Account, error)
}

type AuthMiddleware struct {
	sessions SessionResolver
}

func NewAuthMiddleware(sessions SessionResolver) *AuthMiddleware {
	return &AuthMiddleware{sessions: sessions}
}

const ctxAccountKey = "auth.account"

// RequireAuth resolves the bearer token to an account and stashes it on the
// context. The resolved account is the only source of identity and role for
// everything downstream; caller-supplied role headers are never consulted.
func (m *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := BearerToken(c)

		if raw == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": gin.H{
					"code":    "unauthorized",
					"message": "Missing or invalid Authorization header",
				},
			})
			return
		}

		acct, err := m.sessions.Resolve(c.Request.Context(), raw)

		if err != nil {
			if errors.Is(err, session.ErrUnauthenticated) {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
					"error": gin.H{
						"code":    "unauthorized",
						"message": "Invalid or expired session token",
					},
				})
				return
			}

			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
				"error": gin.H{
					"code":    "internal_error",
					"message": "Could not resolve session",
				},
			})
			return
		}

		c.Set(ctxAccountKey, acct)

		c.Next()
	}
}

// BearerToken extracts the raw token from the Authorization header, or ""
// when the header is absent or not a bearer credential.
func BearerToken(c *gin.Context) string {
	authHeader := c.GetHeader("Authorization")

	if !strings.HasPrefix(authHeader, "Bearer ") {
		return ""
	}

	return strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer"))
}

// AccountFromContext returns the account RequireAuth resolved, so handlers
// don't need to know the magic key.
func AccountFromContext(c *gin.Context) (account.Account, bool) {
	v, ok := c.Get(ctxAccountKey)

	if !ok {
		return account.Account{}, false
	}

	acct, ok := v.(account.Account)

	return acct, ok
}
