package middlewares

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// RequireRole gates an operation on an exact role match. There is no role
// hierarchy: each protected route declares the one role it accepts.
func (m *AuthMiddleware) RequireRole(required string) gin.HandlerFunc {
	return func(c *gin.Context) {
		acct, ok := AccountFromContext(c)

		if !ok || acct.Role == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": gin.H{
					"code":    "unauthorized",
					"message": "Missing identity context",
				},
			})
			return
		}

		if acct.Role != required {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"error": gin.H{
					"code":    "forbidden",
					"message": "Insufficient role for this operation",
				},
			})
			return
		}

		c.Next()
	}
}
