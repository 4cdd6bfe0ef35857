package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/arsipku/arsipku/internal/auth"
)

// Keys under which SessionAuth stores the authenticated user's summary and
// the raw session token on the gin context.
const (
	ContextUserKey  = "user"
	ContextTokenKey = "sessionToken"
)

// SessionVerifier is the minimal surface the middleware needs from the auth
// service.
type SessionVerifier interface {
	VerifySession(ctx context.Context, userID, token string) (*auth.Summary, error)
}

// SessionAuth verifies the Bearer credential on each request. The credential
// is "<userID>:<sessionToken>" exactly as returned by login; an absent or
// expired session is a 401.
func SessionAuth(ver SessionVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing Authorization header"})
			return
		}
		raw, ok := strings.CutPrefix(header, "Bearer ")
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid Authorization header"})
			return
		}
		userID, token, ok := strings.Cut(raw, ":")
		if !ok || userID == "" || token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid credential format"})
			return
		}

		u, err := ver.VerifySession(c.Request.Context(), userID, token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "session check failed"})
			return
		}
		if u == nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "session expired or unknown"})
			return
		}

		c.Set(ContextUserKey, u)
		c.Set(ContextTokenKey, token)
		c.Next()
	}
}

// CurrentUser returns the authenticated user set by SessionAuth, or nil.
func CurrentUser(c *gin.Context) *auth.Summary {
	v, ok := c.Get(ContextUserKey)
	if !ok {
		return nil
	}
	u, _ := v.(*auth.Summary)
	return u
}

// SessionToken returns the raw session token set by SessionAuth.
func SessionToken(c *gin.Context) string {
	v, ok := c.Get(ContextTokenKey)
	if !ok {
		return ""
	}
	t, _ := v.(string)
	return t
}

// RequirePermission gates the route on a single permission. It must run after
// SessionAuth. The check happens before any handler work, so unauthorized
// callers never reach the repository.
func RequirePermission(p auth.Permission) gin.HandlerFunc {
	return func(c *gin.Context) {
		u := CurrentUser(c)
		if u == nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "not authenticated"})
			return
		}
		if !u.HasPermission(p) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "permission denied"})
			return
		}
		c.Next()
	}
}
