package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

const (
	claimsKey = "auth.claims"
	userKey   = "auth.user"
)

// UserLoader resolves a credential id to its users row.
type UserLoader interface {
	Get(ctx context.Context, id string) (*User, error)
}

// TokenFromRequest extracts the session token from the cookie, falling back
// to an Authorization bearer header for clients where cookies are
// unreliable.
func TokenFromRequest(c *gin.Context, cookieName string) string {
	if token, err := c.Cookie(cookieName); err == nil && token != "" {
		return token
	}
	authz := c.GetHeader("Authorization")
	if authz != "" && strings.HasPrefix(strings.ToLower(authz), "bearer ") {
		return strings.TrimSpace(authz[len("bearer "):])
	}
	return ""
}

// RequireSession guards protected routes. It accepts a valid, unrevoked
// session token resolving to an existing users row.
func RequireSession(cookieName, signingKey string, registry SessionStore, users UserLoader) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := TokenFromRequest(c, cookieName)
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing session", "code": "UNAUTHORIZED"})
			return
		}
		claims, err := ParseSession(token, signingKey)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid session", "code": "UNAUTHORIZED"})
			return
		}
		if registry.IsRevoked(c.Request.Context(), claims.ID) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "session revoked", "code": "UNAUTHORIZED"})
			return
		}
		user, err := users.Get(c.Request.Context(), claims.Subject)
		if err != nil || user == nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unknown session user", "code": "UNAUTHORIZED"})
			return
		}
		c.Set(claimsKey, claims)
		c.Set(userKey, user)
		c.Next()
	}
}

// CurrentUser returns the authenticated user set by RequireSession, or nil.
func CurrentUser(c *gin.Context) *User {
	if v, ok := c.Get(userKey); ok {
		if u, ok := v.(*User); ok {
			return u
		}
	}
	return nil
}

// CurrentClaims returns the session claims set by RequireSession.
func CurrentClaims(c *gin.Context) (Claims, bool) {
	if v, ok := c.Get(claimsKey); ok {
		if claims, ok := v.(Claims); ok {
			return claims, true
		}
	}
	return Claims{}, false
}
