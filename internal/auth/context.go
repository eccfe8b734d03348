package auth

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Role values produced by the upstream authenticator.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// Context is the authenticated-caller identity. It is produced by the external
// authentication layer (an API Gateway authorizer in the Lambda deployment, or
// a reverse proxy locally) and consumed here as an opaque input.
type Context struct {
	UserID string
	Name   string
	Email  string
	Role   string
}

// IsAdmin reports whether the caller has the admin role.
func (a Context) IsAdmin() bool { return a.Role == RoleAdmin }

const ctxKey = "auth.caller"

// Middleware extracts the caller identity from the headers set by the upstream
// authenticator and stores it on the request context. Requests without an
// identity pass through unauthenticated; route guards decide what to reject.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if id := c.GetHeader("X-User-Id"); id != "" {
			c.Set(ctxKey, Context{
				UserID: id,
				Name:   c.GetHeader("X-User-Name"),
				Email:  c.GetHeader("X-User-Email"),
				Role:   c.GetHeader("X-User-Role"),
			})
		}
		c.Next()
	}
}

// FromContext returns the caller identity, if any.
func FromContext(c *gin.Context) (Context, bool) {
	v, ok := c.Get(ctxKey)
	if !ok {
		return Context{}, false
	}
	caller, ok := v.(Context)
	return caller, ok
}

// RequireUser aborts with 401 when no authenticated caller is present.
func RequireUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := FromContext(c); !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "authentication required"})
			return
		}
		c.Next()
	}
}

// RequireAdmin aborts with 401 for anonymous callers and 403 for non-admins.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		caller, ok := FromContext(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "authentication required"})
			return
		}
		if !caller.IsAdmin() {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"message": "admin access required"})
			return
		}
		c.Next()
	}
}
