package auth

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"rollcall/internal/metrics"
)

// SessionCookie is the cookie carrying the ambient session token for
// browsing clients.
const SessionCookie = "rollcall_session"

const ctxKeyAuth = "authContext"
const ctxKeyAuthErr = "authError"

// ExtractCredential pulls the bearer header or session cookie off a
// request. Bearer wins when both are present. ok is false when the
// request carries no credential at all.
func ExtractCredential(r *http.Request) (Credential, bool) {
	authz := r.Header.Get("Authorization")
	if authz != "" && strings.HasPrefix(strings.ToLower(authz), "bearer ") {
		return Credential{Kind: KindBearer, Token: strings.TrimSpace(authz[len("bearer "):])}, true
	}
	if cookie, err := r.Cookie(SessionCookie); err == nil && cookie.Value != "" {
		return Credential{Kind: KindSession, Token: cookie.Value}, true
	}
	return Credential{}, false
}

// Resolve authenticates the request's credential, if any, and attaches
// the AuthContext for downstream handlers. Resolution failure is stored
// rather than rejected here so public routes keep working; Require does
// the rejecting.
func Resolve(a *Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		cred, ok := ExtractCredential(c.Request)
		if !ok {
			c.Next()
			return
		}
		actx, err := a.Authenticate(c.Request.Context(), cred)
		if err != nil {
			c.Set(ctxKeyAuthErr, err)
			c.Next()
			return
		}
		c.Set(ctxKeyAuth, &actx)
		c.Next()
	}
}

// FromContext returns the resolved AuthContext, or nil when the request
// carried no valid credential.
func FromContext(c *gin.Context) *AuthContext {
	if v, ok := c.Get(ctxKeyAuth); ok {
		if actx, ok := v.(*AuthContext); ok {
			return actx
		}
	}
	return nil
}

// Require gates the route on required, answering denials per client
// kind: a browsing client with no credential is redirected to /login,
// a programmatic one gets 401; an insufficient role is always 403.
func Require(required RoleSet) gin.HandlerFunc {
	return func(c *gin.Context) {
		actx := FromContext(c)
		decision := Authorize(actx, required)
		if decision.Allowed {
			c.Next()
			return
		}
		metrics.GateDenials.WithLabelValues(string(decision.Reason)).Inc()

		if decision.Reason == DenyInsufficientRole {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "insufficient role"})
			return
		}

		// No usable credential. A presented-but-bad one still answers 401
		// with its specific failure.
		msg := "authentication required"
		if v, ok := c.Get(ctxKeyAuthErr); ok {
			if err, ok := v.(error); ok {
				switch {
				case errors.Is(err, ErrExpired):
					msg = "credential expired"
				case errors.Is(err, ErrNotFound):
					msg = "identity not found"
				default:
					msg = "invalid credential"
				}
			}
		} else if isBrowser(c.Request) {
			c.Redirect(http.StatusSeeOther, "/login")
			c.Abort()
			return
		}
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": msg})
	}
}

func isBrowser(r *http.Request) bool {
	return strings.Contains(r.Header.Get("Accept"), "text/html")
}
