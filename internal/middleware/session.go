package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/records-panel/internal/models"
	"github.com/noah-isme/records-panel/pkg/response"
)

// ContextSessionKey is the gin context key storing the session claims.
const ContextSessionKey = "panelSession"

// LoginPath is where unauthenticated page loads are sent.
const LoginPath = "/login"

type sessionAuthenticator interface {
	Authenticate(ctx context.Context, token string) (*models.SessionClaims, error)
}

// Session protects panel routes with the signed session cookie and the
// server-side logged-in flag. Page navigations are redirected to the login
// form; script requests and event streams get 401.
func Session(auth sessionAuthenticator, cookieName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, _ := c.Cookie(cookieName)
		claims, err := auth.Authenticate(c.Request.Context(), token)
		if err != nil {
			if isPageNavigation(c.Request) {
				c.Redirect(http.StatusSeeOther, LoginPath)
				c.Abort()
				return
			}
			response.Error(c, err)
			c.Abort()
			return
		}

		c.Set(ContextSessionKey, claims)
		c.Next()
	}
}

// SessionFromContext returns the claims stored by Session, or nil.
func SessionFromContext(c *gin.Context) *models.SessionClaims {
	value, exists := c.Get(ContextSessionKey)
	if !exists {
		return nil
	}
	claims, ok := value.(*models.SessionClaims)
	if !ok {
		return nil
	}
	return claims
}

func isPageNavigation(r *http.Request) bool {
	if r.Method != http.MethodGet {
		return false
	}
	if strings.EqualFold(r.Header.Get("X-Requested-With"), "XMLHttpRequest") {
		return false
	}
	accept := r.Header.Get("Accept")
	if strings.Contains(accept, "text/event-stream") {
		return false
	}
	return accept == "" || strings.Contains(accept, "text/html") || strings.Contains(accept, "*/*")
}
