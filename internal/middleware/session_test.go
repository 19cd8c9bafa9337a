package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/noah-isme/records-panel/internal/models"
	appErrors "github.com/noah-isme/records-panel/pkg/errors"
)

type stubAuthenticator struct {
	valid string
}

func (s stubAuthenticator) Authenticate(ctx context.Context, token string) (*models.SessionClaims, error) {
	if token == "" || token != s.valid {
		return nil, appErrors.ErrUnauthorized
	}
	return &models.SessionClaims{SessionID: "sid-1", Username: "admin"}, nil
}

func newSessionRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Session(stubAuthenticator{valid: "good"}, "panel_session"))
	handler := func(c *gin.Context) {
		c.String(http.StatusOK, SessionFromContext(c).SessionID)
	}
	r.GET("/panel", handler)
	r.GET("/panel/events", handler)
	r.POST("/panel/filters", handler)
	return r
}

func TestSessionRedirectsPageLoadsToLogin(t *testing.T) {
	r := newSessionRouter()
	req := httptest.NewRequest(http.MethodGet, "/panel", nil)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")
	w := httptest.NewRecorder()

	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, LoginPath, w.Header().Get("Location"))
}

func TestSessionRejectsStreamsAndScripts(t *testing.T) {
	r := newSessionRouter()

	req := httptest.NewRequest(http.MethodGet, "/panel/events", nil)
	req.Header.Set("Accept", "text/event-stream")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	req = httptest.NewRequest(http.MethodPost, "/panel/filters", nil)
	req.AddCookie(&http.Cookie{Name: "panel_session", Value: "forged"})
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestSessionPassesValidCookie(t *testing.T) {
	r := newSessionRouter()
	req := httptest.NewRequest(http.MethodGet, "/panel", nil)
	req.AddCookie(&http.Cookie{Name: "panel_session", Value: "good"})
	w := httptest.NewRecorder()

	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "sid-1", w.Body.String())
}
