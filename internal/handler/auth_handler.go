package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/noah-isme/records-panel/internal/middleware"
	"github.com/noah-isme/records-panel/internal/models"
	"github.com/noah-isme/records-panel/internal/service"
	appErrors "github.com/noah-isme/records-panel/pkg/errors"
)

// Login form messages.
const (
	LoginFailedText   = "نام کاربری یا رمز عبور اشتباه است"
	LoginRequiredText = "نام کاربری و رمز عبور الزامی است"
	loginTitle        = "ورود"
)

type sessionManager interface {
	Login(ctx context.Context, req models.LoginRequest) (*service.Session, error)
	Logout(ctx context.Context, sessionID string) error
	TTL() time.Duration
}

type panelRemover interface {
	Remove(sessionID string)
}

// CookieConfig describes the session cookie.
type CookieConfig struct {
	Name   string
	Secure bool
}

// AuthHandler serves the login form and manages the session cookie.
type AuthHandler struct {
	sessions sessionManager
	panels   panelRemover
	cookie   CookieConfig
	logger   *zap.Logger
}

// NewAuthHandler creates a new handler.
func NewAuthHandler(sessions sessionManager, panels panelRemover, cookie CookieConfig, logger *zap.Logger) *AuthHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthHandler{sessions: sessions, panels: panels, cookie: cookie, logger: logger}
}

// LoginPage renders the login form.
func (h *AuthHandler) LoginPage(c *gin.Context) {
	c.Header("Cache-Control", "no-store")
	c.HTML(http.StatusOK, "login.html", gin.H{"Title": loginTitle, "Error": "", "Username": ""})
}

// Login godoc
// @Summary Start an admin session
// @Description Checks the admin credentials, sets the session cookie and redirects to the panel
// @Tags Session
// @Accept x-www-form-urlencoded
// @Produce html
// @Param username formData string true "Admin username"
// @Param password formData string true "Admin password"
// @Success 303
// @Failure 400 {string} string "login form"
// @Failure 401 {string} string "login form"
// @Router /login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req models.LoginRequest
	_ = c.ShouldBind(&req)

	session, err := h.sessions.Login(c.Request.Context(), req)
	if err != nil {
		appErr := appErrors.FromError(err)
		message := LoginFailedText
		if errors.Is(err, appErrors.ErrValidation) {
			message = LoginRequiredText
		} else if !errors.Is(err, appErrors.ErrInvalidCredentials) {
			h.logger.Error("login failed", zap.Error(err))
		}
		c.Header("Cache-Control", "no-store")
		c.HTML(appErr.Status, "login.html", gin.H{"Title": loginTitle, "Error": message, "Username": req.Username})
		return
	}

	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(h.cookie.Name, session.Token, int(h.sessions.TTL().Seconds()), "/", "", h.cookie.Secure, true)
	c.Redirect(http.StatusSeeOther, "/panel")
}

// Logout godoc
// @Summary End the admin session
// @Tags Session
// @Success 303
// @Router /logout [post]
func (h *AuthHandler) Logout(c *gin.Context) {
	if claims := middleware.SessionFromContext(c); claims != nil {
		if err := h.sessions.Logout(c.Request.Context(), claims.SessionID); err != nil {
			h.logger.Warn("logout failed", zap.String("session_id", claims.SessionID), zap.Error(err))
		}
		h.panels.Remove(claims.SessionID)
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(h.cookie.Name, "", -1, "/", "", h.cookie.Secure, true)
	c.Redirect(http.StatusSeeOther, middleware.LoginPath)
}
