package service

import (
	"context"
	"crypto/subtle"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/records-panel/internal/models"
	appErrors "github.com/noah-isme/records-panel/pkg/errors"
)

const sessionIssuer = "records-panel"

// SessionStore keeps the logged-in flag per session id.
type SessionStore interface {
	SetLoggedIn(ctx context.Context, sessionID string, ttl time.Duration) error
	IsLoggedIn(ctx context.Context, sessionID string) (bool, error)
	Clear(ctx context.Context, sessionID string) error
}

// SessionConfig configures the login gate.
type SessionConfig struct {
	Secret            string
	TTL               time.Duration
	AdminUsername     string
	AdminPasswordHash string
	// AdminPassword is hashed at startup when no hash is configured.
	AdminPassword string
}

// Session is an authenticated browser session.
type Session struct {
	ID        string
	Username  string
	Token     string
	ExpiresAt time.Time
}

// SessionService authenticates the single admin user and tracks sessions.
type SessionService struct {
	store     SessionStore
	validator *validator.Validate
	logger    *zap.Logger
	config    SessionConfig
	hash      []byte
}

// NewSessionService constructs a SessionService.
func NewSessionService(store SessionStore, validate *validator.Validate, logger *zap.Logger, config SessionConfig) (*SessionService, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	if config.TTL <= 0 {
		config.TTL = 12 * time.Hour
	}
	if config.Secret == "" {
		return nil, fmt.Errorf("session secret is required")
	}

	hash := []byte(config.AdminPasswordHash)
	if len(hash) == 0 {
		if config.AdminPassword == "" {
			return nil, fmt.Errorf("admin password or password hash is required")
		}
		generated, err := bcrypt.GenerateFromPassword([]byte(config.AdminPassword), bcrypt.DefaultCost)
		if err != nil {
			return nil, fmt.Errorf("hash admin password: %w", err)
		}
		hash = generated
	}
	config.AdminPassword = ""

	return &SessionService{store: store, validator: validate, logger: logger, config: config, hash: hash}, nil
}

// TTL is the lifetime of a session.
func (s *SessionService) TTL() time.Duration {
	return s.config.TTL
}

// Login checks the admin credentials and opens a new session.
func (s *SessionService) Login(ctx context.Context, req models.LoginRequest) (*Session, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid login payload")
	}

	userOK := subtle.ConstantTimeCompare([]byte(req.Username), []byte(s.config.AdminUsername)) == 1
	passErr := bcrypt.CompareHashAndPassword(s.hash, []byte(req.Password))
	if !userOK || passErr != nil {
		s.logger.Info("login rejected", zap.String("username", req.Username))
		return nil, appErrors.ErrInvalidCredentials
	}

	issuedAt := time.Now().UTC()
	session := &Session{
		ID:        uuid.NewString(),
		Username:  req.Username,
		ExpiresAt: issuedAt.Add(s.config.TTL),
	}

	token, err := s.sign(session, issuedAt)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sign session")
	}
	session.Token = token

	if err := s.store.SetLoggedIn(ctx, session.ID, s.config.TTL); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store session")
	}

	s.logger.Info("session started", zap.String("session_id", session.ID))
	return session, nil
}

// Authenticate validates a cookie token and checks the session flag.
func (s *SessionService) Authenticate(ctx context.Context, token string) (*models.SessionClaims, error) {
	if token == "" {
		return nil, appErrors.ErrUnauthorized
	}
	claims, err := s.parse(token)
	if err != nil {
		return nil, err
	}

	ok, err := s.store.IsLoggedIn(ctx, claims.SessionID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to read session")
	}
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "session expired")
	}
	return claims, nil
}

// Logout clears the session flag.
func (s *SessionService) Logout(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return nil
	}
	if err := s.store.Clear(ctx, sessionID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to clear session")
	}
	s.logger.Info("session ended", zap.String("session_id", sessionID))
	return nil
}

func (s *SessionService) sign(session *Session, issuedAt time.Time) (string, error) {
	claims := &models.SessionClaims{
		SessionID: session.ID,
		Username:  session.Username,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    sessionIssuer,
			Subject:   session.Username,
			ExpiresAt: jwt.NewNumericDate(session.ExpiresAt),
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			NotBefore: jwt.NewNumericDate(issuedAt),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.config.Secret))
}

func (s *SessionService) parse(tokenString string) (*models.SessionClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &models.SessionClaims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.config.Secret), nil
	}, jwt.WithIssuer(sessionIssuer))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUnauthorized.Code, appErrors.ErrUnauthorized.Status, "invalid session")
	}

	claims, ok := token.Claims.(*models.SessionClaims)
	if !ok || !token.Valid || claims.SessionID == "" {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid session claims")
	}
	return claims, nil
}
