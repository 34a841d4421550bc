package auth

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// ErrInvalidCredentials is returned when a login attempt fails.
// The same error covers unknown users and wrong passwords.
var ErrInvalidCredentials = errors.New("invalid credentials")

// Config holds authentication settings.
type Config struct {
	Enabled      bool          `mapstructure:"enabled"`
	Secret       string        `mapstructure:"secret"`
	TokenTTL     time.Duration `mapstructure:"token_ttl"`
	Username     string        `mapstructure:"username"`
	PasswordHash string        `mapstructure:"password_hash"`
}

// Service authenticates API clients. A single operator account is
// configured with a bcrypt password hash; successful logins receive a JWT.
type Service struct {
	tokens       *TokenService
	username     string
	passwordHash string
	logger       *zap.Logger
}

// NewService creates an auth Service from config. When cfg.Secret is empty
// an ephemeral signing secret is generated (tokens do not survive restarts).
func NewService(cfg Config, logger *zap.Logger) (*Service, error) {
	secret := []byte(cfg.Secret)
	if len(secret) == 0 {
		secret = make([]byte, 32)
		if _, err := rand.Read(secret); err != nil {
			return nil, fmt.Errorf("generate signing secret: %w", err)
		}
		logger.Warn("auth.secret not set, using ephemeral signing secret",
			zap.String("hint", "tokens will not survive restarts"))
	}

	ttl := cfg.TokenTTL
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}

	if cfg.Username == "" || cfg.PasswordHash == "" {
		return nil, errors.New("auth enabled but auth.username or auth.password_hash not set")
	}

	return &Service{
		tokens:       NewTokenService(secret, ttl),
		username:     cfg.Username,
		passwordHash: cfg.PasswordHash,
		logger:       logger,
	}, nil
}

// Login checks the credentials and returns a signed access token.
func (s *Service) Login(ctx context.Context, username, password string) (string, error) {
	if username != s.username {
		// Burn comparable time so unknown users are not distinguishable.
		_ = bcrypt.CompareHashAndPassword([]byte(s.passwordHash), []byte(password))
		return "", ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(s.passwordHash), []byte(password)); err != nil {
		s.logger.Warn("failed login attempt", zap.String("username", username))
		return "", ErrInvalidCredentials
	}
	return s.tokens.Issue(username)
}

// Tokens exposes the token service for middleware validation.
func (s *Service) Tokens() *TokenService {
	return s.tokens
}

// HashPassword produces a bcrypt hash suitable for auth.password_hash.
func HashPassword(password string) (string, error) {
	h, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(h), nil
}

// claimsKey is a context key for validated claims.
type claimsKey struct{}

// ClaimsFrom returns the validated claims from the request context, if any.
func ClaimsFrom(ctx context.Context) (*Claims, bool) {
	c, ok := ctx.Value(claimsKey{}).(*Claims)
	return c, ok
}

func withClaims(r *http.Request, c *Claims) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), claimsKey{}, c))
}
