package auth

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/HerbHall/netmeter/internal/server"
	"go.uber.org/zap"
)

// publicPaths are reachable without a bearer token.
var publicPaths = map[string]bool{
	"/healthz":           true,
	"/readyz":            true,
	"/metrics":           true,
	"/api/v1/health":     true,
	"/api/v1/auth/login": true,
}

// RegisterRoutes mounts the login endpoint. Satisfies server.RouteRegistrar.
func (s *Service) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/v1/auth/login", s.handleLogin)
}

// Middleware returns the bearer-token validation middleware.
// Satisfies server.RouteRegistrar.
func (s *Service) Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if publicPaths[r.URL.Path] {
				next.ServeHTTP(w, r)
				return
			}

			// WebSocket upgrades cannot carry an Authorization header
			// from a browser; the feed handler validates a query token.
			if strings.HasPrefix(r.URL.Path, "/api/v1/feed/") {
				next.ServeHTTP(w, r)
				return
			}

			token, ok := bearerToken(r)
			if !ok {
				server.Unauthorized(w, "missing bearer token", r.URL.Path)
				return
			}

			claims, err := s.tokens.Validate(token)
			if err != nil {
				server.Unauthorized(w, "invalid or expired token", r.URL.Path)
				return
			}

			next.ServeHTTP(w, withClaims(r, claims))
		})
	}
}

// bearerToken extracts the token from an Authorization: Bearer header.
func bearerToken(r *http.Request) (string, bool) {
	h := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if !strings.HasPrefix(h, prefix) {
		return "", false
	}
	token := strings.TrimSpace(h[len(prefix):])
	return token, token != ""
}

// LoginRequest is the body for POST /api/v1/auth/login.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginResponse carries the issued access token.
type LoginResponse struct {
	Token     string `json:"token"`
	ExpiresIn int64  `json:"expires_in"`
}

func (s *Service) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		server.BadRequest(w, "invalid JSON body", r.URL.Path)
		return
	}
	if req.Username == "" || req.Password == "" {
		server.BadRequest(w, "username and password are required", r.URL.Path)
		return
	}

	token, err := s.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			server.Unauthorized(w, "invalid credentials", r.URL.Path)
			return
		}
		s.logger.Error("login failed", zap.Error(err))
		server.InternalError(w, "login failed", r.URL.Path)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(LoginResponse{
		Token:     token,
		ExpiresIn: int64(s.tokens.TTL().Seconds()),
	})
}
