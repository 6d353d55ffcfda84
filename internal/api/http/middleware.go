package http

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"gearloan-backend/internal/config"
	"gearloan-backend/internal/domain"
	"gearloan-backend/internal/logger"
	"gearloan-backend/internal/security"

	"github.com/gorilla/mux"
)

type contextKey string

const callerKey contextKey = "caller"

// CallerFrom returns the identity the auth middleware attached to ctx
func CallerFrom(ctx context.Context) (domain.Caller, bool) {
	c, ok := ctx.Value(callerKey).(domain.Caller)
	return c, ok
}

// AuthMiddleware resolves the bearer token and enforces the security level
// configured for the matched route name.
type AuthMiddleware struct {
	tokens security.TokenManager
}

func NewAuthMiddleware(tm security.TokenManager) *AuthMiddleware {
	return &AuthMiddleware{tokens: tm}
}

func (m *AuthMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		name := ""
		if route := mux.CurrentRoute(r); route != nil {
			name = route.GetName()
		}
		level := config.GetSecurityLevel(name)

		if level == config.SecurityPublic {
			next.ServeHTTP(w, r)
			return
		}

		token, err := extractToken(r)
		if err != nil {
			writeError(w, r, err)
			return
		}
		claims, err := m.tokens.ValidateToken(token)
		if err != nil {
			if errors.Is(err, security.ErrExpiredToken) {
				writeError(w, r, domain.Unauthorized("token has expired"))
				return
			}
			writeError(w, r, domain.Unauthorized("invalid token"))
			return
		}

		caller := claims.Caller()
		if level == config.SecurityAdmin && !caller.IsAdmin() {
			writeError(w, r, domain.Forbidden("admin role required"))
			return
		}

		ctx := context.WithValue(r.Context(), callerKey, caller)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func extractToken(r *http.Request) (string, error) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", domain.Unauthorized("authorization token is not provided")
	}
	// Remove Bearer prefix if present
	token := header
	if len(token) > 7 && strings.EqualFold(token[:7], "bearer ") {
		token = token[7:]
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return "", domain.Unauthorized("authorization token is not provided")
	}
	return token, nil
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

// LoggingMiddleware logs one line per request
func LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		attrs := []any{
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration_ms", time.Since(start).Milliseconds(),
		}
		if route := mux.CurrentRoute(r); route != nil {
			attrs = append(attrs, "route", route.GetName())
		}
		if rec.status >= http.StatusInternalServerError {
			logger.Error("http request", attrs...)
		} else {
			logger.Debug("http request", attrs...)
		}
	})
}

// RecoveryMiddleware turns a handler panic into a 500
func RecoveryMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if p := recover(); p != nil {
				logger.Error("handler panicked", "method", r.Method, "path", r.URL.Path, "panic", p)
				writeJSON(w, http.StatusInternalServerError, errorEnvelope{Error: errorBody{Code: domain.KindInternal, Message: "internal error"}})
			}
		}()
		next.ServeHTTP(w, r)
	})
}
