package api

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/unrolled/secure"
	"go.uber.org/zap"

	"github.com/erazemk/inventaris/internal/auth"
)

type contextKey string

const sessionKey contextKey = "session"

type session struct {
	identity *auth.Identity
	token    string
}

// AuthMiddleware requires a bearer token. A missing token is rejected with
// 401, a token the gate does not accept with 403.
func AuthMiddleware(gate *auth.Gate, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r.Header.Get("Authorization"))
			if token == "" {
				jsonError(w, http.StatusUnauthorized, "Access token required")
				return
			}

			identity, err := gate.Verify(r.Context(), token)
			if errors.Is(err, auth.ErrUnauthorized) {
				jsonError(w, http.StatusForbidden, "Invalid token")
				return
			}
			if err != nil {
				logger.Error("verifying token", zap.Error(err), requestID(r))
				jsonError(w, http.StatusInternalServerError, "Failed to verify token")
				return
			}

			ctx := context.WithValue(r.Context(), sessionKey, &session{identity: identity, token: token})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// IdentityFromContext returns the identity set by AuthMiddleware, or nil.
func IdentityFromContext(ctx context.Context) *auth.Identity {
	if s, ok := ctx.Value(sessionKey).(*session); ok {
		return s.identity
	}
	return nil
}

func tokenFromContext(ctx context.Context) string {
	if s, ok := ctx.Value(sessionKey).(*session); ok {
		return s.token
	}
	return ""
}

func bearerToken(header string) string {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

// AccessLog logs every request with its status and duration.
func AccessLog(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			logger.Info("request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.RequestURI()),
				zap.Int("status", status),
				zap.Duration("duration", time.Since(start).Round(time.Millisecond)),
				zap.String("remote", r.RemoteAddr),
				requestID(r),
			)
		})
	}
}

// SecureHeaders sets the usual hardening headers on every response.
func SecureHeaders(logger *zap.Logger) func(http.Handler) http.Handler {
	s := secure.New(secure.Options{
		FrameDeny:             true,
		ContentTypeNosniff:    true,
		BrowserXssFilter:      true,
		ReferrerPolicy:        "no-referrer",
		ContentSecurityPolicy: "default-src 'none'; frame-ancestors 'none'",
	})
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if err := s.Process(w, r); err != nil {
				logger.Warn("secure headers blocked request", zap.Error(err))
				jsonError(w, http.StatusBadRequest, "Request rejected")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func requestID(r *http.Request) zap.Field {
	return zap.String("request_id", middleware.GetReqID(r.Context()))
}
