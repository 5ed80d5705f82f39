package api

import (
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/erazemk/inventaris/internal/auth"
	"github.com/erazemk/inventaris/internal/observability"
)

// AuthHandler handles login and logout.
type AuthHandler struct {
	Gate    *auth.Gate
	Logger  *zap.Logger
	Metrics *observability.Metrics
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	Message   string    `json:"message"`
}

// Login handles POST /api/login.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	token, err := h.Gate.Login(r.Context(), req.Username, req.Password)
	if errors.Is(err, auth.ErrInvalidCredentials) {
		h.Metrics.LoginFailed()
		h.Logger.Warn("login failed", zap.String("username", req.Username), zap.String("remote", r.RemoteAddr))
		jsonError(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}
	if err != nil {
		h.Logger.Error("issuing token", zap.Error(err), requestID(r))
		jsonError(w, http.StatusInternalServerError, "Failed to generate token")
		return
	}

	h.Logger.Info("user logged in", zap.String("username", req.Username))
	jsonResponse(w, http.StatusOK, loginResponse{
		Token:     token.Value,
		ExpiresAt: token.ExpiresAt.UTC(),
		Message:   "Login successful",
	})
}

// Logout handles POST /api/logout. Without a revocation store the token stays
// valid until it expires and the client is expected to discard it.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	err := h.Gate.Logout(r.Context(), tokenFromContext(r.Context()))
	if errors.Is(err, auth.ErrUnauthorized) {
		jsonError(w, http.StatusForbidden, "Invalid token")
		return
	}
	if err != nil {
		h.Logger.Error("revoking token", zap.Error(err), requestID(r))
		jsonError(w, http.StatusInternalServerError, "Failed to log out")
		return
	}

	if id := IdentityFromContext(r.Context()); id != nil {
		h.Logger.Info("user logged out", zap.String("username", id.Username), zap.Bool("revoked", !h.Gate.Stateless()))
	}
	jsonResponse(w, http.StatusOK, messageResponse{Message: "Logged out"})
}
