package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/fleetpulse/connect/models"
	"github.com/fleetpulse/connect/pkg"
	"github.com/fleetpulse/connect/pkg/ratelimit"
	"github.com/fleetpulse/connect/services"
)

// AuthHandler, auth endpoint'lerini yöneten struct.
type AuthHandler struct {
	authService services.AuthService
	signinLimit *ratelimit.SignInRateLimiter
}

// NewAuthHandler, constructor.
func NewAuthHandler(authService services.AuthService, signinLimit *ratelimit.SignInRateLimiter) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		signinLimit: signinLimit,
	}
}

// SignIn godoc
// POST /api/auth/signin
// Body: { "email": "...", "password": "..." }
//
// IP bazlı rate limit uygulanır — brute-force denemeleri 429 ile kesilir,
// başarılı girişte sayaç sıfırlanır.
func (h *AuthHandler) SignIn(w http.ResponseWriter, r *http.Request) {
	ip := ratelimit.ExtractIP(r)
	if !h.signinLimit.Allow(ip) {
		retryAfter := h.signinLimit.RetryAfterSeconds(ip)
		pkg.ErrorWithMessage(w, http.StatusTooManyRequests, ratelimit.FormatRetryMessage(retryAfter))
		return
	}

	var req models.SignInRequest

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkg.ErrorWithMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}

	result, err := h.authService.SignIn(r.Context(), &req)
	if err != nil {
		pkg.Error(w, err)
		return
	}

	h.signinLimit.Reset(ip)
	pkg.JSON(w, http.StatusOK, result)
}

// SignOut godoc
// POST /api/auth/signout (auth gerekli)
func (h *AuthHandler) SignOut(w http.ResponseWriter, r *http.Request) {
	user, ok := UserFromContext(r)
	if !ok {
		pkg.ErrorWithMessage(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	if err := h.authService.SignOut(r.Context(), user.ID); err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusOK, map[string]string{"status": "signed out"})
}

// Me godoc
// GET /api/auth/me (auth gerekli)
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	user, ok := UserFromContext(r)
	if !ok {
		pkg.ErrorWithMessage(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	pkg.JSON(w, http.StatusOK, user)
}
