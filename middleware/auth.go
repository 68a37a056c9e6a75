// Package middleware, HTTP request'leri handler'a ulaşmadan önce işleyen
// katmanları içerir.
//
// Middleware pattern: bir http.Handler alıp http.Handler dönen fonksiyon.
// Zincirleme kullanılır — auth middleware token'ı doğrular, kullanıcıyı
// context'e koyar, sonraki handler'a devreder.
package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/fleetpulse/connect/handlers"
	"github.com/fleetpulse/connect/pkg"
	"github.com/fleetpulse/connect/repository"
	"github.com/fleetpulse/connect/services"
)

// AuthMiddleware, JWT doğrulaması yapan middleware.
type AuthMiddleware struct {
	authService services.AuthService
	userRepo    repository.UserRepository
}

// NewAuthMiddleware, constructor.
func NewAuthMiddleware(authService services.AuthService, userRepo repository.UserRepository) *AuthMiddleware {
	return &AuthMiddleware{
		authService: authService,
		userRepo:    userRepo,
	}
}

// Require, korumalı endpoint'ler için auth zorunluluğu ekler.
//
// Authorization: Bearer <token> header'ını doğrular, token sahibinin
// güncel profilini DB'den çeker ve request context'ine koyar. Profili
// her request'te çekmek token içindeki bayat role claim'ine güvenmekten
// iyidir — rol değişikliği anında etkili olur.
func (m *AuthMiddleware) Require(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			pkg.ErrorWithMessage(w, http.StatusUnauthorized, "authorization header required")
			return
		}

		tokenString, found := strings.CutPrefix(authHeader, "Bearer ")
		if !found || tokenString == "" {
			pkg.ErrorWithMessage(w, http.StatusUnauthorized, "invalid authorization header format")
			return
		}

		claims, err := m.authService.ValidateAccessToken(tokenString)
		if err != nil {
			pkg.Error(w, err)
			return
		}

		user, err := m.userRepo.GetByID(r.Context(), claims.UserID)
		if err != nil {
			pkg.ErrorWithMessage(w, http.StatusUnauthorized, "user not found")
			return
		}
		user.PasswordHash = ""

		ctx := context.WithValue(r.Context(), handlers.UserContextKey, user)
		next(w, r.WithContext(ctx))
	}
}
