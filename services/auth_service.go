// Package services, managed backend'in business logic katmanıdır.
//
// Service, handler (HTTP) ile repository (DB) arasında oturur. Service
// ASLA http.Request/Response bilmez — domain modelleri alır/verir; ASLA
// doğrudan SQL çalıştırmaz — repository interface'i kullanır.
package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fleetpulse/connect/models"
	"github.com/fleetpulse/connect/pkg"
	"github.com/fleetpulse/connect/repository"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

// AuthService, kimlik doğrulama collaborator'ının dışarıya açık API'si.
// Handler'lar ve session facade bu interface'e bağımlıdır.
//
// Kullanıcı hesapları harici/administratif olarak oluşturulur (seed veya
// yönetim aracı) — burada register akışı yoktur.
type AuthService interface {
	SignIn(ctx context.Context, req *models.SignInRequest) (*AuthResult, error)
	SignOut(ctx context.Context, userID string) error
	ValidateAccessToken(tokenString string) (*models.TokenClaims, error)
	GetCurrentUser(ctx context.Context, userID string) (*models.User, error)
}

// AuthResult, başarılı sign-in sonucu: access token + kullanıcı snapshot'ı.
type AuthResult struct {
	AccessToken string      `json:"access_token"`
	ExpiresAt   time.Time   `json:"expires_at"`
	User        models.User `json:"user"`
}

// authService, AuthService interface'inin implementasyonu.
type authService struct {
	userRepo  repository.UserRepository
	jwtSecret []byte
	accessExp time.Duration
}

// NewAuthService, constructor.
func NewAuthService(userRepo repository.UserRepository, jwtSecret string, accessExpMinutes int) AuthService {
	return &authService{
		userRepo:  userRepo,
		jwtSecret: []byte(jwtSecret),
		accessExp: time.Duration(accessExpMinutes) * time.Minute,
	}
}

// SignIn, email + parola ile giriş yapar.
//
// Başarısızlıkta dönen mesaj kullanıcı/parola ayrımı yapmaz — hangi
// alanın yanlış olduğu sızdırılmaz.
func (s *authService) SignIn(ctx context.Context, req *models.SignInRequest) (*AuthResult, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s", pkg.ErrValidation, err.Error())
	}

	user, err := s.userRepo.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, pkg.ErrNotFound) {
			return nil, fmt.Errorf("%w: invalid email or password", pkg.ErrAuth)
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, fmt.Errorf("%w: invalid email or password", pkg.ErrAuth)
	}

	if err := s.userRepo.UpdateStatus(ctx, user.ID, models.UserStatusOnline); err != nil {
		return nil, fmt.Errorf("failed to update status: %w", err)
	}
	user.Status = models.UserStatusOnline
	user.PasswordHash = ""

	expiresAt := time.Now().Add(s.accessExp)
	claims := &models.TokenClaims{
		UserID: user.ID,
		Email:  user.Email,
		Role:   user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			Subject:   user.ID,
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.jwtSecret)
	if err != nil {
		return nil, fmt.Errorf("failed to sign access token: %w", err)
	}

	return &AuthResult{
		AccessToken: token,
		ExpiresAt:   expiresAt,
		User:        *user,
	}, nil
}

// SignOut, kullanıcıyı offline işaretler. Access token'lar stateless'tır —
// süreleri dolana kadar geçerli kalırlar, server tarafında iptal listesi
// tutulmaz.
func (s *authService) SignOut(ctx context.Context, userID string) error {
	if err := s.userRepo.UpdateStatus(ctx, userID, models.UserStatusOffline); err != nil {
		if errors.Is(err, pkg.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("failed to update status: %w", err)
	}
	return nil
}

// ValidateAccessToken, JWT access token'ı doğrular ve claims'i döner.
func (s *authService) ValidateAccessToken(tokenString string) (*models.TokenClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &models.TokenClaims{}, func(token *jwt.Token) (any, error) {
		// alg confusion önleme: sadece HMAC kabul et
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.jwtSecret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %s", pkg.ErrAuth, err.Error())
	}

	claims, ok := token.Claims.(*models.TokenClaims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("%w: invalid token claims", pkg.ErrAuth)
	}
	return claims, nil
}

// GetCurrentUser, token sahibinin güncel profilini döner.
func (s *authService) GetCurrentUser(ctx context.Context, userID string) (*models.User, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	user.PasswordHash = ""
	return user, nil
}
