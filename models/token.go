package models

import "github.com/golang-jwt/jwt/v5"

// TokenClaims, access token'ın içinde taşınan claim'ler.
// jwt.RegisteredClaims standart alanları (exp, iat, sub) sağlar;
// üzerine Connect'in ihtiyaç duyduğu kimlik alanları eklenir.
type TokenClaims struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	Role   Role   `json:"role"`
	jwt.RegisteredClaims
}
