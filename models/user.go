// Package models, Connect çekirdeğinin domain modellerini tanımlar.
//
// Model nedir?
// Hem managed backend'deki bir tablonun Go karşılığıdır, hem de session
// facade'ın UI'a sunduğu verilerin şeklini belirler.
//
// json tag'leri snake_case'dir — managed backend'in wire/storage şekli
// snake_case kolonlar kullanır (channel_id, created_at, is_deleted),
// Go modeli camelCase field taşır; çeviri her okuma/yazmada yapılır.
package models

import (
	"fmt"
	"strings"
	"time"
)

// Role, kullanıcının filo organizasyonundaki rolünü temsil eder.
// Go'da enum yoktur — typed constant kullanılır. Kapalı küçük bir kümedir:
// kanal permission set'leri bu rol isimleri üzerinden tanımlanır.
type Role string

const (
	RoleDriver  Role = "driver"
	RoleManager Role = "manager"
	RoleAdmin   Role = "admin"
)

// AllRoles, tanımlı tüm rollerin listesi.
// Private kanal invariant'ı (read ⊂ AllRoles, strict subset) bu liste ile kontrol edilir.
var AllRoles = []Role{RoleDriver, RoleManager, RoleAdmin}

// Valid, rolün kapalı kümede olup olmadığını kontrol eder.
func (r Role) Valid() bool {
	switch r {
	case RoleDriver, RoleManager, RoleAdmin:
		return true
	}
	return false
}

// UserStatus, kullanıcının çevrimiçi durumunu temsil eder.
type UserStatus string

const (
	UserStatusOnline  UserStatus = "online"
	UserStatusOffline UserStatus = "offline"
	UserStatusAway    UserStatus = "away"
)

// User, bir filo çalışanını temsil eder.
// Harici auth/profil sistemi oluşturur; çekirdek sadece okur ve
// connect/disconnect sırasında status + last_seen günceller.
type User struct {
	ID           string     `json:"id"`
	Username     string     `json:"username"`
	DisplayName  string     `json:"display_name"`
	Email        string     `json:"email"`
	Role         Role       `json:"role"`
	AvatarURL    *string    `json:"avatar_url"` // *string = nullable
	Status       UserStatus `json:"status"`
	LastSeen     time.Time  `json:"last_seen"`
	PasswordHash string     `json:"-"` // json:"-" → API response'a DAHİL ETME
	CreatedAt    time.Time  `json:"created_at"`
}

// SignInRequest, giriş isteği — harici auth collaborator'a iletilir.
type SignInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Validate, SignInRequest'in geçerli olup olmadığını kontrol eder.
func (r *SignInRequest) Validate() error {
	r.Email = strings.TrimSpace(r.Email)
	if r.Email == "" {
		return fmt.Errorf("email is required")
	}
	if r.Password == "" {
		return fmt.Errorf("password is required")
	}
	return nil
}
