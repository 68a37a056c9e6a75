// Package repository, managed backend'in veri erişim katmanıdır.
//
// Her tablo için bir interface + bir SQLite implementasyonu vardır.
// Kolonlar snake_case, Go modeli camelCase — çeviri Scan/Exec
// parametrelerinde yapılır. Satır bulunamadığında pkg.ErrNotFound döner,
// çağıranlar errors.Is ile kontrol eder.
package repository

import (
	"context"

	"github.com/fleetpulse/connect/models"
)

// UserRepository, kullanıcı veritabanı işlemleri için interface.
type UserRepository interface {
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	List(ctx context.Context) ([]models.User, error)
	UpdateStatus(ctx context.Context, id string, status models.UserStatus) error
	TouchLastSeen(ctx context.Context, id string) error
}
