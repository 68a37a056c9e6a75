package repository

import (
	"context"

	"github.com/fleetpulse/connect/models"
)

// MessageRepository, mesaj veritabanı işlemleri için interface.
//
// ListByChannel cursor-based pagination kullanır:
// beforeID = bu ID'den önceki mesajları getir (boşsa en yenilerden başla).
// Offset-based pagination'da yeni mesaj geldiğinde sayfa kayar —
// cursor-based "bu mesajdan önceki N mesaj" der, kararlı sonuç verir.
//
// Silme soft-delete'tir: satır kalır, is_deleted işaretlenir.
type MessageRepository interface {
	Create(ctx context.Context, message *models.Message) error
	GetByID(ctx context.Context, id string) (*models.Message, error)
	ListByChannel(ctx context.Context, channelID string, beforeID string, limit int) ([]models.Message, error)
	UpdateContent(ctx context.Context, message *models.Message) error
	SoftDelete(ctx context.Context, id string) error
	SetPinned(ctx context.Context, id string, pinned bool) error
	SetReactions(ctx context.Context, id string, reactions []models.Reaction) error
	SetReadBy(ctx context.Context, id string, readBy []string, status models.MessageStatus) error
}
