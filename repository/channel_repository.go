package repository

import (
	"context"

	"github.com/fleetpulse/connect/models"
)

// ChannelRepository, kanal veritabanı işlemleri için interface.
//
// List her kanalın üye listesini de doldurur (channel_members join'i) —
// directory'nin private kanal üyelik kontrolü bu alana bakar.
type ChannelRepository interface {
	Create(ctx context.Context, channel *models.Channel) error
	GetByID(ctx context.Context, id string) (*models.Channel, error)
	List(ctx context.Context) ([]models.Channel, error)
	AddMember(ctx context.Context, channelID, userID string) error
	RemoveMember(ctx context.Context, channelID, userID string) error
}
