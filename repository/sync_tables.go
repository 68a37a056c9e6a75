package repository

import (
	"context"
	"time"

	"github.com/fleetpulse/connect/models"
)

// SyncTables, mesaj ve typing repository'lerini senkronizasyon katmanının
// beklediği tablo yüzeyinde birleştirir (realtime.Tables'ı implicit
// karşılar). Managed strateji tabloya bu adaptör üzerinden dokunur.
type SyncTables struct {
	Messages MessageRepository
	Typing   TypingRepository
}

// NewSyncTables, verilen repository'lerle bir SyncTables oluşturur.
func NewSyncTables(messages MessageRepository, typing TypingRepository) *SyncTables {
	return &SyncTables{Messages: messages, Typing: typing}
}

func (t *SyncTables) InsertMessage(ctx context.Context, msg *models.Message) error {
	return t.Messages.Create(ctx, msg)
}

func (t *SyncTables) GetMessage(ctx context.Context, id string) (*models.Message, error) {
	return t.Messages.GetByID(ctx, id)
}

func (t *SyncTables) UpsertTyping(ctx context.Context, channelID, userID string) error {
	return t.Typing.Upsert(ctx, channelID, userID)
}

func (t *SyncTables) DeleteTyping(ctx context.Context, channelID, userID string) error {
	return t.Typing.Delete(ctx, channelID, userID)
}

func (t *SyncTables) ListTypingUsers(ctx context.Context, channelID string, since time.Time) ([]string, error) {
	return t.Typing.ListUsersSince(ctx, channelID, since)
}
