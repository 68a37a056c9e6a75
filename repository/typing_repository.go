package repository

import (
	"context"
	"time"
)

// TypingRepository, typing_indicators tablosu için interface.
//
// Managed stratejide typing için push kanalı yoktur — satırlar yazılır,
// diğer cihazlar kısa aralıkla poll eder. CleanupOlderThan, terk edilmiş
// satırları periyodik süpürür (tablo ephemeral state taşır).
type TypingRepository interface {
	Upsert(ctx context.Context, channelID, userID string) error
	Delete(ctx context.Context, channelID, userID string) error
	ListUsersSince(ctx context.Context, channelID string, since time.Time) ([]string, error)
	CleanupOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}
