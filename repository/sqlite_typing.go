package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// sqliteTypingRepo, TypingRepository interface'inin SQLite implementasyonu.
type sqliteTypingRepo struct {
	db *sql.DB
}

// NewSQLiteTypingRepo, constructor — interface döner.
func NewSQLiteTypingRepo(db *sql.DB) TypingRepository {
	return &sqliteTypingRepo{db: db}
}

func (r *sqliteTypingRepo) Upsert(ctx context.Context, channelID, userID string) error {
	// ON CONFLICT: kullanıcı yazmaya devam ediyor — started_at yenilenir,
	// poll tarafındaki yaş penceresi baştan başlar.
	query := `
		INSERT INTO typing_indicators (channel_id, user_id, started_at)
		VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT (channel_id, user_id) DO UPDATE SET started_at = CURRENT_TIMESTAMP`

	if _, err := r.db.ExecContext(ctx, query, channelID, userID); err != nil {
		return fmt.Errorf("failed to upsert typing indicator: %w", err)
	}
	return nil
}

func (r *sqliteTypingRepo) Delete(ctx context.Context, channelID, userID string) error {
	if _, err := r.db.ExecContext(ctx,
		`DELETE FROM typing_indicators WHERE channel_id = ? AND user_id = ?`,
		channelID, userID,
	); err != nil {
		return fmt.Errorf("failed to delete typing indicator: %w", err)
	}
	return nil
}

func (r *sqliteTypingRepo) ListUsersSince(ctx context.Context, channelID string, since time.Time) ([]string, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT user_id FROM typing_indicators WHERE channel_id = ? AND started_at > ?`,
		channelID, since,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list typing users: %w", err)
	}
	defer rows.Close()

	var users []string
	for rows.Next() {
		var userID string
		if err := rows.Scan(&userID); err != nil {
			return nil, fmt.Errorf("failed to scan typing row: %w", err)
		}
		users = append(users, userID)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating typing rows: %w", err)
	}
	return users, nil
}

func (r *sqliteTypingRepo) CleanupOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM typing_indicators WHERE started_at < ?`, cutoff,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to cleanup typing indicators: %w", err)
	}
	return result.RowsAffected()
}
