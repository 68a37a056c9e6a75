package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/fleetpulse/connect/models"
	"github.com/fleetpulse/connect/pkg"
)

// sqliteMessageRepo, MessageRepository interface'inin SQLite implementasyonu.
//
// reactions, attachments ve read_by TEXT kolonlarda JSON olarak saklanır —
// satır başına küçük listelerdir, ayrı tablo normalizasyonu bu çekirdeğin
// okuma yollarına bir şey kazandırmaz.
type sqliteMessageRepo struct {
	db *sql.DB
}

// NewSQLiteMessageRepo, constructor — interface döner.
func NewSQLiteMessageRepo(db *sql.DB) MessageRepository {
	return &sqliteMessageRepo{db: db}
}

const messageColumns = `id, channel_id, user_id, content, kind, created_at, edited_at, reply_to, reactions, attachments, is_pinned, is_deleted, status, read_by`

func (r *sqliteMessageRepo) Create(ctx context.Context, message *models.Message) error {
	reactions, err := marshalJSON(message.Reactions)
	if err != nil {
		return err
	}
	attachments, err := marshalJSON(message.Attachments)
	if err != nil {
		return err
	}
	readBy, err := marshalJSON(message.ReadBy)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO messages (id, channel_id, user_id, content, kind, created_at, edited_at, reply_to, reactions, attachments, is_pinned, is_deleted, status, read_by)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	if _, err := r.db.ExecContext(ctx, query,
		message.ID, message.ChannelID, message.UserID, message.Content, message.Kind,
		message.Timestamp, message.EditedAt, message.ReplyTo,
		reactions, attachments, message.IsPinned, message.IsDeleted, message.Status, readBy,
	); err != nil {
		return fmt.Errorf("failed to create message: %w", err)
	}
	return nil
}

func marshalJSON(v any) (string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("failed to marshal message field: %w", err)
	}
	if string(data) == "null" {
		return "[]", nil
	}
	return string(data), nil
}

func scanMessage(row interface{ Scan(...any) error }) (*models.Message, error) {
	msg := &models.Message{}
	var reactions, attachments, readBy string

	err := row.Scan(
		&msg.ID, &msg.ChannelID, &msg.UserID, &msg.Content, &msg.Kind,
		&msg.Timestamp, &msg.EditedAt, &msg.ReplyTo,
		&reactions, &attachments, &msg.IsPinned, &msg.IsDeleted, &msg.Status, &readBy,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, pkg.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan message row: %w", err)
	}

	if err := json.Unmarshal([]byte(reactions), &msg.Reactions); err != nil {
		return nil, fmt.Errorf("failed to unmarshal reactions: %w", err)
	}
	if err := json.Unmarshal([]byte(attachments), &msg.Attachments); err != nil {
		return nil, fmt.Errorf("failed to unmarshal attachments: %w", err)
	}
	if err := json.Unmarshal([]byte(readBy), &msg.ReadBy); err != nil {
		return nil, fmt.Errorf("failed to unmarshal read_by: %w", err)
	}
	if msg.Reactions == nil {
		msg.Reactions = []models.Reaction{}
	}
	if msg.ReadBy == nil {
		msg.ReadBy = []string{}
	}
	return msg, nil
}

func (r *sqliteMessageRepo) GetByID(ctx context.Context, id string) (*models.Message, error) {
	query := `SELECT ` + messageColumns + ` FROM messages WHERE id = ?`
	return scanMessage(r.db.QueryRowContext(ctx, query, id))
}

// ListByChannel, cursor-based pagination ile silinmemiş mesajları getirir.
// Dönen sıra en yeniden eskiyedir — çağıran ters çevirir.
func (r *sqliteMessageRepo) ListByChannel(ctx context.Context, channelID string, beforeID string, limit int) ([]models.Message, error) {
	if limit <= 0 {
		limit = 50
	}

	var query string
	var args []any

	if beforeID == "" {
		query = `
			SELECT ` + messageColumns + ` FROM messages
			WHERE channel_id = ? AND is_deleted = 0
			ORDER BY created_at DESC
			LIMIT ?`
		args = []any{channelID, limit}
	} else {
		// Subquery cursor'ın created_at değerini bulur; ana sorgu bu
		// tarihten önceki mesajları getirir.
		query = `
			SELECT ` + messageColumns + ` FROM messages
			WHERE channel_id = ? AND is_deleted = 0
			  AND created_at < (SELECT created_at FROM messages WHERE id = ?)
			ORDER BY created_at DESC
			LIMIT ?`
		args = []any{channelID, beforeID, limit}
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list messages by channel: %w", err)
	}
	defer rows.Close()

	var messages []models.Message
	for rows.Next() {
		msg, err := scanMessage(rows)
		if err != nil {
			return nil, err
		}
		messages = append(messages, *msg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating message rows: %w", err)
	}
	return messages, nil
}

func (r *sqliteMessageRepo) UpdateContent(ctx context.Context, message *models.Message) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE messages SET content = ?, edited_at = ? WHERE id = ? AND is_deleted = 0`,
		message.Content, message.EditedAt, message.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update message: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check affected rows: %w", err)
	}
	if affected == 0 {
		return pkg.ErrNotFound
	}
	return nil
}

func (r *sqliteMessageRepo) SoftDelete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE messages SET is_deleted = 1 WHERE id = ?`, id,
	)
	if err != nil {
		return fmt.Errorf("failed to soft-delete message: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check affected rows: %w", err)
	}
	if affected == 0 {
		return pkg.ErrNotFound
	}
	return nil
}

func (r *sqliteMessageRepo) SetPinned(ctx context.Context, id string, pinned bool) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE messages SET is_pinned = ? WHERE id = ? AND is_deleted = 0`,
		pinned, id,
	)
	if err != nil {
		return fmt.Errorf("failed to set pinned: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check affected rows: %w", err)
	}
	if affected == 0 {
		return pkg.ErrNotFound
	}
	return nil
}

func (r *sqliteMessageRepo) SetReactions(ctx context.Context, id string, reactions []models.Reaction) error {
	data, err := marshalJSON(reactions)
	if err != nil {
		return err
	}
	if _, err := r.db.ExecContext(ctx,
		`UPDATE messages SET reactions = ? WHERE id = ? AND is_deleted = 0`,
		data, id,
	); err != nil {
		return fmt.Errorf("failed to set reactions: %w", err)
	}
	return nil
}

func (r *sqliteMessageRepo) SetReadBy(ctx context.Context, id string, readBy []string, status models.MessageStatus) error {
	data, err := marshalJSON(readBy)
	if err != nil {
		return err
	}
	if _, err := r.db.ExecContext(ctx,
		`UPDATE messages SET read_by = ?, status = ? WHERE id = ? AND is_deleted = 0`,
		data, status, id,
	); err != nil {
		return fmt.Errorf("failed to set read_by: %w", err)
	}
	return nil
}
