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

// sqliteChannelRepo, ChannelRepository interface'inin SQLite implementasyonu.
//
// Permission kümeleri (read_roles, write_roles, admin_roles) TEXT kolonda
// JSON dizisi olarak saklanır — küme en fazla üç rol taşır, ayrı tablo
// normalizasyonu gerektirmez.
type sqliteChannelRepo struct {
	db *sql.DB
}

// NewSQLiteChannelRepo, constructor — interface döner.
func NewSQLiteChannelRepo(db *sql.DB) ChannelRepository {
	return &sqliteChannelRepo{db: db}
}

func marshalRoleSet(set models.RoleSet) (string, error) {
	if set == nil {
		set = models.RoleSet{}
	}
	data, err := json.Marshal(set)
	if err != nil {
		return "", fmt.Errorf("failed to marshal role set: %w", err)
	}
	return string(data), nil
}

func unmarshalRoleSet(data string) (models.RoleSet, error) {
	var set models.RoleSet
	if err := json.Unmarshal([]byte(data), &set); err != nil {
		return nil, fmt.Errorf("failed to unmarshal role set: %w", err)
	}
	return set, nil
}

func (r *sqliteChannelRepo) Create(ctx context.Context, channel *models.Channel) error {
	if err := channel.Validate(); err != nil {
		return fmt.Errorf("%w: %s", pkg.ErrValidation, err.Error())
	}

	readRoles, err := marshalRoleSet(channel.Permissions.Read)
	if err != nil {
		return err
	}
	writeRoles, err := marshalRoleSet(channel.Permissions.Write)
	if err != nil {
		return err
	}
	adminRoles, err := marshalRoleSet(channel.Permissions.Admin)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO channels (id, name, description, kind, category, read_roles, write_roles, admin_roles, is_private, created_by)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING created_at`

	err = r.db.QueryRowContext(ctx, query,
		channel.ID, channel.Name, channel.Description, channel.Kind, channel.Category,
		readRoles, writeRoles, adminRoles, channel.IsPrivate, channel.CreatedBy,
	).Scan(&channel.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create channel: %w", err)
	}
	return nil
}

func scanChannel(row interface{ Scan(...any) error }) (*models.Channel, error) {
	ch := &models.Channel{}
	var readRoles, writeRoles, adminRoles string

	err := row.Scan(
		&ch.ID, &ch.Name, &ch.Description, &ch.Kind, &ch.Category,
		&readRoles, &writeRoles, &adminRoles, &ch.IsPrivate, &ch.CreatedAt, &ch.CreatedBy,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, pkg.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan channel row: %w", err)
	}

	if ch.Permissions.Read, err = unmarshalRoleSet(readRoles); err != nil {
		return nil, err
	}
	if ch.Permissions.Write, err = unmarshalRoleSet(writeRoles); err != nil {
		return nil, err
	}
	if ch.Permissions.Admin, err = unmarshalRoleSet(adminRoles); err != nil {
		return nil, err
	}
	return ch, nil
}

const channelColumns = `id, name, description, kind, category, read_roles, write_roles, admin_roles, is_private, created_at, created_by`

func (r *sqliteChannelRepo) GetByID(ctx context.Context, id string) (*models.Channel, error) {
	query := `SELECT ` + channelColumns + ` FROM channels WHERE id = ?`
	ch, err := scanChannel(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, err
	}
	if err := r.loadMembers(ctx, ch); err != nil {
		return nil, err
	}
	return ch, nil
}

func (r *sqliteChannelRepo) List(ctx context.Context) ([]models.Channel, error) {
	query := `SELECT ` + channelColumns + ` FROM channels ORDER BY created_at`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list channels: %w", err)
	}
	defer rows.Close()

	var channels []models.Channel
	for rows.Next() {
		ch, err := scanChannel(rows)
		if err != nil {
			return nil, err
		}
		channels = append(channels, *ch)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating channel rows: %w", err)
	}

	for i := range channels {
		if err := r.loadMembers(ctx, &channels[i]); err != nil {
			return nil, err
		}
	}
	return channels, nil
}

// loadMembers, kanalın üye ID listesini doldurur.
func (r *sqliteChannelRepo) loadMembers(ctx context.Context, ch *models.Channel) error {
	rows, err := r.db.QueryContext(ctx,
		`SELECT user_id FROM channel_members WHERE channel_id = ? ORDER BY joined_at`, ch.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to load channel members: %w", err)
	}
	defer rows.Close()

	ch.Members = []string{}
	for rows.Next() {
		var userID string
		if err := rows.Scan(&userID); err != nil {
			return fmt.Errorf("failed to scan member row: %w", err)
		}
		ch.Members = append(ch.Members, userID)
	}
	return rows.Err()
}

func (r *sqliteChannelRepo) AddMember(ctx context.Context, channelID, userID string) error {
	if _, err := r.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO channel_members (channel_id, user_id) VALUES (?, ?)`,
		channelID, userID,
	); err != nil {
		return fmt.Errorf("failed to add channel member: %w", err)
	}
	return nil
}

func (r *sqliteChannelRepo) RemoveMember(ctx context.Context, channelID, userID string) error {
	if _, err := r.db.ExecContext(ctx,
		`DELETE FROM channel_members WHERE channel_id = ? AND user_id = ?`,
		channelID, userID,
	); err != nil {
		return fmt.Errorf("failed to remove channel member: %w", err)
	}
	return nil
}
