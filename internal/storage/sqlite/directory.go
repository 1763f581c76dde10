package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/expohall/expohall/internal/meeting"
	"github.com/expohall/expohall/internal/storage"
)

// PutExhibition inserts or updates one exhibition directory record.
func (s *Store) PutExhibition(ctx context.Context, exhibition storage.Exhibition) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	exhibitionID := strings.TrimSpace(exhibition.ID)
	if exhibitionID == "" {
		return fmt.Errorf("exhibition id is required")
	}
	createdAt, updatedAt := normalizeTimestamps(exhibition.CreatedAt, exhibition.UpdatedAt)

	_, err := s.sqlDB.ExecContext(
		ctx,
		`INSERT INTO exhibitions (id, name, starts_at, ends_at, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		   name = excluded.name,
		   starts_at = excluded.starts_at,
		   ends_at = excluded.ends_at,
		   updated_at = excluded.updated_at`,
		exhibitionID,
		strings.TrimSpace(exhibition.Name),
		toMillis(exhibition.StartsAt),
		toMillis(exhibition.EndsAt),
		toMillis(createdAt),
		toMillis(updatedAt),
	)
	if err != nil {
		return fmt.Errorf("put exhibition: %w", err)
	}
	return nil
}

// PutUser inserts or updates one user directory record.
func (s *Store) PutUser(ctx context.Context, user storage.User) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	userID := strings.TrimSpace(user.ID)
	if userID == "" {
		return fmt.Errorf("user id is required")
	}
	createdAt, updatedAt := normalizeTimestamps(user.CreatedAt, user.UpdatedAt)

	_, err := s.sqlDB.ExecContext(
		ctx,
		`INSERT INTO users (id, display_name, role, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		   display_name = excluded.display_name,
		   role = excluded.role,
		   updated_at = excluded.updated_at`,
		userID,
		strings.TrimSpace(user.DisplayName),
		meeting.RoleLabel(user.Role),
		toMillis(createdAt),
		toMillis(updatedAt),
	)
	if err != nil {
		return fmt.Errorf("put user: %w", err)
	}
	return nil
}

// ExhibitionExists reports whether an exhibition directory record exists.
func (s *Store) ExhibitionExists(ctx context.Context, id string) (bool, error) {
	return s.recordExists(ctx, "exhibitions", id)
}

// UserExists reports whether a user directory record exists.
func (s *Store) UserExists(ctx context.Context, id string) (bool, error) {
	return s.recordExists(ctx, "users", id)
}

func (s *Store) recordExists(ctx context.Context, table, id string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	if s == nil || s.sqlDB == nil {
		return false, fmt.Errorf("storage is not configured")
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return false, nil
	}

	var found int
	row := s.sqlDB.QueryRowContext(ctx, `SELECT 1 FROM `+table+` WHERE id = ?`, id)
	if err := row.Scan(&found); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("check %s existence: %w", table, err)
	}
	return true, nil
}

func normalizeTimestamps(createdAt, updatedAt time.Time) (time.Time, time.Time) {
	createdAt = createdAt.UTC()
	updatedAt = updatedAt.UTC()
	if createdAt.IsZero() && updatedAt.IsZero() {
		createdAt = time.Now().UTC()
		updatedAt = createdAt
		return createdAt, updatedAt
	}
	if createdAt.IsZero() {
		createdAt = updatedAt
	}
	if updatedAt.IsZero() {
		updatedAt = createdAt
	}
	return createdAt, updatedAt
}
