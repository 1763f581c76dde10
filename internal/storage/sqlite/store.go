// Package sqlite provides a SQLite-backed meeting storage implementation.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/expohall/expohall/internal/meeting"
	"github.com/expohall/expohall/internal/platform/storage/sqlitemigrate"
	"github.com/expohall/expohall/internal/storage"
	"github.com/expohall/expohall/internal/storage/sqlite/migrations"
	msqlite "modernc.org/sqlite"
	sqlite3lib "modernc.org/sqlite/lib"
)

// Store persists meetings and directory records in SQLite.
type Store struct {
	sqlDB *sql.DB
}

func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

func fromMillis(value int64) time.Time {
	return time.UnixMilli(value).UTC()
}

// Open opens a SQLite meeting store and applies embedded migrations.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	cleanPath := filepath.Clean(path)
	dsn := cleanPath + "?_journal_mode=WAL&_foreign_keys=ON&_busy_timeout=5000&_synchronous=NORMAL"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if err := sqlitemigrate.Apply(sqlDB, migrations.FS); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return &Store{sqlDB: sqlDB}, nil
}

// Close closes the SQLite handle.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

// CreateMeeting inserts one meeting record.
func (s *Store) CreateMeeting(ctx context.Context, m meeting.Meeting) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	if strings.TrimSpace(m.ID) == "" {
		return fmt.Errorf("meeting id is required")
	}

	_, err := s.sqlDB.ExecContext(
		ctx,
		`INSERT INTO meetings (
		   id,
		   exhibition_id,
		   organizer_id,
		   invited_party_id,
		   start_time,
		   end_time,
		   title,
		   description,
		   meeting_link,
		   internal_notes,
		   status,
		   version,
		   created_at,
		   updated_at
		 ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		m.ID,
		m.ExhibitionID,
		m.OrganizerID,
		m.InvitedPartyID,
		toMillis(m.StartTime),
		toMillis(m.EndTime),
		m.Title,
		m.Description,
		m.MeetingLink,
		m.InternalNotes,
		meeting.StatusLabel(m.Status),
		m.Version,
		toMillis(m.CreatedAt),
		toMillis(m.UpdatedAt),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return storage.ErrAlreadyExists
		}
		return fmt.Errorf("create meeting: %w", err)
	}
	return nil
}

const meetingColumns = `id, exhibition_id, organizer_id, invited_party_id,
		        start_time, end_time, title, description,
		        meeting_link, internal_notes, status, version,
		        created_at, updated_at`

// GetMeeting returns one meeting by ID.
func (s *Store) GetMeeting(ctx context.Context, id string) (meeting.Meeting, error) {
	if err := ctx.Err(); err != nil {
		return meeting.Meeting{}, err
	}
	if s == nil || s.sqlDB == nil {
		return meeting.Meeting{}, fmt.Errorf("storage is not configured")
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return meeting.Meeting{}, fmt.Errorf("meeting id is required")
	}

	row := s.sqlDB.QueryRowContext(
		ctx,
		`SELECT `+meetingColumns+`
		   FROM meetings
		  WHERE id = ?`,
		id,
	)
	return scanMeeting(row)
}

// ListMeetings returns one page of meetings matching the filter plus the
// total match count across all pages.
func (s *Store) ListMeetings(ctx context.Context, filter storage.MeetingFilter, opts storage.ListMeetingsOptions) (storage.MeetingPage, error) {
	if err := ctx.Err(); err != nil {
		return storage.MeetingPage{}, err
	}
	if s == nil || s.sqlDB == nil {
		return storage.MeetingPage{}, fmt.Errorf("storage is not configured")
	}
	pageSize := opts.PageSize
	if pageSize <= 0 {
		return storage.MeetingPage{}, fmt.Errorf("page size must be greater than zero")
	}

	where, args := buildMeetingFilter(filter)

	var total int
	countQuery := `SELECT COUNT(*) FROM meetings` + where
	if err := s.sqlDB.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return storage.MeetingPage{}, fmt.Errorf("count meetings: %w", err)
	}

	orderClause, err := orderByClause(opts.OrderBy)
	if err != nil {
		return storage.MeetingPage{}, err
	}

	offset := 0
	if token := strings.TrimSpace(opts.PageToken); token != "" {
		offset, err = strconv.Atoi(token)
		if err != nil || offset < 0 {
			return storage.MeetingPage{}, fmt.Errorf("invalid page token: %q", opts.PageToken)
		}
	}

	query := `SELECT ` + meetingColumns + ` FROM meetings` + where + orderClause + ` LIMIT ? OFFSET ?`
	queryArgs := append(append([]any{}, args...), pageSize, offset)
	rows, err := s.sqlDB.QueryContext(ctx, query, queryArgs...)
	if err != nil {
		return storage.MeetingPage{}, fmt.Errorf("list meetings: %w", err)
	}
	defer rows.Close()

	page := storage.MeetingPage{
		Meetings:   make([]meeting.Meeting, 0, pageSize),
		TotalCount: total,
	}
	for rows.Next() {
		m, err := scanMeeting(rows)
		if err != nil {
			return storage.MeetingPage{}, err
		}
		page.Meetings = append(page.Meetings, m)
	}
	if err := rows.Err(); err != nil {
		return storage.MeetingPage{}, fmt.Errorf("list meetings: %w", err)
	}

	if offset+len(page.Meetings) < total {
		page.NextPageToken = strconv.Itoa(offset + len(page.Meetings))
	}
	return page, nil
}

// UpdateMeeting writes the meeting's mutable fields using a
// compare-and-swap on the record version. Identity fields are never
// written; a stale expectedVersion fails with ErrVersionMismatch.
func (s *Store) UpdateMeeting(ctx context.Context, m meeting.Meeting, expectedVersion int64) (meeting.Meeting, error) {
	if err := ctx.Err(); err != nil {
		return meeting.Meeting{}, err
	}
	if s == nil || s.sqlDB == nil {
		return meeting.Meeting{}, fmt.Errorf("storage is not configured")
	}
	id := strings.TrimSpace(m.ID)
	if id == "" {
		return meeting.Meeting{}, fmt.Errorf("meeting id is required")
	}

	result, err := s.sqlDB.ExecContext(
		ctx,
		`UPDATE meetings
		    SET start_time = ?,
		        end_time = ?,
		        title = ?,
		        description = ?,
		        meeting_link = ?,
		        internal_notes = ?,
		        status = ?,
		        version = version + 1,
		        updated_at = ?
		  WHERE id = ? AND version = ?`,
		toMillis(m.StartTime),
		toMillis(m.EndTime),
		m.Title,
		m.Description,
		m.MeetingLink,
		m.InternalNotes,
		meeting.StatusLabel(m.Status),
		toMillis(m.UpdatedAt),
		id,
		expectedVersion,
	)
	if err != nil {
		return meeting.Meeting{}, fmt.Errorf("update meeting: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return meeting.Meeting{}, fmt.Errorf("update meeting rows affected: %w", err)
	}
	if affected == 0 {
		var exists int
		row := s.sqlDB.QueryRowContext(ctx, `SELECT 1 FROM meetings WHERE id = ?`, id)
		if scanErr := row.Scan(&exists); scanErr != nil {
			if errors.Is(scanErr, sql.ErrNoRows) {
				return meeting.Meeting{}, storage.ErrNotFound
			}
			return meeting.Meeting{}, fmt.Errorf("update meeting existence check: %w", scanErr)
		}
		return meeting.Meeting{}, storage.ErrVersionMismatch
	}

	return s.GetMeeting(ctx, id)
}

// DeleteMeeting removes one meeting. Deletion is physical and final.
func (s *Store) DeleteMeeting(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return fmt.Errorf("meeting id is required")
	}

	result, err := s.sqlDB.ExecContext(ctx, `DELETE FROM meetings WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete meeting: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete meeting rows affected: %w", err)
	}
	if affected == 0 {
		return storage.ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMeeting(row rowScanner) (meeting.Meeting, error) {
	var m meeting.Meeting
	var statusLabel string
	var startTime, endTime, createdAt, updatedAt int64
	err := row.Scan(
		&m.ID,
		&m.ExhibitionID,
		&m.OrganizerID,
		&m.InvitedPartyID,
		&startTime,
		&endTime,
		&m.Title,
		&m.Description,
		&m.MeetingLink,
		&m.InternalNotes,
		&statusLabel,
		&m.Version,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return meeting.Meeting{}, storage.ErrNotFound
		}
		return meeting.Meeting{}, fmt.Errorf("scan meeting: %w", err)
	}
	m.Status = meeting.StatusFromLabel(statusLabel)
	m.StartTime = fromMillis(startTime)
	m.EndTime = fromMillis(endTime)
	m.CreatedAt = fromMillis(createdAt)
	m.UpdatedAt = fromMillis(updatedAt)
	return m, nil
}

func buildMeetingFilter(filter storage.MeetingFilter) (string, []any) {
	var clauses []string
	var args []any
	if value := strings.TrimSpace(filter.ExhibitionID); value != "" {
		clauses = append(clauses, "exhibition_id = ?")
		args = append(args, value)
	}
	if value := strings.TrimSpace(filter.OrganizerID); value != "" {
		clauses = append(clauses, "organizer_id = ?")
		args = append(args, value)
	}
	if value := strings.TrimSpace(filter.InvitedPartyID); value != "" {
		clauses = append(clauses, "invited_party_id = ?")
		args = append(args, value)
	}
	if filter.Status != meeting.StatusUnspecified {
		clauses = append(clauses, "status = ?")
		args = append(args, meeting.StatusLabel(filter.Status))
	}
	if !filter.StartsAfter.IsZero() {
		clauses = append(clauses, "start_time >= ?")
		args = append(args, toMillis(filter.StartsAfter))
	}
	if !filter.StartsBefore.IsZero() {
		clauses = append(clauses, "start_time < ?")
		args = append(args, toMillis(filter.StartsBefore))
	}
	if len(clauses) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

func orderByClause(orderBy string) (string, error) {
	switch strings.TrimSpace(orderBy) {
	case "", "start_time":
		return " ORDER BY start_time ASC, id ASC", nil
	case "start_time desc":
		return " ORDER BY start_time DESC, id ASC", nil
	case "created_at":
		return " ORDER BY created_at ASC, id ASC", nil
	case "created_at desc":
		return " ORDER BY created_at DESC, id ASC", nil
	default:
		return "", fmt.Errorf("unsupported order_by: %q", orderBy)
	}
}

func isUniqueViolation(err error) bool {
	var sqliteErr *msqlite.Error
	if errors.As(err, &sqliteErr) {
		code := sqliteErr.Code()
		return code == sqlite3lib.SQLITE_CONSTRAINT_PRIMARYKEY ||
			code == sqlite3lib.SQLITE_CONSTRAINT_UNIQUE ||
			code == sqlite3lib.SQLITE_CONSTRAINT
	}
	return false
}
