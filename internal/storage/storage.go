// Package storage defines persistence contracts for meeting coordination
// state.
package storage

import (
	"context"
	"errors"
	"time"

	"github.com/expohall/expohall/internal/meeting"
)

var (
	// ErrNotFound indicates a requested record is missing.
	ErrNotFound = errors.New("record not found")
	// ErrAlreadyExists indicates a uniqueness-constrained record already
	// exists.
	ErrAlreadyExists = errors.New("record already exists")
	// ErrVersionMismatch indicates an optimistic-concurrency write lost a
	// race: the record's stored version no longer matches the one the
	// caller read.
	ErrVersionMismatch = errors.New("record version mismatch")
)

// MeetingFilter narrows list queries. Zero values apply no constraint.
type MeetingFilter struct {
	ExhibitionID   string
	OrganizerID    string
	InvitedPartyID string
	Status         meeting.Status
	StartsAfter    time.Time
	StartsBefore   time.Time
}

// ListMeetingsOptions controls pagination and ordering of list queries.
// OrderBy must already be normalized against the store's allow-list.
type ListMeetingsOptions struct {
	PageSize  int
	PageToken string
	OrderBy   string
}

// MeetingPage is one page of meeting records plus the total match count
// across all pages.
type MeetingPage struct {
	Meetings      []meeting.Meeting
	TotalCount    int
	NextPageToken string
}

// MeetingStore persists meeting records. UpdateMeeting must implement the
// compare-and-swap contract: the write succeeds only when the stored
// version equals expectedVersion, otherwise it fails with
// ErrVersionMismatch and leaves the record untouched.
type MeetingStore interface {
	CreateMeeting(ctx context.Context, m meeting.Meeting) error
	GetMeeting(ctx context.Context, id string) (meeting.Meeting, error)
	ListMeetings(ctx context.Context, filter MeetingFilter, opts ListMeetingsOptions) (MeetingPage, error)
	UpdateMeeting(ctx context.Context, m meeting.Meeting, expectedVersion int64) (meeting.Meeting, error)
	DeleteMeeting(ctx context.Context, id string) error
}

// Exhibition is a directory record for an exhibition.
type Exhibition struct {
	ID        string
	Name      string
	StartsAt  time.Time
	EndsAt    time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
}

// User is a directory record for an authenticated principal.
type User struct {
	ID          string
	DisplayName string
	Role        meeting.Role
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Directory resolves the existence of the entities meetings reference.
// The coordinator consults it only during create.
type Directory interface {
	PutExhibition(ctx context.Context, exhibition Exhibition) error
	PutUser(ctx context.Context, user User) error
	ExhibitionExists(ctx context.Context, id string) (bool, error)
	UserExists(ctx context.Context, id string) (bool, error)
}
