// Package meeting provides the meeting lifecycle domain model.
package meeting

import (
	"fmt"
	"strings"
	"time"

	apperrors "github.com/expohall/expohall/internal/errors"
	"github.com/expohall/expohall/internal/id"
)

var (
	// ErrEmptyExhibitionID indicates a missing exhibition ID.
	ErrEmptyExhibitionID = apperrors.New(apperrors.CodeMeetingEmptyExhibitionID, "exhibition id is required")
	// ErrEmptyOrganizerID indicates a missing organizer ID.
	ErrEmptyOrganizerID = apperrors.New(apperrors.CodeMeetingEmptyOrganizerID, "organizer id is required")
	// ErrEmptyInvitedPartyID indicates a missing invited party ID.
	ErrEmptyInvitedPartyID = apperrors.New(apperrors.CodeMeetingEmptyInvitedPartyID, "invited party id is required")
)

// Status represents the lifecycle status of a meeting.
type Status int

const (
	// StatusUnspecified represents an invalid meeting status.
	StatusUnspecified Status = iota
	// StatusPending indicates a meeting awaiting the invited party's answer.
	StatusPending
	// StatusAccepted indicates the invited party accepted the meeting.
	StatusAccepted
	// StatusDeclined indicates the invited party declined the meeting.
	StatusDeclined
	// StatusCanceled indicates a meeting canceled by an administrator.
	StatusCanceled
	// StatusCompleted indicates a meeting marked completed by an administrator.
	StatusCompleted
)

// Meeting represents a time-boxed meeting between an organizer and an
// invited party within an exhibition.
type Meeting struct {
	ID             string
	ExhibitionID   string
	OrganizerID    string
	InvitedPartyID string
	StartTime      time.Time
	EndTime        time.Time
	Title          string
	Description    string
	MeetingLink    string
	InternalNotes  string
	Status         Status
	// Version is the optimistic-concurrency stamp; every successful write
	// increments it.
	Version   int64
	CreatedAt time.Time
	UpdatedAt time.Time
}

// CreateMeetingInput describes the metadata needed to create a meeting.
// The organizer is never taken from the input; it is attached from the
// authenticated caller.
type CreateMeetingInput struct {
	ExhibitionID   string
	InvitedPartyID string
	StartTime      time.Time
	EndTime        time.Time
	Title          string
	Description    string
	MeetingLink    string
	InternalNotes  string
}

// CreateMeeting creates a new pending meeting with a generated ID and
// timestamps.
func CreateMeeting(input CreateMeetingInput, organizerID string, now func() time.Time, idGenerator func() (string, error)) (Meeting, error) {
	if now == nil {
		now = time.Now
	}
	if idGenerator == nil {
		idGenerator = id.NewID
	}

	normalized, err := NormalizeCreateMeetingInput(input)
	if err != nil {
		return Meeting{}, err
	}
	organizerID = strings.TrimSpace(organizerID)
	if organizerID == "" {
		return Meeting{}, ErrEmptyOrganizerID
	}

	meetingID, err := idGenerator()
	if err != nil {
		return Meeting{}, fmt.Errorf("generate meeting id: %w", err)
	}

	createdAt := now().UTC()
	return Meeting{
		ID:             meetingID,
		ExhibitionID:   normalized.ExhibitionID,
		OrganizerID:    organizerID,
		InvitedPartyID: normalized.InvitedPartyID,
		StartTime:      normalized.StartTime.UTC(),
		EndTime:        normalized.EndTime.UTC(),
		Title:          normalized.Title,
		Description:    normalized.Description,
		MeetingLink:    normalized.MeetingLink,
		InternalNotes:  normalized.InternalNotes,
		Status:         StatusPending,
		Version:        1,
		CreatedAt:      createdAt,
		UpdatedAt:      createdAt,
	}, nil
}

// NormalizeCreateMeetingInput trims and validates meeting input metadata.
func NormalizeCreateMeetingInput(input CreateMeetingInput) (CreateMeetingInput, error) {
	input.ExhibitionID = strings.TrimSpace(input.ExhibitionID)
	if input.ExhibitionID == "" {
		return CreateMeetingInput{}, ErrEmptyExhibitionID
	}
	input.InvitedPartyID = strings.TrimSpace(input.InvitedPartyID)
	if input.InvitedPartyID == "" {
		return CreateMeetingInput{}, ErrEmptyInvitedPartyID
	}
	input.Title = strings.TrimSpace(input.Title)
	input.Description = strings.TrimSpace(input.Description)
	input.MeetingLink = strings.TrimSpace(input.MeetingLink)
	input.InternalNotes = strings.TrimSpace(input.InternalNotes)
	return input, nil
}

// CanTransition reports whether the lifecycle allows moving a meeting from
// one status to another. Declined, Canceled and Completed are terminal.
func CanTransition(from, to Status) bool {
	switch from {
	case StatusPending:
		return to == StatusAccepted || to == StatusDeclined
	case StatusAccepted:
		return to == StatusDeclined
	default:
		return false
	}
}

// KnownStatus reports whether the status is a member of the closed set.
func KnownStatus(status Status) bool {
	switch status {
	case StatusPending, StatusAccepted, StatusDeclined, StatusCanceled, StatusCompleted:
		return true
	default:
		return false
	}
}

// StatusLabel returns the string label for a meeting status.
func StatusLabel(status Status) string {
	switch status {
	case StatusPending:
		return "PENDING"
	case StatusAccepted:
		return "ACCEPTED"
	case StatusDeclined:
		return "DECLINED"
	case StatusCanceled:
		return "CANCELED"
	case StatusCompleted:
		return "COMPLETED"
	default:
		return "UNSPECIFIED"
	}
}

// StatusFromLabel converts a status label to a Status value.
func StatusFromLabel(label string) Status {
	switch strings.ToUpper(strings.TrimSpace(label)) {
	case "PENDING":
		return StatusPending
	case "ACCEPTED":
		return StatusAccepted
	case "DECLINED":
		return StatusDeclined
	case "CANCELED":
		return StatusCanceled
	case "COMPLETED":
		return StatusCompleted
	default:
		return StatusUnspecified
	}
}
