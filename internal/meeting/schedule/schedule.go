// Package schedule validates proposed meeting time windows.
package schedule

import (
	"time"

	apperrors "github.com/expohall/expohall/internal/errors"
	"github.com/expohall/expohall/internal/meeting"
)

// ErrInvalidTimeRange indicates a window whose start is not strictly
// before its end.
var ErrInvalidTimeRange = apperrors.New(apperrors.CodeMeetingInvalidTimeRange, "start time must be before end time")

// References carries the existence of the entities a meeting points at.
// Lookups happen upstream; validation itself has no side effects.
type References struct {
	ExhibitionExists   bool
	OrganizerExists    bool
	InvitedPartyExists bool
}

// Validate checks referenced entities and the proposed time window.
// Equal start and end is invalid: the window must be strictly ordered.
func Validate(start, end time.Time, refs References) error {
	if !refs.ExhibitionExists {
		return meeting.NotFound(meeting.EntityExhibition)
	}
	if !refs.OrganizerExists {
		return meeting.NotFound(meeting.EntityOrganizer)
	}
	if !refs.InvitedPartyExists {
		return meeting.NotFound(meeting.EntityInvitedParty)
	}
	if !start.Before(end) {
		return ErrInvalidTimeRange
	}
	return nil
}
