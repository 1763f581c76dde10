// Package policy provides authorization decisions for meeting operations.
//
// Decisions are pure functions over the actor's role and identity, the
// meeting, and the requested change; they never touch storage or transport.
package policy

import (
	"fmt"
	"strings"

	apperrors "github.com/expohall/expohall/internal/errors"
	"github.com/expohall/expohall/internal/meeting"
)

// ErrForbidden indicates the actor is not permitted for the requested
// operation or the meeting's current state.
var ErrForbidden = apperrors.New(apperrors.CodeForbidden, "operation is not allowed for this actor")

// CanRead reports whether the actor may see the meeting. Admins see
// everything; organizers and invited parties see only their own meetings.
func CanRead(role meeting.Role, actorID string, m meeting.Meeting) bool {
	actorID = strings.TrimSpace(actorID)
	if actorID == "" {
		return false
	}
	switch role {
	case meeting.RoleAdmin:
		return true
	case meeting.RoleOrganizer:
		return m.OrganizerID == actorID
	case meeting.RoleInvitedParty:
		return m.InvitedPartyID == actorID
	default:
		return false
	}
}

// AllowedUpdate decides whether the actor may apply the patch and returns
// the fields that survive the decision.
//
// Admins may change anything, including status. The owning organizer may
// change non-status fields only while the meeting is still pending, and may
// never set status directly: accepted/declined are reachable only through
// the transition operations. Everyone else is denied outright.
func AllowedUpdate(role meeting.Role, actorID string, m meeting.Meeting, patch meeting.UpdatePatch) (meeting.UpdatePatch, error) {
	actorID = strings.TrimSpace(actorID)
	switch {
	case role == meeting.RoleAdmin:
		return patch, nil
	case role == meeting.RoleOrganizer && actorID != "" && m.OrganizerID == actorID:
		if patch.Status != nil {
			return meeting.UpdatePatch{}, ErrForbidden
		}
		if m.Status != meeting.StatusPending {
			return meeting.UpdatePatch{}, ErrForbidden
		}
		return patch, nil
	default:
		return meeting.UpdatePatch{}, ErrForbidden
	}
}

// CanDelete reports whether the actor may delete the meeting. Only admins
// and the owning organizer may; deletion is allowed in any status.
func CanDelete(role meeting.Role, actorID string, m meeting.Meeting) bool {
	actorID = strings.TrimSpace(actorID)
	switch role {
	case meeting.RoleAdmin:
		return true
	case meeting.RoleOrganizer:
		return actorID != "" && m.OrganizerID == actorID
	default:
		return false
	}
}

// CanTransition decides whether the actor may move the meeting to the
// target status via accept/decline. Only the invited party referenced by
// the meeting may transition it; a wrong actor is Forbidden, the right
// actor in a disallowed source status gets an invalid-transition error.
func CanTransition(actorID string, m meeting.Meeting, target meeting.Status) error {
	actorID = strings.TrimSpace(actorID)
	if actorID == "" || m.InvitedPartyID != actorID {
		return ErrForbidden
	}
	if !meeting.CanTransition(m.Status, target) {
		return newTransitionError(m.Status, target)
	}
	return nil
}

// newTransitionError creates a structured error for disallowed status
// transitions.
func newTransitionError(from, to meeting.Status) *apperrors.Error {
	fromLabel := meeting.StatusLabel(from)
	toLabel := meeting.StatusLabel(to)
	return apperrors.WithMetadata(
		apperrors.CodeMeetingInvalidStatusTransition,
		fmt.Sprintf("meeting status %s does not allow transition to %s", fromLabel, toLabel),
		map[string]string{"FromStatus": fromLabel, "ToStatus": toLabel},
	)
}
