package meeting

import apperrors "github.com/expohall/expohall/internal/errors"

// Entity names used to tag NOT_FOUND errors.
const (
	EntityMeeting      = "meeting"
	EntityExhibition   = "exhibition"
	EntityOrganizer    = "organizer"
	EntityInvitedParty = "invited_party"
)

// NotFound creates an entity-tagged NOT_FOUND error.
func NotFound(entity string) *apperrors.Error {
	return apperrors.WithMetadata(
		apperrors.CodeNotFound,
		entity+" not found",
		map[string]string{"Entity": entity},
	)
}
