package i18n

// Error codes must match the codes defined in internal/errors/codes.go.
// These are duplicated as strings to avoid an import cycle.
const (
	CodeNotFound                       = "NOT_FOUND"
	CodeForbidden                      = "FORBIDDEN"
	CodeConflict                       = "CONFLICT"
	CodeDependencyFailure              = "DEPENDENCY_FAILURE"
	CodeMeetingInvalidTimeRange        = "MEETING_INVALID_TIME_RANGE"
	CodeMeetingInvalidStatusTransition = "MEETING_INVALID_STATUS_TRANSITION"
	CodeMeetingInvalidStatus           = "MEETING_INVALID_STATUS"
	CodeMeetingEmptyExhibitionID       = "MEETING_EMPTY_EXHIBITION_ID"
	CodeMeetingEmptyOrganizerID        = "MEETING_EMPTY_ORGANIZER_ID"
	CodeMeetingEmptyInvitedPartyID     = "MEETING_EMPTY_INVITED_PARTY_ID"
	CodeListInvalidOrderBy             = "LIST_INVALID_ORDER_BY"
	CodeTokenInvalid                   = "TOKEN_INVALID"
	CodeRateLimited                    = "RATE_LIMITED"
)

var enUSCatalog = &Catalog{
	locale: "en-US",
	messages: map[Code]string{
		CodeNotFound:          "The requested {{.Entity}} was not found",
		CodeForbidden:         "You are not allowed to perform this action",
		CodeConflict:          "The meeting changed while you were editing it; please refresh and retry",
		CodeDependencyFailure: "A backing service is unavailable; please retry shortly",

		// Meeting errors
		CodeMeetingInvalidTimeRange:        "Meeting start time must be before its end time",
		CodeMeetingInvalidStatusTransition: "Cannot move meeting from {{.FromStatus}} to {{.ToStatus}}",
		CodeMeetingInvalidStatus:           "Invalid meeting status specified",
		CodeMeetingEmptyExhibitionID:       "Exhibition ID is required for a meeting",
		CodeMeetingEmptyOrganizerID:        "Organizer ID is required for a meeting",
		CodeMeetingEmptyInvitedPartyID:     "Invited party ID is required for a meeting",
		CodeListInvalidOrderBy:             "Unsupported sort order requested",

		// Auth errors
		CodeTokenInvalid: "Your session is invalid or has expired",
		CodeRateLimited:  "Too many requests; please slow down",
	},
}
