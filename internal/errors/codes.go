// Package errors provides structured error handling with i18n support.
package errors

import "google.golang.org/grpc/codes"

// Code is a machine-readable error code.
type Code string

const (
	// CodeUnknown represents an unknown error.
	CodeUnknown Code = "UNKNOWN"

	// CodeNotFound indicates a referenced entity does not exist. The
	// Entity metadata key names which one (meeting, exhibition,
	// organizer, invited_party).
	CodeNotFound Code = "NOT_FOUND"
	// CodeForbidden indicates the actor is authenticated but not
	// permitted for the requested operation or state.
	CodeForbidden Code = "FORBIDDEN"
	// CodeConflict indicates an optimistic-concurrency check failed.
	CodeConflict Code = "CONFLICT"
	// CodeDependencyFailure indicates the store or an existence-check
	// collaborator failed unexpectedly.
	CodeDependencyFailure Code = "DEPENDENCY_FAILURE"

	// Meeting errors
	CodeMeetingInvalidTimeRange        Code = "MEETING_INVALID_TIME_RANGE"
	CodeMeetingInvalidStatusTransition Code = "MEETING_INVALID_STATUS_TRANSITION"
	CodeMeetingInvalidStatus           Code = "MEETING_INVALID_STATUS"
	CodeMeetingEmptyExhibitionID       Code = "MEETING_EMPTY_EXHIBITION_ID"
	CodeMeetingEmptyOrganizerID        Code = "MEETING_EMPTY_ORGANIZER_ID"
	CodeMeetingEmptyInvitedPartyID     Code = "MEETING_EMPTY_INVITED_PARTY_ID"

	// List errors
	CodeListInvalidOrderBy Code = "LIST_INVALID_ORDER_BY"

	// Auth errors
	CodeTokenInvalid Code = "TOKEN_INVALID"
	CodeRateLimited  Code = "RATE_LIMITED"
)

// GRPCCode maps domain codes to gRPC status codes.
func (c Code) GRPCCode() codes.Code {
	switch c {
	// InvalidArgument - validation failures, bad input
	case CodeMeetingInvalidTimeRange,
		CodeMeetingInvalidStatus,
		CodeMeetingEmptyExhibitionID,
		CodeMeetingEmptyOrganizerID,
		CodeMeetingEmptyInvitedPartyID,
		CodeListInvalidOrderBy:
		return codes.InvalidArgument

	// FailedPrecondition - state doesn't allow operation
	case CodeMeetingInvalidStatusTransition:
		return codes.FailedPrecondition

	// NotFound - resource doesn't exist
	case CodeNotFound:
		return codes.NotFound

	case CodeForbidden:
		return codes.PermissionDenied

	case CodeConflict:
		return codes.Aborted

	case CodeDependencyFailure:
		return codes.Unavailable

	case CodeTokenInvalid:
		return codes.Unauthenticated

	case CodeRateLimited:
		return codes.ResourceExhausted

	default:
		return codes.Internal
	}
}
