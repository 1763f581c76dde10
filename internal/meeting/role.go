package meeting

import "strings"

// Role represents the meeting-facing role of an authenticated principal.
type Role int

const (
	// RoleUnspecified represents an invalid role.
	RoleUnspecified Role = iota
	// RoleAdmin has unrestricted rights over all meetings.
	RoleAdmin
	// RoleOrganizer proposes meetings and owns the ones it created.
	RoleOrganizer
	// RoleInvitedParty is the counterpart who alone may accept or decline.
	RoleInvitedParty
	// RoleOther is any other authenticated role; it has no visibility
	// into meetings.
	RoleOther
)

// RoleLabel returns the string label for a role.
func RoleLabel(role Role) string {
	switch role {
	case RoleAdmin:
		return "ADMIN"
	case RoleOrganizer:
		return "ORGANIZER"
	case RoleInvitedParty:
		return "INVITED_PARTY"
	case RoleOther:
		return "OTHER"
	default:
		return "UNSPECIFIED"
	}
}

// RoleFromLabel converts a role label to a Role value. Unknown labels map
// to RoleOther: any authenticated principal without a meeting-facing role
// gets no visibility rather than an error.
func RoleFromLabel(label string) Role {
	switch strings.ToUpper(strings.TrimSpace(label)) {
	case "ADMIN":
		return RoleAdmin
	case "ORGANIZER":
		return RoleOrganizer
	case "INVITED_PARTY":
		return RoleInvitedParty
	case "":
		return RoleUnspecified
	default:
		return RoleOther
	}
}
