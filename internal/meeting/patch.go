package meeting

import "time"

// UpdatePatch describes a partial update to a meeting. Nil fields are left
// untouched. Status is only honored for administrators; everyone else must
// go through the accept/decline transitions.
type UpdatePatch struct {
	StartTime     *time.Time
	EndTime       *time.Time
	Title         *string
	Description   *string
	MeetingLink   *string
	InternalNotes *string
	Status        *Status
}

// IsZero reports whether the patch requests no changes.
func (p UpdatePatch) IsZero() bool {
	return p.StartTime == nil && p.EndTime == nil && p.Title == nil &&
		p.Description == nil && p.MeetingLink == nil && p.InternalNotes == nil &&
		p.Status == nil
}

// Apply returns a copy of the meeting with the patch's fields merged in.
// Identity fields (id, exhibition, organizer, invited party) are never
// touched.
func (p UpdatePatch) Apply(m Meeting) Meeting {
	if p.StartTime != nil {
		m.StartTime = p.StartTime.UTC()
	}
	if p.EndTime != nil {
		m.EndTime = p.EndTime.UTC()
	}
	if p.Title != nil {
		m.Title = *p.Title
	}
	if p.Description != nil {
		m.Description = *p.Description
	}
	if p.MeetingLink != nil {
		m.MeetingLink = *p.MeetingLink
	}
	if p.InternalNotes != nil {
		m.InternalNotes = *p.InternalNotes
	}
	if p.Status != nil {
		m.Status = *p.Status
	}
	return m
}
