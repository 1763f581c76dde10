// Package service coordinates the meeting lifecycle: creation, role-scoped
// reads, field updates, deletion, and the accept/decline transitions.
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	apperrors "github.com/expohall/expohall/internal/errors"
	"github.com/expohall/expohall/internal/id"
	"github.com/expohall/expohall/internal/meeting"
	"github.com/expohall/expohall/internal/meeting/policy"
	"github.com/expohall/expohall/internal/meeting/schedule"
	"github.com/expohall/expohall/internal/platform/pagination"
	"github.com/expohall/expohall/internal/storage"
)

const (
	defaultListMeetingsPageSize = 20
	maxListMeetingsPageSize     = 100

	// conflictRetryAttempts bounds how often a lost compare-and-swap race
	// is retried before CONFLICT surfaces to the caller.
	conflictRetryAttempts = 3
)

var listMeetingsOrderBy = pagination.OrderByConfig{
	Default: "start_time",
	Allowed: []string{"start_time", "start_time desc", "created_at", "created_at desc"},
}

// ErrConflict indicates the meeting kept changing under concurrent
// mutations and the bounded retries were exhausted.
var ErrConflict = apperrors.New(apperrors.CodeConflict, "meeting was modified concurrently")

// ErrInvalidStatus indicates an admin status write naming a value outside
// the closed status set.
var ErrInvalidStatus = apperrors.New(apperrors.CodeMeetingInvalidStatus, "invalid meeting status")

// Coordinator implements the meeting lifecycle operations against
// interface-typed collaborators. Callers supply an already resolved
// (role, actor id) pair; authentication happens upstream.
type Coordinator struct {
	meetings    storage.MeetingStore
	directory   storage.Directory
	clock       func() time.Time
	idGenerator func() (string, error)
}

// NewCoordinator creates a Coordinator with default clock and id
// generation.
func NewCoordinator(meetings storage.MeetingStore, directory storage.Directory) *Coordinator {
	return &Coordinator{
		meetings:    meetings,
		directory:   directory,
		clock:       time.Now,
		idGenerator: id.NewID,
	}
}

// Create validates references and the time window, then persists a new
// pending meeting. The organizer is always the authenticated caller,
// never a payload field.
func (c *Coordinator) Create(ctx context.Context, input meeting.CreateMeetingInput, organizerID string) (meeting.Meeting, error) {
	if c.meetings == nil || c.directory == nil {
		return meeting.Meeting{}, errors.New("coordinator is not configured")
	}

	normalized, err := meeting.NormalizeCreateMeetingInput(input)
	if err != nil {
		return meeting.Meeting{}, err
	}
	organizerID = strings.TrimSpace(organizerID)
	if organizerID == "" {
		return meeting.Meeting{}, meeting.ErrEmptyOrganizerID
	}

	refs, err := c.resolveReferences(ctx, normalized, organizerID)
	if err != nil {
		return meeting.Meeting{}, err
	}
	if err := schedule.Validate(normalized.StartTime, normalized.EndTime, refs); err != nil {
		return meeting.Meeting{}, err
	}

	created, err := meeting.CreateMeeting(normalized, organizerID, c.clock, c.idGenerator)
	if err != nil {
		return meeting.Meeting{}, err
	}
	if err := c.meetings.CreateMeeting(ctx, created); err != nil {
		return meeting.Meeting{}, dependencyError("persist meeting", err)
	}
	return created, nil
}

// Get loads a meeting and applies the role-scoped read check.
func (c *Coordinator) Get(ctx context.Context, meetingID string, role meeting.Role, actorID string) (meeting.Meeting, error) {
	loaded, err := c.load(ctx, meetingID)
	if err != nil {
		return meeting.Meeting{}, err
	}
	if !policy.CanRead(role, actorID, loaded) {
		return meeting.Meeting{}, policy.ErrForbidden
	}
	return loaded, nil
}

// List returns a role-scoped page of meetings plus the total match count.
// Actors whose role grants no visibility receive an empty page, not an
// error.
func (c *Coordinator) List(ctx context.Context, filter storage.MeetingFilter, opts storage.ListMeetingsOptions, role meeting.Role, actorID string) (storage.MeetingPage, error) {
	if c.meetings == nil {
		return storage.MeetingPage{}, errors.New("coordinator is not configured")
	}

	actorID = strings.TrimSpace(actorID)
	switch role {
	case meeting.RoleAdmin:
		// Admins keep the caller-supplied filter untouched.
	case meeting.RoleOrganizer:
		if actorID == "" {
			return storage.MeetingPage{Meetings: []meeting.Meeting{}}, nil
		}
		filter.OrganizerID = actorID
	case meeting.RoleInvitedParty:
		if actorID == "" {
			return storage.MeetingPage{Meetings: []meeting.Meeting{}}, nil
		}
		filter.InvitedPartyID = actorID
	default:
		return storage.MeetingPage{Meetings: []meeting.Meeting{}}, nil
	}

	opts.PageSize = pagination.ClampPageSize(opts.PageSize, pagination.PageSizeConfig{
		Default: defaultListMeetingsPageSize,
		Max:     maxListMeetingsPageSize,
	})
	orderBy, err := pagination.NormalizeOrderBy(opts.OrderBy, listMeetingsOrderBy)
	if err != nil {
		return storage.MeetingPage{}, apperrors.New(apperrors.CodeListInvalidOrderBy, err.Error())
	}
	opts.OrderBy = orderBy

	page, err := c.meetings.ListMeetings(ctx, filter, opts)
	if err != nil {
		return storage.MeetingPage{}, dependencyError("list meetings", err)
	}
	return page, nil
}

// Update applies a partial update after the read check and the field-level
// write policy, re-validates the resulting time window, and persists with
// a compare-and-swap on the record version.
func (c *Coordinator) Update(ctx context.Context, meetingID string, patch meeting.UpdatePatch, role meeting.Role, actorID string) (meeting.Meeting, error) {
	for attempt := 0; attempt < conflictRetryAttempts; attempt++ {
		current, err := c.Get(ctx, meetingID, role, actorID)
		if err != nil {
			return meeting.Meeting{}, err
		}

		allowed, err := policy.AllowedUpdate(role, actorID, current, patch)
		if err != nil {
			return meeting.Meeting{}, err
		}
		if allowed.Status != nil && !meeting.KnownStatus(*allowed.Status) {
			return meeting.Meeting{}, ErrInvalidStatus
		}

		updated := allowed.Apply(current)
		if err := schedule.Validate(updated.StartTime, updated.EndTime, schedule.References{
			ExhibitionExists:   true,
			OrganizerExists:    true,
			InvitedPartyExists: true,
		}); err != nil {
			return meeting.Meeting{}, err
		}
		updated.UpdatedAt = c.clock().UTC()

		stored, err := c.meetings.UpdateMeeting(ctx, updated, current.Version)
		if errors.Is(err, storage.ErrVersionMismatch) {
			continue
		}
		if errors.Is(err, storage.ErrNotFound) {
			return meeting.Meeting{}, meeting.NotFound(meeting.EntityMeeting)
		}
		if err != nil {
			return meeting.Meeting{}, dependencyError("persist meeting update", err)
		}
		return stored, nil
	}
	return meeting.Meeting{}, ErrConflict
}

// Remove hard-deletes a meeting after the read check and the delete
// policy. Deletion is final: no status transition occurs and the record is
// unrecoverable through this coordinator.
func (c *Coordinator) Remove(ctx context.Context, meetingID string, role meeting.Role, actorID string) error {
	current, err := c.Get(ctx, meetingID, role, actorID)
	if err != nil {
		return err
	}
	if !policy.CanDelete(role, actorID, current) {
		return policy.ErrForbidden
	}
	if err := c.meetings.DeleteMeeting(ctx, current.ID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return meeting.NotFound(meeting.EntityMeeting)
		}
		return dependencyError("delete meeting", err)
	}
	return nil
}

// Accept moves a pending meeting to accepted on behalf of its invited
// party.
func (c *Coordinator) Accept(ctx context.Context, meetingID, invitedPartyActorID string) (meeting.Meeting, error) {
	return c.transition(ctx, meetingID, invitedPartyActorID, meeting.StatusAccepted)
}

// Decline moves a pending or accepted meeting to declined on behalf of its
// invited party.
func (c *Coordinator) Decline(ctx context.Context, meetingID, invitedPartyActorID string) (meeting.Meeting, error) {
	return c.transition(ctx, meetingID, invitedPartyActorID, meeting.StatusDeclined)
}

// transition runs the check-then-act sequence for accept/decline. The
// lookup is a direct id lookup, not read-scoped; the transition rule itself
// rejects wrong actors. Lost compare-and-swap races reload the record so
// the rule is re-evaluated against the winner's status.
func (c *Coordinator) transition(ctx context.Context, meetingID, actorID string, target meeting.Status) (meeting.Meeting, error) {
	if c.meetings == nil {
		return meeting.Meeting{}, errors.New("coordinator is not configured")
	}

	for attempt := 0; attempt < conflictRetryAttempts; attempt++ {
		current, err := c.load(ctx, meetingID)
		if err != nil {
			return meeting.Meeting{}, err
		}
		if err := policy.CanTransition(actorID, current, target); err != nil {
			return meeting.Meeting{}, err
		}

		current.Status = target
		current.UpdatedAt = c.clock().UTC()

		stored, err := c.meetings.UpdateMeeting(ctx, current, current.Version)
		if errors.Is(err, storage.ErrVersionMismatch) {
			continue
		}
		if errors.Is(err, storage.ErrNotFound) {
			return meeting.Meeting{}, meeting.NotFound(meeting.EntityMeeting)
		}
		if err != nil {
			return meeting.Meeting{}, dependencyError("persist meeting transition", err)
		}
		return stored, nil
	}
	return meeting.Meeting{}, ErrConflict
}

// load fetches a meeting by id, mapping storage sentinels to domain
// errors.
func (c *Coordinator) load(ctx context.Context, meetingID string) (meeting.Meeting, error) {
	if c.meetings == nil {
		return meeting.Meeting{}, errors.New("coordinator is not configured")
	}
	meetingID = strings.TrimSpace(meetingID)
	if meetingID == "" {
		return meeting.Meeting{}, meeting.NotFound(meeting.EntityMeeting)
	}
	loaded, err := c.meetings.GetMeeting(ctx, meetingID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return meeting.Meeting{}, meeting.NotFound(meeting.EntityMeeting)
		}
		return meeting.Meeting{}, dependencyError("load meeting", err)
	}
	return loaded, nil
}

// resolveReferences checks the existence of the entities a new meeting
// points at.
func (c *Coordinator) resolveReferences(ctx context.Context, input meeting.CreateMeetingInput, organizerID string) (schedule.References, error) {
	exhibitionExists, err := c.directory.ExhibitionExists(ctx, input.ExhibitionID)
	if err != nil {
		return schedule.References{}, dependencyError("check exhibition", err)
	}
	organizerExists, err := c.directory.UserExists(ctx, organizerID)
	if err != nil {
		return schedule.References{}, dependencyError("check organizer", err)
	}
	invitedPartyExists, err := c.directory.UserExists(ctx, input.InvitedPartyID)
	if err != nil {
		return schedule.References{}, dependencyError("check invited party", err)
	}
	return schedule.References{
		ExhibitionExists:   exhibitionExists,
		OrganizerExists:    organizerExists,
		InvitedPartyExists: invitedPartyExists,
	}, nil
}

// dependencyError wraps a store or collaborator fault. These are never
// retried here; callers see DEPENDENCY_FAILURE rather than a partial
// mutation.
func dependencyError(op string, err error) *apperrors.Error {
	return apperrors.Wrap(apperrors.CodeDependencyFailure, fmt.Sprintf("%s: %v", op, err), err)
}
