package policy

import (
	"errors"
	"testing"

	apperrors "github.com/expohall/expohall/internal/errors"
	"github.com/expohall/expohall/internal/meeting"
)

func pendingMeeting() meeting.Meeting {
	return meeting.Meeting{
		ID:             "meet-1",
		ExhibitionID:   "expo-1",
		OrganizerID:    "org-1",
		InvitedPartyID: "inv-1",
		Status:         meeting.StatusPending,
	}
}

func TestCanRead(t *testing.T) {
	m := pendingMeeting()

	if !CanRead(meeting.RoleAdmin, "anyone", m) {
		t.Fatal("admin should read any meeting")
	}
	if !CanRead(meeting.RoleOrganizer, "org-1", m) {
		t.Fatal("owning organizer should read its meeting")
	}
	if CanRead(meeting.RoleOrganizer, "org-2", m) {
		t.Fatal("other organizer should not read the meeting")
	}
	if !CanRead(meeting.RoleInvitedParty, "inv-1", m) {
		t.Fatal("invited party should read its meeting")
	}
	if CanRead(meeting.RoleInvitedParty, "inv-2", m) {
		t.Fatal("other invited party should not read the meeting")
	}
	if CanRead(meeting.RoleOther, "org-1", m) {
		t.Fatal("other roles have no visibility")
	}
	if CanRead(meeting.RoleAdmin, "  ", m) {
		t.Fatal("blank actor id should be denied")
	}
}

func TestAllowedUpdateAdmin(t *testing.T) {
	m := pendingMeeting()
	m.Status = meeting.StatusDeclined

	status := meeting.StatusCanceled
	patch := meeting.UpdatePatch{Status: &status}
	allowed, err := AllowedUpdate(meeting.RoleAdmin, "admin-1", m, patch)
	if err != nil {
		t.Fatalf("admin update: %v", err)
	}
	if allowed.Status == nil || *allowed.Status != meeting.StatusCanceled {
		t.Fatal("admin should keep direct status writes")
	}
}

func TestAllowedUpdateOrganizerPendingOnly(t *testing.T) {
	m := pendingMeeting()
	title := "New title"
	patch := meeting.UpdatePatch{Title: &title}

	allowed, err := AllowedUpdate(meeting.RoleOrganizer, "org-1", m, patch)
	if err != nil {
		t.Fatalf("pending update: %v", err)
	}
	if allowed.Title == nil || *allowed.Title != "New title" {
		t.Fatal("expected title change to survive")
	}

	m.Status = meeting.StatusAccepted
	if _, err := AllowedUpdate(meeting.RoleOrganizer, "org-1", m, patch); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected forbidden once status left pending, got %v", err)
	}
}

func TestAllowedUpdateOrganizerNotesGatedLikeOtherFields(t *testing.T) {
	// Internal notes follow the same pending-only gate as every other
	// non-status field.
	m := pendingMeeting()
	m.Status = meeting.StatusAccepted
	notes := "prep talking points"
	if _, err := AllowedUpdate(meeting.RoleOrganizer, "org-1", m, meeting.UpdatePatch{InternalNotes: &notes}); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected forbidden, got %v", err)
	}
}

func TestAllowedUpdateOrganizerCannotSetStatus(t *testing.T) {
	m := pendingMeeting()
	status := meeting.StatusAccepted
	if _, err := AllowedUpdate(meeting.RoleOrganizer, "org-1", m, meeting.UpdatePatch{Status: &status}); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected forbidden for direct status write, got %v", err)
	}
}

func TestAllowedUpdateOutsidersDenied(t *testing.T) {
	m := pendingMeeting()
	title := "x"
	patch := meeting.UpdatePatch{Title: &title}

	if _, err := AllowedUpdate(meeting.RoleInvitedParty, "inv-1", m, patch); !errors.Is(err, ErrForbidden) {
		t.Fatalf("invited party update should be forbidden, got %v", err)
	}
	if _, err := AllowedUpdate(meeting.RoleOrganizer, "org-2", m, patch); !errors.Is(err, ErrForbidden) {
		t.Fatalf("non-owning organizer update should be forbidden, got %v", err)
	}
	if _, err := AllowedUpdate(meeting.RoleOther, "someone", m, patch); !errors.Is(err, ErrForbidden) {
		t.Fatalf("other roles should be forbidden, got %v", err)
	}
}

func TestCanDelete(t *testing.T) {
	m := pendingMeeting()

	if !CanDelete(meeting.RoleAdmin, "admin-1", m) {
		t.Fatal("admin should delete any meeting")
	}
	if !CanDelete(meeting.RoleOrganizer, "org-1", m) {
		t.Fatal("owning organizer should delete its meeting")
	}
	if CanDelete(meeting.RoleOrganizer, "org-2", m) {
		t.Fatal("other organizer should not delete the meeting")
	}
	if CanDelete(meeting.RoleInvitedParty, "inv-1", m) {
		t.Fatal("invited party should not delete the meeting")
	}
}

func TestCanTransitionIdentity(t *testing.T) {
	m := pendingMeeting()

	if err := CanTransition("inv-1", m, meeting.StatusAccepted); err != nil {
		t.Fatalf("invited party accept: %v", err)
	}
	if err := CanTransition("org-1", m, meeting.StatusAccepted); !errors.Is(err, ErrForbidden) {
		t.Fatalf("organizer accept should be forbidden, got %v", err)
	}
	if err := CanTransition("", m, meeting.StatusDeclined); !errors.Is(err, ErrForbidden) {
		t.Fatalf("blank actor should be forbidden, got %v", err)
	}
}

func TestCanTransitionStatusGate(t *testing.T) {
	m := pendingMeeting()
	m.Status = meeting.StatusAccepted

	err := CanTransition("inv-1", m, meeting.StatusAccepted)
	if apperrors.GetCode(err) != apperrors.CodeMeetingInvalidStatusTransition {
		t.Fatalf("expected invalid transition, got %v", err)
	}
	metadata := apperrors.GetMetadata(err)
	if metadata["FromStatus"] != "ACCEPTED" || metadata["ToStatus"] != "ACCEPTED" {
		t.Fatalf("unexpected transition metadata: %v", metadata)
	}

	if err := CanTransition("inv-1", m, meeting.StatusDeclined); err != nil {
		t.Fatalf("decline after accept: %v", err)
	}

	m.Status = meeting.StatusDeclined
	err = CanTransition("inv-1", m, meeting.StatusDeclined)
	if apperrors.GetCode(err) != apperrors.CodeMeetingInvalidStatusTransition {
		t.Fatalf("declined should be terminal, got %v", err)
	}
}
