package service

import (
	"context"
	"errors"
	"testing"
	"time"

	apperrors "github.com/expohall/expohall/internal/errors"
	"github.com/expohall/expohall/internal/meeting"
	"github.com/expohall/expohall/internal/meeting/policy"
	"github.com/expohall/expohall/internal/storage"
)

type fakeMeetingStore struct {
	meetings    map[string]meeting.Meeting
	createErr   error
	getErr      error
	listPage    storage.MeetingPage
	listErr     error
	listCalls   int
	lastFilter  storage.MeetingFilter
	lastOpts    storage.ListMeetingsOptions
	updateCalls int
	// updateHook runs before the versioned write; returning an error
	// short-circuits the write with that error.
	updateHook func(m meeting.Meeting, expectedVersion int64) error
}

func newFakeMeetingStore(meetings ...meeting.Meeting) *fakeMeetingStore {
	store := &fakeMeetingStore{meetings: make(map[string]meeting.Meeting)}
	for _, m := range meetings {
		store.meetings[m.ID] = m
	}
	return store
}

func (s *fakeMeetingStore) CreateMeeting(_ context.Context, m meeting.Meeting) error {
	if s.createErr != nil {
		return s.createErr
	}
	s.meetings[m.ID] = m
	return nil
}

func (s *fakeMeetingStore) GetMeeting(_ context.Context, id string) (meeting.Meeting, error) {
	if s.getErr != nil {
		return meeting.Meeting{}, s.getErr
	}
	m, ok := s.meetings[id]
	if !ok {
		return meeting.Meeting{}, storage.ErrNotFound
	}
	return m, nil
}

func (s *fakeMeetingStore) ListMeetings(_ context.Context, filter storage.MeetingFilter, opts storage.ListMeetingsOptions) (storage.MeetingPage, error) {
	s.listCalls++
	s.lastFilter = filter
	s.lastOpts = opts
	if s.listErr != nil {
		return storage.MeetingPage{}, s.listErr
	}
	return s.listPage, nil
}

func (s *fakeMeetingStore) UpdateMeeting(_ context.Context, m meeting.Meeting, expectedVersion int64) (meeting.Meeting, error) {
	s.updateCalls++
	if s.updateHook != nil {
		if err := s.updateHook(m, expectedVersion); err != nil {
			return meeting.Meeting{}, err
		}
	}
	current, ok := s.meetings[m.ID]
	if !ok {
		return meeting.Meeting{}, storage.ErrNotFound
	}
	if current.Version != expectedVersion {
		return meeting.Meeting{}, storage.ErrVersionMismatch
	}
	m.Version = expectedVersion + 1
	s.meetings[m.ID] = m
	return m, nil
}

func (s *fakeMeetingStore) DeleteMeeting(_ context.Context, id string) error {
	if _, ok := s.meetings[id]; !ok {
		return storage.ErrNotFound
	}
	delete(s.meetings, id)
	return nil
}

type fakeDirectory struct {
	exhibitions map[string]bool
	users       map[string]bool
	err         error
}

func (d *fakeDirectory) PutExhibition(context.Context, storage.Exhibition) error { return nil }

func (d *fakeDirectory) PutUser(context.Context, storage.User) error { return nil }

func (d *fakeDirectory) ExhibitionExists(_ context.Context, id string) (bool, error) {
	if d.err != nil {
		return false, d.err
	}
	return d.exhibitions[id], nil
}

func (d *fakeDirectory) UserExists(_ context.Context, id string) (bool, error) {
	if d.err != nil {
		return false, d.err
	}
	return d.users[id], nil
}

func newTestCoordinator(meetings *fakeMeetingStore, directory *fakeDirectory) *Coordinator {
	fixedTime := time.Date(2025, 1, 9, 12, 0, 0, 0, time.UTC)
	coordinator := NewCoordinator(meetings, directory)
	coordinator.clock = func() time.Time { return fixedTime }
	coordinator.idGenerator = func() (string, error) { return "meet-1", nil }
	return coordinator
}

func pendingMeeting() meeting.Meeting {
	return meeting.Meeting{
		ID:             "meet-1",
		ExhibitionID:   "expo-1",
		OrganizerID:    "org-1",
		InvitedPartyID: "inv-1",
		StartTime:      time.Date(2025, 1, 10, 10, 0, 0, 0, time.UTC),
		EndTime:        time.Date(2025, 1, 10, 10, 30, 0, 0, time.UTC),
		Title:          "Booth demo",
		Status:         meeting.StatusPending,
		Version:        1,
	}
}

func validCreateInput() meeting.CreateMeetingInput {
	return meeting.CreateMeetingInput{
		ExhibitionID:   "expo-1",
		InvitedPartyID: "inv-1",
		StartTime:      time.Date(2025, 1, 10, 10, 0, 0, 0, time.UTC),
		EndTime:        time.Date(2025, 1, 10, 10, 30, 0, 0, time.UTC),
		Title:          "Booth demo",
	}
}

func fullDirectory() *fakeDirectory {
	return &fakeDirectory{
		exhibitions: map[string]bool{"expo-1": true},
		users:       map[string]bool{"org-1": true, "inv-1": true},
	}
}

func TestCreateReturnsPendingMeetingForCaller(t *testing.T) {
	store := newFakeMeetingStore()
	coordinator := newTestCoordinator(store, fullDirectory())

	created, err := coordinator.Create(context.Background(), validCreateInput(), "org-1")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.Status != meeting.StatusPending {
		t.Fatalf("expected pending, got %v", created.Status)
	}
	if created.OrganizerID != "org-1" {
		t.Fatalf("expected caller as organizer, got %q", created.OrganizerID)
	}
	if _, ok := store.meetings["meet-1"]; !ok {
		t.Fatal("expected meeting to be persisted")
	}
}

func TestCreateRejectsMissingReferences(t *testing.T) {
	directory := fullDirectory()
	directory.exhibitions = map[string]bool{}
	coordinator := newTestCoordinator(newFakeMeetingStore(), directory)

	_, err := coordinator.Create(context.Background(), validCreateInput(), "org-1")
	if apperrors.GetCode(err) != apperrors.CodeNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
	if apperrors.GetMetadata(err)["Entity"] != meeting.EntityExhibition {
		t.Fatalf("expected exhibition entity, got %v", apperrors.GetMetadata(err))
	}
}

func TestCreateRejectsEqualStartAndEnd(t *testing.T) {
	coordinator := newTestCoordinator(newFakeMeetingStore(), fullDirectory())

	input := validCreateInput()
	input.EndTime = input.StartTime
	_, err := coordinator.Create(context.Background(), input, "org-1")
	if apperrors.GetCode(err) != apperrors.CodeMeetingInvalidTimeRange {
		t.Fatalf("expected invalid time range, got %v", err)
	}
}

func TestCreateSurfacesDirectoryFault(t *testing.T) {
	directory := fullDirectory()
	directory.err = errors.New("connection refused")
	coordinator := newTestCoordinator(newFakeMeetingStore(), directory)

	_, err := coordinator.Create(context.Background(), validCreateInput(), "org-1")
	if apperrors.GetCode(err) != apperrors.CodeDependencyFailure {
		t.Fatalf("expected dependency failure, got %v", err)
	}
}

func TestGetForbiddenForStranger(t *testing.T) {
	coordinator := newTestCoordinator(newFakeMeetingStore(pendingMeeting()), fullDirectory())

	_, err := coordinator.Get(context.Background(), "meet-1", meeting.RoleOrganizer, "org-2")
	if !errors.Is(err, policy.ErrForbidden) {
		t.Fatalf("expected forbidden, got %v", err)
	}
	_, err = coordinator.Get(context.Background(), "meet-1", meeting.RoleOther, "someone")
	if !errors.Is(err, policy.ErrForbidden) {
		t.Fatalf("expected forbidden for other role, got %v", err)
	}
}

func TestGetNotFound(t *testing.T) {
	coordinator := newTestCoordinator(newFakeMeetingStore(), fullDirectory())

	_, err := coordinator.Get(context.Background(), "missing", meeting.RoleAdmin, "admin-1")
	if apperrors.GetCode(err) != apperrors.CodeNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestListScopesFilterByRole(t *testing.T) {
	store := newFakeMeetingStore()
	store.listPage = storage.MeetingPage{Meetings: []meeting.Meeting{pendingMeeting()}, TotalCount: 1}
	coordinator := newTestCoordinator(store, fullDirectory())

	_, err := coordinator.List(context.Background(), storage.MeetingFilter{OrganizerID: "someone-else"}, storage.ListMeetingsOptions{}, meeting.RoleOrganizer, "org-1")
	if err != nil {
		t.Fatalf("list as organizer: %v", err)
	}
	if store.lastFilter.OrganizerID != "org-1" {
		t.Fatalf("expected organizer scope to override filter, got %q", store.lastFilter.OrganizerID)
	}

	_, err = coordinator.List(context.Background(), storage.MeetingFilter{}, storage.ListMeetingsOptions{}, meeting.RoleInvitedParty, "inv-1")
	if err != nil {
		t.Fatalf("list as invited party: %v", err)
	}
	if store.lastFilter.InvitedPartyID != "inv-1" {
		t.Fatalf("expected invited party scope, got %q", store.lastFilter.InvitedPartyID)
	}

	page, err := coordinator.List(context.Background(), storage.MeetingFilter{OrganizerID: "org-1"}, storage.ListMeetingsOptions{}, meeting.RoleAdmin, "admin-1")
	if err != nil {
		t.Fatalf("list as admin: %v", err)
	}
	if store.lastFilter.OrganizerID != "org-1" {
		t.Fatalf("expected admin filter passthrough, got %q", store.lastFilter.OrganizerID)
	}
	if page.TotalCount != 1 {
		t.Fatalf("expected total count 1, got %d", page.TotalCount)
	}
}

func TestListNoVisibilityReturnsEmptyPage(t *testing.T) {
	store := newFakeMeetingStore()
	coordinator := newTestCoordinator(store, fullDirectory())

	page, err := coordinator.List(context.Background(), storage.MeetingFilter{}, storage.ListMeetingsOptions{}, meeting.RoleOther, "someone")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(page.Meetings) != 0 || page.TotalCount != 0 {
		t.Fatalf("expected empty page, got %+v", page)
	}
	if store.listCalls != 0 {
		t.Fatal("store should not be queried without visibility")
	}

	page, err = coordinator.List(context.Background(), storage.MeetingFilter{}, storage.ListMeetingsOptions{}, meeting.RoleOrganizer, "  ")
	if err != nil {
		t.Fatalf("list with blank actor: %v", err)
	}
	if len(page.Meetings) != 0 {
		t.Fatalf("expected empty page for blank actor, got %+v", page)
	}
}

func TestListClampsPageSizeAndOrderBy(t *testing.T) {
	store := newFakeMeetingStore()
	coordinator := newTestCoordinator(store, fullDirectory())

	_, err := coordinator.List(context.Background(), storage.MeetingFilter{}, storage.ListMeetingsOptions{PageSize: 10_000}, meeting.RoleAdmin, "admin-1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if store.lastOpts.PageSize != maxListMeetingsPageSize {
		t.Fatalf("expected clamped page size, got %d", store.lastOpts.PageSize)
	}
	if store.lastOpts.OrderBy != "start_time" {
		t.Fatalf("expected default order, got %q", store.lastOpts.OrderBy)
	}

	_, err = coordinator.List(context.Background(), storage.MeetingFilter{}, storage.ListMeetingsOptions{OrderBy: "internal_notes"}, meeting.RoleAdmin, "admin-1")
	if apperrors.GetCode(err) != apperrors.CodeListInvalidOrderBy {
		t.Fatalf("expected invalid order_by error, got %v", err)
	}
}

func TestUpdateOrganizerWhilePending(t *testing.T) {
	store := newFakeMeetingStore(pendingMeeting())
	coordinator := newTestCoordinator(store, fullDirectory())

	title := "Updated demo"
	updated, err := coordinator.Update(context.Background(), "meet-1", meeting.UpdatePatch{Title: &title}, meeting.RoleOrganizer, "org-1")
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Title != "Updated demo" {
		t.Fatalf("expected updated title, got %q", updated.Title)
	}
	if updated.Version != 2 {
		t.Fatalf("expected version bump to 2, got %d", updated.Version)
	}
	if updated.OrganizerID != "org-1" || updated.InvitedPartyID != "inv-1" {
		t.Fatal("identity fields must stay immutable")
	}
}

func TestUpdateOrganizerForbiddenOnceAccepted(t *testing.T) {
	accepted := pendingMeeting()
	accepted.Status = meeting.StatusAccepted
	coordinator := newTestCoordinator(newFakeMeetingStore(accepted), fullDirectory())

	title := "x"
	_, err := coordinator.Update(context.Background(), "meet-1", meeting.UpdatePatch{Title: &title}, meeting.RoleOrganizer, "org-1")
	if !errors.Is(err, policy.ErrForbidden) {
		t.Fatalf("expected forbidden, got %v", err)
	}
}

func TestUpdateAdminDirectStatusWrite(t *testing.T) {
	accepted := pendingMeeting()
	accepted.Status = meeting.StatusAccepted
	coordinator := newTestCoordinator(newFakeMeetingStore(accepted), fullDirectory())

	status := meeting.StatusCanceled
	updated, err := coordinator.Update(context.Background(), "meet-1", meeting.UpdatePatch{Status: &status}, meeting.RoleAdmin, "admin-1")
	if err != nil {
		t.Fatalf("admin status update: %v", err)
	}
	if updated.Status != meeting.StatusCanceled {
		t.Fatalf("expected canceled, got %v", updated.Status)
	}
}

func TestUpdateAdminRejectsUnknownStatus(t *testing.T) {
	coordinator := newTestCoordinator(newFakeMeetingStore(pendingMeeting()), fullDirectory())

	status := meeting.Status(42)
	_, err := coordinator.Update(context.Background(), "meet-1", meeting.UpdatePatch{Status: &status}, meeting.RoleAdmin, "admin-1")
	if !errors.Is(err, ErrInvalidStatus) {
		t.Fatalf("expected invalid status, got %v", err)
	}
}

func TestUpdateRevalidatesWindowWithExistingValues(t *testing.T) {
	coordinator := newTestCoordinator(newFakeMeetingStore(pendingMeeting()), fullDirectory())

	// Patch only the start, past the existing end.
	start := time.Date(2025, 1, 10, 11, 0, 0, 0, time.UTC)
	_, err := coordinator.Update(context.Background(), "meet-1", meeting.UpdatePatch{StartTime: &start}, meeting.RoleOrganizer, "org-1")
	if apperrors.GetCode(err) != apperrors.CodeMeetingInvalidTimeRange {
		t.Fatalf("expected invalid time range, got %v", err)
	}
}

func TestUpdateSurfacesConflictAfterBoundedRetries(t *testing.T) {
	store := newFakeMeetingStore(pendingMeeting())
	store.updateHook = func(meeting.Meeting, int64) error { return storage.ErrVersionMismatch }
	coordinator := newTestCoordinator(store, fullDirectory())

	title := "x"
	_, err := coordinator.Update(context.Background(), "meet-1", meeting.UpdatePatch{Title: &title}, meeting.RoleOrganizer, "org-1")
	if !errors.Is(err, ErrConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
	if store.updateCalls != conflictRetryAttempts {
		t.Fatalf("expected %d attempts, got %d", conflictRetryAttempts, store.updateCalls)
	}
}

func TestRemoveByOwningOrganizer(t *testing.T) {
	store := newFakeMeetingStore(pendingMeeting())
	coordinator := newTestCoordinator(store, fullDirectory())

	if err := coordinator.Remove(context.Background(), "meet-1", meeting.RoleOrganizer, "org-1"); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if _, ok := store.meetings["meet-1"]; ok {
		t.Fatal("expected hard delete")
	}
}

func TestRemoveForbiddenForInvitedParty(t *testing.T) {
	store := newFakeMeetingStore(pendingMeeting())
	coordinator := newTestCoordinator(store, fullDirectory())

	err := coordinator.Remove(context.Background(), "meet-1", meeting.RoleInvitedParty, "inv-1")
	if !errors.Is(err, policy.ErrForbidden) {
		t.Fatalf("expected forbidden, got %v", err)
	}
	if _, ok := store.meetings["meet-1"]; !ok {
		t.Fatal("meeting should still exist")
	}
}

func TestAcceptPendingMeeting(t *testing.T) {
	store := newFakeMeetingStore(pendingMeeting())
	coordinator := newTestCoordinator(store, fullDirectory())

	accepted, err := coordinator.Accept(context.Background(), "meet-1", "inv-1")
	if err != nil {
		t.Fatalf("accept: %v", err)
	}
	if accepted.Status != meeting.StatusAccepted {
		t.Fatalf("expected accepted, got %v", accepted.Status)
	}

	// A second accept finds the meeting already accepted.
	_, err = coordinator.Accept(context.Background(), "meet-1", "inv-1")
	if apperrors.GetCode(err) != apperrors.CodeMeetingInvalidStatusTransition {
		t.Fatalf("expected invalid transition on second accept, got %v", err)
	}
}

func TestDeclineAcceptedMeeting(t *testing.T) {
	accepted := pendingMeeting()
	accepted.Status = meeting.StatusAccepted
	coordinator := newTestCoordinator(newFakeMeetingStore(accepted), fullDirectory())

	declined, err := coordinator.Decline(context.Background(), "meet-1", "inv-1")
	if err != nil {
		t.Fatalf("decline: %v", err)
	}
	if declined.Status != meeting.StatusDeclined {
		t.Fatalf("expected declined, got %v", declined.Status)
	}

	// Declined is terminal.
	_, err = coordinator.Decline(context.Background(), "meet-1", "inv-1")
	if apperrors.GetCode(err) != apperrors.CodeMeetingInvalidStatusTransition {
		t.Fatalf("expected invalid transition, got %v", err)
	}
}

func TestAcceptForbiddenForWrongActor(t *testing.T) {
	coordinator := newTestCoordinator(newFakeMeetingStore(pendingMeeting()), fullDirectory())

	_, err := coordinator.Accept(context.Background(), "meet-1", "org-1")
	if !errors.Is(err, policy.ErrForbidden) {
		t.Fatalf("expected forbidden, got %v", err)
	}
}

func TestAcceptLostRaceReloadsAndRejects(t *testing.T) {
	// Another transition wins between this caller's read and write: the
	// version check fails once, the reload observes the winner's status,
	// and the transition rule rejects the retry.
	store := newFakeMeetingStore(pendingMeeting())
	raced := false
	store.updateHook = func(meeting.Meeting, int64) error {
		if raced {
			return nil
		}
		raced = true
		winner := store.meetings["meet-1"]
		winner.Status = meeting.StatusAccepted
		winner.Version++
		store.meetings["meet-1"] = winner
		return storage.ErrVersionMismatch
	}
	coordinator := newTestCoordinator(store, fullDirectory())

	_, err := coordinator.Accept(context.Background(), "meet-1", "inv-1")
	if apperrors.GetCode(err) != apperrors.CodeMeetingInvalidStatusTransition {
		t.Fatalf("expected invalid transition after lost race, got %v", err)
	}
}

func TestTransitionSurfacesConflictWhenRetriesExhaust(t *testing.T) {
	store := newFakeMeetingStore(pendingMeeting())
	store.updateHook = func(meeting.Meeting, int64) error { return storage.ErrVersionMismatch }
	coordinator := newTestCoordinator(store, fullDirectory())

	_, err := coordinator.Accept(context.Background(), "meet-1", "inv-1")
	if !errors.Is(err, ErrConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestStoreFaultSurfacesAsDependencyFailure(t *testing.T) {
	store := newFakeMeetingStore(pendingMeeting())
	store.getErr = errors.New("disk gone")
	coordinator := newTestCoordinator(store, fullDirectory())

	_, err := coordinator.Get(context.Background(), "meet-1", meeting.RoleAdmin, "admin-1")
	if apperrors.GetCode(err) != apperrors.CodeDependencyFailure {
		t.Fatalf("expected dependency failure, got %v", err)
	}
}
