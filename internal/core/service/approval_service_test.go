package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/crediblehealth/clinic-console/internal/core/domain"
	"github.com/crediblehealth/clinic-console/internal/core/ports"
)

var discardLogger = zerolog.Nop()

// ---------------------------------------------------------------------------
// In-memory stubs
// ---------------------------------------------------------------------------

type stubUserRepo struct {
	byID           map[string]*domain.StaffUser
	order          []string
	updateCalls    int
	interviewCalls int
	updateErr      error
}

func newStubUserRepo(users ...*domain.StaffUser) *stubUserRepo {
	r := &stubUserRepo{byID: make(map[string]*domain.StaffUser)}
	for _, u := range users {
		clone := *u
		r.byID[u.ID] = &clone
		r.order = append(r.order, u.ID)
	}
	return r
}

func (r *stubUserRepo) Create(_ context.Context, u *domain.StaffUser) (*domain.StaffUser, error) {
	for _, existing := range r.byID {
		if existing.Email == u.Email {
			return nil, domain.ErrUserExists
		}
	}
	clone := *u
	clone.ID = "u" + time.Now().Format("150405.000000")
	r.byID[clone.ID] = &clone
	r.order = append(r.order, clone.ID)
	out := clone
	return &out, nil
}

func (r *stubUserRepo) FindByID(_ context.Context, id string) (*domain.StaffUser, error) {
	u, ok := r.byID[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	clone := *u
	return &clone, nil
}

func (r *stubUserRepo) FindByEmail(_ context.Context, email string) (*domain.StaffUser, error) {
	for _, u := range r.byID {
		if u.Email == email {
			clone := *u
			return &clone, nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (r *stubUserRepo) List(_ context.Context) ([]*domain.StaffUser, error) {
	out := make([]*domain.StaffUser, 0, len(r.order))
	for _, id := range r.order {
		clone := *r.byID[id]
		out = append(out, &clone)
	}
	return out, nil
}

func (r *stubUserRepo) UpdateStatus(_ context.Context, id string, status domain.UserStatus) error {
	if r.updateErr != nil {
		return r.updateErr
	}
	u, ok := r.byID[id]
	if !ok {
		return domain.ErrUserNotFound
	}
	r.updateCalls++
	u.Status = status
	return nil
}

func (r *stubUserRepo) SetInterview(_ context.Context, id string, interview domain.Interview) error {
	u, ok := r.byID[id]
	if !ok {
		return domain.ErrUserNotFound
	}
	r.interviewCalls++
	u.Interview = &interview
	return nil
}

type stubCache struct {
	store        map[string][]byte
	invalidated  []string
	getErr       error
}

func newStubCache() *stubCache {
	return &stubCache{store: make(map[string][]byte)}
}

func (c *stubCache) Get(_ context.Context, key string, v any) (bool, error) {
	if c.getErr != nil {
		return false, c.getErr
	}
	b, ok := c.store[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(b, v)
}

func (c *stubCache) Set(_ context.Context, key string, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	c.store[key] = b
	return nil
}

func (c *stubCache) Invalidate(_ context.Context, keys ...string) error {
	for _, k := range keys {
		delete(c.store, k)
		c.invalidated = append(c.invalidated, k)
	}
	return nil
}

type stubDispatcher struct {
	sent []ports.InterviewInvitation
}

func (d *stubDispatcher) Enqueue(inv ports.InterviewInvitation) {
	d.sent = append(d.sent, inv)
}

func pendingMarketer(id string) *domain.StaffUser {
	return &domain.StaffUser{
		ID:        id,
		FirstName: "Jane",
		LastName:  "Doe",
		Email:     "jane@clinic.test",
		Role:      domain.RoleMarketer,
		Status:    domain.StatusPending,
		CreatedAt: time.Now().UTC(),
	}
}

func newApprovalService(repo *stubUserRepo) (*ApprovalService, *stubCache, *stubDispatcher) {
	cache := newStubCache()
	dispatcher := &stubDispatcher{}
	return NewApprovalService(repo, cache, dispatcher, discardLogger), cache, dispatcher
}

// ---------------------------------------------------------------------------
// Transition tests
// ---------------------------------------------------------------------------

func TestApprovalService_Approve_Success(t *testing.T) {
	repo := newStubUserRepo(pendingMarketer("u1"))
	svc, cache, _ := newApprovalService(repo)

	user, err := svc.Approve(context.Background(), "u1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if user.Status != domain.StatusApproved {
		t.Errorf("expected approved, got %s", user.Status)
	}
	if repo.byID["u1"].Status != domain.StatusApproved {
		t.Error("store not updated")
	}
	if len(cache.invalidated) == 0 || cache.invalidated[0] != usersCacheKey {
		t.Error("user list cache must be invalidated after a successful mutation")
	}
}

func TestApprovalService_ApproveThenSuspend_ReachesTerminal(t *testing.T) {
	repo := newStubUserRepo(pendingMarketer("u1"))
	svc, _, _ := newApprovalService(repo)

	if _, err := svc.Approve(context.Background(), "u1"); err != nil {
		t.Fatalf("approve failed: %v", err)
	}
	user, err := svc.Suspend(context.Background(), "u1")
	if err != nil {
		t.Fatalf("suspend failed: %v", err)
	}
	if user.Status != domain.StatusSuspended {
		t.Errorf("expected suspended, got %s", user.Status)
	}
}

func TestApprovalService_ApproveThenDeny_RejectedWithoutStoreCall(t *testing.T) {
	repo := newStubUserRepo(pendingMarketer("u1"))
	svc, _, _ := newApprovalService(repo)

	if _, err := svc.Approve(context.Background(), "u1"); err != nil {
		t.Fatalf("approve failed: %v", err)
	}
	callsAfterApprove := repo.updateCalls

	_, err := svc.Deny(context.Background(), "u1")
	if !errors.Is(err, domain.ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}
	if repo.updateCalls != callsAfterApprove {
		t.Error("rejected transition must not reach the store")
	}
}

func TestApprovalService_Deny_FromPending(t *testing.T) {
	repo := newStubUserRepo(pendingMarketer("u1"))
	svc, _, _ := newApprovalService(repo)

	user, err := svc.Deny(context.Background(), "u1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if user.Status != domain.StatusDenied {
		t.Errorf("expected denied, got %s", user.Status)
	}
}

func TestApprovalService_Suspend_FromPending_Rejected(t *testing.T) {
	repo := newStubUserRepo(pendingMarketer("u1"))
	svc, _, _ := newApprovalService(repo)

	_, err := svc.Suspend(context.Background(), "u1")
	if !errors.Is(err, domain.ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}
	if repo.updateCalls != 0 {
		t.Error("no store call expected")
	}
}

func TestApprovalService_AdminExempt(t *testing.T) {
	admin := pendingMarketer("a1")
	admin.Role = domain.RoleAdmin
	repo := newStubUserRepo(admin)
	svc, _, _ := newApprovalService(repo)

	for name, op := range map[string]func(context.Context, string) (*domain.StaffUser, error){
		"approve": svc.Approve,
		"deny":    svc.Deny,
	} {
		if _, err := op(context.Background(), "a1"); !errors.Is(err, domain.ErrAdminExempt) {
			t.Errorf("%s on admin: expected ErrAdminExempt, got %v", name, err)
		}
	}
	if repo.updateCalls != 0 {
		t.Error("admin exemption must be enforced before any store call")
	}
}

func TestApprovalService_StoreFailure_LeavesStateUnchanged(t *testing.T) {
	repo := newStubUserRepo(pendingMarketer("u1"))
	repo.updateErr = errors.New("store unavailable")
	svc, cache, _ := newApprovalService(repo)

	_, err := svc.Approve(context.Background(), "u1")
	if err == nil {
		t.Fatal("expected error when store fails")
	}
	if repo.byID["u1"].Status != domain.StatusPending {
		t.Error("status must be unchanged after a failed write")
	}
	if len(cache.invalidated) != 0 {
		t.Error("cache must not be invalidated on failure")
	}
}

func TestApprovalService_Approve_UnknownUser(t *testing.T) {
	repo := newStubUserRepo()
	svc, _, _ := newApprovalService(repo)

	_, err := svc.Approve(context.Background(), "ghost")
	if !errors.Is(err, domain.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

// ---------------------------------------------------------------------------
// Listing tests
// ---------------------------------------------------------------------------

func TestApprovalService_ListUsers_FiltersAndCountsTotal(t *testing.T) {
	other := pendingMarketer("u2")
	other.FirstName, other.LastName = "John", "Smith"
	repo := newStubUserRepo(pendingMarketer("u1"), other)
	svc, _, _ := newApprovalService(repo)

	list, err := svc.ListUsers(context.Background(), "jane")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(list.Items) != 1 || list.Items[0].ID != "u1" {
		t.Fatalf("expected [u1], got %d items", len(list.Items))
	}
	if list.Total != 2 {
		t.Errorf("total must count the unfiltered collection, got %d", list.Total)
	}
}

func TestApprovalService_ListUsers_ReadsThroughCache(t *testing.T) {
	repo := newStubUserRepo(pendingMarketer("u1"))
	svc, cache, _ := newApprovalService(repo)

	if _, err := svc.ListUsers(context.Background(), ""); err != nil {
		t.Fatalf("first list: %v", err)
	}
	if _, ok := cache.store[usersCacheKey]; !ok {
		t.Fatal("list must populate the cache")
	}

	// Mutate the store behind the cache's back: the cached mirror wins until
	// it is invalidated.
	repo.byID["u1"].FirstName = "Renamed"
	list, err := svc.ListUsers(context.Background(), "")
	if err != nil {
		t.Fatalf("second list: %v", err)
	}
	if list.Items[0].FirstName != "Jane" {
		t.Error("expected cached mirror to be served")
	}
}

func TestApprovalService_ListUsers_CacheErrorFallsBack(t *testing.T) {
	repo := newStubUserRepo(pendingMarketer("u1"))
	svc, cache, _ := newApprovalService(repo)
	cache.getErr = errors.New("cache down")

	list, err := svc.ListUsers(context.Background(), "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(list.Items) != 1 {
		t.Fatalf("expected fallback to the store, got %d items", len(list.Items))
	}
}

func TestApprovalService_Approve_VisibleInNextList(t *testing.T) {
	repo := newStubUserRepo(pendingMarketer("u1"))
	svc, _, _ := newApprovalService(repo)

	if _, err := svc.ListUsers(context.Background(), ""); err != nil {
		t.Fatalf("warm list: %v", err)
	}
	if _, err := svc.Approve(context.Background(), "u1"); err != nil {
		t.Fatalf("approve: %v", err)
	}

	list, err := svc.ListUsers(context.Background(), "")
	if err != nil {
		t.Fatalf("list after approve: %v", err)
	}
	if list.Items[0].Status != domain.StatusApproved {
		t.Error("approved status must be visible immediately after the mutation")
	}
}

// ---------------------------------------------------------------------------
// Interview scheduling tests
// ---------------------------------------------------------------------------

func TestApprovalService_ScheduleInterview_Success(t *testing.T) {
	repo := newStubUserRepo(pendingMarketer("u1"))
	svc, _, dispatcher := newApprovalService(repo)

	at := time.Date(2026, 9, 14, 10, 30, 0, 0, time.UTC)
	user, err := svc.ScheduleInterview(context.Background(), ports.ScheduleInterviewInput{
		UserID:   "u1",
		At:       at,
		Location: "Main clinic, Room 4",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if user.Status != domain.StatusPending {
		t.Errorf("scheduling must not change status, got %s", user.Status)
	}
	if user.Interview == nil || !user.Interview.At.Equal(at) {
		t.Fatal("interview details not recorded")
	}
	if repo.interviewCalls != 1 {
		t.Errorf("expected one store write, got %d", repo.interviewCalls)
	}

	if len(dispatcher.sent) != 1 {
		t.Fatalf("expected one invitation, got %d", len(dispatcher.sent))
	}
	inv := dispatcher.sent[0]
	if inv.RecipientEmail != "jane@clinic.test" {
		t.Errorf("wrong recipient: %s", inv.RecipientEmail)
	}
	if inv.InterviewDate != "September 14, 2026" {
		t.Errorf("wrong date: %s", inv.InterviewDate)
	}
	if inv.InterviewTime != "10:30 AM" {
		t.Errorf("wrong time: %s", inv.InterviewTime)
	}
	if inv.Location != "Main clinic, Room 4" {
		t.Errorf("wrong location: %s", inv.Location)
	}
}

func TestApprovalService_ScheduleInterview_EmptyLocationRefused(t *testing.T) {
	repo := newStubUserRepo(pendingMarketer("u1"))
	svc, _, dispatcher := newApprovalService(repo)

	_, err := svc.ScheduleInterview(context.Background(), ports.ScheduleInterviewInput{
		UserID:   "u1",
		At:       time.Now().UTC(),
		Location: "   ",
	})
	if !errors.Is(err, domain.ErrInterviewIncomplete) {
		t.Fatalf("expected ErrInterviewIncomplete, got %v", err)
	}
	if repo.interviewCalls != 0 {
		t.Error("no state change expected")
	}
	if len(dispatcher.sent) != 0 {
		t.Error("no invitation must be dispatched")
	}
}

func TestApprovalService_ScheduleInterview_ZeroDateRefused(t *testing.T) {
	repo := newStubUserRepo(pendingMarketer("u1"))
	svc, _, _ := newApprovalService(repo)

	_, err := svc.ScheduleInterview(context.Background(), ports.ScheduleInterviewInput{
		UserID:   "u1",
		Location: "Main clinic",
	})
	if !errors.Is(err, domain.ErrInterviewIncomplete) {
		t.Fatalf("expected ErrInterviewIncomplete, got %v", err)
	}
}

func TestApprovalService_ScheduleInterview_OnlyWhilePending(t *testing.T) {
	approved := pendingMarketer("u1")
	approved.Status = domain.StatusApproved
	repo := newStubUserRepo(approved)
	svc, _, dispatcher := newApprovalService(repo)

	_, err := svc.ScheduleInterview(context.Background(), ports.ScheduleInterviewInput{
		UserID:   "u1",
		At:       time.Now().UTC(),
		Location: "Main clinic",
	})
	if !errors.Is(err, domain.ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}
	if len(dispatcher.sent) != 0 {
		t.Error("no invitation must be dispatched")
	}
}
