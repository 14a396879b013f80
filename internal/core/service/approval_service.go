package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/crediblehealth/clinic-console/internal/api/metrics"
	"github.com/crediblehealth/clinic-console/internal/core/domain"
	"github.com/crediblehealth/clinic-console/internal/core/ports"
	"github.com/crediblehealth/clinic-console/internal/core/projection"
)

const usersCacheKey = "users"

// InvitationDispatcher hands interview invitations to the async delivery
// pipeline.
type InvitationDispatcher interface {
	Enqueue(invitation ports.InterviewInvitation)
}

// ApprovalService implements the staff account approval workflow: listing,
// approve/deny/suspend transitions, and interview scheduling.
type ApprovalService struct {
	users      ports.UserRepository
	cache      ports.ListCache
	dispatcher InvitationDispatcher
	log        zerolog.Logger
}

func NewApprovalService(users ports.UserRepository, cache ports.ListCache, dispatcher InvitationDispatcher, log zerolog.Logger) *ApprovalService {
	return &ApprovalService{users: users, cache: cache, dispatcher: dispatcher, log: log}
}

// ListUsers fetches the full staff collection and projects the filtered view.
// Total always reflects the unfiltered collection size.
func (s *ApprovalService) ListUsers(ctx context.Context, query string) (*ports.UserList, error) {
	all, err := s.fetchUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return &ports.UserList{
		Items: projection.Users(all, query),
		Total: len(all),
	}, nil
}

// Approve moves a pending account to approved.
func (s *ApprovalService) Approve(ctx context.Context, id string) (*domain.StaffUser, error) {
	return s.transition(ctx, id, domain.StatusApproved, "approve")
}

// Deny moves a pending account to denied.
func (s *ApprovalService) Deny(ctx context.Context, id string) (*domain.StaffUser, error) {
	return s.transition(ctx, id, domain.StatusDenied, "deny")
}

// Suspend moves an approved account to suspended.
func (s *ApprovalService) Suspend(ctx context.Context, id string) (*domain.StaffUser, error) {
	return s.transition(ctx, id, domain.StatusSuspended, "suspend")
}

// transition validates and executes a single status change. Rejections happen
// before any store write; on store failure the local copy is left unchanged.
func (s *ApprovalService) transition(ctx context.Context, id string, next domain.UserStatus, op string) (*domain.StaffUser, error) {
	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%s user: %w", op, err)
	}

	if user.Role == domain.RoleAdmin {
		metrics.TransitionsRejectedTotal.WithLabelValues("admin_exempt").Inc()
		return nil, fmt.Errorf("%s user: %w", op, domain.ErrAdminExempt)
	}
	if !user.Status.CanTransitionTo(next) {
		metrics.TransitionsRejectedTotal.WithLabelValues("invalid_transition").Inc()
		return nil, fmt.Errorf("%s user: %w (from %s to %s)", op, domain.ErrInvalidTransition, user.Status, next)
	}

	if err := s.users.UpdateStatus(ctx, id, next); err != nil {
		return nil, fmt.Errorf("%s user: %w", op, err)
	}

	user.Status = next
	user.UpdatedAt = time.Now().UTC()
	s.invalidate(ctx)

	metrics.TransitionsAppliedTotal.WithLabelValues("user", string(next)).Inc()
	s.log.Info().
		Str("user_id", id).
		Str("status", string(next)).
		Msg("user status updated")

	return user, nil
}

// ScheduleInterview records interview details for a pending account and
// dispatches the invitation email. The account's status is unchanged.
func (s *ApprovalService) ScheduleInterview(ctx context.Context, input ports.ScheduleInterviewInput) (*domain.StaffUser, error) {
	user, err := s.users.FindByID(ctx, input.UserID)
	if err != nil {
		return nil, fmt.Errorf("schedule interview: %w", err)
	}

	if user.Role == domain.RoleAdmin {
		metrics.TransitionsRejectedTotal.WithLabelValues("admin_exempt").Inc()
		return nil, fmt.Errorf("schedule interview: %w", domain.ErrAdminExempt)
	}
	if user.Status != domain.StatusPending {
		metrics.TransitionsRejectedTotal.WithLabelValues("invalid_transition").Inc()
		return nil, fmt.Errorf("schedule interview: %w (status %s)", domain.ErrInvalidTransition, user.Status)
	}
	if input.At.IsZero() || strings.TrimSpace(input.Location) == "" {
		metrics.TransitionsRejectedTotal.WithLabelValues("validation").Inc()
		return nil, fmt.Errorf("schedule interview: %w", domain.ErrInterviewIncomplete)
	}

	interview := domain.Interview{At: input.At.UTC(), Location: input.Location}
	if err := s.users.SetInterview(ctx, input.UserID, interview); err != nil {
		return nil, fmt.Errorf("schedule interview: %w", err)
	}

	user.Interview = &interview
	user.UpdatedAt = time.Now().UTC()
	s.invalidate(ctx)

	s.dispatcher.Enqueue(ports.InterviewInvitation{
		RecipientEmail: user.Email,
		InterviewDate:  interview.At.Format("January 2, 2006"),
		InterviewTime:  interview.At.Format("3:04 PM"),
		Location:       interview.Location,
	})
	metrics.InvitationsDispatchedTotal.Inc()

	s.log.Info().
		Str("user_id", user.ID).
		Time("interview_at", interview.At).
		Str("location", interview.Location).
		Msg("interview scheduled")

	return user, nil
}

// fetchUsers reads through the list cache. Cache failures are tolerated: the
// cache is a best-effort mirror, never a source of truth.
func (s *ApprovalService) fetchUsers(ctx context.Context) ([]*domain.StaffUser, error) {
	var cached []*domain.StaffUser
	hit, err := s.cache.Get(ctx, usersCacheKey, &cached)
	if err != nil {
		s.log.Warn().Err(err).Msg("user list cache read failed, falling back to store")
	} else if hit {
		metrics.CacheRequestsTotal.WithLabelValues(usersCacheKey, "hit").Inc()
		return cached, nil
	}
	metrics.CacheRequestsTotal.WithLabelValues(usersCacheKey, "miss").Inc()

	all, err := s.users.List(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.cache.Set(ctx, usersCacheKey, all); err != nil {
		s.log.Warn().Err(err).Msg("user list cache write failed")
	}
	return all, nil
}

func (s *ApprovalService) invalidate(ctx context.Context) {
	if err := s.cache.Invalidate(ctx, usersCacheKey); err != nil {
		s.log.Warn().Err(err).Msg("user list cache invalidation failed")
	}
}
