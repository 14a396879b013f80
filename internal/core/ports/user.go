package ports

import (
	"context"
	"time"

	"github.com/crediblehealth/clinic-console/internal/core/domain"
)

// UserRepository defines persistence operations for staff accounts.
type UserRepository interface {
	Create(ctx context.Context, user *domain.StaffUser) (*domain.StaffUser, error)
	FindByID(ctx context.Context, id string) (*domain.StaffUser, error)
	FindByEmail(ctx context.Context, email string) (*domain.StaffUser, error)
	// List returns the full collection in insertion order. Filtering is a
	// projection concern, not a query concern.
	List(ctx context.Context) ([]*domain.StaffUser, error)
	UpdateStatus(ctx context.Context, id string, status domain.UserStatus) error
	SetInterview(ctx context.Context, id string, interview domain.Interview) error
}

// UserList is the filtered view of the staff collection together with the
// size of the unfiltered collection ("showing X of Y").
type UserList struct {
	Items []*domain.StaffUser
	Total int
}

// ScheduleInterviewInput carries the details for an interview invitation.
type ScheduleInterviewInput struct {
	UserID   string
	At       time.Time
	Location string
}

// ApprovalService governs the staff account approval workflow.
type ApprovalService interface {
	ListUsers(ctx context.Context, query string) (*UserList, error)
	Approve(ctx context.Context, id string) (*domain.StaffUser, error)
	Deny(ctx context.Context, id string) (*domain.StaffUser, error)
	Suspend(ctx context.Context, id string) (*domain.StaffUser, error)
	ScheduleInterview(ctx context.Context, input ScheduleInterviewInput) (*domain.StaffUser, error)
}
