package ports

import (
	"context"

	"github.com/crediblehealth/clinic-console/internal/core/domain"
)

// RegisterInput carries a clinic staff registration.
type RegisterInput struct {
	FirstName  string
	LastName   string
	Email      string
	Password   string
	Role       string
	ClinicName string
}

// AuthService implements registration and login for clinic staff.
type AuthService interface {
	Register(ctx context.Context, input RegisterInput) (*domain.StaffUser, error)
	Login(ctx context.Context, email, password string) (string, *domain.StaffUser, error)
}
