package ports

import (
	"context"
	"time"

	"github.com/crediblehealth/clinic-console/internal/core/domain"
)

// AppointmentRepository defines persistence operations for appointments.
type AppointmentRepository interface {
	Create(ctx context.Context, a *domain.Appointment) (*domain.Appointment, error)
	List(ctx context.Context) ([]*domain.Appointment, error)
}

// CreateAppointmentInput schedules a visit from an existing diagnosis form.
type CreateAppointmentInput struct {
	FormID string
	Date   time.Time
	Time   string
}

// AppointmentService manages visit scheduling from diagnosis forms.
type AppointmentService interface {
	CreateAppointment(ctx context.Context, input CreateAppointmentInput) (*domain.Appointment, error)
	ListAppointments(ctx context.Context) ([]*domain.Appointment, error)
	// ListToday returns the appointments falling on the current UTC day,
	// derived from the full collection.
	ListToday(ctx context.Context) ([]*domain.Appointment, error)
}
