package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/crediblehealth/clinic-console/internal/core/domain"
	"github.com/crediblehealth/clinic-console/internal/core/ports"
	"github.com/crediblehealth/clinic-console/internal/core/projection"
)

// AppointmentService schedules visits from diagnosis forms and serves the
// dashboard's appointment views.
type AppointmentService struct {
	appointments ports.AppointmentRepository
	diagnoses    ports.DiagnosisRepository
	log          zerolog.Logger
}

func NewAppointmentService(appointments ports.AppointmentRepository, diagnoses ports.DiagnosisRepository, log zerolog.Logger) *AppointmentService {
	return &AppointmentService{appointments: appointments, diagnoses: diagnoses, log: log}
}

// CreateAppointment schedules a visit for an existing diagnosis form and
// carries over the staff attached to it.
func (s *AppointmentService) CreateAppointment(ctx context.Context, input ports.CreateAppointmentInput) (*domain.Appointment, error) {
	form, err := s.diagnoses.FindByID(ctx, input.FormID)
	if err != nil {
		return nil, fmt.Errorf("create appointment: %w", err)
	}

	appointment := &domain.Appointment{
		FormID:    form.ID,
		Date:      input.Date.UTC(),
		Time:      input.Time,
		Doctor:    form.Doctor,
		Marketer:  form.Marketer,
		CreatedAt: time.Now().UTC(),
	}

	created, err := s.appointments.Create(ctx, appointment)
	if err != nil {
		return nil, fmt.Errorf("create appointment: %w", err)
	}

	s.log.Info().
		Str("appointment_id", created.ID).
		Str("form_id", form.ID).
		Time("date", created.Date).
		Msg("appointment created")

	return created, nil
}

// ListAppointments returns the full collection in fetch order.
func (s *AppointmentService) ListAppointments(ctx context.Context) ([]*domain.Appointment, error) {
	all, err := s.appointments.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list appointments: %w", err)
	}
	return all, nil
}

// ListToday projects the appointments falling on the current UTC day.
func (s *AppointmentService) ListToday(ctx context.Context) ([]*domain.Appointment, error) {
	all, err := s.appointments.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list today's appointments: %w", err)
	}
	return projection.AppointmentsOn(all, time.Now().UTC()), nil
}
