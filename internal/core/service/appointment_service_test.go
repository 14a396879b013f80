package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/crediblehealth/clinic-console/internal/core/domain"
	"github.com/crediblehealth/clinic-console/internal/core/ports"
)

type stubAppointmentRepo struct {
	items     []*domain.Appointment
	createErr error
}

func (r *stubAppointmentRepo) Create(_ context.Context, a *domain.Appointment) (*domain.Appointment, error) {
	if r.createErr != nil {
		return nil, r.createErr
	}
	clone := *a
	clone.ID = fmt.Sprintf("ap%d", len(r.items)+1)
	r.items = append(r.items, &clone)
	out := clone
	return &out, nil
}

func (r *stubAppointmentRepo) List(_ context.Context) ([]*domain.Appointment, error) {
	out := make([]*domain.Appointment, 0, len(r.items))
	for _, a := range r.items {
		clone := *a
		out = append(out, &clone)
	}
	return out, nil
}

func TestAppointmentService_Create_CopiesStaffFromForm(t *testing.T) {
	form := pendingDiagnosis("f1")
	form.Doctor = &domain.StaffRef{ID: "d1", FirstName: "Greg"}
	diagnoses := newStubDiagnosisRepo(form)
	repo := &stubAppointmentRepo{}
	svc := NewAppointmentService(repo, diagnoses, discardLogger)

	date := time.Date(2026, 4, 2, 0, 0, 0, 0, time.UTC)
	created, err := svc.CreateAppointment(context.Background(), ports.CreateAppointmentInput{
		FormID: "f1",
		Date:   date,
		Time:   "10:00 AM",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if created.FormID != "f1" {
		t.Errorf("expected form_id f1, got %s", created.FormID)
	}
	if created.Doctor == nil || created.Doctor.ID != "d1" {
		t.Error("doctor must be carried over from the form")
	}
	if created.Marketer == nil || created.Marketer.ID != "m1" {
		t.Error("marketer must be carried over from the form")
	}
	if !created.Date.Equal(date) {
		t.Errorf("wrong date: %s", created.Date)
	}
}

func TestAppointmentService_Create_UnknownForm(t *testing.T) {
	svc := NewAppointmentService(&stubAppointmentRepo{}, newStubDiagnosisRepo(), discardLogger)

	_, err := svc.CreateAppointment(context.Background(), ports.CreateAppointmentInput{FormID: "ghost"})
	if !errors.Is(err, domain.ErrDiagnosisNotFound) {
		t.Fatalf("expected ErrDiagnosisNotFound, got %v", err)
	}
}

func TestAppointmentService_ListToday(t *testing.T) {
	now := time.Now().UTC()
	repo := &stubAppointmentRepo{items: []*domain.Appointment{
		{ID: "a1", Date: now},
		{ID: "a2", Date: now.AddDate(0, 0, 1)},
		{ID: "a3", Date: now.AddDate(0, 0, -1)},
	}}
	svc := NewAppointmentService(repo, newStubDiagnosisRepo(), discardLogger)

	today, err := svc.ListToday(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(today) != 1 || today[0].ID != "a1" {
		t.Fatalf("expected [a1], got %d items", len(today))
	}
}
