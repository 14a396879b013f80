package ports

import (
	"context"
	"time"

	"github.com/crediblehealth/clinic-console/internal/core/domain"
)

// DiagnosisRepository defines persistence operations for diagnosis records.
type DiagnosisRepository interface {
	Create(ctx context.Context, d *domain.Diagnosis) (*domain.Diagnosis, error)
	FindByID(ctx context.Context, id string) (*domain.Diagnosis, error)
	// List returns the full collection in fetch order.
	List(ctx context.Context) ([]*domain.Diagnosis, error)
	// UpdateAssessment sets the assessment text, new status, and doctor
	// signature reference in a single write.
	UpdateAssessment(ctx context.Context, id, assessment string, status domain.DiagnosisStatus, signatureKey string) error
}

// ListDiagnosesInput carries the free-text query and optional inclusive date
// range for the diagnosis list view.
type ListDiagnosesInput struct {
	Query string
	From  time.Time
	To    time.Time
}

// DiagnosisList is the filtered view plus the unfiltered collection size.
type DiagnosisList struct {
	Items []*domain.Diagnosis
	Total int
}

// SubmitAssessmentInput carries a doctor's review of a diagnosis record.
// Signature is either empty (the operator drew nothing) or a data-URL
// encoded image blob.
type SubmitAssessmentInput struct {
	DiagnosisID string
	Assessment  string
	Status      domain.DiagnosisStatus
	Signature   string
}

// ReviewService governs the client diagnosis review workflow.
type ReviewService interface {
	ListDiagnoses(ctx context.Context, input ListDiagnosesInput) (*DiagnosisList, error)
	GetDiagnosis(ctx context.Context, id string) (*domain.Diagnosis, error)
	SubmitAssessment(ctx context.Context, input SubmitAssessmentInput) (*domain.Diagnosis, error)
}
