package service

import (
	"context"
	"encoding/base64"
	"errors"
	"testing"
	"time"

	"github.com/crediblehealth/clinic-console/internal/core/domain"
	"github.com/crediblehealth/clinic-console/internal/core/ports"
)

type stubDiagnosisRepo struct {
	byID        map[string]*domain.Diagnosis
	order       []string
	updateCalls int
	updateErr   error
}

func newStubDiagnosisRepo(records ...*domain.Diagnosis) *stubDiagnosisRepo {
	r := &stubDiagnosisRepo{byID: make(map[string]*domain.Diagnosis)}
	for _, d := range records {
		clone := *d
		r.byID[d.ID] = &clone
		r.order = append(r.order, d.ID)
	}
	return r
}

func (r *stubDiagnosisRepo) Create(_ context.Context, d *domain.Diagnosis) (*domain.Diagnosis, error) {
	clone := *d
	r.byID[d.ID] = &clone
	r.order = append(r.order, d.ID)
	out := clone
	return &out, nil
}

func (r *stubDiagnosisRepo) FindByID(_ context.Context, id string) (*domain.Diagnosis, error) {
	d, ok := r.byID[id]
	if !ok {
		return nil, domain.ErrDiagnosisNotFound
	}
	clone := *d
	return &clone, nil
}

func (r *stubDiagnosisRepo) List(_ context.Context) ([]*domain.Diagnosis, error) {
	out := make([]*domain.Diagnosis, 0, len(r.order))
	for _, id := range r.order {
		clone := *r.byID[id]
		out = append(out, &clone)
	}
	return out, nil
}

func (r *stubDiagnosisRepo) UpdateAssessment(_ context.Context, id, assessment string, status domain.DiagnosisStatus, signatureKey string) error {
	if r.updateErr != nil {
		return r.updateErr
	}
	d, ok := r.byID[id]
	if !ok {
		return domain.ErrDiagnosisNotFound
	}
	r.updateCalls++
	d.Assessment = assessment
	d.Status = status
	d.DoctorSignatureKey = signatureKey
	return nil
}

type stubSignatureStore struct {
	data        []byte
	contentType string
	calls       int
	putErr      error
}

func (s *stubSignatureStore) Put(_ context.Context, diagnosisID string, data []byte, contentType string) (string, error) {
	if s.putErr != nil {
		return "", s.putErr
	}
	s.calls++
	s.data = data
	s.contentType = contentType
	return "signatures/" + diagnosisID + "/doctor.png", nil
}

func pendingDiagnosis(id string) *domain.Diagnosis {
	return &domain.Diagnosis{
		ID:         id,
		ClientName: "Alice Brown",
		Status:     domain.DiagnosisPending,
		Date:       time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
		Marketer:   &domain.StaffRef{ID: "m1", FirstName: "Mona"},
		CreatedAt:  time.Now().UTC(),
	}
}

func newReviewService(repo *stubDiagnosisRepo) (*ReviewService, *stubSignatureStore) {
	sigs := &stubSignatureStore{}
	return NewReviewService(repo, sigs, newStubCache(), discardLogger), sigs
}

func pngDataURL(payload string) string {
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString([]byte(payload))
}

// ---------------------------------------------------------------------------
// SubmitAssessment tests
// ---------------------------------------------------------------------------

func TestReviewService_SubmitAssessment_WithSignature(t *testing.T) {
	repo := newStubDiagnosisRepo(pendingDiagnosis("f1"))
	svc, sigs := newReviewService(repo)

	d, err := svc.SubmitAssessment(context.Background(), ports.SubmitAssessmentInput{
		DiagnosisID: "f1",
		Assessment:  "Stable, follow-up in two weeks.",
		Status:      domain.DiagnosisCompleted,
		Signature:   pngDataURL("raster-bytes"),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d.Status != domain.DiagnosisCompleted {
		t.Errorf("expected completed, got %s", d.Status)
	}
	if d.Assessment != "Stable, follow-up in two weeks." {
		t.Errorf("assessment not recorded: %q", d.Assessment)
	}
	if d.DoctorSignatureKey != "signatures/f1/doctor.png" {
		t.Errorf("signature reference not recorded: %q", d.DoctorSignatureKey)
	}
	if string(sigs.data) != "raster-bytes" || sigs.contentType != "image/png" {
		t.Error("signature blob not decoded and stored")
	}
	if repo.byID["f1"].Status != domain.DiagnosisCompleted {
		t.Error("store not updated")
	}
}

func TestReviewService_SubmitAssessment_EmptySignatureIsNull(t *testing.T) {
	repo := newStubDiagnosisRepo(pendingDiagnosis("f1"))
	svc, sigs := newReviewService(repo)

	d, err := svc.SubmitAssessment(context.Background(), ports.SubmitAssessmentInput{
		DiagnosisID: "f1",
		Assessment:  "Needs a second opinion.",
		Status:      domain.DiagnosisReview,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sigs.calls != 0 {
		t.Error("no blob must be stored for an empty signature")
	}
	if d.DoctorSignatureKey != "" {
		t.Errorf("expected empty signature reference, got %q", d.DoctorSignatureKey)
	}
}

func TestReviewService_SubmitAssessment_CompletedIsLocked(t *testing.T) {
	done := pendingDiagnosis("f1")
	done.Status = domain.DiagnosisCompleted
	repo := newStubDiagnosisRepo(done)
	svc, _ := newReviewService(repo)

	_, err := svc.SubmitAssessment(context.Background(), ports.SubmitAssessmentInput{
		DiagnosisID: "f1",
		Assessment:  "late edit",
		Status:      domain.DiagnosisReview,
	})
	if !errors.Is(err, domain.ErrDiagnosisLocked) {
		t.Fatalf("expected ErrDiagnosisLocked, got %v", err)
	}
	if repo.updateCalls != 0 {
		t.Error("locked record must not reach the store")
	}
}

func TestReviewService_SubmitAssessment_ReviewToReviewAllowed(t *testing.T) {
	rec := pendingDiagnosis("f1")
	rec.Status = domain.DiagnosisReview
	repo := newStubDiagnosisRepo(rec)
	svc, _ := newReviewService(repo)

	d, err := svc.SubmitAssessment(context.Background(), ports.SubmitAssessmentInput{
		DiagnosisID: "f1",
		Assessment:  "still under review",
		Status:      domain.DiagnosisReview,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d.Status != domain.DiagnosisReview {
		t.Errorf("expected review, got %s", d.Status)
	}
}

func TestReviewService_SubmitAssessment_BackToPendingRejected(t *testing.T) {
	repo := newStubDiagnosisRepo(pendingDiagnosis("f1"))
	svc, _ := newReviewService(repo)

	_, err := svc.SubmitAssessment(context.Background(), ports.SubmitAssessmentInput{
		DiagnosisID: "f1",
		Status:      domain.DiagnosisPending,
	})
	if !errors.Is(err, domain.ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}
	if repo.updateCalls != 0 {
		t.Error("rejected transition must not reach the store")
	}
}

func TestReviewService_SubmitAssessment_MalformedSignature(t *testing.T) {
	repo := newStubDiagnosisRepo(pendingDiagnosis("f1"))
	svc, sigs := newReviewService(repo)

	_, err := svc.SubmitAssessment(context.Background(), ports.SubmitAssessmentInput{
		DiagnosisID: "f1",
		Status:      domain.DiagnosisCompleted,
		Signature:   "not-a-data-url",
	})
	if !errors.Is(err, domain.ErrInvalidSignature) {
		t.Fatalf("expected ErrInvalidSignature, got %v", err)
	}
	if sigs.calls != 0 || repo.updateCalls != 0 {
		t.Error("nothing must be persisted for a malformed signature")
	}
}

func TestReviewService_SubmitAssessment_SignatureStoreFailure(t *testing.T) {
	repo := newStubDiagnosisRepo(pendingDiagnosis("f1"))
	sigs := &stubSignatureStore{putErr: errors.New("bucket unavailable")}
	svc := NewReviewService(repo, sigs, newStubCache(), discardLogger)

	_, err := svc.SubmitAssessment(context.Background(), ports.SubmitAssessmentInput{
		DiagnosisID: "f1",
		Status:      domain.DiagnosisCompleted,
		Signature:   pngDataURL("x"),
	})
	if err == nil {
		t.Fatal("expected error when the signature store fails")
	}
	if repo.updateCalls != 0 {
		t.Error("assessment must not be written when the signature upload fails")
	}
}

// ---------------------------------------------------------------------------
// Listing tests
// ---------------------------------------------------------------------------

func TestReviewService_ListDiagnoses_QueryAndRange(t *testing.T) {
	second := pendingDiagnosis("f2")
	second.ClientName = "Bob Gray"
	second.Date = time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC)
	repo := newStubDiagnosisRepo(pendingDiagnosis("f1"), second)
	svc, _ := newReviewService(repo)

	list, err := svc.ListDiagnoses(context.Background(), ports.ListDiagnosesInput{
		Query: "pending",
		From:  time.Date(2026, 3, 5, 0, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(list.Items) != 1 || list.Items[0].ID != "f2" {
		t.Fatalf("expected [f2], got %d items", len(list.Items))
	}
	if list.Total != 2 {
		t.Errorf("total must count the unfiltered collection, got %d", list.Total)
	}
}

// ---------------------------------------------------------------------------
// decodeSignature tests
// ---------------------------------------------------------------------------

func TestDecodeSignature(t *testing.T) {
	data, contentType, err := decodeSignature(pngDataURL("hello"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(data) != "hello" || contentType != "image/png" {
		t.Errorf("got %q/%q", data, contentType)
	}

	for _, bad := range []string{
		"",
		"image/png;base64,AAAA",
		"data:image/png,AAAA",
		"data:text/plain;base64,AAAA",
		"data:image/png;base64,%%%",
	} {
		if _, _, err := decodeSignature(bad); !errors.Is(err, domain.ErrInvalidSignature) {
			t.Errorf("%q: expected ErrInvalidSignature, got %v", bad, err)
		}
	}
}
