package service

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/crediblehealth/clinic-console/internal/api/metrics"
	"github.com/crediblehealth/clinic-console/internal/core/domain"
	"github.com/crediblehealth/clinic-console/internal/core/ports"
	"github.com/crediblehealth/clinic-console/internal/core/projection"
)

const diagnosesCacheKey = "diagnoses"

// ReviewService implements the client diagnosis review workflow: listing with
// date-range filtering and assessment submission with signature capture.
type ReviewService struct {
	diagnoses  ports.DiagnosisRepository
	signatures ports.SignatureStore
	cache      ports.ListCache
	log        zerolog.Logger
}

func NewReviewService(diagnoses ports.DiagnosisRepository, signatures ports.SignatureStore, cache ports.ListCache, log zerolog.Logger) *ReviewService {
	return &ReviewService{diagnoses: diagnoses, signatures: signatures, cache: cache, log: log}
}

// ListDiagnoses fetches the full collection and projects the filtered view.
func (s *ReviewService) ListDiagnoses(ctx context.Context, input ports.ListDiagnosesInput) (*ports.DiagnosisList, error) {
	all, err := s.fetchDiagnoses(ctx)
	if err != nil {
		return nil, fmt.Errorf("list diagnoses: %w", err)
	}
	return &ports.DiagnosisList{
		Items: projection.Diagnoses(all, input.Query, input.From, input.To),
		Total: len(all),
	}, nil
}

// GetDiagnosis retrieves a single record by id.
func (s *ReviewService) GetDiagnosis(ctx context.Context, id string) (*domain.Diagnosis, error) {
	d, err := s.diagnoses.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get diagnosis: %w", err)
	}
	return d, nil
}

// SubmitAssessment persists a doctor's review: assessment text, the chosen
// status, and the rendered signature. An empty signature means the operator
// drew nothing; no blob is stored and no reference is recorded.
func (s *ReviewService) SubmitAssessment(ctx context.Context, input ports.SubmitAssessmentInput) (*domain.Diagnosis, error) {
	d, err := s.diagnoses.FindByID(ctx, input.DiagnosisID)
	if err != nil {
		return nil, fmt.Errorf("submit assessment: %w", err)
	}

	if !d.Status.CanEdit() {
		metrics.TransitionsRejectedTotal.WithLabelValues("locked").Inc()
		return nil, fmt.Errorf("submit assessment: %w", domain.ErrDiagnosisLocked)
	}
	if !d.Status.CanTransitionTo(input.Status) {
		metrics.TransitionsRejectedTotal.WithLabelValues("invalid_transition").Inc()
		return nil, fmt.Errorf("submit assessment: %w (from %s to %s)", domain.ErrInvalidTransition, d.Status, input.Status)
	}

	var signatureKey string
	if input.Signature != "" {
		data, contentType, err := decodeSignature(input.Signature)
		if err != nil {
			metrics.TransitionsRejectedTotal.WithLabelValues("validation").Inc()
			return nil, fmt.Errorf("submit assessment: %w", err)
		}
		signatureKey, err = s.signatures.Put(ctx, d.ID, data, contentType)
		if err != nil {
			return nil, fmt.Errorf("submit assessment: store signature: %w", err)
		}
	}

	if err := s.diagnoses.UpdateAssessment(ctx, d.ID, input.Assessment, input.Status, signatureKey); err != nil {
		return nil, fmt.Errorf("submit assessment: %w", err)
	}

	d.Assessment = input.Assessment
	d.Status = input.Status
	d.DoctorSignatureKey = signatureKey
	d.UpdatedAt = time.Now().UTC()
	s.invalidate(ctx)

	metrics.TransitionsAppliedTotal.WithLabelValues("diagnosis", string(input.Status)).Inc()
	s.log.Info().
		Str("diagnosis_id", d.ID).
		Str("status", string(input.Status)).
		Bool("signed", signatureKey != "").
		Msg("assessment submitted")

	return d, nil
}

// decodeSignature parses a self-describing data-URL image blob produced by
// the signature canvas, e.g. "data:image/png;base64,<payload>".
func decodeSignature(dataURL string) ([]byte, string, error) {
	rest, ok := strings.CutPrefix(dataURL, "data:")
	if !ok {
		return nil, "", domain.ErrInvalidSignature
	}
	meta, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return nil, "", domain.ErrInvalidSignature
	}
	contentType, encoding, ok := strings.Cut(meta, ";")
	if !ok || encoding != "base64" || !strings.HasPrefix(contentType, "image/") {
		return nil, "", domain.ErrInvalidSignature
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", domain.ErrInvalidSignature, err)
	}
	return data, contentType, nil
}

func (s *ReviewService) fetchDiagnoses(ctx context.Context) ([]*domain.Diagnosis, error) {
	var cached []*domain.Diagnosis
	hit, err := s.cache.Get(ctx, diagnosesCacheKey, &cached)
	if err != nil {
		s.log.Warn().Err(err).Msg("diagnosis list cache read failed, falling back to store")
	} else if hit {
		metrics.CacheRequestsTotal.WithLabelValues(diagnosesCacheKey, "hit").Inc()
		return cached, nil
	}
	metrics.CacheRequestsTotal.WithLabelValues(diagnosesCacheKey, "miss").Inc()

	all, err := s.diagnoses.List(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.cache.Set(ctx, diagnosesCacheKey, all); err != nil {
		s.log.Warn().Err(err).Msg("diagnosis list cache write failed")
	}
	return all, nil
}

func (s *ReviewService) invalidate(ctx context.Context) {
	if err := s.cache.Invalidate(ctx, diagnosesCacheKey); err != nil {
		s.log.Warn().Err(err).Msg("diagnosis list cache invalidation failed")
	}
}
