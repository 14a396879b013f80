package domain

import (
	"errors"
	"time"
)

// DiagnosisStatus represents the review state of a client diagnosis record.
type DiagnosisStatus string

const (
	DiagnosisPending   DiagnosisStatus = "pending"
	DiagnosisReview    DiagnosisStatus = "review"
	DiagnosisCompleted DiagnosisStatus = "completed"
)

// diagnosisTransitions defines the allowed review transitions. A record in
// review may be sent back to review with a fresh assessment; completed is
// terminal.
var diagnosisTransitions = map[DiagnosisStatus][]DiagnosisStatus{
	DiagnosisPending: {DiagnosisCompleted, DiagnosisReview},
	DiagnosisReview:  {DiagnosisCompleted, DiagnosisReview},
}

// CanTransitionTo reports whether a transition from the current status to next is valid.
func (s DiagnosisStatus) CanTransitionTo(next DiagnosisStatus) bool {
	for _, allowed := range diagnosisTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// CanEdit reports whether the record may still receive assessments through
// the review surface.
func (s DiagnosisStatus) CanEdit() bool {
	return s == DiagnosisPending || s == DiagnosisReview
}

// Valid reports whether s is one of the enumerated diagnosis statuses.
func (s DiagnosisStatus) Valid() bool {
	switch s {
	case DiagnosisPending, DiagnosisReview, DiagnosisCompleted:
		return true
	}
	return false
}

var ErrDiagnosisNotFound = errors.New("diagnosis not found")
var ErrDiagnosisLocked = errors.New("diagnosis is completed and can no longer be edited")
var ErrInvalidSignature = errors.New("signature image is malformed")

// StaffRef identifies the staff member attached to a record.
type StaffRef struct {
	ID        string `json:"id" bson:"id"`
	FirstName string `json:"first_name" bson:"first_name"`
	LastName  string `json:"last_name" bson:"last_name"`
	Email     string `json:"email,omitempty" bson:"email,omitempty"`
}

// Diagnosis is a client diagnosis record submitted through the intake form
// and reviewed by a doctor.
type Diagnosis struct {
	ID                 string          `json:"id" bson:"_id,omitempty"`
	ClientName         string          `json:"client_name" bson:"client_name"`
	Date               time.Time       `json:"date" bson:"date"`
	Status             DiagnosisStatus `json:"status" bson:"status"`
	Sex                string          `json:"sex,omitempty" bson:"sex,omitempty"`
	PreferredTime      string          `json:"preferred_time,omitempty" bson:"preferred_time,omitempty"`
	Address            string          `json:"address,omitempty" bson:"address,omitempty"`
	Assessment         string          `json:"assessment,omitempty" bson:"assessment,omitempty"`
	ClientSignatureKey string          `json:"client_signature_key,omitempty" bson:"client_signature_key,omitempty"`
	DoctorSignatureKey string          `json:"doctor_signature_key,omitempty" bson:"doctor_signature_key,omitempty"`
	Doctor             *StaffRef       `json:"doctor,omitempty" bson:"doctor,omitempty"`
	Marketer           *StaffRef       `json:"marketer,omitempty" bson:"marketer,omitempty"`
	CreatedAt          time.Time       `json:"created_at" bson:"created_at"`
	UpdatedAt          time.Time       `json:"updated_at" bson:"updated_at"`
}

// DisplayName returns the label the record is searched and listed by.
func (d *Diagnosis) DisplayName() string {
	return d.ClientName
}

// CreatedBy returns whoever filed the record, doctor taking precedence.
func (d *Diagnosis) CreatedBy() *StaffRef {
	if d.Doctor != nil {
		return d.Doctor
	}
	return d.Marketer
}
