package domain

import (
	"errors"
	"time"
)

var ErrAppointmentNotFound = errors.New("appointment not found")

// Appointment is a visit scheduled from a client diagnosis form.
type Appointment struct {
	ID        string    `json:"id" bson:"_id,omitempty"`
	FormID    string    `json:"form_id" bson:"form_id"`
	Date      time.Time `json:"date" bson:"date"`
	Time      string    `json:"time,omitempty" bson:"time,omitempty"`
	Doctor    *StaffRef `json:"doctor,omitempty" bson:"doctor,omitempty"`
	Marketer  *StaffRef `json:"marketer,omitempty" bson:"marketer,omitempty"`
	CreatedAt time.Time `json:"created_at" bson:"created_at"`
}

// IsOn reports whether the appointment falls on the given calendar day (UTC).
func (a *Appointment) IsOn(day time.Time) bool {
	y1, m1, d1 := a.Date.UTC().Date()
	y2, m2, d2 := day.UTC().Date()
	return y1 == y2 && m1 == m2 && d1 == d2
}
