// Package projection derives filtered, read-only views of subject
// collections. Every function is pure: the source slice is never mutated,
// ordering follows the source, and results are recomputed in full on each
// call. The filtered view is a projection of the fetched collection, not a
// store query.
package projection

import (
	"strings"
	"time"

	"github.com/crediblehealth/clinic-console/internal/core/domain"
)

// Users returns the staff accounts whose display name contains query,
// case-insensitively. An empty query matches everything.
func Users(src []*domain.StaffUser, query string) []*domain.StaffUser {
	out := make([]*domain.StaffUser, 0, len(src))
	for _, u := range src {
		if containsFold(u.DisplayName(), query) {
			out = append(out, u)
		}
	}
	return out
}

// Diagnoses returns the diagnosis records matching query on client name or
// status, restricted to the inclusive [from, to] date range. A zero bound
// imposes no constraint on that side.
func Diagnoses(src []*domain.Diagnosis, query string, from, to time.Time) []*domain.Diagnosis {
	out := make([]*domain.Diagnosis, 0, len(src))
	for _, d := range src {
		if !containsFold(d.DisplayName(), query) && !containsFold(string(d.Status), query) {
			continue
		}
		if !inRange(d.Date, from, to) {
			continue
		}
		out = append(out, d)
	}
	return out
}

// AppointmentsOn returns the appointments falling on the given calendar day.
func AppointmentsOn(src []*domain.Appointment, day time.Time) []*domain.Appointment {
	out := make([]*domain.Appointment, 0, len(src))
	for _, a := range src {
		if a.IsOn(day) {
			out = append(out, a)
		}
	}
	return out
}

func containsFold(s, substr string) bool {
	if substr == "" {
		return true
	}
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}

// inRange reports whether t falls within [from, to], inclusive on both
// bounds. Zero bounds are open.
func inRange(t, from, to time.Time) bool {
	if !from.IsZero() && t.Before(from) {
		return false
	}
	if !to.IsZero() && t.After(to) {
		return false
	}
	return true
}
