package domain

import (
	"errors"
	"time"
)

// UserStatus represents the lifecycle state of a staff account.
type UserStatus string

const (
	StatusPending   UserStatus = "pending"
	StatusApproved  UserStatus = "approved"
	StatusDenied    UserStatus = "denied"
	StatusSuspended UserStatus = "suspended"
)

// userTransitions defines the allowed state machine transitions.
// Denied and suspended are terminal: no further transitions are exposed.
var userTransitions = map[UserStatus][]UserStatus{
	StatusPending:  {StatusApproved, StatusDenied},
	StatusApproved: {StatusSuspended},
}

// CanTransitionTo reports whether a transition from the current status to next is valid.
func (s UserStatus) CanTransitionTo(next UserStatus) bool {
	for _, allowed := range userTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Valid reports whether s is one of the enumerated user statuses.
func (s UserStatus) Valid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusDenied, StatusSuspended:
		return true
	}
	return false
}

// Role identifies what kind of staff member an account belongs to.
// Roles are informational for the workflow, with one exception: admin
// accounts are exempt from approve/deny/suspend.
type Role string

const (
	RoleDoctor   Role = "doctor"
	RoleAdmin    Role = "admin"
	RoleMarketer Role = "marketer"
	RoleUnset    Role = ""
)

// Valid reports whether r is a known assignable role.
func (r Role) Valid() bool {
	switch r {
	case RoleDoctor, RoleAdmin, RoleMarketer:
		return true
	}
	return false
}

var ErrInvalidTransition = errors.New("invalid status transition")
var ErrAdminExempt = errors.New("admin accounts are exempt from status changes")
var ErrInterviewIncomplete = errors.New("interview date and location are required")
var ErrUserNotFound = errors.New("user not found")
var ErrUserExists = errors.New("user already exists")
var ErrInvalidCredentials = errors.New("invalid credentials")
var ErrAccountInactive = errors.New("account is not approved")
var ErrForbidden = errors.New("access forbidden")

// Interview holds the interview details recorded for a pending staff account.
type Interview struct {
	At       time.Time `json:"at" bson:"at"`
	Location string    `json:"location" bson:"location"`
}

// StaffUser is a staff account passing through the approval workflow.
type StaffUser struct {
	ID           string     `json:"id" bson:"_id,omitempty"`
	FirstName    string     `json:"first_name" bson:"first_name"`
	LastName     string     `json:"last_name" bson:"last_name"`
	Email        string     `json:"email" bson:"email"`
	PasswordHash string     `json:"-" bson:"password_hash"`
	Role         Role       `json:"role" bson:"role"`
	Status       UserStatus `json:"status" bson:"status"`
	ClinicName   string     `json:"clinic_name,omitempty" bson:"clinic_name,omitempty"`
	Interview    *Interview `json:"interview,omitempty" bson:"interview,omitempty"`
	CreatedAt    time.Time  `json:"created_at" bson:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at" bson:"updated_at"`
}

// DisplayName returns the human-readable label shown in account lists.
func (u *StaffUser) DisplayName() string {
	switch {
	case u.FirstName == "" && u.LastName == "":
		return u.Email
	case u.LastName == "":
		return u.FirstName
	case u.FirstName == "":
		return u.LastName
	}
	return u.FirstName + " " + u.LastName
}

// UserAction is a workflow operation that can be taken on a staff account.
type UserAction string

const (
	ActionApprove           UserAction = "approve"
	ActionDeny              UserAction = "deny"
	ActionSuspend           UserAction = "suspend"
	ActionScheduleInterview UserAction = "schedule_interview"
)

// EnabledActions returns the workflow operations legal for the account's
// current status. Admin accounts never expose mutating actions.
func (u *StaffUser) EnabledActions() []UserAction {
	if u.Role == RoleAdmin {
		return nil
	}
	switch u.Status {
	case StatusPending:
		return []UserAction{ActionApprove, ActionDeny, ActionScheduleInterview}
	case StatusApproved:
		return []UserAction{ActionSuspend}
	}
	return nil
}
