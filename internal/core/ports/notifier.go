package ports

import "context"

// InterviewInvitation is the payload delivered to a candidate when an
// interview is scheduled. Date and time are preformatted for the email body.
type InterviewInvitation struct {
	RecipientEmail string `json:"recipient_email"`
	InterviewDate  string `json:"interview_date"`
	InterviewTime  string `json:"interview_time"`
	Location       string `json:"location"`
}

// InterviewNotifier delivers interview invitations. Implementations may
// deliver directly (SMTP) or hand the payload to a message queue.
type InterviewNotifier interface {
	Send(ctx context.Context, invitation InterviewInvitation) error
}
