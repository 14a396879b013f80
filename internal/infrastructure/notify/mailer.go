// Package notify delivers interview invitations to applicants, either
// directly over SMTP or through a RabbitMQ queue consumed by a mail worker.
package notify

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"

	"github.com/crediblehealth/clinic-console/internal/core/ports"
)

// SMTPConfig captures the settings for the outgoing mail server.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// Mailer sends interview invitation emails over SMTP.
type Mailer struct {
	cfg  SMTPConfig
	auth smtp.Auth
}

func NewMailer(cfg SMTPConfig) *Mailer {
	return &Mailer{
		cfg:  cfg,
		auth: smtp.PlainAuth("", cfg.Username, cfg.Password, cfg.Host),
	}
}

// Send delivers the invitation email to the applicant.
func (m *Mailer) Send(ctx context.Context, inv ports.InterviewInvitation) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	addr := fmt.Sprintf("%s:%d", m.cfg.Host, m.cfg.Port)
	msg := buildInvitationMessage(m.cfg.From, inv)

	if err := smtp.SendMail(addr, m.auth, m.cfg.From, []string{inv.RecipientEmail}, msg); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}
	return nil
}

const invitationSubject = "Interview Invitation - Credible Health Solutions"

func buildInvitationMessage(from string, inv ports.InterviewInvitation) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", from)
	fmt.Fprintf(&b, "To: %s\r\n", inv.RecipientEmail)
	fmt.Fprintf(&b, "Subject: %s\r\n", invitationSubject)
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/html; charset=\"UTF-8\"\r\n")
	b.WriteString("\r\n")
	b.WriteString("<html><body>")
	b.WriteString("<h2>Interview Invitation</h2>")
	b.WriteString("<p>Thank you for your application. You have been invited to an interview.</p>")
	b.WriteString("<ul>")
	fmt.Fprintf(&b, "<li><strong>Date:</strong> %s</li>", inv.InterviewDate)
	fmt.Fprintf(&b, "<li><strong>Time:</strong> %s</li>", inv.InterviewTime)
	fmt.Fprintf(&b, "<li><strong>Location:</strong> %s</li>", inv.Location)
	b.WriteString("</ul>")
	b.WriteString("<p>Please arrive ten minutes early and bring a valid ID.</p>")
	b.WriteString("<p>Credible Health Solutions</p>")
	b.WriteString("</body></html>")
	return []byte(b.String())
}
