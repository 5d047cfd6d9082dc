// Package notify implements the domain Notifier port over SMTP. When
// mail settings are absent or placeholders, sends are skipped with a log
// line; a notification failure never affects a committed transition.
package notify

import (
	"context"
	"fmt"
	"log"
	"net/smtp"
	"strings"

	"github.com/fabworks/printflow/internal/config"
	"github.com/fabworks/printflow/internal/domain"
)

// Mailer sends student-facing workflow mail.
type Mailer struct {
	mail      config.Mail
	publicURL string
}

// NewMailer creates a Mailer. publicURL is the externally reachable base
// used to build confirmation links.
func NewMailer(mail config.Mail, publicURL string) *Mailer {
	return &Mailer{mail: mail, publicURL: strings.TrimRight(publicURL, "/")}
}

// JobApproved mails the price quote and confirmation link.
func (m *Mailer) JobApproved(_ context.Context, job *domain.Job) error {
	link := fmt.Sprintf("%s/confirm/%s", m.publicURL, job.ConfirmToken)
	body := fmt.Sprintf(
		"Hello %s,\r\n\r\nYour print job %s has been reviewed and priced at $%s.\r\n"+
			"Please confirm within 7 days to queue it for printing:\r\n\r\n%s\r\n",
		job.StudentName, job.DisplayName, job.CostUSD.StringFixed(2), link)
	return m.send(job, "Your 3D print job is priced, confirmation needed", body)
}

// JobRejected mails the rejection reasons.
func (m *Mailer) JobRejected(_ context.Context, job *domain.Job) error {
	body := fmt.Sprintf(
		"Hello %s,\r\n\r\nYour print job %s could not be accepted:\r\n\r\n- %s\r\n",
		job.StudentName, job.DisplayName, strings.Join(job.RejectReasons, "\r\n- "))
	return m.send(job, "Your 3D print job was not accepted", body)
}

// JobConfirmed mails the queue acknowledgement.
func (m *Mailer) JobConfirmed(_ context.Context, job *domain.Job) error {
	body := fmt.Sprintf(
		"Hello %s,\r\n\r\nThanks, your print job %s is confirmed and queued for printing.\r\n",
		job.StudentName, job.DisplayName)
	return m.send(job, "Your 3D print job is confirmed", body)
}

func (m *Mailer) send(job *domain.Job, subject, body string) error {
	if !m.mail.Configured() {
		log.Printf("job %s: mail not configured, skipping %q to %s", job.ID, subject, job.StudentEmail)
		return nil
	}

	msg := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\n\r\n%s",
		m.mail.Sender, job.StudentEmail, subject, body)
	addr := fmt.Sprintf("%s:%d", m.mail.Server, m.mail.Port)
	auth := smtp.PlainAuth("", m.mail.Username, m.mail.Password, m.mail.Server)

	if err := smtp.SendMail(addr, auth, m.mail.Sender, []string{job.StudentEmail}, []byte(msg)); err != nil {
		return fmt.Errorf("send mail to %s: %w", job.StudentEmail, err)
	}
	return nil
}
