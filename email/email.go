package email

import (
	"fmt"
	"html"
	"net/smtp"
	"runtime/debug"

	"github.com/rs/zerolog/log"

	"github.com/orochaa/access-logger/config"
	"github.com/orochaa/access-logger/model"
)

// errorSubject is the fixed subject of the unexpected-error notification.
const errorSubject = "[Error] Access Logger: Unexpected Error"

// EmailService delivers reports and notifications to the configured
// recipient over SMTP. With Enabled false it logs the send instead, which
// keeps development runs from needing a mail server.
type EmailService struct {
	SMTPHost     string
	SMTPPort     string
	SMTPUsername string
	SMTPPassword string
	FromEmail    string
	FromName     string
	ToEmail      string
	Enabled      bool
}

// NewEmailService creates a new email service from configuration.
func NewEmailService(cfg config.EmailConfig) *EmailService {
	return &EmailService{
		SMTPHost:     cfg.SMTPHost,
		SMTPPort:     cfg.SMTPPort,
		SMTPUsername: cfg.SMTPUsername,
		SMTPPassword: cfg.SMTPPassword,
		FromEmail:    cfg.FromEmail,
		FromName:     cfg.FromName,
		ToEmail:      cfg.ToEmail,
		Enabled:      cfg.Enabled,
	}
}

// Send delivers one HTML document to the configured recipient.
func (es *EmailService) Send(subject, htmlBody string) error {
	if !es.Enabled {
		log.Warn().Str("subject", subject).Msg("Email service disabled - message not sent")
		return nil
	}

	return es.sendEmail(es.ToEmail, subject, htmlBody)
}

// SendContactMessage forwards a contact-form submission to the recipient.
func (es *EmailService) SendContactMessage(msg model.ContactMessage) error {
	subject := fmt.Sprintf("Contact Form: %s", msg.Subject)
	return es.Send(subject, contactMessageBody(msg))
}

func contactMessageBody(msg model.ContactMessage) string {
	return fmt.Sprintf(`
<div style="font-family:Arial,Helvetica,sans-serif;color:#333;line-height:1.5;margin:0;padding:24px;">
  <h1 style="margin-top:0;color:#1e293b;">Contact Form Submission</h1>
  <p><strong>Name:</strong> %s</p>
  <p><strong>Email:</strong> %s</p>
  <p><strong>Subject:</strong> %s</p>
  <p><strong>Message:</strong></p>
  <p>%s</p>
</div>
`,
		html.EscapeString(msg.Name),
		html.EscapeString(msg.Email),
		html.EscapeString(msg.Subject),
		html.EscapeString(msg.Message),
	)
}

// SendErrorNotification reports an unexpected failure to the recipient as a
// best-effort side channel. Its own failure is logged, never propagated.
func (es *EmailService) SendErrorNotification(cause error) {
	if err := es.Send(errorSubject, errorNotificationBody(cause, debug.Stack())); err != nil {
		log.Error().Err(err).Msg("Failed to send error notification email")
	}
}

func errorNotificationBody(cause error, stack []byte) string {
	return fmt.Sprintf(`
<p>An unexpected error occurred:</p>
<p><strong>Message:</strong> %s</p>
<p><strong>Stack Trace:</strong></p>
<pre>%s</pre>
`,
		html.EscapeString(cause.Error()),
		html.EscapeString(string(stack)),
	)
}

func (es *EmailService) sendEmail(to, subject, body string) error {
	from := fmt.Sprintf("%s <%s>", es.FromName, es.FromEmail)

	msg := []byte(fmt.Sprintf(
		"From: %s\r\n"+
			"To: %s\r\n"+
			"Subject: %s\r\n"+
			"MIME-Version: 1.0\r\n"+
			"Content-Type: text/html; charset=UTF-8\r\n"+
			"\r\n"+
			"%s\r\n",
		from, to, subject, body,
	))

	auth := smtp.PlainAuth("", es.SMTPUsername, es.SMTPPassword, es.SMTPHost)
	addr := fmt.Sprintf("%s:%s", es.SMTPHost, es.SMTPPort)

	err := smtp.SendMail(addr, auth, es.FromEmail, []string{to}, msg)
	if err != nil {
		log.Error().Err(err).Str("to", to).Msg("Failed to send email")
		return err
	}

	log.Info().Str("to", to).Str("subject", subject).Msg("Email sent successfully")
	return nil
}
