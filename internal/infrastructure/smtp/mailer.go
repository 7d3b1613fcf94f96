package smtp

import (
	"fmt"
	"net/smtp"

	"github.com/expertguide/expertguide-api/internal/config"
)

// Mailer delivers one-time codes by email.
type Mailer interface {
	SendAuthCode(to, code string) error
}

type mailer struct {
	host     string
	port     string
	from     string
	username string
	password string
}

func NewMailer(cfg *config.Config) Mailer {
	return &mailer{
		host:     cfg.SMTPHost,
		port:     cfg.SMTPPort,
		from:     cfg.SMTPFrom,
		username: cfg.SMTPUsername,
		password: cfg.SMTPPassword,
	}
}

func (m *mailer) SendAuthCode(to, code string) error {
	body := fmt.Sprintf(`<div style="font-family: Arial, sans-serif; padding: 20px; text-align: center;">
  <h1>ExpertGuide</h1>
  <h2>Your verification code</h2>
  <p>Use the following code to sign in:</p>
  <div style="background-color: #f0f0f0; padding: 15px; margin: 20px 0; font-size: 24px; font-weight: bold;">%s</div>
  <p>This code expires in 10 minutes.</p>
  <p>If you did not request this code, you can ignore this email.</p>
</div>`, code)

	msg := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: Verification code\r\nMIME-Version: 1.0\r\nContent-Type: text/html; charset=UTF-8\r\n\r\n%s",
		m.from, to, body)
	addr := fmt.Sprintf("%s:%s", m.host, m.port)

	var auth smtp.Auth
	if m.username != "" {
		auth = smtp.PlainAuth("", m.username, m.password, m.host)
	}

	return smtp.SendMail(addr, auth, m.from, []string{to}, []byte(msg))
}
