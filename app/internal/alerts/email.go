package alerts

import (
	"fmt"
	"mime"
	"net/smtp"
	"strings"
)

// sendEmail delivers a plain-text alert over SMTP with STARTTLS
// negotiated by the smtp package when the server offers it.
func (m *Manager) sendEmail(targetName, subject, message string) {
	from := m.cfg.FromEmail
	if from == "" {
		from = m.cfg.SMTPUser
	}

	headers := []string{
		"From: " + from,
		"To: " + m.cfg.AlertEmail,
		"Subject: " + mime.QEncoding.Encode("utf-8", subject),
		"MIME-Version: 1.0",
		"Content-Type: text/plain; charset=UTF-8",
	}
	msg := strings.Join(headers, "\r\n") + "\r\n\r\n" + message + "\r\n"

	addr := fmt.Sprintf("%s:%d", m.cfg.SMTPHost, m.cfg.SMTPPort)
	var auth smtp.Auth
	if m.cfg.SMTPUser != "" {
		auth = smtp.PlainAuth("", m.cfg.SMTPUser, m.cfg.SMTPPassword, m.cfg.SMTPHost)
	}

	err := smtp.SendMail(addr, auth, from, []string{m.cfg.AlertEmail}, []byte(msg))
	logSendResult("email", targetName, err)
}
