package notify

import (
	"fmt"
	"net/smtp"
	"strings"

	"github.com/aluiziolira/go-race-watch/config"
)

// SMTPService sends HTML mail through a plain SMTP relay with STARTTLS.
type SMTPService struct {
	cfg config.SMTPConfig
}

// NewSMTPService builds a service from the SMTP section of the config.
func NewSMTPService(cfg config.SMTPConfig) *SMTPService {
	return &SMTPService{cfg: cfg}
}

// Configured reports whether credentials and a recipient are present.
func (s *SMTPService) Configured() bool {
	return s.cfg.Username != "" && s.cfg.Password != "" && s.cfg.Recipient != ""
}

// Send delivers one HTML message to the configured recipient.
func (s *SMTPService) Send(subject, htmlBody string) error {
	if !s.Configured() {
		return fmt.Errorf("smtp credentials or recipient not configured")
	}

	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)
	auth := smtp.PlainAuth("", s.cfg.Username, s.cfg.Password, s.cfg.Host)

	var msg strings.Builder
	fmt.Fprintf(&msg, "From: %s\r\n", s.cfg.Username)
	fmt.Fprintf(&msg, "To: %s\r\n", s.cfg.Recipient)
	fmt.Fprintf(&msg, "Subject: %s\r\n", subject)
	msg.WriteString("MIME-Version: 1.0\r\n")
	msg.WriteString("Content-Type: text/html; charset=\"UTF-8\"\r\n")
	msg.WriteString("\r\n")
	msg.WriteString(htmlBody)

	if err := smtp.SendMail(addr, auth, s.cfg.Username, []string{s.cfg.Recipient}, []byte(msg.String())); err != nil {
		return fmt.Errorf("send mail via %s: %w", addr, err)
	}
	return nil
}
