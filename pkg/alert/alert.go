package alert

import (
	"fmt"
	"net/smtp"
	"strings"
	"time"

	"github.com/feedwise/feedwise/pkg/config"
)

// Alerter defines an interface for sending operational alerts, such as the
// scoring circuit breaker tripping open.
type Alerter interface {
	Alert(subject, message string) error
}

// subjectPrefix marks every outgoing alert so operators can filter scoring
// alerts from the rest of their inbox.
const subjectPrefix = "[feedwise]"

// EmailAlerter implements Alerter using SMTP
type EmailAlerter struct {
	cfg config.AlertConfig
	now func() time.Time
}

// NewEmailAlerter creates a new email alerter
func NewEmailAlerter(cfg config.AlertConfig) *EmailAlerter {
	return &EmailAlerter{
		cfg: cfg,
		now: time.Now,
	}
}

// Alert sends an email with the given subject and message
func (a *EmailAlerter) Alert(subject, message string) error {
	if !a.cfg.Enabled {
		return nil
	}

	auth := smtp.PlainAuth("", a.cfg.Username, a.cfg.Password, a.cfg.SMTPHost)
	addr := fmt.Sprintf("%s:%d", a.cfg.SMTPHost, a.cfg.SMTPPort)

	err := smtp.SendMail(addr, auth, a.cfg.From, a.cfg.To, a.buildMessage(subject, message))
	if err != nil {
		return fmt.Errorf("failed to send alert email: %w", err)
	}

	return nil
}

// buildMessage renders the raw SMTP payload. Alerts fire while analysis runs
// are degrading to fallback scores, so the body carries the timestamp and
// what the degradation means for results.
func (a *EmailAlerter) buildMessage(subject, message string) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "To: %s\r\n", strings.Join(a.cfg.To, ","))
	fmt.Fprintf(&b, "Subject: %s %s\r\n", subjectPrefix, subject)
	b.WriteString("\r\n")
	fmt.Fprintf(&b, "Time: %s\r\n\r\n", a.now().UTC().Format(time.RFC3339))
	fmt.Fprintf(&b, "%s\r\n\r\n", message)
	b.WriteString("While this condition holds, analysis runs substitute neutral fallback scores for affected products.\r\n")
	return []byte(b.String())
}

// NoOpAlerter is a dummy alerter for when alerting is disabled
type NoOpAlerter struct{}

func (n *NoOpAlerter) Alert(subject, message string) error {
	return nil
}
