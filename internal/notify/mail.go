package notify

import (
	"context"
	"fmt"
	"strings"
	"time"

	mail "gopkg.in/mail.v2"

	"github.com/probekit/linkmonitor/internal/domain"
)

// Mailer sends alert e-mail over SMTP.
type Mailer struct {
	dialer *mail.Dialer
	from   string
}

func NewMailer(host string, port int, user, pass, from string) *Mailer {
	if host == "" {
		return nil
	}
	if from == "" {
		from = user
	}
	return &Mailer{dialer: mail.NewDialer(host, port, user, pass), from: from}
}

func (m *Mailer) SendLowCredit(ctx context.Context, email string) error {
	body := "<p>Hello,</p>" +
		"<p>Your credit balance is too low to cover further health checks. " +
		"Your endpoints are no longer being monitored.</p>" +
		"<p>Top up your balance to resume monitoring.</p>"
	return m.send(email, "Monitoring paused — credit exhausted", body)
}

func (m *Mailer) SendFailures(ctx context.Context, email string, failures []domain.ProbeResult) error {
	var items strings.Builder
	for _, f := range failures {
		items.WriteString("<li><strong>")
		items.WriteString(f.URL)
		items.WriteString("</strong><br>")
		items.WriteString(FailureLine(f))
		items.WriteString("</li>")
	}
	body := fmt.Sprintf(
		"<p>Hello,</p>"+
			"<p>The following endpoints in your monitoring list failed their health checks:</p>"+
			"<ul>%s</ul>"+
			"<p><em>Checked at %s</em></p>",
		items.String(), time.Now().UTC().Format(time.RFC3339),
	)
	subject := fmt.Sprintf("Health check alert — %d endpoint(s) failed", len(failures))
	return m.send(email, subject, body)
}

func (m *Mailer) send(to, subject, htmlBody string) error {
	if m == nil {
		return fmt.Errorf("mailer disabled")
	}
	msg := mail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/html", htmlBody)
	if err := m.dialer.DialAndSend(msg); err != nil {
		return fmt.Errorf("smtp send to %s: %w", to, err)
	}
	return nil
}
