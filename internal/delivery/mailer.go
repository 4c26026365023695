// Package delivery holds the outbound side effects of the marketplace: mail
// notifications and package downloads. Each has a real and a fake
// implementation selected by configuration.
package delivery

import (
	"context"
	"fmt"
	"log/slog"
	"net/smtp"
	"strings"
	"time"

	"github.com/ahmetcoskunkizilkaya/indie-market/internal/config"
	"github.com/ahmetcoskunkizilkaya/indie-market/internal/models"
)

type Message struct {
	To      string
	Subject string
	Body    string
}

type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// NewMailer returns the SMTP mailer when MAILER=smtp and the logging fake
// otherwise.
func NewMailer(cfg *config.Config) Mailer {
	if cfg.Mailer == "smtp" {
		return NewSMTPMailer(cfg.SMTPAddr, cfg.SMTPUser, cfg.SMTPPassword, cfg.MailFrom)
	}
	return NewLogMailer(cfg.MailerDelay)
}

// LogMailer is a fake transport. It logs the message after a delay and
// always succeeds.
type LogMailer struct {
	delay time.Duration
}

func NewLogMailer(delay time.Duration) *LogMailer {
	return &LogMailer{delay: delay}
}

func (m *LogMailer) Send(ctx context.Context, msg Message) error {
	if err := Sleep(ctx, m.delay); err != nil {
		return err
	}
	slog.Info("email sent (simulated)",
		"component", "mailer",
		"to", msg.To,
		"subject", msg.Subject,
	)
	return nil
}

type SMTPMailer struct {
	addr string
	from string
	auth smtp.Auth
}

func NewSMTPMailer(addr, user, password, from string) *SMTPMailer {
	m := &SMTPMailer{addr: addr, from: from}
	if user != "" {
		host := addr
		if i := strings.LastIndex(addr, ":"); i >= 0 {
			host = addr[:i]
		}
		m.auth = smtp.PlainAuth("", user, password, host)
	}
	return m
}

func (m *SMTPMailer) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if m.addr == "" {
		return fmt.Errorf("smtp mailer: SMTP_ADDR is not set")
	}
	if err := smtp.SendMail(m.addr, m.auth, m.from, []string{msg.To}, m.format(msg)); err != nil {
		return fmt.Errorf("failed to send email to %s: %w", msg.To, err)
	}
	return nil
}

func (m *SMTPMailer) format(msg Message) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", m.from)
	fmt.Fprintf(&b, "To: %s\r\n", msg.To)
	fmt.Fprintf(&b, "Subject: %s\r\n", msg.Subject)
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=UTF-8\r\n\r\n")
	b.WriteString(msg.Body)
	return []byte(b.String())
}

func WelcomeMessage(user models.User, vendor models.Vendor) Message {
	return Message{
		To:      user.Email,
		Subject: "Welcome to Indie Market, " + vendor.BusinessName,
		Body: fmt.Sprintf("Hi %s,\n\nYour vendor account for %s is ready. "+
			"Your %s plan allows %s.\n\nHappy shipping!\n",
			user.Name, vendor.BusinessName, vendor.Subscription, quotaText(vendor.Subscription)),
	}
}

// DecisionMessage tells a vendor an admin approved or rejected their app.
func DecisionMessage(user models.User, app models.App) Message {
	var body string
	switch app.Status {
	case models.StatusApproved:
		body = fmt.Sprintf("Hi %s,\n\n%s (v%s) has been approved and is now live on the storefront.\n", user.Name, app.Name, app.Version)
	default:
		body = fmt.Sprintf("Hi %s,\n\n%s (v%s) was not approved. Update the listing and resubmit it for review.\n", user.Name, app.Name, app.Version)
	}
	return Message{
		To:      user.Email,
		Subject: fmt.Sprintf("%s was %s", app.Name, app.Status),
		Body:    body,
	}
}

func quotaText(tier models.Tier) string {
	if q := tier.Quota(); q > 0 {
		return fmt.Sprintf("up to %d apps", q)
	}
	return "unlimited apps"
}

// Sleep waits for d or until ctx is done.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
