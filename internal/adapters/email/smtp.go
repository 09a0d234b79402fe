package email

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"gopkg.in/gomail.v2"
)

// ErrNoRecipients is returned when a SendRequest has an empty To list.
var ErrNoRecipients = errors.New("at least one recipient is required")

// SMTPSender delivers mail through an SMTP relay.
type SMTPSender struct {
	dialer *gomail.Dialer
	from   string
}

// NewSMTPSender creates a sender for host:port authenticating with user/pass.
// STARTTLS is used when the relay offers it; port 465 uses implicit TLS.
func NewSMTPSender(host string, port int, user, pass, from string) *SMTPSender {
	return &SMTPSender{
		dialer: gomail.NewDialer(host, port, user, pass),
		from:   from,
	}
}

// buildMessage converts a SendRequest to a gomail message.
func (s *SMTPSender) buildMessage(req SendRequest) *gomail.Message {
	from := req.From
	if from == "" {
		from = s.from
	}

	m := gomail.NewMessage()
	m.SetHeader("From", from)
	m.SetHeader("To", req.To...)
	m.SetHeader("Subject", req.Subject)
	if req.ReplyTo != "" {
		m.SetHeader("Reply-To", req.ReplyTo)
	}

	switch {
	case req.HTML != "" && req.Text != "":
		m.SetBody("text/plain", req.Text)
		m.AddAlternative("text/html", req.HTML)
	case req.HTML != "":
		m.SetBody("text/html", req.HTML)
	default:
		m.SetBody("text/plain", req.Text)
	}
	return m
}

// Send dials the relay and delivers one message.
// PRE: req has at least one recipient
// POST: message handed to the relay; gomail does not honour ctx once dialing starts
func (s *SMTPSender) Send(ctx context.Context, req SendRequest) (SendResult, error) {
	if len(req.To) == 0 {
		return SendResult{}, ErrNoRecipients
	}
	if err := ctx.Err(); err != nil {
		return SendResult{}, err
	}

	if err := s.dialer.DialAndSend(s.buildMessage(req)); err != nil {
		return SendResult{}, fmt.Errorf("smtp send failed: %w", err)
	}

	slog.Info("smtp_sent", "host", s.dialer.Host, "to", req.To, "subject", req.Subject)
	return SendResult{SentAt: time.Now()}, nil
}
