package email

import (
	"context"
	"time"
)

// SendRequest contains the data needed to send one email.
type SendRequest struct {
	To      []string // Recipient email addresses
	From    string   // Sender address; the sender's default is used when empty
	Subject string
	HTML    string // HTML body
	Text    string // Plain-text body; sent as the alternative part when HTML is set
	ReplyTo string
}

// SendResult contains the response from the delivery transport.
type SendResult struct {
	MessageID string    // Transport message ID, if the transport issues one
	SentAt    time.Time // When the send was accepted
}

// Sender delivers a single email through an outbound transport.
type Sender interface {
	Send(ctx context.Context, req SendRequest) (SendResult, error)
}
