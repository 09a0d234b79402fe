package orchestrators

import (
	"context"
	"fmt"

	emailAdapter "barreltech/internal/adapters/email"
)

// Test email content sent by the operator diagnostics route.
const (
	TestEmailSubject = "Barrel Tech Test Email"
	TestEmailBody    = "This is a test email from Barrel Tech server."
)

// ExecuteSendTestEmail sends the diagnostics message synchronously, bypassing enrollment.
// PRE: deps.EmailSender is non-nil
// POST: returns the transport error, if any
func ExecuteSendTestEmail(ctx context.Context, deps NotifyEnrollmentDeps) error {
	_, err := deps.EmailSender.Send(ctx, emailAdapter.SendRequest{
		To:      []string{deps.To},
		From:    deps.From,
		Subject: TestEmailSubject,
		Text:    TestEmailBody,
	})
	if err != nil {
		return fmt.Errorf("test email: %w", err)
	}
	return nil
}
