package orchestrators

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/yuin/goldmark"
	goldmarkHTML "github.com/yuin/goldmark/renderer/html"

	emailAdapter "barreltech/internal/adapters/email"
	"barreltech/internal/domain/enrollment"
)

// mdRenderer renders notification bodies. Raw HTML in the input is omitted.
var mdRenderer = goldmark.New(
	goldmark.WithRendererOptions(
		goldmarkHTML.WithHardWraps(),
	),
)

// NotifyEnrollmentInput carries the validated fields of a persisted enrollment.
type NotifyEnrollmentInput struct {
	FullName string
	Email    string
	Course   string
}

// NotifyEnrollmentDeps holds the transport and the fixed addresses.
type NotifyEnrollmentDeps struct {
	EmailSender emailAdapter.Sender
	From        string
	To          string // the single company recipient
}

// markdownEscaper backslash-escapes markdown punctuation in user-supplied values.
var markdownEscaper = strings.NewReplacer(
	`\`, `\\`, "`", "\\`", `*`, `\*`, `_`, `\_`, `[`, `\[`, `]`, `\]`,
	`<`, `\<`, `>`, `\>`, `#`, `\#`, `|`, `\|`, `!`, `\!`, `&`, `\&`, `~`, `\~`,
	`=`, `\=`, `-`, `\-`, `+`, `\+`,
)

// lineBreaks collapses CR/LF so a value cannot start a new markdown block.
var lineBreaks = strings.NewReplacer("\r\n", " ", "\r", " ", "\n", " ")

func escapeValue(v string) string {
	return markdownEscaper.Replace(lineBreaks.Replace(v))
}

// composeEnrollmentEmail builds the subject, markdown body and plain-text body.
func composeEnrollmentEmail(input NotifyEnrollmentInput) (subject, markdown, text string) {
	subject = "New Enrollment - " + lineBreaks.Replace(input.Course)

	var md strings.Builder
	md.WriteString("## New Course Enrollment\n\n")
	fmt.Fprintf(&md, "**Name:** %s\n", escapeValue(input.FullName))
	fmt.Fprintf(&md, "**Email:** %s\n", escapeValue(input.Email))
	fmt.Fprintf(&md, "**Course:** %s\n\n", escapeValue(input.Course))
	md.WriteString("---\n\n")
	md.WriteString("_Sent automatically by Barrel Tech system._\n")

	text = fmt.Sprintf("New Course Enrollment\n\nName: %s\nEmail: %s\nCourse: %s\n\nSent automatically by Barrel Tech system.\n",
		lineBreaks.Replace(input.FullName), lineBreaks.Replace(input.Email), lineBreaks.Replace(input.Course))
	return subject, md.String(), text
}

// ExecuteNotifyEnrollment sends the new-enrollment email to the company address.
// PRE: input fields are validated; deps.EmailSender is non-nil
// POST: email handed to the transport, or *enrollment.NotifierError returned
func ExecuteNotifyEnrollment(ctx context.Context, input NotifyEnrollmentInput, deps NotifyEnrollmentDeps) error {
	subject, md, text := composeEnrollmentEmail(input)

	var html bytes.Buffer
	if err := mdRenderer.Convert([]byte(md), &html); err != nil {
		return &enrollment.NotifierError{Recipient: deps.To, Err: fmt.Errorf("render body: %w", err)}
	}

	_, err := deps.EmailSender.Send(ctx, emailAdapter.SendRequest{
		To:      []string{deps.To},
		From:    deps.From,
		Subject: subject,
		HTML:    html.String(),
		Text:    text,
		ReplyTo: input.Email,
	})
	if err != nil {
		return &enrollment.NotifierError{Recipient: deps.To, Err: err}
	}
	return nil
}

// Notifier is the best-effort notification contract used by ExecuteEnroll.
// Notify must return without waiting for delivery and never reports failure.
type Notifier interface {
	Notify(ctx context.Context, input NotifyEnrollmentInput)
}

// BestEffortNotifier sends each notification on its own goroutine.
// Failures are logged and dropped; there is no retry.
type BestEffortNotifier struct {
	deps NotifyEnrollmentDeps
	wg   sync.WaitGroup
}

// NewBestEffortNotifier creates a notifier over deps.
func NewBestEffortNotifier(deps NotifyEnrollmentDeps) *BestEffortNotifier {
	return &BestEffortNotifier{deps: deps}
}

// Notify starts the send and returns immediately.
// PRE: input fields are validated
// POST: one send attempt is in flight; ctx cancellation does not abort it
func (n *BestEffortNotifier) Notify(ctx context.Context, input NotifyEnrollmentInput) {
	ctx = context.WithoutCancel(ctx)
	n.wg.Add(1)
	go func() {
		defer n.wg.Done()
		if err := ExecuteNotifyEnrollment(ctx, input, n.deps); err != nil {
			slog.Error("enrollment_notify_failed", "error", err.Error(), "course", input.Course)
			return
		}
		slog.Info("enrollment_notified", "to", n.deps.To, "course", input.Course)
	}()
}

// Wait blocks until every in-flight notification has finished.
func (n *BestEffortNotifier) Wait() {
	n.wg.Wait()
}
