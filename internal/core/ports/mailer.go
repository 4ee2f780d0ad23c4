package ports

import "context"

// Mailer is the outbound notification sink. Implementations deliver the four
// account lifecycle emails; the service never calls a Mailer directly but
// hands tasks to the queue dispatcher, which owns delivery and failure logging.
type Mailer interface {
	SendVerification(ctx context.Context, email, code string) error
	SendWelcome(ctx context.Context, email, name string) error
	SendPasswordReset(ctx context.Context, email, resetURL string) error
	SendResetSuccess(ctx context.Context, email string) error
}

// MailKind identifies which lifecycle email a queued task carries.
type MailKind string

const (
	MailVerification MailKind = "verification"
	MailWelcome      MailKind = "welcome"
	MailReset        MailKind = "password_reset"
	MailResetSuccess MailKind = "reset_success"
)

// MailTask is one queued notification. Code carries the verification code,
// URL the reset link, Name the display name for the welcome mail; unused
// fields stay empty.
type MailTask struct {
	Kind  MailKind
	Email string
	Name  string
	Code  string
	URL   string
}

// MailQueue accepts notification tasks for asynchronous delivery. Enqueue
// never blocks the account operation on delivery: failures are logged by the
// queue workers, not returned to the caller.
type MailQueue interface {
	Enqueue(task MailTask)
}
