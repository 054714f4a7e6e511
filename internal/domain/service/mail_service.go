package service

import "context"

// Mail event kinds understood by the delivery worker.
const (
	MailKindVerification  = "verification"
	MailKindPasswordReset = "password_reset"
)

// MailEvent is the message published for each outbound email. Delivery is
// asynchronous and best-effort: the request path never waits on SMTP.
type MailEvent struct {
	Kind      string `json:"kind"`       // One of the MailKind constants.
	Recipient string `json:"recipient"`  // Destination email address.
	Token     string `json:"token"`      // Raw verification or reset token.
	RequestID string `json:"request_id"` // Propagated for tracing, may be empty.
}

// MailPublisher publishes mail events to the delivery worker.
type MailPublisher interface {
	// PublishMailEvent enqueues one mail event. Implementations must not
	// block on the actual email delivery.
	PublishMailEvent(ctx context.Context, event *MailEvent) error

	// Close releases the underlying transport.
	Close() error
}

// Mailer performs the actual delivery of a single email. Consumed only by the
// worker; the API process never talks SMTP directly.
type Mailer interface {
	// SendVerificationEmail delivers the email-verification message.
	SendVerificationEmail(ctx context.Context, recipient, token string) error

	// SendPasswordResetEmail delivers the password-reset message.
	SendPasswordResetEmail(ctx context.Context, recipient, token string) error
}
