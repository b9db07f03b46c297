package port

import "context"

// EmailSender defines the contract for run notification emails.
type EmailSender interface {
	SendRunCompletedEmail(ctx context.Context, toEmail, runID, downloadURL string) error
	SendRunFailedEmail(ctx context.Context, toEmail, runID, reason string) error
}
