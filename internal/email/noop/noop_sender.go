package noop

import (
	"context"
	"log"

	"daicho/internal/port"
)

type noopSender struct{}

// NewNoopSender creates a no-op EmailSender that logs notifications to stdout.
func NewNoopSender() port.EmailSender {
	return &noopSender{}
}

func (s *noopSender) SendRunCompletedEmail(_ context.Context, toEmail, runID, downloadURL string) error {
	log.Printf("[NOOP EMAIL] Run %s completed, notify %s: %s", runID, toEmail, downloadURL)
	return nil
}

func (s *noopSender) SendRunFailedEmail(_ context.Context, toEmail, runID, reason string) error {
	log.Printf("[NOOP EMAIL] Run %s failed, notify %s: %s", runID, toEmail, reason)
	return nil
}
