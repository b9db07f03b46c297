package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"
)

// MockEmailSender is a mock implementation of port.EmailSender.
type MockEmailSender struct {
	mock.Mock
}

func (m *MockEmailSender) SendRunCompletedEmail(ctx context.Context, toEmail, runID, downloadURL string) error {
	args := m.Called(ctx, toEmail, runID, downloadURL)
	return args.Error(0)
}

func (m *MockEmailSender) SendRunFailedEmail(ctx context.Context, toEmail, runID, reason string) error {
	args := m.Called(ctx, toEmail, runID, reason)
	return args.Error(0)
}
