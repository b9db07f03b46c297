package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"daicho/internal/domain"
)

// MockCorrectionRepo is a mock implementation of port.CorrectionRepository.
type MockCorrectionRepo struct {
	mock.Mock
}

func (m *MockCorrectionRepo) CreateBatch(ctx context.Context, corrections []domain.Correction) error {
	args := m.Called(ctx, corrections)
	return args.Error(0)
}

func (m *MockCorrectionRepo) ListByRun(ctx context.Context, runID uuid.UUID) ([]domain.Correction, error) {
	args := m.Called(ctx, runID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Correction), args.Error(1)
}

func (m *MockCorrectionRepo) DeleteByRun(ctx context.Context, runID uuid.UUID) error {
	args := m.Called(ctx, runID)
	return args.Error(0)
}
