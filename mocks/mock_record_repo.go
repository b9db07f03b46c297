package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"daicho/internal/domain"
)

// MockRecordRepo is a mock implementation of port.RecordRepository.
type MockRecordRepo struct {
	mock.Mock
}

func (m *MockRecordRepo) CreateBatch(ctx context.Context, entries []domain.RecordEntry) error {
	args := m.Called(ctx, entries)
	return args.Error(0)
}

func (m *MockRecordRepo) ListByRun(ctx context.Context, runID uuid.UUID) ([]domain.RecordEntry, error) {
	args := m.Called(ctx, runID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.RecordEntry), args.Error(1)
}

func (m *MockRecordRepo) UpdateClassification(ctx context.Context, entry *domain.RecordEntry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}
