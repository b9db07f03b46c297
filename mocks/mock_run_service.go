package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"daicho/internal/domain"
	"daicho/internal/service"
)

// MockRunService is a mock implementation of service.RunService.
type MockRunService struct {
	mock.Mock
}

func (m *MockRunService) Create(ctx context.Context, input *service.CreateRunInput) (*domain.Run, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Run), args.Error(1)
}

func (m *MockRunService) GetByID(ctx context.Context, id uuid.UUID) (*domain.Run, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Run), args.Error(1)
}

func (m *MockRunService) List(ctx context.Context, offset, limit int) ([]domain.Run, int, error) {
	args := m.Called(ctx, offset, limit)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).([]domain.Run), args.Int(1), args.Error(2)
}

func (m *MockRunService) ListRecords(ctx context.Context, runID uuid.UUID) ([]domain.RecordEntry, error) {
	args := m.Called(ctx, runID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.RecordEntry), args.Error(1)
}

func (m *MockRunService) ListCorrections(ctx context.Context, runID uuid.UUID) ([]domain.Correction, error) {
	args := m.Called(ctx, runID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Correction), args.Error(1)
}

func (m *MockRunService) ExportRecordsCSV(ctx context.Context, runID uuid.UUID) ([]byte, string, error) {
	args := m.Called(ctx, runID)
	if args.Get(0) == nil {
		return nil, args.String(1), args.Error(2)
	}
	return args.Get(0).([]byte), args.String(1), args.Error(2)
}

func (m *MockRunService) ArtifactDownloads(run *domain.Run) ([]service.ArtifactDownload, error) {
	args := m.Called(run)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]service.ArtifactDownload), args.Error(1)
}
