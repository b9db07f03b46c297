package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"daicho/internal/classify"
	"daicho/internal/domain"
	"daicho/internal/layout"
	"daicho/internal/normalize"
	"daicho/internal/service"
)

// MockPipelineService is a mock implementation of service.PipelineService.
type MockPipelineService struct {
	mock.Mock
}

func (m *MockPipelineService) Analyze(ctx context.Context, input *service.RunPipelineInput) (*service.PipelineResult, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.PipelineResult), args.Error(1)
}

func (m *MockPipelineService) Execute(ctx context.Context, input *service.RunPipelineInput) (*service.PipelineResult, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.PipelineResult), args.Error(1)
}

func (m *MockPipelineService) ClassifyRecords(ctx context.Context, masterName string, records []domain.RawRecord) ([]domain.ClassifiedRecord, classify.Summary, error) {
	args := m.Called(ctx, masterName, records)
	if args.Get(0) == nil {
		return nil, args.Get(1).(classify.Summary), args.Error(2)
	}
	return args.Get(0).([]domain.ClassifiedRecord), args.Get(1).(classify.Summary), args.Error(2)
}

func (m *MockPipelineService) NormalizeRecords(records []domain.ClassifiedRecord, opts normalize.Options) normalize.Result {
	args := m.Called(records, opts)
	return args.Get(0).(normalize.Result)
}

func (m *MockPipelineService) PlanLayout(records []domain.ClassifiedRecord, photosPerPage int) (*layout.PlacementPlan, error) {
	args := m.Called(records, photosPerPage)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*layout.PlacementPlan), args.Error(1)
}
