package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"daicho/internal/domain"
	"daicho/internal/hierarchy"
	"daicho/internal/service"
	"daicho/internal/validator"
)

// MockMasterService is a mock implementation of service.MasterService.
type MockMasterService struct {
	mock.Mock
}

func (m *MockMasterService) List(ctx context.Context) ([]service.MasterInfo, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]service.MasterInfo), args.Error(1)
}

func (m *MockMasterService) Resolve(ctx context.Context, name string) (*hierarchy.Master, error) {
	args := m.Called(ctx, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*hierarchy.Master), args.Error(1)
}

func (m *MockMasterService) Validate(content []byte, format domain.MasterFormat) *validator.Report {
	args := m.Called(content, format)
	return args.Get(0).(*validator.Report)
}

func (m *MockMasterService) Upload(ctx context.Context, input *service.UploadMasterInput) (*domain.Master, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Master), args.Error(1)
}

func (m *MockMasterService) SetActive(ctx context.Context, name string) error {
	args := m.Called(ctx, name)
	return args.Error(0)
}
