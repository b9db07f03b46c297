package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"daicho/internal/domain"
)

// MockMasterRepo is a mock implementation of port.MasterRepository.
type MockMasterRepo struct {
	mock.Mock
}

func (m *MockMasterRepo) Upsert(ctx context.Context, master *domain.Master) error {
	args := m.Called(ctx, master)
	return args.Error(0)
}

func (m *MockMasterRepo) GetByName(ctx context.Context, name string) (*domain.Master, error) {
	args := m.Called(ctx, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Master), args.Error(1)
}

func (m *MockMasterRepo) GetActive(ctx context.Context) (*domain.Master, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Master), args.Error(1)
}

func (m *MockMasterRepo) List(ctx context.Context) ([]domain.Master, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Master), args.Error(1)
}

func (m *MockMasterRepo) SetActive(ctx context.Context, name string) error {
	args := m.Called(ctx, name)
	return args.Error(0)
}
