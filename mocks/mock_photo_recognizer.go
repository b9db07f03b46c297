package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"daicho/internal/port"
)

// MockPhotoRecognizer is a mock implementation of port.PhotoRecognizer.
type MockPhotoRecognizer struct {
	mock.Mock
}

func (m *MockPhotoRecognizer) Recognize(ctx context.Context, photos []port.VisionPhoto, hints port.VisionHints) ([]port.Observation, error) {
	args := m.Called(ctx, photos, hints)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]port.Observation), args.Error(1)
}
