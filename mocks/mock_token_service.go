package mocks

import (
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"daicho/internal/domain"
	"daicho/internal/service"
)

// MockTokenService is a mock implementation of service.TokenService.
type MockTokenService struct {
	mock.Mock
}

func (m *MockTokenService) IssueArtifactToken(artifact *domain.Artifact) (string, time.Time, error) {
	args := m.Called(artifact)
	return args.String(0), args.Get(1).(time.Time), args.Error(2)
}

func (m *MockTokenService) ValidateArtifactToken(tokenString string, artifactID uuid.UUID) (*service.ArtifactClaims, error) {
	args := m.Called(tokenString, artifactID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.ArtifactClaims), args.Error(1)
}
