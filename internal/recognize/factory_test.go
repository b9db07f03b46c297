package recognize_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"daicho/internal/config"
	"daicho/internal/port"
	"daicho/internal/recognize"
)

func TestFactory_RegisterAndCreate(t *testing.T) {
	recognize.RegisterProvider("test-provider", func(cfg *config.RecognizerProviderConfig) (port.PhotoRecognizer, error) {
		return &stubRecognizer{model: cfg.DefaultModel}, nil
	})

	r, err := recognize.NewRecognizer(&config.RecognizerProviderConfig{
		Provider:     "test-provider",
		DefaultModel: "test-model",
	})

	assert.NoError(t, err)
	assert.NotNil(t, r)
}

func TestFactory_UnknownProvider(t *testing.T) {
	r, err := recognize.NewRecognizer(&config.RecognizerProviderConfig{
		Provider: "nonexistent-provider-xyz",
	})

	assert.Nil(t, r)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "unknown recognition provider")
}

func TestFromConfig_PrimaryOnly(t *testing.T) {
	recognize.RegisterProvider("stub-primary", func(cfg *config.RecognizerProviderConfig) (port.PhotoRecognizer, error) {
		return &stubRecognizer{model: "primary"}, nil
	})

	chain, err := recognize.FromConfig(&config.RecognizerConfig{
		Primary: config.RecognizerProviderConfig{Provider: "stub-primary"},
	})

	require.NoError(t, err)
	require.NotNil(t, chain)

	obs, err := chain.Recognize(context.Background(), visionBatch(), port.VisionHints{})
	require.NoError(t, err)
	assert.Equal(t, "primary", obs[0].DetectedText)
}

func TestFromConfig_WithSecondary(t *testing.T) {
	recognize.RegisterProvider("stub-broken", func(cfg *config.RecognizerProviderConfig) (port.PhotoRecognizer, error) {
		return &failingRecognizer{}, nil
	})
	recognize.RegisterProvider("stub-backup", func(cfg *config.RecognizerProviderConfig) (port.PhotoRecognizer, error) {
		return &stubRecognizer{model: "backup"}, nil
	})

	chain, err := recognize.FromConfig(&config.RecognizerConfig{
		Primary:   config.RecognizerProviderConfig{Provider: "stub-broken"},
		Secondary: config.RecognizerProviderConfig{Provider: "stub-backup"},
	})

	require.NoError(t, err)

	obs, err := chain.Recognize(context.Background(), visionBatch(), port.VisionHints{})
	require.NoError(t, err)
	assert.Equal(t, "backup", obs[0].DetectedText)
}

func TestFromConfig_UnknownPrimary(t *testing.T) {
	chain, err := recognize.FromConfig(&config.RecognizerConfig{
		Primary: config.RecognizerProviderConfig{Provider: "nonexistent-provider-xyz"},
	})

	assert.Nil(t, chain)
	assert.Error(t, err)
}

// stubRecognizer is a minimal PhotoRecognizer for testing the factory.
type stubRecognizer struct {
	model string
}

func (s *stubRecognizer) Recognize(_ context.Context, photos []port.VisionPhoto, _ port.VisionHints) ([]port.Observation, error) {
	obs := make([]port.Observation, 0, len(photos))
	for _, p := range photos {
		obs = append(obs, port.Observation{FileName: p.FileName, DetectedText: s.model})
	}
	return obs, nil
}

type failingRecognizer struct{}

func (f *failingRecognizer) Recognize(_ context.Context, _ []port.VisionPhoto, _ port.VisionHints) ([]port.Observation, error) {
	return nil, assert.AnError
}
