package recognize

import (
	"fmt"

	"daicho/internal/config"
	"daicho/internal/port"
)

// ProviderFactory is a function that creates a PhotoRecognizer from a provider config.
type ProviderFactory func(cfg *config.RecognizerProviderConfig) (port.PhotoRecognizer, error)

// registry of recognition provider factories, populated by init() in each
// provider package or explicitly via RegisterProvider.
var providers = map[string]ProviderFactory{}

// RegisterProvider registers a recognition provider factory by name.
func RegisterProvider(name string, factory ProviderFactory) {
	providers[name] = factory
}

// NewRecognizer creates a PhotoRecognizer from a provider config using the registered factory.
func NewRecognizer(cfg *config.RecognizerProviderConfig) (port.PhotoRecognizer, error) {
	factory, ok := providers[cfg.Provider]
	if !ok {
		return nil, fmt.Errorf("unknown recognition provider: %s", cfg.Provider)
	}
	return factory(cfg)
}

// FromConfig builds the recognizer chain the config describes: the
// primary provider, falling back to the secondary when one is set.
func FromConfig(cfg *config.RecognizerConfig) (port.PhotoRecognizer, error) {
	primary, err := NewRecognizer(&cfg.Primary)
	if err != nil {
		return nil, err
	}
	recognizers := []port.PhotoRecognizer{primary}
	names := []string{cfg.Primary.Provider}

	if sec := cfg.SecondaryConfig(); sec != nil {
		secondary, err := NewRecognizer(sec)
		if err != nil {
			return nil, err
		}
		recognizers = append(recognizers, secondary)
		names = append(names, sec.Provider)
	}

	return NewFallbackRecognizer(recognizers, names), nil
}
