package provider

import (
	"fmt"

	"billx/internal/config"
	"billx/internal/domain"
	"billx/internal/port"
)

// Factory is a function that creates a Completer from a provider config.
type Factory func(cfg *config.ProviderConfig) (port.Completer, error)

// registry of provider factories, populated by init() in each provider package
// or explicitly via Register.
var registry = map[string]Factory{}

// Register registers a provider factory by name.
func Register(name string, factory Factory) {
	registry[name] = factory
}

// New creates a Completer from a provider config using the registered factory.
// Providers without an API key are unusable and rejected here.
func New(cfg *config.ProviderConfig) (port.Completer, error) {
	factory, ok := registry[cfg.Provider]
	if !ok {
		return nil, fmt.Errorf("unknown llm provider: %s", cfg.Provider)
	}
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("provider %s: missing api key: %w", cfg.Provider, domain.ErrNoProviderConfigured)
	}
	return factory(cfg)
}

// NewChain builds the process-wide completer from the configured provider
// slots. Slots without credentials are skipped; when more than one provider
// survives, the result is a fallback chain in priority order. Construction
// fails fast when no slot has usable credentials.
func NewChain(cfg *config.ExtractorConfig) (port.Completer, error) {
	var completers []port.Completer
	var names []string

	for _, pc := range cfg.Providers() {
		if pc.APIKey == "" {
			continue
		}
		c, err := New(pc)
		if err != nil {
			return nil, err
		}
		completers = append(completers, c)
		names = append(names, pc.Provider)
	}

	switch len(completers) {
	case 0:
		return nil, domain.ErrNoProviderConfigured
	case 1:
		return completers[0], nil
	default:
		return NewFallbackCompleter(completers, names), nil
	}
}
