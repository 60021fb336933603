package provider

import (
	"sync"

	"github.com/bizgrow/backend/internal/domain/linking"
)

// Registry resolves provider adapters by platform code.
type Registry struct {
	mu        sync.RWMutex
	providers map[linking.PlatformCode]linking.Provider
}

// NewRegistry creates an empty provider registry
func NewRegistry() *Registry {
	return &Registry{
		providers: make(map[linking.PlatformCode]linking.Provider),
	}
}

// Register adds a provider, replacing any previous one for the platform
func (r *Registry) Register(p linking.Provider) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.providers[p.Platform()] = p
}

// Get returns the provider for the platform
func (r *Registry) Get(platform linking.PlatformCode) (linking.Provider, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.providers[platform]
	if !ok {
		return nil, linking.ErrInvalidPlatform
	}
	return p, nil
}

// Platforms lists the platform codes with a registered adapter
func (r *Registry) Platforms() []linking.PlatformCode {
	r.mu.RLock()
	defer r.mu.RUnlock()

	codes := make([]linking.PlatformCode, 0, len(r.providers))
	for code := range r.providers {
		codes = append(codes, code)
	}
	return codes
}

// Ensure Registry implements the domain registry port
var _ linking.ProviderRegistry = (*Registry)(nil)
