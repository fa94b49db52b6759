package provider

import (
	"context"
	"sync"

	"github.com/arabella/vidforge/internal/apierr"
	"github.com/arabella/vidforge/internal/domain/service"
	"go.uber.org/zap"
)

// Registry holds the set of registered provider adapters, keyed by
// provider id, and picks among them on request.
type Registry struct {
	mu        sync.RWMutex
	providers map[string]service.VideoProvider
	logger    *zap.Logger
}

// NewRegistry creates an empty provider registry.
func NewRegistry(logger *zap.Logger) *Registry {
	return &Registry{
		providers: make(map[string]service.VideoProvider),
		logger:    logger,
	}
}

// Register installs provider under its own Name().
func (r *Registry) Register(p service.VideoProvider) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.providers[p.Name()] = p
	r.logger.Info("registered provider adapter", zap.String("provider", p.Name()))
}

// Get returns the adapter registered under name.
func (r *Registry) Get(name string) (service.VideoProvider, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.providers[name]
	return p, ok
}

// All returns every registered adapter.
func (r *Registry) All() []service.VideoProvider {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]service.VideoProvider, 0, len(r.providers))
	for _, p := range r.providers {
		out = append(out, p)
	}
	return out
}

// SelectHealthy returns the named provider if it is registered and
// healthy. If preferred is empty, or unhealthy and a fallback exists,
// it falls back to the first healthy registered provider.
func (r *Registry) SelectHealthy(ctx context.Context, preferred string) (service.VideoProvider, error) {
	if preferred != "" {
		if p, ok := r.Get(preferred); ok {
			health, err := p.Health(ctx)
			if err == nil && health != nil && health.Healthy {
				return p, nil
			}
			r.logger.Warn("preferred provider unhealthy, falling back",
				zap.String("provider", preferred))
		}
	}

	for _, p := range r.All() {
		health, err := p.Health(ctx)
		if err == nil && health != nil && health.Healthy {
			return p, nil
		}
	}

	return nil, apierr.ErrProviderUnavailable
}
