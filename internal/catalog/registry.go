package catalog

import (
	"sort"
	"sync"

	"github.com/arabella/vidforge/internal/apierr"
)

// Registry is the process-wide Model Registry. It is constructed once
// at boot with an initial model set and never held as a package-level
// global; callers receive it through dependency injection.
type Registry struct {
	mu          sync.RWMutex
	models      map[string]*Model
	defaultID   string
}

// NewRegistry builds a registry from an initial model set and a
// documented default model id. It panics if models is empty or
// defaultID does not resolve — an empty catalog is a boot-time
// configuration error, not a runtime condition to recover from.
func NewRegistry(models []Model, defaultID string) *Registry {
	if len(models) == 0 {
		panic("catalog: registry initialized with no models")
	}
	r := &Registry{models: make(map[string]*Model, len(models))}
	for i := range models {
		m := models[i]
		r.models[m.ID] = &m
	}
	if _, ok := r.models[defaultID]; !ok {
		panic("catalog: default model id not present in initial model set")
	}
	r.defaultID = defaultID
	return r
}

// All returns every registered model, sorted by id for stable output.
func (r *Registry) All() []Model {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Model, 0, len(r.models))
	for _, m := range r.models {
		out = append(out, *m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// ByProvider returns all models belonging to the named provider.
func (r *Registry) ByProvider(provider string) []Model {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []Model
	for _, m := range r.models {
		if m.Provider == provider {
			out = append(out, *m)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Get resolves a model by id.
func (r *Registry) Get(id string) (*Model, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	m, ok := r.models[id]
	if !ok {
		return nil, apierr.ErrModelNotFound
	}
	cp := *m
	return &cp, nil
}

// Default returns the registry's documented preferred model, falling
// back through any other available model if the preferred one has
// been marked unavailable at runtime.
func (r *Registry) Default() (*Model, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if m, ok := r.models[r.defaultID]; ok && m.IsAvailable {
		cp := *m
		return &cp, nil
	}
	for _, m := range r.models {
		if m.IsAvailable {
			cp := *m
			return &cp, nil
		}
	}
	panic("catalog: no available model in registry")
}

// RecommendCriteria narrows the candidate set for Recommend.
type RecommendCriteria struct {
	MaxDuration *int
	NeedsAudio  bool
	Budget      *float64
	Quality     string
}

// Recommend filters models by criteria, then sorts by cost: ascending
// when a Budget ceiling is given (cheapest first, still satisfying
// MaxDuration if set), descending otherwise (best quality first).
func (r *Registry) Recommend(c RecommendCriteria) (*Model, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var candidates []*Model
	for _, m := range r.models {
		if !m.IsAvailable {
			continue
		}
		if c.MaxDuration != nil && m.Capabilities.MaxDurationSec < *c.MaxDuration {
			continue
		}
		if c.NeedsAudio && !m.Capabilities.SupportsAudio {
			continue
		}
		if c.Budget != nil && m.Pricing.CostPerSecond > *c.Budget {
			continue
		}
		candidates = append(candidates, m)
	}

	if len(candidates) == 0 {
		return nil, apierr.ErrModelNotFound
	}

	sort.Slice(candidates, func(i, j int) bool {
		if c.Budget != nil {
			return candidates[i].Pricing.CostPerSecond < candidates[j].Pricing.CostPerSecond
		}
		return candidates[i].Pricing.CostPerSecond > candidates[j].Pricing.CostPerSecond
	})

	cp := *candidates[0]
	return &cp, nil
}

// IsAvailable reports a model's current runtime availability.
func (r *Registry) IsAvailable(id string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	m, ok := r.models[id]
	return ok && m.IsAvailable
}

// Register installs or replaces a model definition at runtime.
func (r *Registry) Register(m Model) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.models[m.ID] = &m
}

// SetAvailable flips a model's runtime availability flag.
func (r *Registry) SetAvailable(id string, available bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.models[id]
	if !ok {
		return apierr.ErrModelNotFound
	}
	m.IsAvailable = available
	return nil
}
