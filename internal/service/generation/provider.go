package generation

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"firmdesk/internal/domain/models"
)

// Provider is the uniform contract over the generation backends. A
// provider turns a prompt pair into raw text; it never retries and never
// falls back to another backend. Selection is the caller's decision.
type Provider interface {
	// Name returns the provider id.
	Name() string

	// Generate performs one generation round trip. Transport failures,
	// timeouts and non-2xx responses surface as *domain.GenerationError.
	Generate(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// Registry routes provider ids to adapter instances. Adapters are built
// lazily from their catalog specs and cached for reuse.
type Registry struct {
	specs  map[string]ProviderSpec
	cache  map[string]Provider
	mu     sync.RWMutex
	logger *slog.Logger
}

// NewRegistry creates a registry over the given catalog.
func NewRegistry(specs []ProviderSpec, logger *slog.Logger) *Registry {
	byID := make(map[string]ProviderSpec, len(specs))
	for _, spec := range specs {
		byID[spec.ID] = spec
	}
	return &Registry{
		specs:  byID,
		cache:  make(map[string]Provider),
		logger: logger,
	}
}

// Get returns the adapter for the given provider id, building it on first
// use.
func (r *Registry) Get(providerID string) (Provider, error) {
	if providerID == "" {
		return nil, fmt.Errorf("provider cannot be empty")
	}

	// Fast path: check cache with read lock
	r.mu.RLock()
	if cached, exists := r.cache[providerID]; exists {
		r.mu.RUnlock()
		return cached, nil
	}
	r.mu.RUnlock()

	r.mu.Lock()
	defer r.mu.Unlock()

	// Double-check after acquiring write lock; another goroutine may have
	// built the adapter while we waited.
	if cached, exists := r.cache[providerID]; exists {
		return cached, nil
	}

	spec, ok := r.specs[providerID]
	if !ok {
		return nil, fmt.Errorf("unknown provider '%s'", providerID)
	}

	provider, err := newProvider(spec)
	if err != nil {
		return nil, fmt.Errorf("failed to create provider '%s': %w", providerID, err)
	}

	r.cache[providerID] = provider
	r.logger.Info("provider adapter created", "provider", providerID, "kind", spec.Kind)

	return provider, nil
}

// Has reports whether a provider id exists in the catalog.
func (r *Registry) Has(providerID string) bool {
	_, ok := r.specs[providerID]
	return ok
}

// List describes the catalog for the UI, sorted by id.
func (r *Registry) List() []models.ProviderInfo {
	infos := make([]models.ProviderInfo, 0, len(r.specs))
	for _, spec := range r.specs {
		infos = append(infos, models.ProviderInfo{
			ID:    spec.ID,
			Kind:  string(spec.Kind),
			Model: spec.Model,
		})
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].ID < infos[j].ID })
	return infos
}

// newProvider builds the concrete adapter for a spec.
func newProvider(spec ProviderSpec) (Provider, error) {
	switch spec.Kind {
	case KindChat:
		return NewChatProvider(spec)
	case KindErnie:
		return NewErnieProvider(spec)
	case KindLorem:
		return NewLoremProvider(spec.ID), nil
	default:
		return nil, fmt.Errorf("unknown provider kind '%s'", spec.Kind)
	}
}
