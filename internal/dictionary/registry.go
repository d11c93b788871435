package dictionary

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
)

// ErrUnknownProvider is returned when no provider is registered under an id
var ErrUnknownProvider = errors.New("unknown dictionary provider")

// ProviderInfo is the public description of a registered provider
type ProviderInfo struct {
	ID   string `json:"id" yaml:"id"`
	Name string `json:"name" yaml:"name"`
}

// Registry maps provider ids to providers. It is safe for concurrent use.
type Registry struct {
	mu        sync.RWMutex
	providers map[string]Provider
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{
		providers: make(map[string]Provider),
	}
}

// Register adds p, replacing any provider previously registered under the same id
func (r *Registry) Register(p Provider) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.providers[normalizeID(p.ID())] = p
}

// Provider returns the provider registered under id
func (r *Registry) Provider(id string) (Provider, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.providers[normalizeID(id)]
	return p, ok
}

// Providers lists the registered providers sorted by id
func (r *Registry) Providers() []ProviderInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()

	infos := make([]ProviderInfo, 0, len(r.providers))
	for _, p := range r.providers {
		infos = append(infos, ProviderInfo{
			ID:   p.ID(),
			Name: p.Name(),
		})
	}
	sort.Slice(infos, func(i, j int) bool {
		return infos[i].ID < infos[j].ID
	})
	return infos
}

// Lookup resolves the provider by id and delegates the lookup to it
func (r *Registry) Lookup(ctx context.Context, word, id string) (*Entry, error) {
	p, ok := r.Provider(id)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownProvider, id)
	}
	return p.Lookup(ctx, word)
}

func normalizeID(id string) string {
	return strings.ToLower(strings.TrimSpace(id))
}
