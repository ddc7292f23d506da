package provider

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"sonec/internal/domain"
)

// Factory builds a fresh adapter instance. Adapters resolved from the
// registry live for the scope of one call; nothing else holds them.
type Factory func() Adapter

// Registry maps case-normalized provider names to adapter factories. It is
// constructed once at process start and passed by reference; there is no
// package-level registration.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
}

func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]Factory)}
}

// Register binds a factory to a provider name. Names are case-insensitive.
func (r *Registry) Register(name string, factory Factory) error {
	key := strings.ToLower(strings.TrimSpace(name))
	if key == "" {
		return fmt.Errorf("register provider: empty name: %w", domain.ErrConfiguration)
	}
	if factory == nil {
		return fmt.Errorf("register provider %q: nil factory: %w", name, domain.ErrConfiguration)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.factories[key]; ok {
		return fmt.Errorf("register provider %q: %w", name, domain.ErrRegistrationConflict)
	}
	r.factories[key] = factory
	return nil
}

// Resolve instantiates the adapter registered under name.
func (r *Registry) Resolve(name string) (Adapter, error) {
	key := strings.ToLower(strings.TrimSpace(name))

	r.mu.RLock()
	factory, ok := r.factories[key]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("resolve provider %q: %w", name, domain.ErrUnknownProvider)
	}
	return factory(), nil
}

// Names returns the registered provider names sorted alphabetically.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
