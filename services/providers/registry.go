package providers

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
)

var (
	// ErrProviderNotFound is returned when no builder is registered for a selector
	ErrProviderNotFound = errors.New("provider not found")

	// ErrProviderAlreadyRegistered is returned when trying to register a duplicate selector
	ErrProviderAlreadyRegistered = errors.New("provider already registered")
)

// Builder constructs a backend from its configuration
type Builder func(config Config) (Provider, error)

// Registry maps provider selectors (and their aliases) to builders
type Registry struct {
	mu       sync.RWMutex
	builders map[string]Builder
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{
		builders: make(map[string]Builder),
	}
}

// Register adds a builder under name and every alias
func (r *Registry) Register(name string, builder Builder, aliases ...string) error {
	if builder == nil {
		return errors.New("builder cannot be nil")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	keys := append([]string{name}, aliases...)
	for _, key := range keys {
		key = normalize(key)
		if key == "" {
			return errors.New("provider name cannot be empty")
		}
		if _, exists := r.builders[key]; exists {
			return fmt.Errorf("%w: %s", ErrProviderAlreadyRegistered, key)
		}
	}
	for _, key := range keys {
		r.builders[normalize(key)] = builder
	}
	return nil
}

// MustRegister is Register for static wiring; it panics on error
func (r *Registry) MustRegister(name string, builder Builder, aliases ...string) *Registry {
	if err := r.Register(name, builder, aliases...); err != nil {
		panic(err)
	}
	return r
}

// Build constructs the backend registered under selector
func (r *Registry) Build(selector string, config Config) (Provider, error) {
	r.mu.RLock()
	builder, exists := r.builders[normalize(selector)]
	r.mu.RUnlock()

	if !exists {
		return nil, fmt.Errorf("%w: %s (available: %s)", ErrProviderNotFound, selector, strings.Join(r.Names(), ", "))
	}

	provider, err := builder(config)
	if err != nil {
		return nil, fmt.Errorf("failed to build provider %s: %w", selector, err)
	}
	return provider, nil
}

// Names returns every registered selector, sorted
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.builders))
	for name := range r.builders {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func normalize(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
