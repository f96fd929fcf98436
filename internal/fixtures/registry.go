package fixtures

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"ohlcKit/internal/frame"
)

var (
	ErrFixtureNotFound  = errors.New("fixture not found")
	ErrDuplicateFixture = errors.New("fixture already registered")
)

// Provider builds a fresh frame on every call.
type Provider func() *frame.Frame

// Registry maps fixture names to providers. It is safe for concurrent use.
type Registry struct {
	mu        sync.RWMutex
	providers map[string]Provider
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{providers: make(map[string]Provider)}
}

// Register adds a provider under name.
func (r *Registry) Register(name string, p Provider) error {
	if name == "" {
		return errors.New("fixture name is required")
	}
	if p == nil {
		return fmt.Errorf("fixture %q: provider is nil", name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.providers[name]; ok {
		return fmt.Errorf("%w: %q", ErrDuplicateFixture, name)
	}
	r.providers[name] = p
	return nil
}

// RegisterAll adds every provider or none: a name that is empty, nil or
// already taken rejects the whole set.
func (r *Registry) RegisterAll(providers map[string]Provider) error {
	for name, p := range providers {
		if name == "" {
			return errors.New("fixture name is required")
		}
		if p == nil {
			return fmt.Errorf("fixture %q: provider is nil", name)
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	var taken []string
	for name := range providers {
		if _, ok := r.providers[name]; ok {
			taken = append(taken, name)
		}
	}
	if len(taken) > 0 {
		sort.Strings(taken)
		return fmt.Errorf("%w: %q", ErrDuplicateFixture, taken)
	}
	for name, p := range providers {
		r.providers[name] = p
	}
	return nil
}

// Get builds the named fixture.
func (r *Registry) Get(name string) (*frame.Frame, error) {
	r.mu.RLock()
	p, ok := r.providers[name]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrFixtureNotFound, name)
	}
	return p(), nil
}

// MustGet is like Get but panics on unknown names.
func (r *Registry) MustGet(name string) *frame.Frame {
	f, err := r.Get(name)
	if err != nil {
		panic(err)
	}
	return f
}

// Names returns the registered names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.providers))
	for name := range r.providers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

var defaultRegistry = newDefaultRegistry()

func newDefaultRegistry() *Registry {
	r := NewRegistry()
	if err := r.Register(SimpleOHLCName, SimpleOHLC); err != nil {
		panic(err)
	}
	return r
}

// Default returns the process-wide registry holding the built-in fixtures.
func Default() *Registry {
	return defaultRegistry
}

// Get builds the named fixture from the default registry.
func Get(name string) (*frame.Frame, error) {
	return defaultRegistry.Get(name)
}

// Register adds a provider to the default registry.
func Register(name string, p Provider) error {
	return defaultRegistry.Register(name, p)
}
