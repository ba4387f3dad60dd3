package adapter

import (
	"fmt"
	"sort"
	"sync"

	"github.com/kbukum/walletkit/wallet"
)

// Registry holds adapter factories by type and live adapters by kind.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
	adapters  map[wallet.Kind]Adapter
}

// NewRegistry creates a new empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		factories: make(map[string]Factory),
		adapters:  make(map[wallet.Kind]Adapter),
	}
}

// RegisterFactory registers a named factory for creating adapters.
func (r *Registry) RegisterFactory(typ string, factory Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[typ] = factory
}

// Build creates an adapter of type typ serving kind and registers it.
func (r *Registry) Build(typ string, kind wallet.Kind, cfg map[string]any) (Adapter, error) {
	r.mu.RLock()
	factory, ok := r.factories[typ]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("adapter factory %q not registered", typ)
	}
	a, err := factory(kind, cfg)
	if err != nil {
		return nil, fmt.Errorf("build %s adapter for %q: %w", typ, kind, err)
	}
	if err := r.Register(a); err != nil {
		return nil, err
	}
	return a, nil
}

// Register adds a ready adapter. Each kind may be registered once.
func (r *Registry) Register(a Adapter) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	kind := a.Kind()
	if kind == "" {
		return fmt.Errorf("adapter has no kind")
	}
	if _, exists := r.adapters[kind]; exists {
		return fmt.Errorf("adapter for kind %q already registered", kind)
	}
	r.adapters[kind] = a
	return nil
}

// Get returns the adapter serving kind.
func (r *Registry) Get(kind wallet.Kind) (Adapter, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.adapters[kind]
	return a, ok
}

// Kinds returns the registered kinds, sorted.
func (r *Registry) Kinds() []wallet.Kind {
	r.mu.RLock()
	defer r.mu.RUnlock()
	kinds := make([]wallet.Kind, 0, len(r.adapters))
	for k := range r.adapters {
		kinds = append(kinds, k)
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })
	return kinds
}

// Types returns sorted names of all registered factories.
func (r *Registry) Types() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
