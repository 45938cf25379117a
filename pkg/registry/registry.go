package registry

import (
	"fmt"
	"sort"
	"sync"

	"github.com/aretw0/few/pkg/domain"
)

// Registry manages named action functions so declarative definitions can refer to them.
type Registry struct {
	mu  sync.RWMutex
	fns map[string]domain.ActionFunc
}

// NewRegistry creates a new empty registry.
func NewRegistry() *Registry {
	return &Registry{
		fns: make(map[string]domain.ActionFunc),
	}
}

// Register adds a function to the registry.
// If a function with the same name exists, it is overwritten.
func (r *Registry) Register(name string, fn domain.ActionFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.fns[name] = fn
}

// Get looks up a function by name.
// Returns an error if the function is not found.
func (r *Registry) Get(name string) (domain.ActionFunc, error) {
	r.mu.RLock()
	fn, ok := r.fns[name]
	r.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("function not found: %s", name)
	}
	return fn, nil
}

// Execute looks up a function by name and calls it.
func (r *Registry) Execute(name string, this any, args ...any) (any, error) {
	fn, err := r.Get(name)
	if err != nil {
		return nil, err
	}
	return fn(this, args...)
}

// Names returns the registered names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.fns))
	for name := range r.fns {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
