package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/aretw0/few/pkg/domain"
	"github.com/aretw0/few/pkg/naming"
)

// Loader implements ports.ComponentLoader over definitions held in memory.
// Names are matched in any of their spellings ("AwButton", "aw-button").
type Loader struct {
	mu   sync.RWMutex
	defs map[string]domain.ComponentDefinition
}

// NewLoader creates a loader holding defs.
func NewLoader(defs ...domain.ComponentDefinition) *Loader {
	l := &Loader{defs: make(map[string]domain.ComponentDefinition, len(defs))}
	for _, d := range defs {
		l.Register(d)
	}
	return l
}

// Register adds or replaces a definition.
func (l *Loader) Register(def domain.ComponentDefinition) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.defs[naming.Canonical(def.Name)] = def
}

// GetComponent returns the definition registered under name.
func (l *Loader) GetComponent(ctx context.Context, name string) (domain.ComponentDefinition, error) {
	l.mu.RLock()
	def, ok := l.defs[naming.Canonical(name)]
	l.mu.RUnlock()
	if !ok {
		return domain.ComponentDefinition{}, fmt.Errorf("%w: %s", domain.ErrComponentNotFound, name)
	}
	return def, nil
}

// ListComponents returns all definition names.
func (l *Loader) ListComponents(ctx context.Context) ([]string, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	names := make([]string, 0, len(l.defs))
	for _, d := range l.defs {
		names = append(names, d.Name)
	}
	sort.Strings(names) // Deterministic order
	return names, nil
}
