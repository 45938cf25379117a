package ports

import (
	"context"

	"github.com/aretw0/few/pkg/domain"
)

// ComponentLoader defines how the engine retrieves component definitions.
// This allows the storage layer (Loam, Memory) to be decoupled.
type ComponentLoader interface {
	// GetComponent returns the definition registered under name.
	// Returns domain.ErrComponentNotFound if there is none.
	GetComponent(ctx context.Context, name string) (domain.ComponentDefinition, error)

	// ListComponents returns the names of all available components.
	ListComponents(ctx context.Context) ([]string, error)
}

// Watchable defines an interface for loaders that can notify about backend changes.
type Watchable interface {
	// Watch returns a channel that receives the name of each changed component.
	Watch(ctx context.Context) (<-chan string, error)
}

// ModuleLoader fetches an external dependency (a script, a remote definition) by reference.
// The base URL, if any, is the loader's concern.
type ModuleLoader interface {
	Load(ctx context.Context, dep string) (any, error)
}

// ModuleLoaderFunc adapts a plain function to ModuleLoader.
type ModuleLoaderFunc func(ctx context.Context, dep string) (any, error)

// Load calls f(ctx, dep).
func (f ModuleLoaderFunc) Load(ctx context.Context, dep string) (any, error) { return f(ctx, dep) }
