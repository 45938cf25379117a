package ports

import "github.com/aretw0/few/pkg/domain"

// Refresher is notified when a component's store changed and its view should be redrawn.
// The engine only signals; deciding how and when to re-render is up to the implementation.
type Refresher interface {
	Refresh(c *domain.Component)
}

// RefresherFunc adapts a plain function to Refresher.
type RefresherFunc func(c *domain.Component)

// Refresh calls f(c).
func (f RefresherFunc) Refresh(c *domain.Component) { f(c) }
