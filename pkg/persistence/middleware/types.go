// Package middleware decorates a ports.StateStore with cross-cutting behavior such as
// encryption at rest and masking of sensitive store keys.
package middleware

import "github.com/aretw0/few/pkg/ports"

// Middleware allows wrapping a StateStore to add behavior.
type Middleware func(ports.StateStore) ports.StateStore

// Chain applies mws to store so that the first middleware is the outermost one.
func Chain(store ports.StateStore, mws ...Middleware) ports.StateStore {
	for i := len(mws) - 1; i >= 0; i-- {
		store = mws[i](store)
	}
	return store
}
