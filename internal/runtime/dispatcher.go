package runtime

import (
	"errors"
	"time"

	"github.com/aretw0/few/pkg/domain"
	"github.com/aretw0/few/pkg/path"
	"github.com/aretw0/few/pkg/store"
)

// Handler applies a patch on behalf of the dispatcher.
type Handler func(*domain.Patch) error

// DispatchFunc routes an action to its handler.
type DispatchFunc func(domain.Action) error

// ErrNoDataHandler is returned when a patch is dispatched without a "data" handler.
var ErrNoDataHandler = errors.New("no data handler registered")

// Compose builds a dispatcher over handlers. Actions carrying a non-empty patch go to the
// "data" handler; empty actions are ignored.
func Compose(handlers map[string]Handler) DispatchFunc {
	return func(a domain.Action) error {
		if a.Value.Len() == 0 {
			return nil
		}
		h, ok := handlers["data"]
		if !ok {
			return ErrNoDataHandler
		}
		return h(a.Value)
	}
}

// DataHandler writes patches into s. Every reference must be a path under the "data" scope.
// refresh is called once per patch if at least one entry changed the store, including when a
// later entry failed: entries applied before a failure stay applied.
func DataHandler(s domain.Store, refresh func()) Handler {
	return func(p *domain.Patch) error {
		changed := false
		err := p.Each(func(ref string, value any) error {
			r := path.Parse(ref)
			if err := checkRef(ref, r); err != nil {
				return err
			}
			ok, err := store.Set(s, r.Path, value)
			if ok {
				changed = true
			}
			return err
		})
		if changed && refresh != nil {
			refresh()
		}
		return err
	}
}

func checkRef(ref string, r domain.PathRef) error {
	if err := path.Validate(r); err != nil {
		return err
	}
	if !r.HasPath {
		return &domain.PathResolutionError{Path: ref, Reason: "missing path below scope"}
	}
	if r.Scope != "data" {
		return &domain.PathResolutionError{Path: ref, Reason: "unknown scope '" + r.Scope + "'"}
	}
	return nil
}

// dataHandler is DataHandler bound to c with dispatch hooks, logging and engine refresh.
func (e *Engine) dataHandler(c *domain.Component) Handler {
	return func(p *domain.Patch) error {
		changed := false
		err := DataHandler(c.Data, func() {
			changed = true
			e.Refresh(c)
		})(p)

		if e.hooks.OnDispatch != nil {
			e.hooks.OnDispatch(&domain.DispatchEvent{
				EventBase: domain.EventBase{Timestamp: time.Now(), Type: domain.EventDispatch, ComponentID: c.ID},
				Paths:     p.Keys(),
				Changed:   changed,
				IsError:   err != nil,
			})
		}
		if err != nil {
			e.logger.Warn("patch rejected", "component", c.Name, "patch", p.String(), "err", err)
			return err
		}
		e.logger.Debug("patch applied", "component", c.Name, "patch", p.String())
		return nil
	}
}
