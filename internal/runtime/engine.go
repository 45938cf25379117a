package runtime

import (
	"io"
	"log/slog"

	"github.com/google/uuid"

	"github.com/aretw0/few/pkg/domain"
	"github.com/aretw0/few/pkg/ports"
)

// Engine instantiates component definitions into live components.
// It holds no per-instance state: every component carries its own store and closures.
type Engine struct {
	logger    *slog.Logger
	hooks     domain.LifecycleHooks
	refresher ports.Refresher
	newID     func() string
}

// EngineOption defines a functional option for configuring the Engine.
type EngineOption func(*Engine)

// WithLogger sets a custom structured logger.
func WithLogger(logger *slog.Logger) EngineOption {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) EngineOption {
	return func(e *Engine) {
		e.hooks = hooks
	}
}

// WithRefresher sets the collaborator notified when a component's store changes.
func WithRefresher(r ports.Refresher) EngineOption {
	return func(e *Engine) {
		e.refresher = r
	}
}

// WithIDGenerator replaces the instance ID generator (random UUIDs by default).
func WithIDGenerator(fn func() string) EngineOption {
	return func(e *Engine) {
		if fn != nil {
			e.newID = fn
		}
	}
}

// NewEngine creates a new engine.
func NewEngine(opts ...EngineOption) *Engine {
	e := &Engine{
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		newID:  uuid.NewString,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Instantiate creates a live component from def.
//
// The store comes from def.Data (an empty store when it is nil or returns nil), every action
// is bound to the instance, and a dispatcher writing into the store is attached. The view is
// passed through untouched. props are copied shallowly.
func (e *Engine) Instantiate(def domain.ComponentDefinition, props map[string]any) (*domain.Component, error) {
	if err := ValidateDefinition(def); err != nil {
		return nil, err
	}

	c := &domain.Component{
		ID:      e.newID(),
		Name:    def.Name,
		Props:   make(map[string]any, len(props)),
		Actions: make(map[string]func() error, len(def.Actions)),
		View:    def.View,
	}
	for k, v := range props {
		c.Props[k] = v
	}
	if def.Data != nil {
		c.Data = def.Data()
	}
	if c.Data == nil {
		c.Data = domain.NewStore()
	}

	dispatch := Compose(map[string]Handler{
		"data": e.dataHandler(c),
	})
	c.Dispatch = func(a domain.Action) error { return dispatch(a) }

	for name, actionDef := range def.Actions {
		c.Actions[name] = e.instrument(name, actionDef.Kind, c, CreateAction(name, actionDef, c))
	}

	e.logger.Debug("component instantiated", "component", c.Name, "id", c.ID, "actions", len(c.Actions))
	return c, nil
}

// Restore instantiates def and replaces the fresh store contents with data.
// It is used to resume a persisted instance.
func (e *Engine) Restore(def domain.ComponentDefinition, props map[string]any, id string, data domain.Store) (*domain.Component, error) {
	c, err := e.Instantiate(def, props)
	if err != nil {
		return nil, err
	}
	if id != "" {
		c.ID = id
	}
	for k := range c.Data {
		delete(c.Data, k)
	}
	for k, v := range data {
		c.Data[k] = v
	}
	return c, nil
}

// Refresh notifies the hooks and the refresher that c changed.
func (e *Engine) Refresh(c *domain.Component) {
	if e.hooks.OnRefresh != nil {
		e.hooks.OnRefresh(c)
	}
	if e.refresher != nil {
		e.refresher.Refresh(c)
	}
}
