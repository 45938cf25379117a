package few

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/aretw0/few/internal/runtime"
	"github.com/aretw0/few/pkg/config"
	"github.com/aretw0/few/pkg/domain"
	"github.com/aretw0/few/pkg/expr"
	"github.com/aretw0/few/pkg/ports"
)

// Version is the release of the few module.
const Version = "0.3.0"

// Engine is the high-level entry point for the few library.
// It wraps the internal runtime and provides a simplified API for consumers.
type Engine struct {
	runtime      *runtime.Engine
	loader       ports.ComponentLoader
	moduleLoader ports.ModuleLoader
	refresher    ports.Refresher
	hooks        domain.LifecycleHooks
	logger       *slog.Logger
	config       *config.Config
	runtimeOpts  []runtime.EngineOption
}

// Option defines a functional option for configuring the Engine.
type Option func(*Engine)

// WithLifecycleHooks registers observability hooks.
// Calling it more than once merges the hooks in order.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(e *Engine) {
		e.hooks = e.hooks.Merge(hooks)
	}
}

// WithLogger sets a custom structured logger for the engine.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithRefresher sets the rendering collaborator notified after every changed patch.
func WithRefresher(r ports.Refresher) Option {
	return func(e *Engine) {
		e.refresher = r
	}
}

// WithLoader sets the source of named component definitions used by Load.
func WithLoader(l ports.ComponentLoader) Option {
	return func(e *Engine) {
		e.loader = l
	}
}

// WithModuleLoader sets the loader used by LoadModule.
func WithModuleLoader(l ports.ModuleLoader) Option {
	return func(e *Engine) {
		e.moduleLoader = l
	}
}

// WithConfig attaches host configuration. It is informational for the engine itself;
// adapters read it through Config.
func WithConfig(cfg *config.Config) Option {
	return func(e *Engine) {
		e.config = cfg
	}
}

// WithIDGenerator replaces the generator of component instance IDs.
func WithIDGenerator(fn func() string) Option {
	return func(e *Engine) {
		e.runtimeOpts = append(e.runtimeOpts, runtime.WithIDGenerator(fn))
	}
}

// New initializes a new engine.
func New(opts ...Option) *Engine {
	eng := &Engine{}
	for _, opt := range opts {
		opt(eng)
	}

	if eng.logger == nil {
		eng.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if eng.config == nil {
		eng.config = config.Default()
	}

	runtimeOpts := []runtime.EngineOption{
		runtime.WithLifecycleHooks(eng.hooks),
		runtime.WithLogger(eng.logger),
		runtime.WithRefresher(eng.refresher),
	}
	runtimeOpts = append(runtimeOpts, eng.runtimeOpts...)
	eng.runtime = runtime.NewEngine(runtimeOpts...)

	return eng
}

// InstanceOption configures a single instantiation.
type InstanceOption func(*instanceOptions)

type instanceOptions struct {
	props map[string]any
	id    string
	data  domain.Store
}

// WithProps passes caller props to the instance. They are visible to structured action
// inputs both by name and under "props".
func WithProps(props map[string]any) InstanceOption {
	return func(o *instanceOptions) {
		o.props = props
	}
}

// WithInstanceID fixes the instance ID instead of generating one.
func WithInstanceID(id string) InstanceOption {
	return func(o *instanceOptions) {
		o.id = id
	}
}

// WithData replaces the initial store produced by the definition, e.g. to resume a snapshot.
func WithData(data domain.Store) InstanceOption {
	return func(o *instanceOptions) {
		o.data = data
	}
}

// Instantiate creates a live component from def.
func (e *Engine) Instantiate(def domain.ComponentDefinition, opts ...InstanceOption) (*domain.Component, error) {
	var o instanceOptions
	for _, opt := range opts {
		opt(&o)
	}
	if o.data != nil {
		return e.runtime.Restore(def, o.props, o.id, o.data)
	}
	c, err := e.runtime.Instantiate(def, o.props)
	if err != nil {
		return nil, err
	}
	if o.id != "" {
		c.ID = o.id
	}
	return c, nil
}

// InstantiateWithProps is Instantiate with WithProps(props).
func (e *Engine) InstantiateWithProps(def domain.ComponentDefinition, props map[string]any) (*domain.Component, error) {
	return e.Instantiate(def, WithProps(props))
}

// Load resolves name through the configured loader and instantiates it.
func (e *Engine) Load(ctx context.Context, name string, opts ...InstanceOption) (*domain.Component, error) {
	def, err := e.Definition(ctx, name)
	if err != nil {
		return nil, err
	}
	return e.Instantiate(def, opts...)
}

// Definition returns the definition registered under name in the configured loader.
func (e *Engine) Definition(ctx context.Context, name string) (domain.ComponentDefinition, error) {
	if e.loader == nil {
		return domain.ComponentDefinition{}, fmt.Errorf("%w: no component loader configured", domain.ErrComponentNotFound)
	}
	return e.loader.GetComponent(ctx, name)
}

// Components lists the names known to the configured loader.
func (e *Engine) Components(ctx context.Context) ([]string, error) {
	if e.loader == nil {
		return nil, nil
	}
	return e.loader.ListComponents(ctx)
}

// LoadModule fetches an external dependency through the module loader.
// It fails with domain.ErrNoModuleLoader when none is configured.
func (e *Engine) LoadModule(ctx context.Context, dep string) (any, error) {
	if e.moduleLoader == nil {
		return nil, domain.ErrNoModuleLoader
	}
	mod, err := e.moduleLoader.Load(ctx, dep)
	if err != nil {
		return nil, fmt.Errorf("loading module %s: %w", dep, err)
	}
	e.logger.Debug("module loaded", "dep", dep)
	return mod, nil
}

// Refresh signals that c changed, exactly as a changed patch would.
func (e *Engine) Refresh(c *domain.Component) {
	e.runtime.Refresh(c)
}

// Config returns the host configuration attached to the engine.
func (e *Engine) Config() *config.Config {
	return e.config
}

// Loader returns the component loader, or nil.
func (e *Engine) Loader() ports.ComponentLoader {
	return e.loader
}

// Logger returns the engine logger.
func (e *Engine) Logger() *slog.Logger {
	return e.logger
}

// Scope returns the scope expressions see for c: its props, then data, actions, dispatch,
// props and vm.
func Scope(c *domain.Component) map[string]any {
	return runtime.Scope(c)
}

// Eval evaluates expression against the scope of c, with the component data as this.
// Expressions may invoke actions and dispatch, so Eval can change the store.
func Eval(c *domain.Component, expression string) (any, error) {
	return expr.Evaluate(expression, runtime.Scope(c), false, c.Data)
}
