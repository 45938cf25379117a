// Package cli wires configuration into a running host: the function registry, the component
// loader, the engine, session persistence and the servers built on top of them.
package cli

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/aretw0/few"
	"github.com/aretw0/few/pkg/adapters/bolt"
	loamadapter "github.com/aretw0/few/pkg/adapters/loam"
	"github.com/aretw0/few/pkg/adapters/memory"
	"github.com/aretw0/few/pkg/adapters/module"
	"github.com/aretw0/few/pkg/adapters/process"
	"github.com/aretw0/few/pkg/adapters/redis"
	"github.com/aretw0/few/pkg/config"
	"github.com/aretw0/few/pkg/observability"
	"github.com/aretw0/few/pkg/persistence/middleware"
	"github.com/aretw0/few/pkg/ports"
	"github.com/aretw0/few/pkg/registry"
	"github.com/aretw0/few/pkg/session"
)

// Host is everything a command needs once configuration has been applied.
type Host struct {
	Config   *config.Config
	Logger   *slog.Logger
	Registry *registry.Registry
	Loader   *loamadapter.Loader
	Engine   *few.Engine
	Sessions *session.Manager
	Metrics  *observability.Metrics
	Gatherer prometheus.Gatherer

	closers []func() error
}

// HostOption adjusts a host before the engine is built.
type HostOption func(*hostOptions)

type hostOptions struct {
	engineOpts []few.Option
}

// WithEngineOptions passes extra options to few.New, e.g. a refresher.
func WithEngineOptions(opts ...few.Option) HostOption {
	return func(o *hostOptions) {
		o.engineOpts = append(o.engineOpts, opts...)
	}
}

// NewHost builds a host from cfg. Close releases the store connections it opens.
func NewHost(cfg *config.Config, logger *slog.Logger, opts ...HostOption) (*Host, error) {
	var o hostOptions
	for _, opt := range opts {
		opt(&o)
	}

	h := &Host{Config: cfg, Logger: logger, Registry: registry.NewDefault()}

	if err := h.bindTools(); err != nil {
		return nil, err
	}

	loader, err := loamadapter.Open(cfg.Components, h.Registry)
	if err != nil {
		return nil, fmt.Errorf("error initializing component loader: %w", err)
	}
	h.Loader = loader

	modules, err := module.FromConfig(cfg)
	if err != nil {
		return nil, err
	}

	reg := prometheus.NewRegistry()
	h.Metrics = observability.NewMetrics(reg)
	h.Gatherer = reg

	engineOpts := []few.Option{
		few.WithConfig(cfg),
		few.WithLogger(logger),
		few.WithLoader(loader),
		few.WithLifecycleHooks(h.Metrics.Hooks().Merge(observability.LogHooks(logger))),
	}
	if modules != nil {
		engineOpts = append(engineOpts, few.WithModuleLoader(modules))
	}
	h.Engine = few.New(append(engineOpts, o.engineOpts...)...)

	store, locker, err := h.openStore()
	if err != nil {
		h.Close()
		return nil, err
	}

	sessionOpts := []session.Option{session.WithLogger(logger)}
	if locker != nil {
		sessionOpts = append(sessionOpts, session.WithLocker(locker), session.WithLockTTL(cfg.Store.LockTTL))
	}
	h.Sessions = session.NewManager(h.Engine, store, sessionOpts...)
	return h, nil
}

// Close releases every resource the host opened.
func (h *Host) Close() error {
	var errs []error
	for i := len(h.closers) - 1; i >= 0; i-- {
		errs = append(errs, h.closers[i]())
	}
	h.closers = nil
	return errors.Join(errs...)
}

// bindTools registers the commands of the tools file as action functions. A relative tools
// path is looked up in the components directory first.
func (h *Host) bindTools() error {
	path := h.Config.Tools
	if path == "" {
		candidate := filepath.Join(h.Config.Components, "tools.yaml")
		if _, err := os.Stat(candidate); err != nil {
			return nil
		}
		path = candidate
	}

	tools, err := process.LoadTools(path)
	if err != nil {
		return err
	}
	runner := process.NewRunner(
		process.WithRegistry(tools),
		process.WithBaseDir(h.Config.Components),
	)
	runner.Bind(h.Registry)
	h.Logger.Debug("tools registered", "path", path, "tools", runner.Names())
	return nil
}

// openStore builds the configured snapshot store, wrapped in the persistence middlewares.
// Redis also provides the distributed session lock.
func (h *Host) openStore() (ports.StateStore, ports.DistributedLocker, error) {
	sc := h.Config.Store

	var (
		store  ports.StateStore
		locker ports.DistributedLocker
	)
	switch sc.Driver {
	case config.DriverRedis:
		rs := redis.New(sc.RedisAddr, sc.RedisPassword, sc.RedisDB, redis.WithPrefix(sc.RedisPrefix), redis.WithTTL(sc.TTL))
		h.closers = append(h.closers, rs.Client().Close)
		store = rs
		locker = redis.NewLocker(rs.Client(), sc.RedisPrefix)
	case config.DriverBolt:
		bs, err := bolt.Open(sc.BoltPath)
		if err != nil {
			return nil, nil, err
		}
		h.closers = append(h.closers, bs.Close)
		store = bs
	default:
		store = memory.NewStore()
	}

	var mws []middleware.Middleware
	if len(sc.MaskKeys) > 0 {
		mws = append(mws, middleware.NewPIIMiddleware(sc.MaskKeys))
	}
	if sc.EncryptionKey != "" {
		enc, err := encryptionConfig(sc)
		if err != nil {
			return nil, nil, err
		}
		mws = append(mws, middleware.NewEncryptionMiddleware(enc))
	}
	return middleware.Chain(store, mws...), locker, nil
}

func encryptionConfig(sc config.StoreConfig) (middleware.EncryptionConfig, error) {
	active, err := middleware.ParseKey(sc.EncryptionKey)
	if err != nil {
		return middleware.EncryptionConfig{}, fmt.Errorf("encryption_key: %w", err)
	}
	cfg := middleware.EncryptionConfig{ActiveKey: active}
	for i, k := range sc.FallbackKeys {
		key, err := middleware.ParseKey(k)
		if err != nil {
			return middleware.EncryptionConfig{}, fmt.Errorf("fallback_keys[%d]: %w", i, err)
		}
		cfg.FallbackKeys = append(cfg.FallbackKeys, key)
	}
	return cfg, nil
}
