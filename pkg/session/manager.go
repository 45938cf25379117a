package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/aretw0/few"
	"github.com/aretw0/few/internal/logging"
	"github.com/aretw0/few/pkg/datadef"
	"github.com/aretw0/few/pkg/domain"
	"github.com/aretw0/few/pkg/ports"
)

// lockEntry holds the mutex and the reference count.
type lockEntry struct {
	mu   sync.Mutex
	refs int
}

// instance is a live component and the snapshot version it reflects.
type instance struct {
	component *domain.Component
	version   int64
}

// Result describes the outcome of an operation on a session.
type Result struct {
	// Value is the expression value for Eval, nil otherwise.
	Value any `json:"value,omitempty"`

	// Diff holds the top-level store keys that changed, or nil.
	Diff *domain.StoreDiff `json:"diff,omitempty"`

	// Snapshot is the session state after the operation.
	Snapshot *domain.Snapshot `json:"snapshot"`
}

// Manager orchestrates session access, ensuring safe concurrent operations.
// It uses Reference Counting to garbage collect unused locks.
type Manager struct {
	engine *few.Engine
	store  ports.StateStore

	mu    sync.Mutex            // guards locks
	locks map[string]*lockEntry // per-session locks

	liveMu sync.Mutex
	live   map[string]*instance

	subsMu sync.Mutex
	subs   map[string]map[*subscriber]struct{}

	locker  ports.DistributedLocker
	lockTTL time.Duration
	logger  *slog.Logger
	newID   func() string
}

// Option configures the Manager.
type Option func(*Manager)

// WithLocker enables distributed locking. Cached instances are then checked against the
// stored version on every operation, since another replica may have advanced the session.
func WithLocker(locker ports.DistributedLocker) Option {
	return func(m *Manager) {
		m.locker = locker
	}
}

// WithLockTTL bounds how long a distributed lock is held (30s by default).
func WithLockTTL(ttl time.Duration) Option {
	return func(m *Manager) {
		if ttl > 0 {
			m.lockTTL = ttl
		}
	}
}

// WithLogger configures a logger for the Manager.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		m.logger = logger
	}
}

// WithIDGenerator replaces the session ID generator (random UUIDs by default).
func WithIDGenerator(fn func() string) Option {
	return func(m *Manager) {
		m.newID = fn
	}
}

// NewManager creates a session manager instantiating components through engine and
// persisting them in store.
func NewManager(engine *few.Engine, store ports.StateStore, opts ...Option) *Manager {
	m := &Manager{
		engine:  engine,
		store:   store,
		locks:   make(map[string]*lockEntry),
		live:    make(map[string]*instance),
		subs:    make(map[string]map[*subscriber]struct{}),
		lockTTL: 30 * time.Second,
		logger:  logging.NewNop(),
		newID:   uuid.NewString,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// acquire gets or creates a lock entry and increments its reference count.
// The caller MUST Lock the entry.mu, and then call release(sessionID) after unlocking.
func (m *Manager) acquire(sessionID string) *lockEntry {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[sessionID]
	if !exists {
		entry = &lockEntry{}
		m.locks[sessionID] = entry
	}
	entry.refs++
	return entry
}

// release decrements the reference count and deletes the entry if it reaches zero.
func (m *Manager) release(sessionID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[sessionID]
	if !exists {
		return
	}

	entry.refs--
	if entry.refs <= 0 {
		delete(m.locks, sessionID)
	}
}

// WithLock executes fn while holding the lock for the session.
func (m *Manager) WithLock(ctx context.Context, sessionID string, fn func(context.Context) error) error {
	entry := m.acquire(sessionID)
	entry.mu.Lock()
	defer func() {
		entry.mu.Unlock()
		m.release(sessionID)
	}()

	if m.locker != nil {
		unlock, err := m.locker.Lock(ctx, sessionID, m.lockTTL)
		if err != nil {
			return fmt.Errorf("failed to acquire distributed lock: %w", err)
		}
		defer func() {
			if err := unlock(ctx); err != nil {
				m.logger.Warn("Failed to release distributed lock (will expire via TTL)",
					"session_id", sessionID,
					"err", err,
				)
			}
		}()
	}

	return fn(ctx)
}

// Start instantiates the named component under a new session ID and persists it.
func (m *Manager) Start(ctx context.Context, component string, props map[string]any) (*domain.Snapshot, error) {
	return m.LoadOrStart(ctx, m.newID(), component, props)
}

// LoadOrStart returns the session if it exists, otherwise it instantiates the named
// component under sessionID and persists it. Concurrent calls create the session once.
func (m *Manager) LoadOrStart(ctx context.Context, sessionID, component string, props map[string]any) (*domain.Snapshot, error) {
	var snap *domain.Snapshot
	err := m.WithLock(ctx, sessionID, func(ctx context.Context) error {
		inst, err := m.instance(ctx, sessionID)
		if err == nil {
			snap = m.snapshot(sessionID, inst)
			return nil
		}
		if !errors.Is(err, domain.ErrSessionNotFound) {
			return fmt.Errorf("failed to check session existence: %w", err)
		}

		c, err := m.engine.Load(ctx, component, few.WithInstanceID(sessionID), few.WithProps(props))
		if err != nil {
			return err
		}
		inst = &instance{component: c}
		if snap, err = m.persist(ctx, sessionID, inst); err != nil {
			return fmt.Errorf("failed to initialize session: %w", err)
		}
		m.cache(sessionID, inst)
		m.logger.Debug("session started", "session_id", sessionID, "component", c.Name)
		return nil
	})
	return snap, err
}

// Snapshot returns the current state of the session.
func (m *Manager) Snapshot(ctx context.Context, sessionID string) (*domain.Snapshot, error) {
	var snap *domain.Snapshot
	err := m.WithLock(ctx, sessionID, func(ctx context.Context) error {
		inst, err := m.instance(ctx, sessionID)
		if err != nil {
			return err
		}
		snap = m.snapshot(sessionID, inst)
		return nil
	})
	return snap, err
}

// Component runs fn with exclusive access to the live component of the session.
// Changes fn makes to the store are persisted and published like any other operation.
func (m *Manager) Component(ctx context.Context, sessionID string, fn func(c *domain.Component) error) (*Result, error) {
	return m.mutate(ctx, sessionID, func(c *domain.Component) (any, error) {
		return nil, fn(c)
	})
}

// Invoke runs the named action of the session's component.
func (m *Manager) Invoke(ctx context.Context, sessionID, action string) (*Result, error) {
	res, err := m.mutate(ctx, sessionID, func(c *domain.Component) (any, error) {
		return nil, c.Invoke(action)
	})
	if err == nil {
		m.logger.Debug("action invoked", "session_id", sessionID, "action", action, "changed", res.Diff != nil)
	}
	return res, err
}

// Dispatch applies patch to the session's store.
func (m *Manager) Dispatch(ctx context.Context, sessionID string, patch *domain.Patch) (*Result, error) {
	return m.mutate(ctx, sessionID, func(c *domain.Component) (any, error) {
		return nil, c.Dispatch(domain.Action{Value: patch})
	})
}

// Eval evaluates expression against the session's component. Expressions that invoke
// actions or dispatch change the store like Invoke does.
//
// The value is returned as plain data: functions are left out, and a value that contains
// itself (such as vm) fails with domain.ErrNotSerializable.
func (m *Manager) Eval(ctx context.Context, sessionID, expression string) (*Result, error) {
	return m.mutate(ctx, sessionID, func(c *domain.Component) (any, error) {
		v, err := few.Eval(c, expression)
		if err != nil {
			return nil, err
		}
		return datadef.Plain(v)
	})
}

// Delete removes the session from memory and from the store.
func (m *Manager) Delete(ctx context.Context, sessionID string) error {
	return m.WithLock(ctx, sessionID, func(ctx context.Context) error {
		m.Evict(sessionID)
		return m.store.Delete(ctx, sessionID)
	})
}

// Evict drops the live instance; the next operation restores it from the store.
func (m *Manager) Evict(sessionID string) {
	m.liveMu.Lock()
	delete(m.live, sessionID)
	m.liveMu.Unlock()
}

// List delegates to the store.
func (m *Manager) List(ctx context.Context) ([]string, error) {
	return m.store.List(ctx)
}

// Engine returns the engine sessions are instantiated with.
func (m *Manager) Engine() *few.Engine {
	return m.engine
}

// Store returns the underlying state store.
func (m *Manager) Store() ports.StateStore {
	return m.store
}

// mutate runs fn on the live component and persists and publishes whatever it changed.
// Patches applied before fn failed are kept, so the store is saved even when fn errs.
func (m *Manager) mutate(ctx context.Context, sessionID string, fn func(c *domain.Component) (any, error)) (*Result, error) {
	var res *Result
	err := m.WithLock(ctx, sessionID, func(ctx context.Context) error {
		inst, err := m.instance(ctx, sessionID)
		if err != nil {
			return err
		}

		before, err := datadef.Clone(inst.component.Data)
		if err != nil {
			return fmt.Errorf("session %s: %w", sessionID, err)
		}

		value, fnErr := fn(inst.component)

		res = &Result{Value: value}
		res.Diff = domain.Diff(sessionID, before.(domain.Store), inst.component.Data)
		if res.Diff.IsEmpty() {
			res.Diff = nil
			res.Snapshot = m.snapshot(sessionID, inst)
			return fnErr
		}

		inst.version++
		if res.Snapshot, err = m.persist(ctx, sessionID, inst); err != nil {
			// the store no longer matches what was saved: rebuild from it next time
			m.Evict(sessionID)
			return errors.Join(fnErr, fmt.Errorf("failed to save session %s: %w", sessionID, err))
		}
		m.publish(sessionID, res.Diff)
		return fnErr
	})
	return res, err
}

// instance returns the live instance, restoring it from the store when needed.
// The caller must hold the session lock.
func (m *Manager) instance(ctx context.Context, sessionID string) (*instance, error) {
	m.liveMu.Lock()
	inst := m.live[sessionID]
	m.liveMu.Unlock()

	if inst != nil && m.locker == nil {
		return inst, nil
	}

	snap, err := m.store.Load(ctx, sessionID)
	if err != nil {
		if errors.Is(err, domain.ErrSessionNotFound) {
			m.Evict(sessionID)
		}
		return nil, err
	}
	if inst != nil && inst.version == snap.Version {
		return inst, nil
	}

	def, err := m.engine.Definition(ctx, snap.Component)
	if err != nil {
		return nil, fmt.Errorf("restoring session %s: %w", sessionID, err)
	}
	opts := []few.InstanceOption{few.WithInstanceID(sessionID), few.WithProps(snap.Props)}
	if snap.Data != nil {
		opts = append(opts, few.WithData(snap.Data))
	}
	c, err := m.engine.Instantiate(def, opts...)
	if err != nil {
		return nil, fmt.Errorf("restoring session %s: %w", sessionID, err)
	}

	inst = &instance{component: c, version: snap.Version}
	m.cache(sessionID, inst)
	m.logger.Debug("session restored", "session_id", sessionID, "version", snap.Version)
	return inst, nil
}

func (m *Manager) cache(sessionID string, inst *instance) {
	m.liveMu.Lock()
	m.live[sessionID] = inst
	m.liveMu.Unlock()
}

func (m *Manager) snapshot(sessionID string, inst *instance) *domain.Snapshot {
	snap := domain.NewSnapshot(sessionID, inst.component)
	snap.Version = inst.version
	return snap
}

func (m *Manager) persist(ctx context.Context, sessionID string, inst *instance) (*domain.Snapshot, error) {
	snap := m.snapshot(sessionID, inst)
	if err := m.store.Save(ctx, sessionID, snap); err != nil {
		return nil, err
	}
	return snap, nil
}
