package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/aretw0/few/pkg/datadef"
	"github.com/aretw0/few/pkg/domain"
)

// Store implements ports.StateStore in memory.
// Safe for concurrent use.
type Store struct {
	data map[string]*domain.Snapshot
	mu   sync.RWMutex
}

// NewStore creates a new in-memory store.
func NewStore() *Store {
	return &Store{
		data: make(map[string]*domain.Snapshot),
	}
}

// Save persists a deep copy of the snapshot, so later store mutations do not leak in.
func (s *Store) Save(ctx context.Context, sessionID string, snap *domain.Snapshot) error {
	copied, err := copySnapshot(snap)
	if err != nil {
		return fmt.Errorf("failed to save session %s: %w", sessionID, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[sessionID] = copied
	return nil
}

// Load retrieves a copy of the snapshot from memory.
func (s *Store) Load(ctx context.Context, sessionID string) (*domain.Snapshot, error) {
	s.mu.RLock()
	snap, ok := s.data[sessionID]
	s.mu.RUnlock()
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	return copySnapshot(snap)
}

// Delete removes the snapshot.
func (s *Store) Delete(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, sessionID)
	return nil
}

// List returns active sessions.
func (s *Store) List(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sessions := make([]string, 0, len(s.data))
	for id := range s.data {
		sessions = append(sessions, id)
	}
	return sessions, nil
}

func copySnapshot(snap *domain.Snapshot) (*domain.Snapshot, error) {
	ret := *snap
	data, err := datadef.Clone(snap.Data)
	if err != nil {
		return nil, err
	}
	ret.Data, _ = data.(domain.Store)
	if snap.Props != nil {
		props, err := datadef.Clone(snap.Props)
		if err != nil {
			return nil, err
		}
		ret.Props, _ = props.(map[string]any)
	}
	return &ret, nil
}
