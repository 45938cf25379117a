// Package bolt persists session snapshots in a single BoltDB file.
package bolt

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/aretw0/few/pkg/domain"
)

const bucketSessions = "sessions"

// Store implements ports.StateStore on top of bbolt.
// Snapshots are JSON values keyed by session ID in one bucket.
type Store struct {
	db *bolt.DB
}

// Open opens (or creates) the database file at path.
func Open(path string) (*Store, error) {
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open bolt database %s: %w", path, err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(bucketSessions))
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize bolt database: %w", err)
	}
	return &Store{db: db}, nil
}

// Close releases the database file.
func (s *Store) Close() error {
	return s.db.Close()
}

// Save writes the snapshot for sessionID.
func (s *Store) Save(_ context.Context, sessionID string, snap *domain.Snapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(bucketSessions)).Put([]byte(sessionID), data)
	})
}

// Load reads the snapshot for sessionID. Numbers come back as json.Number.
func (s *Store) Load(_ context.Context, sessionID string) (*domain.Snapshot, error) {
	var snap domain.Snapshot
	err := s.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket([]byte(bucketSessions)).Get([]byte(sessionID))
		if v == nil {
			return domain.ErrSessionNotFound
		}
		// v is only valid inside the transaction; Decode consumes it here.
		dec := json.NewDecoder(bytes.NewReader(v))
		dec.UseNumber()
		return dec.Decode(&snap)
	})
	if err != nil {
		return nil, err
	}
	return &snap, nil
}

// Delete removes the snapshot for sessionID. Deleting a missing session is not an error.
func (s *Store) Delete(_ context.Context, sessionID string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(bucketSessions)).Delete([]byte(sessionID))
	})
}

// List returns all session IDs in key order.
func (s *Store) List(_ context.Context) ([]string, error) {
	var ids []string
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(bucketSessions)).ForEach(func(k, _ []byte) error {
			ids = append(ids, string(k))
			return nil
		})
	})
	return ids, err
}
