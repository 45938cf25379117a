package tests

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/few/pkg/domain"
	"github.com/aretw0/few/pkg/ports"
)

// RunStateStoreContract runs a suite of tests to verify that a StateStore implementation
// adheres to the defined interface contract.
func RunStateStoreContract(t *testing.T, store ports.StateStore) {
	t.Helper()
	ctx := context.Background()
	sessionID := "contract-test-session-" + time.Now().Format("20060102150405")

	newSnapshot := func(id string) *domain.Snapshot {
		return &domain.Snapshot{
			SessionID: id,
			Component: "counter",
			Data:      domain.Store{"value": 3, "name": "few", "tags": []any{"a", "b"}},
			Props:     map[string]any{"step": 1},
			Version:   1,
			UpdatedAt: time.Now(),
		}
	}

	t.Run("Save and Load", func(t *testing.T) {
		snap := newSnapshot(sessionID)

		err := store.Save(ctx, sessionID, snap)
		require.NoError(t, err, "Save should not return error")

		loaded, err := store.Load(ctx, sessionID)
		require.NoError(t, err, "Load should not return error")
		assert.Equal(t, "counter", loaded.Component)
		assert.Equal(t, sessionID, loaded.SessionID)
		assert.Equal(t, "few", loaded.Data["name"])
		assert.Equal(t, int64(1), loaded.Version)
		// Serializing adapters decode numbers as json.Number; only existence is portable.
		assert.NotNil(t, loaded.Data["value"])
		assert.Len(t, loaded.Data["tags"], 2)
	})

	t.Run("Overwrite", func(t *testing.T) {
		snap := newSnapshot(sessionID)
		snap.Version = 2
		snap.Data["name"] = "updated"
		require.NoError(t, store.Save(ctx, sessionID, snap))

		loaded, err := store.Load(ctx, sessionID)
		require.NoError(t, err)
		assert.Equal(t, "updated", loaded.Data["name"])
		assert.Equal(t, int64(2), loaded.Version)
	})

	t.Run("Load Non-Existent", func(t *testing.T) {
		_, err := store.Load(ctx, "non-existent-"+sessionID)
		assert.ErrorIs(t, err, domain.ErrSessionNotFound)
	})

	t.Run("Delete", func(t *testing.T) {
		err := store.Save(ctx, sessionID, newSnapshot(sessionID))
		require.NoError(t, err)

		err = store.Delete(ctx, sessionID)
		require.NoError(t, err, "Delete should not return error")

		_, err = store.Load(ctx, sessionID)
		assert.ErrorIs(t, err, domain.ErrSessionNotFound, "Load after Delete should return ErrSessionNotFound")
	})

	t.Run("List", func(t *testing.T) {
		id1 := sessionID + "-1"
		id2 := sessionID + "-2"
		require.NoError(t, store.Save(ctx, id1, newSnapshot(id1)))
		require.NoError(t, store.Save(ctx, id2, newSnapshot(id2)))

		defer func() {
			_ = store.Delete(ctx, id1)
			_ = store.Delete(ctx, id2)
		}()

		sessions, err := store.List(ctx)
		require.NoError(t, err)
		assert.Contains(t, sessions, id1)
		assert.Contains(t, sessions, id2)
	})
}

// ComponentLoaderContractTest verifies that an adapter complies with ports.ComponentLoader.
// expected lists the component names the loader was seeded with.
func ComponentLoaderContractTest(t *testing.T, loader ports.ComponentLoader, expected []string) {
	t.Helper()
	ctx := context.Background()

	t.Run("GetComponent_Success", func(t *testing.T) {
		for _, name := range expected {
			def, err := loader.GetComponent(ctx, name)
			require.NoError(t, err, "getting %s", name)
			assert.Equal(t, name, def.Name)
		}
	})

	t.Run("GetComponent_NotFound", func(t *testing.T) {
		_, err := loader.GetComponent(ctx, "non_existent_component_12345")
		assert.True(t, errors.Is(err, domain.ErrComponentNotFound), "expected ErrComponentNotFound, got %v", err)
	})

	t.Run("ListComponents", func(t *testing.T) {
		names, err := loader.ListComponents(ctx)
		require.NoError(t, err)
		assert.ElementsMatch(t, expected, names)
	})
}
