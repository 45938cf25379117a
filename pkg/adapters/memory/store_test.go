package memory_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/few/pkg/adapters/memory"
	"github.com/aretw0/few/pkg/domain"
	contract "github.com/aretw0/few/pkg/ports/tests"
)

func TestMemoryStore_Contract(t *testing.T) {
	store := memory.NewStore()
	contract.RunStateStoreContract(t, store)
}

func TestMemoryStore_Isolation(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	nested := map[string]any{"n": 1}
	snap := &domain.Snapshot{SessionID: "s", Data: domain.Store{"nested": nested}}

	require.NoError(t, store.Save(ctx, "s", snap))
	nested["n"] = 2

	loaded, err := store.Load(ctx, "s")
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"n": 1}, loaded.Data["nested"])

	loaded.Data["nested"].(map[string]any)["n"] = 3
	again, err := store.Load(ctx, "s")
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"n": 1}, again.Data["nested"])
}

func TestMemoryStore_RejectsFunctions(t *testing.T) {
	store := memory.NewStore()
	err := store.Save(context.Background(), "s", &domain.Snapshot{Data: domain.Store{"fn": func() {}}})
	assert.ErrorIs(t, err, domain.ErrNotSerializable)
}
