package session

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/few"
	"github.com/aretw0/few/pkg/adapters/memory"
	"github.com/aretw0/few/pkg/domain"
)

func TestManager_LockLifecycle(t *testing.T) {
	def := domain.ComponentDefinition{Name: "empty"}
	engine := few.New(few.WithLoader(memory.NewLoader(def)))
	mgr := NewManager(engine, memory.NewStore())
	ctx := context.Background()
	count := 1000

	for i := 0; i < count; i++ {
		sid := fmt.Sprintf("session-%d", i)
		_, err := mgr.LoadOrStart(ctx, sid, "empty", nil)
		require.NoError(t, err)
		require.NoError(t, mgr.Delete(ctx, sid))
	}

	assert.Empty(t, mgr.locks, "locks must be released once no operation holds them")
	assert.Empty(t, mgr.live, "deleted sessions must leave the cache")
}
