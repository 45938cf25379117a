package middleware_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/few/pkg/adapters/memory"
	"github.com/aretw0/few/pkg/domain"
	"github.com/aretw0/few/pkg/persistence/middleware"
)

func TestPIIMiddleware_Masking(t *testing.T) {
	underlying := memory.NewStore()
	secure := middleware.NewPIIMiddleware([]string{"password", "ssn"})(underlying)
	ctx := context.Background()

	snap := &domain.Snapshot{
		Component: "signup",
		Data: domain.Store{
			"username":      "jdoe",
			"user_password": "secret123",
			"details": map[string]any{
				"address":    "123 St",
				"ssn_number": "999-99-9999",
			},
			"history": []any{map[string]any{"password": "old"}},
		},
	}

	require.NoError(t, secure.Save(ctx, "pii", snap))

	assert.Equal(t, "secret123", snap.Data["user_password"], "live store must not be modified")
	assert.Equal(t, "999-99-9999", snap.Data["details"].(map[string]any)["ssn_number"])

	stored, err := underlying.Load(ctx, "pii")
	require.NoError(t, err)
	assert.Equal(t, "jdoe", stored.Data["username"])
	assert.Equal(t, middleware.Mask, stored.Data["user_password"])
	assert.Equal(t, middleware.Mask, stored.Data["details"].(map[string]any)["ssn_number"])
	assert.Equal(t, "123 St", stored.Data["details"].(map[string]any)["address"])
	assert.Equal(t, middleware.Mask, stored.Data["history"].([]any)[0].(map[string]any)["password"])
}

func TestChain_OrdersOutermostFirst(t *testing.T) {
	underlying := memory.NewStore()
	key := generateKey(t)
	store := middleware.Chain(underlying,
		middleware.NewPIIMiddleware([]string{"password"}),
		middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: key}),
	)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "s", &domain.Snapshot{Data: domain.Store{"password": "x"}}))

	loaded, err := store.Load(ctx, "s")
	require.NoError(t, err)
	assert.Equal(t, middleware.Mask, loaded.Data["password"], "masking happens before encryption")
}
