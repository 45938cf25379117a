package middleware_test

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/few/pkg/adapters/memory"
	"github.com/aretw0/few/pkg/domain"
	"github.com/aretw0/few/pkg/persistence/middleware"
	contract "github.com/aretw0/few/pkg/ports/tests"
)

func generateKey(t *testing.T) []byte {
	t.Helper()
	k := make([]byte, 32)
	_, err := io.ReadFull(rand.Reader, k)
	require.NoError(t, err)
	return k
}

func newSnapshot(id string) *domain.Snapshot {
	return &domain.Snapshot{
		SessionID: id,
		Component: "profile",
		Data:      domain.Store{"secret": "my-secret-sauce"},
		Props:     map[string]any{"owner": "jdoe"},
		Version:   1,
	}
}

func TestEncryptionMiddleware_Contract(t *testing.T) {
	mw := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: generateKey(t)})
	contract.RunStateStoreContract(t, mw(memory.NewStore()))
}

func TestEncryptionMiddleware_Roundtrip(t *testing.T) {
	underlying := memory.NewStore()
	secure := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: generateKey(t)})(underlying)
	ctx := context.Background()

	require.NoError(t, secure.Save(ctx, "s1", newSnapshot("s1")))

	stored, err := underlying.Load(ctx, "s1")
	require.NoError(t, err)
	assert.NotContains(t, stored.Data, "secret", "data must be hidden")
	assert.Contains(t, stored.Data, "__encrypted__")
	assert.Nil(t, stored.Props, "props must be hidden")
	assert.Equal(t, "profile", stored.Component)

	loaded, err := secure.Load(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "my-secret-sauce", loaded.Data["secret"])
	assert.Equal(t, "jdoe", loaded.Props["owner"])
}

func TestEncryptionMiddleware_KeyRotation(t *testing.T) {
	underlying := memory.NewStore()
	oldKey, newKey := generateKey(t), generateKey(t)
	ctx := context.Background()

	secureOld := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: oldKey})(underlying)
	require.NoError(t, secureOld.Save(ctx, "s1", newSnapshot("s1")))

	secureNew := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{
		ActiveKey:    newKey,
		FallbackKeys: [][]byte{oldKey},
	})(underlying)

	loaded, err := secureNew.Load(ctx, "s1")
	require.NoError(t, err, "fallback key should decrypt")
	assert.Equal(t, "my-secret-sauce", loaded.Data["secret"])

	loaded.Data["secret"] = "rotated"
	require.NoError(t, secureNew.Save(ctx, "s1", loaded))

	_, err = secureOld.Load(ctx, "s1")
	assert.Error(t, err, "old key alone must not read data written with the new key")
}

func TestEncryptionMiddleware_RejectsPlainSnapshot(t *testing.T) {
	underlying := memory.NewStore()
	ctx := context.Background()
	require.NoError(t, underlying.Save(ctx, "s1", newSnapshot("s1")))

	secure := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: generateKey(t)})(underlying)
	_, err := secure.Load(ctx, "s1")
	assert.ErrorContains(t, err, "missing encrypted data envelope")
}

func TestEncryptionMiddleware_InvalidKey(t *testing.T) {
	assert.Panics(t, func() {
		middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: []byte("short-key")})
	})
}

func TestParseKey(t *testing.T) {
	key := generateKey(t)
	got, err := middleware.ParseKey(hex.EncodeToString(key))
	require.NoError(t, err)
	assert.Equal(t, key, got)

	_, err = middleware.ParseKey("zz")
	assert.Error(t, err)

	_, err = middleware.ParseKey("abcd")
	assert.ErrorContains(t, err, "16, 24 or 32 bytes")
}
