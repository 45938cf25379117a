package redis_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/few/pkg/adapters/redis"
)

func TestLocker(t *testing.T) {
	mr, client := newClient(t)
	locker := redis.NewLocker(client, "few:")
	ctx := context.Background()

	unlock, err := locker.Lock(ctx, "s1", time.Minute)
	require.NoError(t, err)
	assert.True(t, mr.Exists("few:lock:s1"))

	// a second holder must wait
	waitCtx, cancel := context.WithTimeout(ctx, 150*time.Millisecond)
	defer cancel()
	_, err = locker.Lock(waitCtx, "s1", time.Minute)
	assert.ErrorIs(t, err, redis.ErrLockAcquire)

	require.NoError(t, unlock(ctx))
	assert.False(t, mr.Exists("few:lock:s1"))

	unlock2, err := locker.Lock(ctx, "s1", time.Minute)
	require.NoError(t, err)
	require.NoError(t, unlock2(ctx))
}

func TestLocker_UnlockKeepsForeignLock(t *testing.T) {
	mr, client := newClient(t)
	locker := redis.NewLocker(client, "few:")
	ctx := context.Background()

	unlock, err := locker.Lock(ctx, "s1", time.Second)
	require.NoError(t, err)

	// lock expires and someone else takes it
	mr.FastForward(2 * time.Second)
	other, err := locker.Lock(ctx, "s1", time.Minute)
	require.NoError(t, err)

	require.NoError(t, unlock(ctx))
	assert.True(t, mr.Exists("few:lock:s1"), "stale unlock must not release the new holder's lock")
	require.NoError(t, other(ctx))
}
