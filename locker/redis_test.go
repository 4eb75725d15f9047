package locker

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedis(t *testing.T, ttl time.Duration) (*Redis, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return NewRedisClient(rdb, ttl), mr
}

func TestRedisLockAcquireAndRelease(t *testing.T) {
	r, mr := newTestRedis(t, 10*time.Second)

	unlock, err := r.Lock(context.Background(), "streak:1")
	require.NoError(t, err)
	assert.True(t, mr.Exists(redisKey("streak:1")))
	assert.Equal(t, 10*time.Second, mr.TTL(redisKey("streak:1")))

	unlock()
	assert.False(t, mr.Exists(redisKey("streak:1")))
	unlock()
}

func TestRedisLockContention(t *testing.T) {
	r, _ := newTestRedis(t, 10*time.Second)

	unlock, err := r.Lock(context.Background(), "streak:2")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 80*time.Millisecond)
	defer cancel()
	_, err = r.Lock(ctx, "streak:2")
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	acquired := make(chan func(), 1)
	go func() {
		next, err := r.Lock(context.Background(), "streak:2")
		if assert.NoError(t, err) {
			acquired <- next
		}
	}()
	time.Sleep(50 * time.Millisecond)
	assert.Empty(t, acquired, "second holder must wait")

	unlock()
	select {
	case next := <-acquired:
		next()
	case <-time.After(2 * time.Second):
		t.Fatal("waiter never acquired the released lock")
	}
}

func TestRedisLockReleaseKeepsForeignToken(t *testing.T) {
	r, mr := newTestRedis(t, 10*time.Second)

	stale, err := r.Lock(context.Background(), "streak:3")
	require.NoError(t, err)

	// the first holder's key expires and someone else takes it
	mr.FastForward(11 * time.Second)
	require.False(t, mr.Exists(redisKey("streak:3")))
	fresh, err := r.Lock(context.Background(), "streak:3")
	require.NoError(t, err)
	owner, err := mr.Get(redisKey("streak:3"))
	require.NoError(t, err)

	stale()
	got, err := mr.Get(redisKey("streak:3"))
	require.NoError(t, err)
	assert.Equal(t, owner, got)

	fresh()
	assert.False(t, mr.Exists(redisKey("streak:3")))
}

func TestRedisLockRenewsWhileHeld(t *testing.T) {
	ttl := 300 * time.Millisecond
	r, mr := newTestRedis(t, ttl)

	unlock, err := r.Lock(context.Background(), "streak:4")
	require.NoError(t, err)

	mr.FastForward(200 * time.Millisecond)
	require.Eventually(t, func() bool {
		return mr.TTL(redisKey("streak:4")) > 200*time.Millisecond
	}, 2*time.Second, 20*time.Millisecond)

	unlock()
	assert.False(t, mr.Exists(redisKey("streak:4")))
}
