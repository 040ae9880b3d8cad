package lock

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocal_MutualExclusion(t *testing.T) {
	l := NewLocal(0)

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		inside  int
		maxSeen int
	)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock, err := l.Lock(context.Background(), "user:1")
			if !assert.NoError(t, err) {
				return
			}
			defer unlock()

			mu.Lock()
			inside++
			if inside > maxSeen {
				maxSeen = inside
			}
			mu.Unlock()

			time.Sleep(time.Millisecond)

			mu.Lock()
			inside--
			mu.Unlock()
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, maxSeen)
	assert.Equal(t, 0, l.size())
}

func TestLocal_IndependentKeys(t *testing.T) {
	l := NewLocal(0)

	unlock1, err := l.Lock(context.Background(), "user:1")
	require.NoError(t, err)
	defer unlock1()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	unlock2, err := l.Lock(ctx, "user:2")
	require.NoError(t, err)
	unlock2()
}

func TestLocal_Timeout(t *testing.T) {
	l := NewLocal(0)

	unlock, err := l.Lock(context.Background(), "user:1")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = l.Lock(ctx, "user:1")
	assert.ErrorIs(t, err, ErrTimeout)

	unlock()
	unlock()
	assert.Equal(t, 0, l.size())
}

func TestLocal_WaitBound(t *testing.T) {
	l := NewLocal(30 * time.Millisecond)

	unlock, err := l.Lock(context.Background(), "user:1")
	require.NoError(t, err)

	start := time.Now()
	_, err = l.Lock(context.Background(), "user:1")
	assert.ErrorIs(t, err, ErrTimeout)
	assert.Less(t, time.Since(start), time.Second)

	unlock()

	again, err := l.Lock(context.Background(), "user:1")
	require.NoError(t, err)
	again()
	assert.Equal(t, 0, l.size())
}

func TestRedis_Lock(t *testing.T) {
	addr := os.Getenv("ATTENDANCE_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("ATTENDANCE_TEST_REDIS_ADDR not set")
	}

	client, err := Connect(context.Background(), RedisConfig{Addr: addr})
	require.NoError(t, err)
	defer client.Close()

	r := NewRedis(client, time.Second, 100*time.Millisecond)
	key := "test:" + t.Name()

	unlock, err := r.Lock(context.Background(), key)
	require.NoError(t, err)

	_, err = r.Lock(context.Background(), key)
	assert.ErrorIs(t, err, ErrTimeout)

	unlock()

	unlock2, err := r.Lock(context.Background(), key)
	require.NoError(t, err)
	unlock2()
}
