package lock

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func TestKeyedMutexSerialisesSameKey(t *testing.T) {
	km := NewKeyedMutex()
	var inside, maxInside atomic.Int32
	var wg sync.WaitGroup

	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock, err := km.Acquire(context.Background(), "deal-1")
			if err != nil {
				t.Errorf("acquire: %v", err)
				return
			}
			n := inside.Add(1)
			for {
				m := maxInside.Load()
				if n <= m || maxInside.CompareAndSwap(m, n) {
					break
				}
			}
			time.Sleep(time.Millisecond)
			inside.Add(-1)
			_ = unlock(context.Background())
		}()
	}
	wg.Wait()

	if maxInside.Load() != 1 {
		t.Fatalf("expected at most one holder, saw %d", maxInside.Load())
	}
	if km.Len() != 0 {
		t.Fatalf("expected entries to be cleaned up, got %d", km.Len())
	}
}

func TestKeyedMutexIndependentKeys(t *testing.T) {
	km := NewKeyedMutex()
	unlockA, err := km.Acquire(context.Background(), "a")
	if err != nil {
		t.Fatalf("acquire a: %v", err)
	}
	defer unlockA(context.Background())

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	unlockB, err := km.Acquire(ctx, "b")
	if err != nil {
		t.Fatalf("expected b to be free: %v", err)
	}
	_ = unlockB(context.Background())
}

func TestKeyedMutexHonoursContext(t *testing.T) {
	km := NewKeyedMutex()
	unlock, _ := km.Acquire(context.Background(), "a")
	defer unlock(context.Background())

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if _, err := km.Acquire(ctx, "a"); !errors.Is(err, ErrNotAcquired) {
		t.Fatalf("expected ErrNotAcquired, got %v", err)
	}
}

func newRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestRedisLockerExclusive(t *testing.T) {
	mr, client := newRedis(t)
	locker := NewRedisLocker(client, 5*time.Second, WithRetryInterval(5*time.Millisecond))

	unlock, err := locker.Acquire(context.Background(), "deal-1")
	if err != nil {
		t.Fatalf("acquire: %v", err)
	}
	if !mr.Exists("dealflow:lock:deal-1") {
		t.Fatal("expected lock key in redis")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()
	if _, err := locker.Acquire(ctx, "deal-1"); !errors.Is(err, ErrNotAcquired) {
		t.Fatalf("expected ErrNotAcquired while held, got %v", err)
	}

	if err := unlock(context.Background()); err != nil {
		t.Fatalf("unlock: %v", err)
	}
	if mr.Exists("dealflow:lock:deal-1") {
		t.Fatal("expected lock key to be removed")
	}

	unlock, err = locker.Acquire(context.Background(), "deal-1")
	if err != nil {
		t.Fatalf("re-acquire: %v", err)
	}
	_ = unlock(context.Background())
}

func TestRedisLockerExpires(t *testing.T) {
	mr, client := newRedis(t)
	locker := NewRedisLocker(client, time.Second, WithRetryInterval(5*time.Millisecond))

	if _, err := locker.Acquire(context.Background(), "deal-2"); err != nil {
		t.Fatalf("acquire: %v", err)
	}
	mr.FastForward(2 * time.Second)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	unlock, err := locker.Acquire(ctx, "deal-2")
	if err != nil {
		t.Fatalf("expected expired lock to be re-acquirable: %v", err)
	}
	_ = unlock(context.Background())
}

func TestRedisLockerReleaseKeepsForeignToken(t *testing.T) {
	mr, client := newRedis(t)
	locker := NewRedisLocker(client, time.Second, WithKeyPrefix("test:"))

	unlock, err := locker.Acquire(context.Background(), "deal-3")
	if err != nil {
		t.Fatalf("acquire: %v", err)
	}
	mr.FastForward(2 * time.Second)
	if err := mr.Set("test:deal-3", "someone-else"); err != nil {
		t.Fatalf("set: %v", err)
	}

	if err := unlock(context.Background()); err != nil {
		t.Fatalf("unlock: %v", err)
	}
	if got, _ := mr.Get("test:deal-3"); got != "someone-else" {
		t.Fatalf("expected foreign lock to survive, got %q", got)
	}
}
