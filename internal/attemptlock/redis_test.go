package attemptlock

import (
	"context"
	"errors"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	"golang.org/x/sync/errgroup"
)

// newRedisLocker connects to REDIS_ADDR and gives each test its own key
// prefix. Tests skip when no server is configured.
func newRedisLocker(t *testing.T, ttl time.Duration, log *zap.Logger) (*Redis, *redis.Client) {
	t.Helper()
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	rdb, err := Dial(ctx, addr, os.Getenv("REDIS_PASSWORD"), 0)
	if err != nil {
		t.Fatalf("dial %s: %v", addr, err)
	}
	t.Cleanup(func() { rdb.Close() })

	l := NewRedis(rdb, ttl, log)
	l.prefix = "exams-test:" + strings.ReplaceAll(t.Name(), "/", "_") + ":"
	t.Cleanup(func() {
		keys, _ := rdb.Keys(context.Background(), l.prefix+"*").Result()
		if len(keys) > 0 {
			rdb.Del(context.Background(), keys...)
		}
	})
	return l, rdb
}

func TestRedisSerializesSameAttempt(t *testing.T) {
	l, _ := newRedisLocker(t, 5*time.Second, nil)
	ctx := context.Background()

	var (
		mu      sync.Mutex
		inside  int
		maxSeen int
		counter int
	)
	var g errgroup.Group
	for i := 0; i < 10; i++ {
		g.Go(func() error {
			unlock, err := l.Lock(ctx, "att-1")
			if err != nil {
				return err
			}
			defer unlock()
			mu.Lock()
			inside++
			if inside > maxSeen {
				maxSeen = inside
			}
			mu.Unlock()

			v := counter
			time.Sleep(2 * time.Millisecond)
			counter = v + 1

			mu.Lock()
			inside--
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		t.Fatal(err)
	}
	if maxSeen != 1 || counter != 10 {
		t.Fatalf("max holders = %d, counter = %d; want 1 and 10", maxSeen, counter)
	}
}

func TestRedisReleaseChecksToken(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	l, rdb := newRedisLocker(t, 100*time.Millisecond, zap.New(core))
	ctx := context.Background()
	key := l.prefix + "att-1"

	releaseFirst, err := l.Lock(ctx, "att-1")
	if err != nil {
		t.Fatal(err)
	}
	time.Sleep(200 * time.Millisecond) // first holder's key expires

	l.ttl = 5 * time.Second
	releaseSecond, err := l.Lock(ctx, "att-1")
	if err != nil {
		t.Fatal(err)
	}

	releaseFirst()
	if n, _ := rdb.Exists(ctx, key).Result(); n != 1 {
		t.Fatalf("stale release deleted the current holder's key")
	}
	if logs.FilterMessage("attempt lock expired before release").Len() != 1 {
		t.Fatalf("stale release not reported: %v", logs.All())
	}

	releaseSecond()
	if n, _ := rdb.Exists(ctx, key).Result(); n != 0 {
		t.Fatalf("key still present after the holder released it")
	}
}

func TestRedisHonoursContext(t *testing.T) {
	l, _ := newRedisLocker(t, 5*time.Second, nil)
	unlock, err := l.Lock(context.Background(), "att-1")
	if err != nil {
		t.Fatal(err)
	}
	defer unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 80*time.Millisecond)
	defer cancel()
	start := time.Now()
	if _, err := l.Lock(ctx, "att-1"); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("err = %v, want deadline exceeded", err)
	}
	if waited := time.Since(start); waited > time.Second {
		t.Fatalf("waited %v after the deadline", waited)
	}

	other, err := l.Lock(context.Background(), "att-2")
	if err != nil {
		t.Fatalf("other attempt blocked: %v", err)
	}
	other()
}
