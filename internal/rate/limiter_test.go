package rate

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newLimiterTest(t *testing.T, cfg Config) (*Limiter, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis start: %v", err)
	}
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		rdb.Close()
		mr.Close()
	})
	return New(rdb, cfg), mr
}

func TestLoginLockoutAfterMaxFailures(t *testing.T) {
	l, mr := newLimiterTest(t, Config{MaxLoginAttempts: 3, LockoutWindow: time.Minute})
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if err := l.CheckLogin(ctx, "alice", ""); err != nil {
			t.Fatalf("attempt %d: unexpected check error %v", i, err)
		}
		if err := l.IncrementLogin(ctx, "alice", ""); err != nil {
			t.Fatalf("attempt %d: increment: %v", i, err)
		}
	}
	if err := l.CheckLogin(ctx, "alice", ""); !errors.Is(err, ErrRateLimited) {
		t.Fatalf("expected lockout, got %v", err)
	}
	if n, err := l.LoginAttempts(ctx, "alice"); err != nil || n != 3 {
		t.Fatalf("expected 3 attempts, got %d %v", n, err)
	}
	if err := l.CheckLogin(ctx, "bob", ""); err != nil {
		t.Fatalf("other principal must not be locked: %v", err)
	}

	mr.FastForward(2 * time.Minute)
	if err := l.CheckLogin(ctx, "alice", ""); err != nil {
		t.Fatalf("expected window to expire, got %v", err)
	}
}

func TestResetLoginClearsCounter(t *testing.T) {
	l, _ := newLimiterTest(t, Config{MaxLoginAttempts: 1, LockoutWindow: time.Minute})
	ctx := context.Background()

	if err := l.IncrementLogin(ctx, "alice", ""); err != nil {
		t.Fatalf("increment: %v", err)
	}
	if err := l.CheckLogin(ctx, "alice", ""); !errors.Is(err, ErrRateLimited) {
		t.Fatalf("expected lockout, got %v", err)
	}
	if err := l.ResetLogin(ctx, "alice"); err != nil {
		t.Fatalf("reset: %v", err)
	}
	if err := l.CheckLogin(ctx, "alice", ""); err != nil {
		t.Fatalf("expected reset to unlock, got %v", err)
	}
}

func TestIPThrottle(t *testing.T) {
	l, mr := newLimiterTest(t, Config{Prefix: "ca:", EnableIPThrottle: true, MaxLoginAttempts: 2, LockoutWindow: time.Minute})
	ctx := context.Background()

	if err := l.IncrementLogin(ctx, "alice", "10.0.0.1"); err != nil {
		t.Fatalf("increment: %v", err)
	}
	if err := l.IncrementLogin(ctx, "bob", "10.0.0.1"); err != nil {
		t.Fatalf("increment: %v", err)
	}
	if err := l.CheckLogin(ctx, "carol", "10.0.0.1"); !errors.Is(err, ErrRateLimited) {
		t.Fatalf("expected IP lockout, got %v", err)
	}
	if !mr.Exists("ca:throttle:ip:10.0.0.1:fails") {
		t.Fatal("expected prefixed IP counter")
	}
	if ttl := mr.TTL("ca:throttle:login:alice:fails"); ttl != time.Minute {
		t.Fatalf("unexpected window ttl %v", ttl)
	}
}

func TestLimiterRedisUnavailable(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis start: %v", err)
	}
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	defer rdb.Close()
	mr.Close()

	l := New(rdb, Config{MaxLoginAttempts: 3, LockoutWindow: time.Minute})
	if err := l.CheckLogin(context.Background(), "alice", ""); !errors.Is(err, ErrRedisUnavailable) {
		t.Fatalf("expected ErrRedisUnavailable, got %v", err)
	}
	if err := l.IncrementLogin(context.Background(), "alice", ""); !errors.Is(err, ErrRedisUnavailable) {
		t.Fatalf("expected ErrRedisUnavailable, got %v", err)
	}
}

func TestCorruptCounterOmitsStoredValue(t *testing.T) {
	l, mr := newLimiterTest(t, Config{MaxLoginAttempts: 3, LockoutWindow: time.Minute})
	ctx := context.Background()
	const stored = "eyJhbGciOiJIUzI1NiJ9.payload.sig"
	if err := mr.Set("throttle:login:alice:fails", stored); err != nil {
		t.Fatalf("seed: %v", err)
	}

	err := l.CheckLogin(ctx, "alice", "")
	if !errors.Is(err, ErrCorruptCounter) || !errors.Is(err, ErrRedisUnavailable) {
		t.Fatalf("expected corrupt counter error, got %v", err)
	}
	if strings.Contains(err.Error(), stored) {
		t.Fatal("error text carries the stored value")
	}
	if _, err := l.LoginAttempts(ctx, "alice"); !errors.Is(err, ErrCorruptCounter) {
		t.Fatalf("expected corrupt counter error, got %v", err)
	}
}

func TestKeysNeverCollideWithSessionRecords(t *testing.T) {
	l, mr := newLimiterTest(t, Config{EnableIPThrottle: true, MaxLoginAttempts: 3, LockoutWindow: time.Minute})
	ctx := context.Background()
	if err := mr.Set("login:refresh", "session-record"); err != nil {
		t.Fatalf("seed: %v", err)
	}

	if err := l.IncrementLogin(ctx, "refresh", "refresh"); err != nil {
		t.Fatalf("increment: %v", err)
	}
	if err := l.CheckLogin(ctx, "refresh", "refresh"); err != nil {
		t.Fatalf("check: %v", err)
	}
	for _, key := range mr.Keys() {
		if key != "login:refresh" && strings.HasSuffix(key, ":refresh") {
			t.Fatalf("throttle key %q ends like a session record", key)
		}
	}
	if got, _ := mr.Get("login:refresh"); got != "session-record" {
		t.Fatalf("session record modified: %q", got)
	}
}
