package cookieauth

import (
	"context"
	"net"
	"sync/atomic"
	"testing"

	"github.com/redis/go-redis/v9"
)

// cmdCounter is a go-redis hook counting round-trips: single commands and
// pipeline calls.
type cmdCounter struct {
	commands  atomic.Int64
	pipelines atomic.Int64
}

func (h *cmdCounter) DialHook(next redis.DialHook) redis.DialHook {
	return func(ctx context.Context, network, addr string) (net.Conn, error) {
		return next(ctx, network, addr)
	}
}

func (h *cmdCounter) ProcessHook(next redis.ProcessHook) redis.ProcessHook {
	return func(ctx context.Context, cmd redis.Cmder) error {
		h.commands.Add(1)
		return next(ctx, cmd)
	}
}

func (h *cmdCounter) ProcessPipelineHook(next redis.ProcessPipelineHook) redis.ProcessPipelineHook {
	return func(ctx context.Context, cmds []redis.Cmder) error {
		h.pipelines.Add(1)
		return next(ctx, cmds)
	}
}

func (h *cmdCounter) reset() {
	h.commands.Store(0)
	h.pipelines.Store(0)
}

func newCountedEnv(t *testing.T) (*testEnv, *cmdCounter) {
	t.Helper()
	env := newTestEnv(t, testConfig())
	if err := env.rdb.Ping(context.Background()).Err(); err != nil {
		t.Fatalf("warmup ping: %v", err)
	}
	counter := &cmdCounter{}
	env.rdb.AddHook(counter)
	return env, counter
}

func TestRedisBudgetAuthenticateIsStateless(t *testing.T) {
	env, counter := newCountedEnv(t)
	_, pair := env.login(t)

	counter.reset()
	for i := 0; i < 10; i++ {
		if _, err := env.engine.Authenticate(context.Background(), pair.AccessToken); err != nil {
			t.Fatalf("authenticate: %v", err)
		}
	}
	if n := counter.commands.Load() + counter.pipelines.Load(); n != 0 {
		t.Fatalf("authenticate touched redis %d times", n)
	}
}

func TestRedisBudgetLogin(t *testing.T) {
	env, counter := newCountedEnv(t)

	counter.reset()
	env.login(t)
	// Throttle check, throttle reset, session write.
	if got := counter.commands.Load(); got != 3 {
		t.Fatalf("login used %d commands, want 3", got)
	}
	if got := counter.pipelines.Load(); got != 0 {
		t.Fatalf("login used %d pipelines, want 0", got)
	}
}

func TestRedisBudgetRefresh(t *testing.T) {
	env, counter := newCountedEnv(t)
	ctx := context.Background()
	_, pair := env.login(t)

	// The first run may need EVAL after a NOSCRIPT reply.
	_, next, err := env.engine.Refresh(ctx, pair.RefreshToken)
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}

	counter.reset()
	if _, _, err := env.engine.Refresh(ctx, next.RefreshToken); err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if got := counter.commands.Load(); got != 1 {
		t.Fatalf("refresh used %d commands, want 1 EVALSHA", got)
	}
}

func TestRedisBudgetLogout(t *testing.T) {
	env, counter := newCountedEnv(t)
	_, pair := env.login(t)

	counter.reset()
	if err := env.engine.Logout(context.Background(), pair.AccessToken, pair.RefreshToken); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if got := counter.pipelines.Load(); got != 1 {
		t.Fatalf("logout used %d pipelines, want 1", got)
	}
	if got := counter.commands.Load(); got != 0 {
		t.Fatalf("logout used %d standalone commands, want 0", got)
	}
}
