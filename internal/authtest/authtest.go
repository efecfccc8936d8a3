// Package authtest builds miniredis-backed engines for HTTP-level tests.
package authtest

import (
	"sync"
	"testing"
	"time"

	"github.com/MrEthical07/cookieauth"
	"github.com/MrEthical07/cookieauth/internal/memdir"
	"github.com/MrEthical07/cookieauth/password"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

const Password = "correct-password-123"

// Clock is a manually advanced clock.
type Clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *Clock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

type Env struct {
	Engine *cookieauth.Engine
	Redis  *miniredis.Miniredis
	Client *redis.Client
	Dir    *memdir.Directory
	Clock  *Clock
}

// Config returns a cheap-to-hash configuration with a 32-byte secret.
func Config() cookieauth.Config {
	cfg := cookieauth.DefaultConfig()
	cfg.JWT.Secret = []byte("0123456789abcdef0123456789abcdef")
	cfg.Password.Memory = 8 * 1024
	cfg.Password.Time = 1
	cfg.Password.Parallelism = 1
	cfg.Metrics.Enabled = true
	return cfg
}

// New builds an engine with alice (id 7, role member) registered under Password.
func New(t testing.TB, cfg cookieauth.Config) *Env {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis start: %v", err)
	}
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	hasher, err := password.NewArgon2(password.Config{
		Memory:      cfg.Password.Memory,
		Time:        cfg.Password.Time,
		Parallelism: cfg.Password.Parallelism,
		SaltLength:  cfg.Password.SaltLength,
		KeyLength:   cfg.Password.KeyLength,
	})
	if err != nil {
		t.Fatalf("hasher: %v", err)
	}
	hash, err := hasher.Hash(Password)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}

	dir := memdir.New()
	dir.Put(cookieauth.Credential{
		Principal:    cookieauth.Principal{ID: 7, LoginID: "alice", Role: "member"},
		PasswordHash: hash,
	})

	clock := &Clock{now: time.Unix(1_700_000_000, 0)}
	engine, err := cookieauth.New().
		WithConfig(cfg).
		WithRedis(rdb).
		WithDirectory(dir).
		WithClock(clock.Now).
		Build()
	if err != nil {
		t.Fatalf("build: %v", err)
	}

	t.Cleanup(func() {
		engine.Close()
		rdb.Close()
		mr.Close()
	})

	return &Env{Engine: engine, Redis: mr, Client: rdb, Dir: dir, Clock: clock}
}
