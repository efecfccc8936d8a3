package cookieauth

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/MrEthical07/cookieauth/password"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

const testPassword = "correct-password-123"

var testSecret = []byte("0123456789abcdef0123456789abcdef")

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func newTestClock() *testClock {
	return &testClock{now: time.Unix(1_700_000_000, 0)}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

type memDirectory struct {
	mu        sync.Mutex
	creds     map[string]Credential
	lookupErr error
	lookups   atomic.Int64
}

func newMemDirectory() *memDirectory {
	return &memDirectory{creds: map[string]Credential{}}
}

func (d *memDirectory) put(c Credential) {
	d.mu.Lock()
	d.creds[c.Principal.LoginID] = c
	d.mu.Unlock()
}

func (d *memDirectory) remove(loginID string) {
	d.mu.Lock()
	delete(d.creds, loginID)
	d.mu.Unlock()
}

func (d *memDirectory) setLookupErr(err error) {
	d.mu.Lock()
	d.lookupErr = err
	d.mu.Unlock()
}

func (d *memDirectory) FindPrincipalByLoginID(_ context.Context, loginID string) (Principal, error) {
	c, err := d.FindCredential(context.Background(), loginID)
	if err != nil {
		return Principal{}, err
	}
	return c.Principal, nil
}

func (d *memDirectory) FindCredential(_ context.Context, identifier string) (Credential, error) {
	d.lookups.Add(1)
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.lookupErr != nil {
		return Credential{}, d.lookupErr
	}
	c, ok := d.creds[identifier]
	if !ok {
		return Credential{}, ErrPrincipalNotFound
	}
	return c, nil
}

func (d *memDirectory) UpdatePasswordHash(_ context.Context, loginID, hash string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	c, ok := d.creds[loginID]
	if !ok {
		return ErrPrincipalNotFound
	}
	c.PasswordHash = hash
	d.creds[loginID] = c
	return nil
}

var errDirectoryDown = errors.New("directory down")

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.JWT.Secret = append([]byte(nil), testSecret...)
	cfg.Password = PasswordConfig{
		Memory:           8 * 1024,
		Time:             1,
		Parallelism:      1,
		SaltLength:       16,
		KeyLength:        32,
		MaxPasswordBytes: 1024,
	}
	cfg.Metrics.Enabled = true
	return cfg
}

func newTestHasher(t testing.TB) *password.Argon2 {
	t.Helper()
	cfg := testConfig().Password
	h, err := password.NewArgon2(password.Config{
		Memory:      cfg.Memory,
		Time:        cfg.Time,
		Parallelism: cfg.Parallelism,
		SaltLength:  cfg.SaltLength,
		KeyLength:   cfg.KeyLength,
	})
	if err != nil {
		t.Fatalf("hasher: %v", err)
	}
	return h
}

func newTestRedis(t testing.TB) (*miniredis.Miniredis, *redis.Client) {
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
	return mr, rdb
}

type testEnv struct {
	engine *Engine
	mr     *miniredis.Miniredis
	rdb    *redis.Client
	dir    *memDirectory
	clock  *testClock
}

// newTestEnv builds an engine over miniredis with alice (id 7, role member)
// registered under testPassword.
func newTestEnv(t testing.TB, cfg Config, opts ...func(*Builder)) *testEnv {
	t.Helper()

	mr, rdb := newTestRedis(t)
	dir := newMemDirectory()
	hash, err := newTestHasher(t).Hash(testPassword)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	dir.put(Credential{
		Principal:    Principal{ID: 7, LoginID: "alice", Role: "member"},
		PasswordHash: hash,
	})

	clock := newTestClock()
	b := New().
		WithConfig(cfg).
		WithRedis(rdb).
		WithDirectory(dir).
		WithClock(clock.Now)
	for _, opt := range opts {
		opt(b)
	}

	engine, err := b.Build()
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	t.Cleanup(engine.Close)

	return &testEnv{engine: engine, mr: mr, rdb: rdb, dir: dir, clock: clock}
}

func (env *testEnv) login(t testing.TB) (Principal, TokenPair) {
	t.Helper()
	p, pair, err := env.engine.Login(context.Background(), "alice", testPassword)
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	return p, pair
}
