package cookieauth

import (
	"context"
	"errors"
	"testing"
)

func TestLoginRehashesWeakerPasswordHash(t *testing.T) {
	cfg := testConfig()
	cfg.Password.Time = 2
	env := newTestEnv(t, cfg)
	ctx := context.Background()

	before, _ := env.dir.FindCredential(ctx, "alice")
	env.login(t)
	after, _ := env.dir.FindCredential(ctx, "alice")

	if after.PasswordHash == before.PasswordHash {
		t.Fatal("expected weaker hash to be replaced after login")
	}
	stale, err := env.engine.PasswordHasher().NeedsUpgrade(after.PasswordHash)
	if err != nil || stale {
		t.Fatalf("expected current parameters, stale=%v err=%v", stale, err)
	}
	env.login(t)
}

func TestLoginKeepsCurrentPasswordHash(t *testing.T) {
	env := newTestEnv(t, testConfig())
	ctx := context.Background()

	before, _ := env.dir.FindCredential(ctx, "alice")
	env.login(t)
	after, _ := env.dir.FindCredential(ctx, "alice")
	if after.PasswordHash != before.PasswordHash {
		t.Fatal("hash with current parameters must not be rewritten")
	}
}

func TestFailedLoginNeverRehashes(t *testing.T) {
	cfg := testConfig()
	cfg.Password.Time = 2
	env := newTestEnv(t, cfg)
	ctx := context.Background()

	before, _ := env.dir.FindCredential(ctx, "alice")
	if _, _, err := env.engine.Login(ctx, "alice", "wrong-password"); !errors.Is(err, ErrBadCredentials) {
		t.Fatalf("expected bad credentials, got %v", err)
	}
	after, _ := env.dir.FindCredential(ctx, "alice")
	if after.PasswordHash != before.PasswordHash {
		t.Fatal("failed login must not touch the stored hash")
	}
}
