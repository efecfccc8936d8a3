package memdir

import (
	"context"
	"errors"
	"testing"

	"github.com/MrEthical07/cookieauth"
)

func TestDirectoryLookup(t *testing.T) {
	d := New()
	d.Put(cookieauth.Credential{Principal: cookieauth.Principal{ID: 1, LoginID: "Alice", Role: "admin"}, PasswordHash: "h"})
	ctx := context.Background()

	p, err := d.FindPrincipalByLoginID(ctx, "alice")
	if err != nil || p.ID != 1 || p.Role != "admin" {
		t.Fatalf("unexpected lookup %+v %v", p, err)
	}
	c, err := d.FindCredential(ctx, "ALICE")
	if err != nil || c.PasswordHash != "h" {
		t.Fatalf("unexpected credential %+v %v", c, err)
	}

	d.Remove("alice")
	if _, err := d.FindPrincipalByLoginID(ctx, "alice"); !errors.Is(err, cookieauth.ErrPrincipalNotFound) {
		t.Fatalf("expected ErrPrincipalNotFound, got %v", err)
	}

	boom := errors.New("boom")
	d.FailWith(boom)
	if _, err := d.FindCredential(ctx, "alice"); !errors.Is(err, boom) {
		t.Fatalf("expected injected failure, got %v", err)
	}
}

func TestUpdatePasswordHash(t *testing.T) {
	d := New()
	d.Put(cookieauth.Credential{Principal: cookieauth.Principal{ID: 1, LoginID: "Alice"}, PasswordHash: "old"})
	ctx := context.Background()

	if err := d.UpdatePasswordHash(ctx, "alice", "new"); err != nil {
		t.Fatalf("update: %v", err)
	}
	c, err := d.FindCredential(ctx, "ALICE")
	if err != nil || c.PasswordHash != "new" || c.Principal.ID != 1 {
		t.Fatalf("unexpected credential %+v %v", c, err)
	}
	if err := d.UpdatePasswordHash(ctx, "bob", "x"); !errors.Is(err, cookieauth.ErrPrincipalNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}
