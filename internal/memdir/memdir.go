// Package memdir is an in-memory cookieauth.CredentialDirectory for the
// reference server and tests.
package memdir

import (
	"context"
	"strings"
	"sync"

	"github.com/MrEthical07/cookieauth"
)

type Directory struct {
	mu    sync.RWMutex
	creds map[string]cookieauth.Credential
	err   error
}

func New() *Directory {
	return &Directory{creds: make(map[string]cookieauth.Credential)}
}

// Put adds or replaces the credential keyed by its login id.
func (d *Directory) Put(c cookieauth.Credential) {
	d.mu.Lock()
	d.creds[strings.ToLower(c.Principal.LoginID)] = c
	d.mu.Unlock()
}

func (d *Directory) Remove(loginID string) {
	d.mu.Lock()
	delete(d.creds, strings.ToLower(loginID))
	d.mu.Unlock()
}

// FailWith makes every lookup return err until called again with nil.
func (d *Directory) FailWith(err error) {
	d.mu.Lock()
	d.err = err
	d.mu.Unlock()
}

func (d *Directory) FindCredential(_ context.Context, identifier string) (cookieauth.Credential, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.err != nil {
		return cookieauth.Credential{}, d.err
	}
	c, ok := d.creds[strings.ToLower(identifier)]
	if !ok {
		return cookieauth.Credential{}, cookieauth.ErrPrincipalNotFound
	}
	return c, nil
}

func (d *Directory) FindPrincipalByLoginID(ctx context.Context, loginID string) (cookieauth.Principal, error) {
	c, err := d.FindCredential(ctx, loginID)
	if err != nil {
		return cookieauth.Principal{}, err
	}
	return c.Principal, nil
}

// UpdatePasswordHash replaces the stored hash for loginID.
func (d *Directory) UpdatePasswordHash(_ context.Context, loginID, hash string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	key := strings.ToLower(loginID)
	c, ok := d.creds[key]
	if !ok {
		return cookieauth.ErrPrincipalNotFound
	}
	c.PasswordHash = hash
	d.creds[key] = c
	return nil
}
