package cookieauth

import (
	"context"
	"errors"
	"log/slog"

	"github.com/MrEthical07/cookieauth/password"
)

type passwordMatcher struct {
	directory CredentialDirectory
	hasher    *password.Argon2
	logger    *slog.Logger
}

// NewPasswordMatcher returns a CredentialMatcher that looks the identifier up
// in dir and checks the secret against the stored Argon2id hash. Unknown
// identifiers still pay for one hash comparison so response timing does not
// reveal which accounts exist.
//
// When dir also implements CredentialUpdater, a successful match against a
// hash made with weaker parameters stores a fresh hash of the secret.
func NewPasswordMatcher(dir CredentialDirectory, hasher *password.Argon2) CredentialMatcher {
	return newPasswordMatcher(dir, hasher, slog.Default())
}

func newPasswordMatcher(dir CredentialDirectory, hasher *password.Argon2, logger *slog.Logger) *passwordMatcher {
	return &passwordMatcher{directory: dir, hasher: hasher, logger: logger}
}

func (m *passwordMatcher) Match(ctx context.Context, identifier, secret string) (Principal, error) {
	cred, err := m.directory.FindCredential(ctx, identifier)
	if err != nil {
		if errors.Is(err, ErrPrincipalNotFound) {
			m.hasher.VerifyDummy(secret)
			return Principal{}, newError(KindUnknownPrincipal, err)
		}
		return Principal{}, newError(KindInternal, err)
	}

	ok, err := m.hasher.Verify(secret, cred.PasswordHash)
	if err != nil {
		if errors.Is(err, password.ErrPasswordTooLong) {
			return Principal{}, ErrBadCredentials
		}
		return Principal{}, newError(KindInternal, err)
	}
	if !ok {
		return Principal{}, ErrBadCredentials
	}
	if cred.Locked {
		return Principal{}, ErrAccountLocked
	}

	m.upgradeHash(ctx, cred, secret)
	return cred.Principal, nil
}

// upgradeHash never fails the login; a hash that cannot be replaced is
// retried on the next successful match.
func (m *passwordMatcher) upgradeHash(ctx context.Context, cred Credential, secret string) {
	updater, ok := m.directory.(CredentialUpdater)
	if !ok {
		return
	}
	stale, err := m.hasher.NeedsUpgrade(cred.PasswordHash)
	if err != nil || !stale {
		return
	}
	hash, err := m.hasher.Hash(secret)
	if err != nil {
		m.logger.WarnContext(ctx, "password rehash failed", "login_id", cred.Principal.LoginID, "error", err)
		return
	}
	if err := updater.UpdatePasswordHash(ctx, cred.Principal.LoginID, hash); err != nil {
		m.logger.WarnContext(ctx, "password rehash not stored", "login_id", cred.Principal.LoginID, "error", err)
	}
}
