package flows

import (
	"context"
	"errors"
	"time"
)

type LogoutSessionStore interface {
	CurrentRefresh(ctx context.Context, loginID string) (string, error)
	EndSession(ctx context.Context, loginID, refreshToken string, ttl time.Duration) error
}

// LogoutDeps captures logout flow dependencies.
type LogoutDeps struct {
	Codec    TokenCodec
	Store    LogoutSessionStore
	Now      func() time.Time
	NotFound error
}

type LogoutResult struct {
	Failure FailureKind
	Err     error
	LoginID string
	// Revoked reports whether a refresh token was blacklisted.
	Revoked bool
}

// RunLogout ends the server-side session for whoever the presented tokens
// identify. Tokens are inspected without expiry checks, but a forged signature
// never yields a login id. Missing state is success.
func RunLogout(ctx context.Context, accessToken, refreshToken string, deps LogoutDeps) LogoutResult {
	loginID := ""
	if accessToken != "" {
		if claims, err := deps.Codec.Inspect(accessToken); err == nil {
			loginID = claims.LoginID()
		}
	}

	var refreshExp time.Time
	presented := ""
	if refreshToken != "" {
		if claims, err := deps.Codec.Inspect(refreshToken); err == nil {
			if loginID == "" {
				loginID = claims.LoginID()
			}
			// Only revoke a refresh token belonging to the same principal.
			if claims.LoginID() == loginID {
				presented = refreshToken
				refreshExp = claims.ExpiresAtTime()
			}
		}
	}

	if loginID == "" {
		return LogoutResult{}
	}

	if presented == "" {
		stored, err := deps.Store.CurrentRefresh(ctx, loginID)
		switch {
		case err == nil:
			presented = stored
			if claims, inspectErr := deps.Codec.Inspect(stored); inspectErr == nil {
				refreshExp = claims.ExpiresAtTime()
			}
		case deps.NotFound != nil && errors.Is(err, deps.NotFound):
		default:
			return LogoutResult{Failure: FailureStoreUnavailable, Err: err, LoginID: loginID}
		}
	}

	var ttl time.Duration
	if presented != "" && !refreshExp.IsZero() {
		ttl = refreshExp.Sub(deps.Now())
	}

	if err := deps.Store.EndSession(ctx, loginID, presented, ttl); err != nil {
		return LogoutResult{Failure: FailureStoreUnavailable, Err: err, LoginID: loginID}
	}

	return LogoutResult{LoginID: loginID, Revoked: presented != "" && ttl > 0}
}
