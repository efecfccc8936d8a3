package flows

import (
	"context"
	"errors"
	"strings"
	"time"
)

type LoginRateLimiter interface {
	CheckLogin(ctx context.Context, loginID, ip string) error
	IncrementLogin(ctx context.Context, loginID, ip string) error
	ResetLogin(ctx context.Context, loginID string) error
}

type LoginSessionStore interface {
	SaveRefresh(ctx context.Context, loginID, token string, ttl time.Duration) error
}

// LoginDeps captures login flow dependencies.
type LoginDeps struct {
	Codec       TokenCodec
	Store       LoginSessionStore
	RateLimiter LoginRateLimiter

	Match              func(ctx context.Context, identifier, secret string) (Principal, error)
	ClassifyMatchError func(error) FailureKind
	ClientIP           func(context.Context) string
	Now                func() time.Time
	Warn               func(string, ...any)

	AccessTTL  time.Duration
	RefreshTTL time.Duration

	// RateLimited is the limiter sentinel meaning the failure budget is spent.
	RateLimited error
}

// LoginResult carries the issued pair or failure metadata.
type LoginResult struct {
	Failure   FailureKind
	Err       error
	Principal Principal
	Pair      TokenPair
}

// RunLogin verifies credentials, issues a pair and records the refresh session.
// Nothing is written to the store unless every earlier step succeeded.
func RunLogin(ctx context.Context, identifier, secret string, deps LoginDeps) LoginResult {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" || secret == "" {
		return LoginResult{Failure: FailureMalformedRequest, Err: errors.New("identifier and secret are required")}
	}

	ip := ""
	if deps.ClientIP != nil {
		ip = deps.ClientIP(ctx)
	}

	if deps.RateLimiter != nil {
		if err := deps.RateLimiter.CheckLogin(ctx, identifier, ip); err != nil {
			if deps.RateLimited != nil && errors.Is(err, deps.RateLimited) {
				return LoginResult{Failure: FailureAccountLocked, Err: err}
			}
			return LoginResult{Failure: FailureStoreUnavailable, Err: err}
		}
	}

	principal, err := deps.Match(ctx, identifier, secret)
	if err != nil {
		failure := deps.ClassifyMatchError(err)
		if deps.RateLimiter != nil && (failure == FailureBadCredentials || failure == FailureUnknownPrincipal) {
			if incErr := deps.RateLimiter.IncrementLogin(ctx, identifier, ip); incErr != nil {
				return LoginResult{Failure: FailureStoreUnavailable, Err: incErr}
			}
		}
		return LoginResult{Failure: failure, Err: err}
	}
	if principal.LoginID == "" {
		principal.LoginID = identifier
	}

	if deps.RateLimiter != nil {
		if err := deps.RateLimiter.ResetLogin(ctx, identifier); err != nil && deps.Warn != nil {
			deps.Warn("login throttle reset failed", "login_id", identifier, "error", err)
		}
	}

	pair, err := issuePair(deps.Codec, principal, deps.Now(), deps.AccessTTL, deps.RefreshTTL)
	if err != nil {
		return LoginResult{Failure: FailureInternal, Err: err, Principal: principal}
	}

	if err := deps.Store.SaveRefresh(ctx, principal.LoginID, pair.RefreshToken, deps.RefreshTTL); err != nil {
		return LoginResult{Failure: FailureStoreUnavailable, Err: err, Principal: principal}
	}

	return LoginResult{Principal: principal, Pair: pair}
}
