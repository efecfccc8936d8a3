package flows

import (
	"context"
	"errors"
	"time"

	"github.com/MrEthical07/cookieauth/jwt"
)

type RefreshSessionStore interface {
	SaveRefresh(ctx context.Context, loginID, token string, ttl time.Duration) error
	RotateRefresh(ctx context.Context, loginID, presented, next string, ttl time.Duration) error
}

// RefreshDeps captures refresh flow dependencies.
type RefreshDeps struct {
	Codec             TokenCodec
	Store             RefreshSessionStore
	FindPrincipal     func(ctx context.Context, loginID string) (Principal, error)
	PrincipalNotFound error
	Now               func() time.Time

	AccessTTL  time.Duration
	RefreshTTL time.Duration

	// EnforceBinding requires the presented token to be the one on record and
	// not blacklisted. Without it any verifiable refresh token is reissued.
	EnforceBinding bool

	// Store sentinels.
	RefreshRevoked  error
	RefreshNotFound error
	RefreshMismatch error
}

// RefreshResult carries either the issued token pair or failure metadata.
type RefreshResult struct {
	Failure   FailureKind
	Err       error
	LoginID   string
	Principal Principal
	Pair      TokenPair

	// ReuseDetected is set when a blacklisted or superseded token was presented.
	ReuseDetected bool
}

// RunRefresh exchanges a refresh token for a new pair and overwrites the
// session record.
func RunRefresh(ctx context.Context, refreshToken string, deps RefreshDeps) RefreshResult {
	if refreshToken == "" {
		return RefreshResult{Failure: FailureMissingRefreshToken, Err: errors.New("refresh token missing")}
	}

	claims, err := deps.Codec.Verify(refreshToken, jwt.UseRefresh)
	if err != nil {
		return RefreshResult{Failure: failureFromVerify(err), Err: err}
	}
	loginID := claims.LoginID()

	p, err := deps.FindPrincipal(ctx, loginID)
	if err != nil {
		if deps.PrincipalNotFound != nil && errors.Is(err, deps.PrincipalNotFound) {
			return RefreshResult{Failure: FailureUnknownPrincipal, Err: err, LoginID: loginID}
		}
		return RefreshResult{Failure: FailureInternal, Err: err, LoginID: loginID}
	}
	// The session record is keyed by the token subject.
	p.LoginID = loginID
	if p.Role == "" {
		p.Role = claims.Role
	}

	pair, err := issuePair(deps.Codec, p, deps.Now(), deps.AccessTTL, deps.RefreshTTL)
	if err != nil {
		return RefreshResult{Failure: FailureInternal, Err: err, LoginID: loginID, Principal: p}
	}

	if !deps.EnforceBinding {
		if err := deps.Store.SaveRefresh(ctx, loginID, pair.RefreshToken, deps.RefreshTTL); err != nil {
			return RefreshResult{Failure: FailureStoreUnavailable, Err: err, LoginID: loginID, Principal: p}
		}
		return RefreshResult{LoginID: loginID, Principal: p, Pair: pair}
	}

	if err := deps.Store.RotateRefresh(ctx, loginID, refreshToken, pair.RefreshToken, deps.RefreshTTL); err != nil {
		switch {
		case isAny(err, deps.RefreshRevoked, deps.RefreshMismatch):
			return RefreshResult{Failure: FailureRevokedToken, Err: err, LoginID: loginID, Principal: p, ReuseDetected: true}
		case isAny(err, deps.RefreshNotFound):
			return RefreshResult{Failure: FailureRevokedToken, Err: err, LoginID: loginID, Principal: p}
		default:
			return RefreshResult{Failure: FailureStoreUnavailable, Err: err, LoginID: loginID, Principal: p}
		}
	}

	return RefreshResult{LoginID: loginID, Principal: p, Pair: pair}
}

func isAny(err error, targets ...error) bool {
	for _, t := range targets {
		if t != nil && errors.Is(err, t) {
			return true
		}
	}
	return false
}
