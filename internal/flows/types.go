package flows

import (
	"time"

	"github.com/MrEthical07/cookieauth/jwt"
)

// Principal is the authenticated identity attached to a request.
type Principal struct {
	ID      int64
	LoginID string
	Role    string
}

// TokenPair is a freshly issued access/refresh pair.
type TokenPair struct {
	AccessToken      string
	RefreshToken     string
	AccessExpiresAt  time.Time
	RefreshExpiresAt time.Time
}

// FailureKind classifies flow failures for root-level mapping.
type FailureKind int

const (
	FailureNone FailureKind = iota
	FailureMalformedToken
	FailureInvalidSignature
	FailureExpiredToken
	FailureMissingRefreshToken
	FailureUnknownPrincipal
	FailureBadCredentials
	FailureAccountLocked
	FailureMalformedRequest
	FailureStoreUnavailable
	FailureRevokedToken
	FailureInternal
)

// TokenCodec is the subset of *jwt.Manager the flows use.
type TokenCodec interface {
	Issue(loginID, role string, use jwt.TokenUse, expiresAt time.Time) (string, error)
	Verify(token string, use jwt.TokenUse) (*jwt.Claims, error)
	Inspect(token string) (*jwt.Claims, error)
}

func failureFromVerify(err error) FailureKind {
	switch jwt.FailureOf(err) {
	case jwt.FailureExpired:
		return FailureExpiredToken
	case jwt.FailureInvalidSignature:
		return FailureInvalidSignature
	default:
		return FailureMalformedToken
	}
}

func issuePair(codec TokenCodec, p Principal, now time.Time, accessTTL, refreshTTL time.Duration) (TokenPair, error) {
	pair := TokenPair{
		AccessExpiresAt:  now.Add(accessTTL),
		RefreshExpiresAt: now.Add(refreshTTL),
	}
	var err error
	pair.AccessToken, err = codec.Issue(p.LoginID, p.Role, jwt.UseAccess, pair.AccessExpiresAt)
	if err != nil {
		return TokenPair{}, err
	}
	pair.RefreshToken, err = codec.Issue(p.LoginID, p.Role, jwt.UseRefresh, pair.RefreshExpiresAt)
	if err != nil {
		return TokenPair{}, err
	}
	return pair, nil
}
