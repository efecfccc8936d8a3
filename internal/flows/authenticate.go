package flows

import (
	"context"
	"errors"

	"github.com/MrEthical07/cookieauth/jwt"
)

// AuthenticateDeps captures per-request verification dependencies.
type AuthenticateDeps struct {
	Codec             TokenCodec
	FindPrincipal     func(ctx context.Context, loginID string) (Principal, error)
	PrincipalNotFound error
}

type AuthenticateResult struct {
	Failure   FailureKind
	Err       error
	LoginID   string
	Principal Principal
	Claims    *jwt.Claims
}

// RunAuthenticate verifies an access token and resolves its principal. It never
// touches the session store: access tokens are stateless.
func RunAuthenticate(ctx context.Context, token string, deps AuthenticateDeps) AuthenticateResult {
	claims, err := deps.Codec.Verify(token, jwt.UseAccess)
	if err != nil {
		return AuthenticateResult{Failure: failureFromVerify(err), Err: err}
	}

	p, err := deps.FindPrincipal(ctx, claims.LoginID())
	if err != nil {
		if deps.PrincipalNotFound != nil && errors.Is(err, deps.PrincipalNotFound) {
			return AuthenticateResult{Failure: FailureUnknownPrincipal, Err: err, LoginID: claims.LoginID(), Claims: claims}
		}
		return AuthenticateResult{Failure: FailureInternal, Err: err, LoginID: claims.LoginID(), Claims: claims}
	}
	if p.LoginID == "" {
		p.LoginID = claims.LoginID()
	}
	if p.Role == "" {
		p.Role = claims.Role
	}

	return AuthenticateResult{LoginID: p.LoginID, Principal: p, Claims: claims}
}
