package middleware

import (
	"net/http"

	"github.com/MrEthical07/cookieauth"
	"github.com/MrEthical07/cookieauth/httpauth"
)

// Gate authenticates requests that carry an access token. Verification
// failures end the request with the engine's status and code; requests
// without a token continue with no principal attached.
func Gate(engine *cookieauth.Engine) func(http.Handler) http.Handler {
	cookieName := engine.Config().Cookie.AccessName
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := httpauth.AccessToken(r, cookieName)
			if token == "" {
				engine.ObserveAnonymous()
				next.ServeHTTP(w, r)
				return
			}

			p, err := engine.Authenticate(r.Context(), token)
			if err != nil {
				httpauth.WriteError(w, err)
				return
			}

			next.ServeHTTP(w, r.WithContext(cookieauth.WithPrincipal(r.Context(), p)))
		})
	}
}

// RequireAuthenticated rejects requests that reach it without a principal.
// Place it after Gate.
func RequireAuthenticated(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := cookieauth.PrincipalFromContext(r.Context()); !ok {
			httpauth.WriteCode(w, http.StatusUnauthorized, "UNAUTHENTICATED", "authentication required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Chain wraps h so that mws[0] runs first.
func Chain(h http.Handler, mws ...func(http.Handler) http.Handler) http.Handler {
	for i := len(mws) - 1; i >= 0; i-- {
		h = mws[i](h)
	}
	return h
}
