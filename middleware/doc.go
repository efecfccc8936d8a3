// Package middleware exposes the HTTP authentication gate for a
// cookieauth.Engine.
//
// # Middleware
//
//   - [Gate] resolves the caller from the access cookie or a Bearer header and
//     attaches the principal to the request context. Requests without a token
//     pass through anonymously.
//   - [RequireAuthenticated] rejects anonymous callers.
//   - [Chain] composes middleware in the order given.
//
// # Architecture boundaries
//
// This package translates HTTP semantics into Engine calls. It does not parse
// tokens, touch Redis, or consult the refresh blacklist: access tokens are
// verified statelessly by Engine.Authenticate.
package middleware
